package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/radiolabme/hamlog"
	"github.com/radiolabme/hamlog/adif"
	"github.com/radiolabme/hamlog/contact"
	"github.com/radiolabme/hamlog/gabbi"
)

// DumpCmd prints every field of every record.
type DumpCmd struct {
	File string `arg:"" help:"ADIF file to read." type:"existingfile"`
}

func (c *DumpCmd) Run(rc *runContext) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	r, err := adif.NewReader(string(data))
	if err != nil {
		return fmt.Errorf("failed to read ADIF: %w", err)
	}

	if _, ok := r.Header(); ok {
		fields, err := r.HeaderFields()
		if err != nil {
			return fmt.Errorf("header: %w", err)
		}
		fmt.Fprintln(rc.out, "header")
		writeFields(rc.out, fields)
	}

	n := 0
	for fields, err := range adif.Deserialize[adif.Fields](r).All() {
		if err != nil {
			return fmt.Errorf("record %d: %w", n+1, err)
		}
		n++
		fmt.Fprintf(rc.out, "record %d\n", n)
		writeFields(rc.out, fields)
	}
	rc.logger.Info("dumped records", "file", c.File, "count", n)
	return nil
}

func writeFields(w io.Writer, fields adif.Fields) {
	for _, f := range fields {
		if f.Type != 0 {
			fmt.Fprintf(w, "  %s:%c = %q\n", f.Name, f.Type, f.Value)
		} else {
			fmt.Fprintf(w, "  %s = %q\n", f.Name, f.Value)
		}
	}
}

// ContactsCmd lists the contacts of an N1MM+ export.
type ContactsCmd struct {
	File string `arg:"" help:"N1MM+ ADIF export." type:"existingfile"`
}

func (c *ContactsCmd) Run(rc *runContext) error {
	contacts, err := loadContacts(rc, c.File)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(rc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tSENT\tRECV\tBAND\tMODE\tFREQ")
	for _, ct := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			ct.ID, ct.Timestamp.Format(time.RFC3339), ct.SentCallsign, ct.RecvCallsign,
			ct.Band, ct.Mode, ct.FreqTX)
	}
	return tw.Flush()
}

func loadContacts(rc *runContext, path string) ([]contact.Contact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	loader := &contact.Loader{Logger: rc.logger}
	return loader.Load(string(data))
}

// SignCmd signs contacts and writes them as GABBI records.
type SignCmd struct {
	File   string `arg:"" help:"N1MM+ ADIF export." type:"existingfile"`
	Output string `help:"Write GABBI output to this file instead of stdout." short:"o" type:"path"`
}

func (c *SignCmd) Run(rc *runContext) (err error) {
	signer, err := newSigner(rc.cfg)
	if err != nil {
		return err
	}
	contacts, err := loadContacts(rc, c.File)
	if err != nil {
		return err
	}

	out := rc.out
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		out = f
	}

	enc := gabbi.NewEncoder(out)
	cert := signer.Certificate()
	if err := enc.WriteHeader(fmt.Sprintf("hamlog signed log\nCertificate: %s (serial %s)",
		cert.Subject.CommonName, cert.SerialNumber)); err != nil {
		return err
	}
	for _, ct := range contacts {
		rec, err := signer.SignContact(ct)
		if err != nil {
			return err
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
		rc.logger.Debug("signed contact", "id", ct.ID, "call", ct.RecvCallsign)
	}
	rc.logger.Info("signed contacts", "count", len(contacts))
	return nil
}

// VerifyCmd checks every signed contact record of a GABBI file.
type VerifyCmd struct {
	File string `arg:"" help:"GABBI file to verify." type:"existingfile"`
}

var errVerifyFailed = errors.New("some records failed verification")

func (c *VerifyCmd) Run(rc *runContext) error {
	cert, _, err := loadCredentials(rc.cfg)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	dec, err := gabbi.NewDecoder(string(data))
	if err != nil {
		return err
	}

	var ok, failed int
	for n := 1; ; n++ {
		rec, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
		if rec.RecType() != gabbi.RecTypeContact {
			continue
		}
		call, _ := rec.Get("CALL")
		if err := hamlog.VerifyRecord(cert, rec); err != nil {
			failed++
			rc.logger.Warn("verification failed", "record", n, "call", call, "error", err)
			fmt.Fprintf(rc.out, "FAIL %d %s: %v\n", n, strings.ToUpper(call), err)
			continue
		}
		ok++
		fmt.Fprintf(rc.out, "OK   %d %s\n", n, strings.ToUpper(call))
	}
	rc.logger.Info("verified records", "ok", ok, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errVerifyFailed, failed, ok+failed)
	}
	return nil
}
