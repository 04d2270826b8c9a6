// Command hamlog reads ADIF contact logs and signs them for upload.
package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
)

// CLI is the hamlog command line.
type CLI struct {
	Config  string `help:"Path to config file (default: $XDG_CONFIG_HOME/hamlog/config.toml)" short:"c" type:"path"`
	Verbose int    `help:"Increase log verbosity (-v info, -vv debug)" short:"v" type:"counter"`

	Certificate string `help:"Certificate file (.p12, .pfx or PEM)" type:"path"`
	KeyFile     string `help:"PEM private key or TQSL key file, for PEM certificates" type:"path"`
	Callsign    string `help:"Station callsign to select from a TQSL key file"`

	Dump     DumpCmd     `cmd:"" help:"Print the header and fields of an ADIF file."`
	Contacts ContactsCmd `cmd:"" help:"Decode the contacts of an N1MM+ ADIF export."`
	Sign     SignCmd     `cmd:"" help:"Sign the contacts of an N1MM+ ADIF export as GABBI records."`
	Verify   VerifyCmd   `cmd:"" help:"Verify the signatures of a GABBI file."`
}

// runContext is bound into every command's Run method.
type runContext struct {
	cfg    config
	logger *slog.Logger
	out    io.Writer
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("hamlog"),
		kong.Description("Decode, sign and verify amateur radio contact logs."),
		kong.UsageOnError(),
	)

	cfg, err := loadConfig(cli.Config)
	kctx.FatalIfErrorf(err)
	cfg.override(cli.Certificate, cli.KeyFile, cli.Callsign)

	logger := newLogger(os.Stderr, logLevel(cli.Verbose, cfg.LogLevel))
	err = kctx.Run(&runContext{cfg: cfg, logger: logger, out: os.Stdout})
	if err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}

// logLevel picks the level from the -v count, falling back to the
// configured level when no -v was given.
func logLevel(verbose int, configured slog.Level) slog.Level {
	switch {
	case verbose >= 2:
		return slog.LevelDebug
	case verbose == 1:
		return min(configured, slog.LevelInfo)
	}
	return configured
}
