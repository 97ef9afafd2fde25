package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/rfcdiscuss/internal/flagx"
)

// FlagNames lists the flags parseFlags owns. Everything else in the
// argument list belongs to the caller.
var FlagNames = []string{"-b", "-d", "-s", "-r", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-b string   database driver ("sqlite" or "postgres")
//	-d string   database DSN
//	-s string   session token HMAC secret key
//	-r int      session validity, minutes
//	-l string   log level
//
// Only the flags above are picked out of args with flagx.FilterArgs, so
// command words and config file flags do not trip the parser.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, FlagNames)

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.DatabaseDriver, "b", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionValidity := fs.Int("r", int(config.SessionValidityDuration.Minutes()), "session validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
	return nil
}
