// Package cli implements rfcctl, the operator command line for the
// rfcdiscuss core. Every command opens the configured store through
// server.NewApp, so the schema is brought up to date before anything else
// runs. It also stands in for the mail channel by printing issued codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dmitrijs2005/rfcdiscuss/internal/flagx"
	"github.com/dmitrijs2005/rfcdiscuss/internal/logging"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server"
	"github.com/dmitrijs2005/rfcdiscuss/internal/server/config"
	"github.com/google/uuid"
)

// ErrUsage is returned for unknown commands and wrong argument counts.
var ErrUsage = errors.New("usage error")

// newServerApp is a seam for tests.
var newServerApp = server.NewApp

type App struct {
	out    io.Writer
	errOut io.Writer
}

// NewApp returns an App printing results to out and logs and prompts to
// errOut.
func NewApp(out, errOut io.Writer) *App {
	return &App{out: out, errOut: errOut}
}

// Run executes one command. args are the process arguments without the
// program name; configuration flags may appear anywhere among them.
func (a *App) Run(ctx context.Context, args []string) error {
	words := flagx.Positional(args, append(append([]string{}, config.FlagNames...), flagx.ConfigFileFlagNames...))
	if len(words) == 0 || words[0] == "help" {
		a.usage()
		if len(words) == 0 {
			return ErrUsage
		}
		return nil
	}

	cmd, ok := commands[words[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, words[0])
	}
	operands := words[1:]
	if len(operands) < cmd.minArgs || (cmd.maxArgs >= 0 && len(operands) > cmd.maxArgs) {
		return fmt.Errorf("%w: %s %s", ErrUsage, words[0], cmd.usage)
	}

	cfg, err := config.LoadConfig(args)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.NewJSON(a.errOut, level).With("run_id", uuid.NewString(), "command", words[0])

	srv, err := newServerApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := srv.Close(); cerr != nil {
			logger.Warn(ctx, "closing store failed", "error", cerr)
		}
	}()

	if err := cmd.run(ctx, a, srv, operands); err != nil {
		logger.Error(ctx, "command failed", "error", err)
		return err
	}
	return nil
}

func (a *App) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("usage: rfcctl [-c config.json] [-b driver] [-d dsn] [-s secret] [-r minutes] [-l level] <command>\n\ncommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-14s %s\n", name, commands[name].usage)
	}
	fmt.Fprint(a.errOut, b.String())
}
