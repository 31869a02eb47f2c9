package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/stategrid/internal/app"
	"github.com/specialistvlad/stategrid/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("stategrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
StateGrid - A reactive state-variable engine for interactive documents.

Usage:
  stategrid [options] DOC_PATH...

Arguments:
  DOC_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	var sets []app.Assignment
	flagSet.Func("set", "Request an update, as name.variable=EXPR. Repeatable; applied in order.", func(s string) error {
		a, err := app.ParseAssignment(s)
		if err != nil {
			return err
		}
		sets = append(sets, a)
		return nil
	})
	configFlag := flagSet.String("config", "", "Path to a YAML settings file.")
	seedFlag := flagSet.Uint64("seed", 0, "Seed of the random selection sampler.")
	atomicFlag := flagSet.Bool("atomic", true, "Roll back every write of a rejected update.")
	outputFlag := flagSet.String("output", "text", "Result format. Options: 'text' or 'json'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFileFlag := flagSet.String("log-file", "", "Also append log records to this file.")
	eventsURLFlag := flagSet.String("events-url", "", "socket.io endpoint receiving interaction events.")
	eventsNamespaceFlag := flagSet.String("events-namespace", "/", "socket.io namespace of the events endpoint.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No document path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	settings := config.Default()
	if *configFlag != "" {
		loaded, err := config.Load(*configFlag)
		if err != nil {
			return nil, false, usageError("%s", err.Error())
		}
		settings = loaded
	}

	// Flags given on the command line win over the settings file.
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			settings.Seed = *seedFlag
		case "atomic":
			settings.Atomic = *atomicFlag
		case "output":
			settings.Output = strings.ToLower(*outputFlag)
		case "log-format":
			settings.Log.Format = strings.ToLower(*logFormatFlag)
		case "log-level":
			settings.Log.Level = strings.ToLower(*logLevelFlag)
		case "log-file":
			settings.Log.File = *logFileFlag
		case "events-url":
			settings.Events.URL = *eventsURLFlag
		case "events-namespace":
			settings.Events.Namespace = *eventsNamespaceFlag
		}
	})
	slog.Debug("Settings merged.", "config_file", *configFlag)

	cfg, err := app.NewConfig(app.Config{
		DocPaths: flagSet.Args(),
		Sets:     sets,
		Settings: settings,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "paths", cfg.DocPaths, "updates", len(cfg.Sets))
	return cfg, false, nil
}
