package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/calcgrid/internal/app"
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

// stringList collects repeated flag occurrences.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("calcgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
calcgrid - A reactive dependency-graph evaluator for declared computers.

Usage:
  calcgrid [options] [DECL_PATH]

Arguments:
  DECL_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	declFlag := flagSet.String("decls", "", "Path to the declaration file or directory.")
	dFlag := flagSet.String("d", "", "Path to the declaration file or directory (shorthand).")
	var setFlags stringList
	flagSet.Var(&setFlags, "set", "Input assignment computer.input=value, committed as one frame. Repeatable.")
	eventFlag := flagSet.String("event", "", "Event computer.event to apply after assignments.")
	payloadFlag := flagSet.String("payload", "", "JSON payload for -event.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *declFlag != "" {
		path = *declFlag
	} else if *dFlag != "" {
		path = *dFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Declaration path determined.", "path", path)

	if path == "" {
		slog.Debug("No declaration path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *payloadFlag != "" && *eventFlag == "" {
		return nil, false, &ExitError{Code: 2, Message: "-payload requires -event"}
	}
	slog.Debug("CLI parameter validation complete.")

	return &app.Config{
		DeclPath:  path,
		Sets:      setFlags,
		Event:     *eventFlag,
		Payload:   *payloadFlag,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	}, false, nil
}
