package cli

import (
	"fmt"
	"io"

	"github.com/okian/topsis/pkg/logger"
)

// SetupLogging routes the global logger to w, at debug level when verbose.
// Stdout is left to the result so that -out - can be piped.
func SetupLogging(w io.Writer, verbose bool) error {
	if err := logger.Init(logger.WithOutput(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// ShowHelp prints usage information for the topsis command.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `TOPSIS
======

Ranks the rows of a table by their closeness to the ideal solution.

Usage:
  topsis -in <file> -weights <w1,w2,...> -impacts <+,-,...> -out <file> [options]

Options:
  -in string
        Input table, .csv or .xlsx. The first column identifies each row.
  -weights string
        Comma-separated positive weights, one per criterion
  -impacts string
        Comma-separated impacts, one per criterion: + (or max) and - (or min)
  -out string
        Result CSV path, or - for stdout
  -delimiter string
        CSV delimiter for local runs (default ",")
  -url string
        Base URL of a running topsis service; runs locally when empty
  -timeout duration
        HTTP request timeout for -url (default 30s)
  -top int
        Print the first N ranked rows to stderr
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  topsis -in data.csv -weights 1,1,1,2 -impacts +,+,-,+ -out result.csv

  # Print the table and the top three to the terminal
  topsis -in data.xlsx -weights 1,2,1 -impacts +,-,+ -out - -top 3

  # Use a running service
  topsis -url http://localhost:9080 -in data.csv -weights 1,1 -impacts +,- -out result.csv
`)
}

// ExitCode maps a run error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case isUsage(err):
		return 2
	default:
		return 1
	}
}
