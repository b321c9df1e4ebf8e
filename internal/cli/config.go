package cli

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Default values for command-line flags.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultDelimiter = ","
	StdoutPath       = "-"
)

// ErrUsage marks invalid command-line input.
var ErrUsage = errors.New("usage error")

// Config holds one invocation of the topsis command.
type Config struct {
	Input     string        // Path of the .csv or .xlsx source
	Weights   string        // Comma-separated criterion weights
	Impacts   string        // Comma-separated impact symbols
	Output    string        // Result path, "-" for stdout
	Delimiter string        // CSV delimiter for local runs
	URL       string        // Base URL of a running service; empty runs locally
	Timeout   time.Duration // HTTP request timeout for remote runs
	Top       int           // Print the first N ranked rows to stderr
	Verbose   bool          // Enable debug logging
}

// Validate checks that the required flags are present.
func (c *Config) Validate() error {
	switch {
	case c.Input == "":
		return fmt.Errorf("%w: -in is required", ErrUsage)
	case c.Weights == "":
		return fmt.Errorf("%w: -weights is required", ErrUsage)
	case c.Impacts == "":
		return fmt.Errorf("%w: -impacts is required", ErrUsage)
	case c.Output == "":
		return fmt.Errorf("%w: -out is required", ErrUsage)
	case c.Top < 0:
		return fmt.Errorf("%w: -top must not be negative", ErrUsage)
	case c.URL != "" && c.Timeout <= 0:
		return fmt.Errorf("%w: -timeout must be positive", ErrUsage)
	}
	if c.URL == "" && utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("%w: -delimiter must be a single character", ErrUsage)
	}
	return nil
}

// delimiter returns the configured delimiter rune.
func (c *Config) delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}
