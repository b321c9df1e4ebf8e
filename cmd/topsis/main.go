package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/topsis/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("topsis", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { cli.ShowHelp(os.Stderr) }

	var (
		input     = fs.String("in", "", "Input table (.csv or .xlsx)")
		weights   = fs.String("weights", "", "Comma-separated criterion weights")
		impacts   = fs.String("impacts", "", "Comma-separated impacts (+ or -)")
		output    = fs.String("out", "", "Result CSV path, or - for stdout")
		delimiter = fs.String("delimiter", cli.DefaultDelimiter, "CSV delimiter for local runs")
		url       = fs.String("url", "", "Base URL of a running topsis service")
		timeout   = fs.Duration("timeout", cli.DefaultTimeout, "HTTP request timeout")
		top       = fs.Int("top", 0, "Print the first N ranked rows to stderr")
		verbose   = fs.Bool("verbose", false, "Enable verbose logging")
		help      = fs.Bool("help", false, "Show help")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *help {
		cli.ShowHelp(os.Stdout)
		return 0
	}

	if err := cli.SetupLogging(os.Stderr, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to setup logging:", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := &cli.Config{
		Input:     *input,
		Weights:   *weights,
		Impacts:   *impacts,
		Output:    *output,
		Delimiter: *delimiter,
		URL:       *url,
		Timeout:   *timeout,
		Top:       *top,
		Verbose:   *verbose,
	}

	err := cli.Run(ctx, config, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "topsis:", err)
	}
	return cli.ExitCode(err)
}
