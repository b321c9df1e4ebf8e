package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/okian/topsis/internal/adapters/tabular"
	service "github.com/okian/topsis/internal/app"
	"github.com/okian/topsis/internal/domain/model"
	"github.com/okian/topsis/internal/domain/types"
	"github.com/okian/topsis/pkg/logger"
)

const outputPermission = 0o644

// Run executes one TOPSIS invocation. The result goes to cfg.Output, or to
// stdout when it is "-"; the -top summary goes to stderr. No output file is
// created unless the run succeeds.
func Run(ctx context.Context, cfg *Config, stdout, stderr io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	start := time.Now()
	logger.Get().Debug(ctx, "starting topsis run",
		logger.String("input", cfg.Input),
		logger.String("output", cfg.Output),
		logger.String("weights", cfg.Weights),
		logger.String("impacts", cfg.Impacts),
		logger.String("url", cfg.URL))

	var (
		csv   []byte
		board []types.Entry
		err   error
	)
	if cfg.URL == "" {
		csv, board, err = runLocal(ctx, cfg)
	} else {
		csv, board, err = runRemote(ctx, cfg)
	}
	if err != nil {
		return err
	}

	if err := writeOutput(cfg.Output, csv, stdout); err != nil {
		return err
	}
	if cfg.Top > 0 {
		displayTop(stderr, board, cfg.Top)
	}

	logger.Get().Debug(ctx, "topsis run completed",
		logger.Int("rows", len(board)),
		logger.String("elapsed", time.Since(start).String()))
	return nil
}

func runLocal(ctx context.Context, cfg *Config) ([]byte, []types.Entry, error) {
	svc := service.New(
		service.WithLogger(logger.Named("topsis")),
		service.WithLoader(tabular.NewLoader(tabular.WithDelimiter(cfg.delimiter()))),
	)
	rep, err := svc.Evaluate(ctx, tabular.FileSource(cfg.Input), cfg.Weights, cfg.Impacts)
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	if err := tabular.WriteCSV(&buf, rep.Result); err != nil {
		return nil, nil, fmt.Errorf("serialize result: %w", err)
	}
	return buf.Bytes(), types.Leaderboard(rep.Result), nil
}

func runRemote(ctx context.Context, cfg *Config) ([]byte, []types.Entry, error) {
	client := newHTTPClient(cfg.URL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, nil, fmt.Errorf("service health check failed: %w", err)
	}
	body, err := client.Process(ctx, cfg.Input, cfg.Weights, cfg.Impacts)
	if err != nil {
		return nil, nil, err
	}
	board, err := parseLeaderboard(ctx, body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse service result: %w", err)
	}
	return body, board, nil
}

// parseLeaderboard reads a result table back into ranked entries.
func parseLeaderboard(ctx context.Context, data []byte) ([]types.Entry, error) {
	ds, err := tabular.NewLoader().Load(ctx, tabular.BytesSource("result.csv", data))
	if err != nil {
		return nil, err
	}
	scoreCol, rankCol := -1, -1
	for i, h := range ds.Header {
		switch h {
		case model.ScoreColumn:
			scoreCol = i
		case model.RankColumn:
			rankCol = i
		}
	}
	if scoreCol < 0 || rankCol < 0 {
		return nil, errors.New("result has no score or rank column")
	}

	ids := ds.Identifiers()
	res := &model.Result{
		Dataset: ds,
		Scores:  make([]float64, ds.Len()),
		Ranks:   make([]int, ds.Len()),
	}
	for i, row := range ds.Rows {
		if res.Scores[i], err = strconv.ParseFloat(row[scoreCol], 64); err != nil {
			return nil, fmt.Errorf("row %s: score: %w", ids[i], err)
		}
		if res.Ranks[i], err = strconv.Atoi(row[rankCol]); err != nil {
			return nil, fmt.Errorf("row %s: rank: %w", ids[i], err)
		}
	}
	return types.Leaderboard(res), nil
}

// writeOutput writes the result to path, or stdout for "-". Files are
// written to a temporary sibling first and renamed into place.
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == StdoutPath {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".topsis-*.csv")
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write result: %w", err)
	}
	if err := tmp.Chmod(outputPermission); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write result: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// displayTop prints the first n entries of the ranking.
func displayTop(w io.Writer, board []types.Entry, n int) {
	if n > len(board) {
		n = len(board)
	}
	_, _ = fmt.Fprintf(w, "Top %d of %d:\n", n, len(board))
	for _, e := range board[:n] {
		_, _ = fmt.Fprintf(w, "  %d. %s - Score: %.4f\n", e.Rank, e.ID, e.Score)
	}
}

func isUsage(err error) bool {
	return errors.Is(err, ErrUsage)
}
