// Package types contains common types used across the application
package types

import (
	"sort"

	"github.com/okian/topsis/internal/domain/model"
)

// Entry is one alternative's position in a ranking.
type Entry struct {
	Rank  int     `json:"rank"`
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Leaderboard returns the result's rows as entries ordered by rank.
func Leaderboard(res *model.Result) []Entry {
	rows := res.Rows()
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = Entry{Rank: r.Rank, ID: r.ID, Score: r.Score}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
