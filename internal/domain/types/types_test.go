package types_test

import (
	"testing"

	"github.com/okian/topsis/internal/domain/model"
	types "github.com/okian/topsis/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given an Entry struct", t, func() {
		Convey("When creating an entry with zero values", func() {
			entry := types.Entry{}

			Convey("Then it should have default values", func() {
				So(entry.Rank, ShouldEqual, 0)
				So(entry.ID, ShouldEqual, "")
				So(entry.Score, ShouldEqual, 0.0)
			})
		})
	})
}

func TestLeaderboard(t *testing.T) {
	Convey("Given a scored result", t, func() {
		res := &model.Result{
			Dataset: &model.Dataset{
				Header: []string{"Fund", "R1", "R2"},
				Rows:   [][]string{{"A", "1", "2"}, {"B", "3", "4"}, {"C", "5", "6"}},
			},
			Scores: []float64{0.4, 0.9, 0.1},
			Ranks:  []int{2, 1, 3},
		}

		Convey("When building the leaderboard", func() {
			board := types.Leaderboard(res)

			Convey("Then entries should be ordered by rank", func() {
				So(board, ShouldHaveLength, 3)
				So(board[0], ShouldResemble, types.Entry{Rank: 1, ID: "B", Score: 0.9})
				So(board[1].ID, ShouldEqual, "A")
				So(board[2].ID, ShouldEqual, "C")
			})
		})

		Convey("When the result is empty", func() {
			empty := &model.Result{Dataset: &model.Dataset{Header: []string{"a", "b", "c"}}}
			So(types.Leaderboard(empty), ShouldBeEmpty)
		})
	})
}
