package validation_test

import (
	"errors"
	"testing"

	"github.com/okian/topsis/internal/domain/model"
	"github.com/okian/topsis/internal/domain/validation"
	. "github.com/smartystreets/goconvey/convey"
)

func phones() *model.Dataset {
	return &model.Dataset{
		Header: []string{"Model", "Price", "Storage", "Camera"},
		Rows: [][]string{
			{"M1", "250", "16", "12"},
			{"M2", "200", "16", "8"},
			{"M3", "300", "32", "16"},
		},
	}
}

func TestValidate(t *testing.T) {
	Convey("Given a well-formed dataset", t, func() {
		ds := phones()
		w := model.Weights{1, 1, 1}
		imp := model.ParseImpacts("-,+,+")

		Convey("When validating matching weights and impacts", func() {
			m, err := validation.Validate(ds, w, imp)

			Convey("Then it should return the numeric matrix", func() {
				So(err, ShouldBeNil)
				So(m.Rows(), ShouldEqual, 3)
				So(m.Cols(), ShouldEqual, 3)
				So(m.Row(2), ShouldResemble, []float64{300, 32, 16})
			})
		})

		Convey("When cells carry surrounding spaces and exponents", func() {
			ds.Rows[0][1] = " 2.5e2 "
			m, err := validation.Validate(ds, w, imp)
			So(err, ShouldBeNil)
			So(m.At(0, 0), ShouldEqual, 250)
		})

		Convey("When there are fewer weights than impacts", func() {
			_, err := validation.Validate(ds, model.Weights{1, 1}, model.ParseImpacts("+,-,+"))
			So(errors.Is(err, model.ErrWeightImpactLengthMismatch), ShouldBeTrue)
		})

		Convey("When weights and impacts agree but not with the columns", func() {
			_, err := validation.Validate(ds, model.Weights{1, 1}, model.ParseImpacts("+,-"))
			So(errors.Is(err, model.ErrCriteriaCountMismatch), ShouldBeTrue)
		})

		Convey("When an impact symbol is unknown", func() {
			_, err := validation.Validate(ds, w, model.ParseImpacts("+,x,-"))

			Convey("Then it should identify the symbol", func() {
				So(errors.Is(err, model.ErrInvalidImpactSymbol), ShouldBeTrue)
				var e *model.Error
				So(errors.As(err, &e), ShouldBeTrue)
				So(e.Column, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a dataset with too few columns", t, func() {
		ds := &model.Dataset{Header: []string{"Model", "Price"}, Rows: [][]string{{"M1", "x"}}}

		Convey("Then the column check should win over every later check", func() {
			_, err := validation.Validate(ds, model.Weights{1, 1, 1}, model.ParseImpacts("?"))
			So(errors.Is(err, model.ErrTooFewColumns), ShouldBeTrue)
		})

		Convey("Then an empty dataset should also fail the column check", func() {
			_, err := validation.Validate(&model.Dataset{}, nil, nil)
			So(errors.Is(err, model.ErrTooFewColumns), ShouldBeTrue)
			_, err = validation.Validate(nil, nil, nil)
			So(errors.Is(err, model.ErrTooFewColumns), ShouldBeTrue)
		})
	})

	Convey("Given a dataset with a non-numeric criterion", t, func() {
		ds := phones()
		ds.Rows[1][2] = "sixteen"
		ds.Rows[2][3] = "n/a"

		Convey("When validating with mismatched weights and impacts", func() {
			_, err := validation.Validate(ds, model.Weights{1}, model.ParseImpacts("+,+"))

			Convey("Then the numeric check should be reported first", func() {
				So(errors.Is(err, model.ErrNonNumericCriterion), ShouldBeTrue)
				So(errors.Is(err, model.ErrWeightImpactLengthMismatch), ShouldBeFalse)
			})

			Convey("Then it should point at the leftmost offending column", func() {
				var e *model.Error
				So(errors.As(err, &e), ShouldBeTrue)
				So(e.Column, ShouldEqual, 2)
				So(e.Row, ShouldEqual, 1)
				So(e.Error(), ShouldContainSubstring, `"Storage"`)
			})
		})
	})

	Convey("Given cells that parse as NaN, Inf or nothing", t, func() {
		for _, cell := range []string{"NaN", "inf", "", "  "} {
			ds := phones()
			ds.Rows[0][1] = cell
			_, err := validation.Validate(ds, model.Weights{1, 1, 1}, model.ParseImpacts("+,+,+"))
			So(errors.Is(err, model.ErrNonNumericCriterion), ShouldBeTrue)
		}
	})

	Convey("Given a short row", t, func() {
		ds := phones()
		ds.Rows[0] = []string{"M1", "250"}
		_, err := validation.Validate(ds, model.Weights{1, 1, 1}, model.ParseImpacts("+,+,+"))
		So(errors.Is(err, model.ErrNonNumericCriterion), ShouldBeTrue)
	})
}
