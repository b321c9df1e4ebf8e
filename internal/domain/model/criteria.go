package model

import (
	"math"
	"strconv"
	"strings"
)

// listSeparator separates entries in weight and impact strings.
const listSeparator = ","

// Weights holds one relative weight per criterion column. Weights need not
// sum to one.
type Weights []float64

// ParseWeights parses a comma-separated list such as "1,1,0.5,2". Every
// entry must be a finite, strictly positive number.
func ParseWeights(s string) (Weights, error) {
	const op = "model.parse_weights"
	parts := strings.Split(s, listSeparator)
	out := make(Weights, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			e := Errorf(op, ErrWeightParse, "weight %d (%q) is not a number", i+1, p).At(i, -1)
			e.Err = err
			return nil, e
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return nil, Errorf(op, ErrWeightParse, "weight %d (%q) must be a finite positive number", i+1, p).At(i, -1)
		}
		out = append(out, v)
	}
	return out, nil
}

// String renders the weights in the same comma-separated form they are
// parsed from.
func (w Weights) String() string {
	parts := make([]string, len(w))
	for i, v := range w {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, listSeparator)
}

// Impact is the preference direction of a criterion.
type Impact string

// Impact symbols.
const (
	Maximize Impact = "+"
	Minimize Impact = "-"
)

// impactAliases maps accepted spellings onto the canonical symbols.
var impactAliases = map[string]Impact{ //nolint:gochecknoglobals // read-only lookup table
	"+":        Maximize,
	"max":      Maximize,
	"maximize": Maximize,
	"-":        Minimize,
	"min":      Minimize,
	"minimize": Minimize,
}

// ParseImpacts splits a comma-separated impact string. It never fails:
// unknown symbols are kept verbatim so that validation can report them in
// its own order of checks.
func ParseImpacts(s string) []Impact {
	parts := strings.Split(s, listSeparator)
	out := make([]Impact, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if canon, ok := impactAliases[strings.ToLower(p)]; ok {
			out[i] = canon
			continue
		}
		out[i] = Impact(p)
	}
	return out
}

// Valid reports whether i is one of the two impact symbols.
func (i Impact) Valid() bool {
	return i == Maximize || i == Minimize
}

// String returns the impact's symbol.
func (i Impact) String() string { return string(i) }
