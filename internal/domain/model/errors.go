package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds. Every failure produced by the loader, the validator
// or the scoring engine matches exactly one of them via errors.Is.
var (
	ErrSourceNotFound             = errors.New("source not found")
	ErrUnsupportedFormat          = errors.New("unsupported format")
	ErrMalformedSource            = errors.New("malformed source")
	ErrTooFewColumns              = errors.New("too few columns")
	ErrNonNumericCriterion        = errors.New("non-numeric criterion")
	ErrWeightImpactLengthMismatch = errors.New("weight/impact length mismatch")
	ErrCriteriaCountMismatch      = errors.New("criteria count mismatch")
	ErrInvalidImpactSymbol        = errors.New("invalid impact symbol")
	ErrWeightParse                = errors.New("weight parse error")
	ErrDegenerateColumn           = errors.New("degenerate column")
	ErrDegenerateScore            = errors.New("degenerate score")
)

// Error is a structured failure carrying the kind, the operation that
// produced it and, where it applies, the offending column and row.
// Column and Row are zero-based positions; -1 means not applicable.
type Error struct {
	Op     string
	Kind   error
	Column int
	Row    int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// NewKind builds an error of the given kind with no positional data.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind, Column: -1, Row: -1}
}

// WrapKind builds an error of the given kind wrapping cause.
func WrapKind(op string, kind, cause error) error {
	return &Error{Op: op, Kind: kind, Column: -1, Row: -1, Err: cause}
}

// Errorf builds an error of the given kind with a formatted detail message.
func Errorf(op string, kind error, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Column: -1, Row: -1, Detail: fmt.Sprintf(format, args...)}
}

// At returns a copy of e annotated with a column and row position.
func (e *Error) At(column, row int) *Error {
	c := *e
	c.Column = column
	c.Row = row
	return &c
}

// Kinds lists every sentinel kind in a stable order.
func Kinds() []error {
	return []error{
		ErrSourceNotFound,
		ErrUnsupportedFormat,
		ErrMalformedSource,
		ErrTooFewColumns,
		ErrNonNumericCriterion,
		ErrWeightImpactLengthMismatch,
		ErrCriteriaCountMismatch,
		ErrInvalidImpactSymbol,
		ErrWeightParse,
		ErrDegenerateColumn,
		ErrDegenerateScore,
	}
}

// KindOf returns the sentinel kind err matches, or nil if none does.
func KindOf(err error) error {
	for _, k := range Kinds() {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindCode converts an error into a stable snake_case code, e.g.
// "degenerate_column". Unknown errors map to "internal_error".
func KindCode(err error) string {
	k := KindOf(err)
	if k == nil {
		return "internal_error"
	}
	switch k {
	case ErrWeightImpactLengthMismatch:
		return "weight_impact_length_mismatch"
	case ErrWeightParse:
		return "weight_parse_error"
	}
	return strings.ReplaceAll(strings.ReplaceAll(k.Error(), "-", "_"), " ", "_")
}
