package csql

import (
	"strconv"
	"strings"
)

// Filter describes optional list criteria. Absent criteria contribute
// no predicates; a filter with no active criteria yields empty output,
// which callers must treat as "no filtering", never as "match nothing".
type Filter struct {
	// Contains is a case-insensitive substring criterion. The value is
	// split on whitespace and every word must independently match the
	// column. Empty means inactive.
	Contains       string
	ContainsColumn string

	// Minimum is an inclusive lower bound. Nil means inactive.
	Minimum       *int
	MinimumColumn string

	// Maximum is an inclusive upper bound. Nil means inactive.
	Maximum       *int
	MaximumColumn string

	// Positive requires the column to be non-null and strictly greater
	// than zero. Only the literal string "true" activates the
	// criterion; anything else, including "false" or garbage, is
	// treated as inactive.
	Positive       string
	PositiveColumn string
}

// Clause turns the filter into WHERE-predicate fragments and the
// matching positional parameters. Placeholders start at $offset+1 and
// continue the caller's parameter sequence without gaps; predicates are
// emitted in fixed criterion order: text words, minimum, maximum,
// positive. The builder applies the %...% wildcarding itself, callers
// pass bare words.
//
// Clause never fails. Predicates combine with AND; with zero active
// criteria both returned slices are empty and the caller omits the
// WHERE clause entirely.
func (f Filter) Clause(offset int) ([]string, []interface{}) {
	var conditions []string
	var params []interface{}

	next := func() string {
		return "$" + strconv.Itoa(offset+len(params)+1)
	}

	if f.Contains != "" {
		for _, word := range strings.Fields(f.Contains) {
			conditions = append(conditions, f.ContainsColumn+" ILIKE "+next())
			params = append(params, "%"+word+"%")
		}
	}
	if f.Minimum != nil {
		conditions = append(conditions, f.MinimumColumn+" >= "+next())
		params = append(params, *f.Minimum)
	}
	if f.Maximum != nil {
		conditions = append(conditions, f.MaximumColumn+" <= "+next())
		params = append(params, *f.Maximum)
	}
	if f.Positive == "true" {
		conditions = append(conditions, "("+f.PositiveColumn+" IS NOT NULL AND "+f.PositiveColumn+" > 0)")
	}
	return conditions, params
}
