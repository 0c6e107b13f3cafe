package csql

import (
	"errors"
	"strconv"
)

// ErrNoData is returned by UpdateClause when the update carries no
// fields. An unconditional update without SET targets is a caller bug,
// not a no-op.
var ErrNoData = errors.New("no data")

// Updates is an ordered sparse set of field updates. Fields keep their
// insertion order, which determines the positional parameters of the
// generated clause.
type Updates struct {
	fields []string
	values []interface{}
}

// Set appends a field update. Setting the same field twice appends it
// twice; callers construct updates from typed optional fields and do
// not repeat keys.
func (u *Updates) Set(field string, value interface{}) *Updates {
	u.fields = append(u.fields, field)
	u.values = append(u.values, value)
	return u
}

// Len returns the number of fields set.
func (u *Updates) Len() int {
	return len(u.fields)
}

// UpdateClause turns a sparse field update into SET-assignment fragments
// and the matching positional parameters.
//
// Each field resolves its column name through the translation table and
// falls back to the field name itself if untranslated. The Nth fragment
// references placeholder $N and the Nth parameter is that fragment's
// value; callers rely on this to append trailing parameters at $N+1,
// typically the row key:
//
//	clauses, params, _ := UpdateClause(updates, map[string]string{"firstName": "first_name"})
//	query := `UPDATE users SET ` + strings.Join(clauses, ",") +
//		` WHERE username=$` + strconv.Itoa(len(params)+1)
//
// Values are never interpolated into the statement text, only the
// trusted static column names are.
func UpdateClause(updates *Updates, translation map[string]string) ([]string, []interface{}, error) {
	if updates == nil || updates.Len() == 0 {
		return nil, nil, ErrNoData
	}

	clauses := make([]string, 0, len(updates.fields))
	params := make([]interface{}, 0, len(updates.values))
	for i, field := range updates.fields {
		column, ok := translation[field]
		if !ok {
			column = field
		}
		clauses = append(clauses, `"`+column+`"=$`+strconv.Itoa(i+1))
		params = append(params, updates.values[i])
	}
	return clauses, params, nil
}
