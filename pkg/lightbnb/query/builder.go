// Package query builds parameterized PostgreSQL SELECT statements from a list
// of typed clauses.
//
// Each clause is written with "?" markers and carries the values bound to
// those markers. Build numbers the markers as $1, $2, ... in the order the
// clauses appear in the final statement, so a clause and its values can never
// drift apart however many optional clauses are skipped.
package query

import (
	"fmt"
	"strings"
)

// Placeholder is the marker replaced by a numbered parameter at build time.
const Placeholder = "?"

type clause struct {
	text string
	args []interface{}
}

// SelectBuilder assembles a SELECT statement.
//
// Example usage:
//
//	sb := query.NewSelect("SELECT * FROM properties")
//	sb.Where("city LIKE ?", "%Chicago%")
//	sb.Where("cost_per_night >= ?", 5000)
//	sb.OrderBy("cost_per_night")
//	sb.Limit(10)
//	sql, args, err := sb.Build()
//	// SELECT * FROM properties WHERE city LIKE $1 AND cost_per_night >= $2 ORDER BY cost_per_night LIMIT $3
type SelectBuilder struct {
	base    string
	where   []clause
	groupBy []string
	having  []clause
	orderBy []string
	limit   *clause
}

// NewSelect starts a statement from its SELECT ... FROM ... JOIN part.
func NewSelect(base string) *SelectBuilder {
	return &SelectBuilder{base: strings.TrimSpace(base)}
}

// Where appends a condition. The first condition is introduced by WHERE, the
// rest by AND.
func (sb *SelectBuilder) Where(condition string, args ...interface{}) *SelectBuilder {
	sb.where = append(sb.where, clause{text: condition, args: args})
	return sb
}

// GroupBy appends grouping expressions.
func (sb *SelectBuilder) GroupBy(columns ...string) *SelectBuilder {
	sb.groupBy = append(sb.groupBy, columns...)
	return sb
}

// Having appends an aggregate condition, joined with AND.
func (sb *SelectBuilder) Having(condition string, args ...interface{}) *SelectBuilder {
	sb.having = append(sb.having, clause{text: condition, args: args})
	return sb
}

// OrderBy appends ordering expressions.
func (sb *SelectBuilder) OrderBy(columns ...string) *SelectBuilder {
	sb.orderBy = append(sb.orderBy, columns...)
	return sb
}

// Limit binds the row limit as the last parameter.
func (sb *SelectBuilder) Limit(n int) *SelectBuilder {
	sb.limit = &clause{text: "LIMIT " + Placeholder, args: []interface{}{n}}
	return sb
}

// Build renders the statement and returns it with its arguments in
// placeholder order.
func (sb *SelectBuilder) Build() (string, []interface{}, error) {
	if sb.base == "" {
		return "", nil, fmt.Errorf("select builder: empty base statement")
	}

	r := &renderer{}
	r.sql.WriteString(sb.base)

	if err := r.clauses("WHERE", sb.where); err != nil {
		return "", nil, err
	}
	if len(sb.groupBy) > 0 {
		r.sql.WriteString(" GROUP BY ")
		r.sql.WriteString(strings.Join(sb.groupBy, ", "))
	}
	if err := r.clauses("HAVING", sb.having); err != nil {
		return "", nil, err
	}
	if len(sb.orderBy) > 0 {
		r.sql.WriteString(" ORDER BY ")
		r.sql.WriteString(strings.Join(sb.orderBy, ", "))
	}
	if sb.limit != nil {
		r.sql.WriteString(" ")
		if err := r.clause(*sb.limit); err != nil {
			return "", nil, err
		}
	}

	return r.sql.String(), r.args, nil
}

// Count returns the number of WHERE and HAVING conditions added so far.
func (sb *SelectBuilder) Count() int {
	return len(sb.where) + len(sb.having)
}

type renderer struct {
	sql  strings.Builder
	args []interface{}
}

func (r *renderer) clauses(keyword string, cs []clause) error {
	for i, c := range cs {
		if i == 0 {
			r.sql.WriteString(" " + keyword + " ")
		} else {
			r.sql.WriteString(" AND ")
		}
		if err := r.clause(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) clause(c clause) error {
	if n := strings.Count(c.text, Placeholder); n != len(c.args) {
		return fmt.Errorf("select builder: clause %q has %d placeholders but %d arguments", c.text, n, len(c.args))
	}
	rest := c.text
	for _, arg := range c.args {
		i := strings.Index(rest, Placeholder)
		r.sql.WriteString(rest[:i])
		r.args = append(r.args, arg)
		fmt.Fprintf(&r.sql, "$%d", len(r.args))
		rest = rest[i+len(Placeholder):]
	}
	r.sql.WriteString(rest)
	return nil
}
