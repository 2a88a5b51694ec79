// filter.go implements Filter, the predicate builder every tenant-scoped list query is
// composed with, and Page, the shared pagination window.
package repositories

import (
	"fmt"
	"strings"
)

// Filter accumulates conditions that are joined with AND. It always starts with the
// organization scope so a query built from it can never cross tenants.
type Filter struct {
	clauses []string
	args    []interface{}
}

// NewFilter returns a filter scoped to organizationID
func NewFilter(organizationID string) *Filter {
	return &Filter{
		clauses: []string{"organization_id = ?"},
		args:    []interface{}{organizationID},
	}
}

// Eq adds column = value
func (f *Filter) Eq(column string, value interface{}) *Filter {
	f.clauses = append(f.clauses, column+" = ?")
	f.args = append(f.args, value)
	return f
}

// EqIf adds column = value when value is non-empty
func (f *Filter) EqIf(column, value string) *Filter {
	if value == "" {
		return f
	}
	return f.Eq(column, value)
}

// Bool adds column = value when value is set
func (f *Filter) Bool(column string, value *bool) *Filter {
	if value == nil {
		return f
	}
	return f.Eq(column, *value)
}

// Search adds a case-insensitive substring match over any of the given columns.
// LIKE wildcards in term are matched literally.
func (f *Filter) Search(term string, columns ...string) *Filter {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return f
	}
	pattern := "%" + escapeLike(term) + "%"
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c + " ILIKE ?"
		f.args = append(f.args, pattern)
	}
	f.clauses = append(f.clauses, "("+strings.Join(parts, " OR ")+")")
	return f
}

// Where renders the conjunction with ? placeholders and its arguments in order.
// Callers rebind the final query for the driver.
func (f *Filter) Where() (string, []interface{}) {
	args := make([]interface{}, len(f.args))
	copy(args, f.args)
	return strings.Join(f.clauses, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Page is a LIMIT/OFFSET window
type Page struct {
	Limit  int
	Offset int
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
	maxPage        = 100000
)

// NewPage converts a 1-based page number and page size into a window, clamping bad input
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return Page{Limit: perPage, Offset: (page - 1) * perPage}
}

func (p Page) clause() string {
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.Limit, p.Offset)
}
