// scoped.go holds helpers shared by every tenant-scoped repository: paged listing,
// existence checks, and unique-violation detection.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// scopedTables are the tables RecordExists may be asked about
var scopedTables = map[string]bool{
	"leads":         true,
	"contacts":      true,
	"accounts":      true,
	"opportunities": true,
	"tasks":         true,
	"cases":         true,
}

// RecordExists reports whether a row with id exists in table within the organization
func RecordExists(ctx context.Context, q sqlx.QueryerContext, table, organizationID, id string) (bool, error) {
	if !scopedTables[table] {
		return false, fmt.Errorf("unknown table %q", table)
	}
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND organization_id = $2)`, table)

	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, query, id, organizationID); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return exists, nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// listPage runs a COUNT and a paged SELECT for the same filter
func listPage[T any](ctx context.Context, db sqlx.ExtContext, columns, table string, f *Filter, orderBy string, page Page) ([]*T, int, error) {
	where, args := f.Where()

	var total int
	countQuery := db.Rebind(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, table, where))
	if err := sqlx.GetContext(ctx, db, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", table, err)
	}

	query := db.Rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s`, columns, table, where, orderBy) + page.clause())
	items := make([]*T, 0)
	if err := sqlx.SelectContext(ctx, db, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return items, total, nil
}
