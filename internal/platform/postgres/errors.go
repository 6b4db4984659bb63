package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/scry-engine/internal/store"
)

// SQLSTATE codes for integrity constraint violations (class 23).
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// violations maps the class 23 codes the schema can raise to the store
// sentinel and a short label for the message.
var violations = map[string]struct {
	sentinel error
	label    string
}{
	uniqueViolationCode:     {store.ErrDuplicate, "unique"},
	foreignKeyViolationCode: {store.ErrInvalidEntity, "foreign key"},
	checkViolationCode:      {store.ErrInvalidEntity, "check"},
	notNullViolationCode:    {store.ErrInvalidEntity, "not null"},
}

// MapError translates driver errors into store sentinels. The original
// error stays in the chain for errors.As.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	v, ok := violations[pgErr.Code]
	if !ok {
		return err
	}
	subject := pgErr.ConstraintName
	if subject == "" {
		subject = pgErr.ColumnName
	}
	return fmt.Errorf("%w: %s violation on %s: %w", v.sentinel, v.label, subject, err)
}

// mapNotFound is MapError with sql.ErrNoRows replaced by a specific sentinel.
func mapNotFound(err error, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return MapError(err)
}

// CheckRowsAffected returns notFound (store.ErrNotFound when nil) for a
// write that touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return errors.New("nil result provided to CheckRowsAffected")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if notFound == nil {
		return store.ErrNotFound
	}
	return notFound
}
