package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vendorbook/vendorbook/internal/domain"
	"github.com/vendorbook/vendorbook/internal/repo"
)

// pgerrcode check_violation
const checkViolation = "23514"

//go:embed schema.sql
var schemaSQL string

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Migrate applies the idempotent schema. It is safe to run on every start.
func Migrate(ctx context.Context, db DB) error {
	if db == nil {
		return errors.New("db is required")
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func handleNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}

// parseID treats anything that is not a UUID as a missing record.
func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.UUID{}, repo.ErrNotFound
	}
	return parsed, nil
}

var constraintFields = map[string]domain.FieldError{
	"vendors_name_present":            {Field: "name", Message: "Vendor name is required"},
	"vendors_bank_account_no_present": {Field: "bankAccountNo", Message: "Bank account number is required"},
	"vendors_bank_name_present":       {Field: "bankName", Message: "Bank name is required"},
	"vendors_address_line2_present":   {Field: "addressLine2", Message: "Address line 2 is required"},
	"vendors_created_by_present":      {Field: "createdBy", Message: "Creator ID is required"},
}

// mapConstraintError turns a CHECK violation into the same validation error
// the domain layer reports, so callers see one error shape.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != checkViolation {
		return err
	}
	if fe, ok := constraintFields[pgErr.ConstraintName]; ok {
		return domain.ValidationErrors{fe}
	}
	return domain.ValidationErrors{{Field: pgErr.ConstraintName, Message: pgErr.Message}}
}
