package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vendorbook/vendorbook/internal/domain"
	"github.com/vendorbook/vendorbook/internal/repo"
)

const vendorColumns = `id, name, bank_account_no, bank_name, address_line1, address_line2, city, country, zip_code, created_by, created_at, updated_at`

type VendorStore struct {
	db DB
}

func NewVendorStore(db DB) *VendorStore {
	if db == nil {
		return nil
	}
	return &VendorStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVendor(row rowScanner) (domain.Vendor, error) {
	var v domain.Vendor
	err := row.Scan(
		&v.ID,
		&v.Name,
		&v.BankAccountNo,
		&v.BankName,
		&v.AddressLine1,
		&v.AddressLine2,
		&v.City,
		&v.Country,
		&v.ZipCode,
		&v.CreatedBy,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return domain.Vendor{}, err
	}
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}

func (s *VendorStore) Create(ctx context.Context, vendor domain.Vendor) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("vendor store not initialized")
	}
	if err := vendor.Validate(); err != nil {
		return err
	}
	id, err := parseID(vendor.ID)
	if err != nil {
		return fmt.Errorf("vendor id must be a uuid")
	}
	createdAt := normalizeTime(vendor.CreatedAt)
	updatedAt := createdAt
	if !vendor.UpdatedAt.IsZero() {
		updatedAt = vendor.UpdatedAt.UTC()
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO vendors (`+vendorColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		id,
		vendor.Name,
		vendor.BankAccountNo,
		vendor.BankName,
		vendor.AddressLine1,
		vendor.AddressLine2,
		vendor.City,
		vendor.Country,
		vendor.ZipCode,
		strings.TrimSpace(vendor.CreatedBy),
		createdAt,
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vendor: %w", mapConstraintError(err))
	}
	return nil
}

func (s *VendorStore) Get(ctx context.Context, owner, id string) (domain.Vendor, error) {
	if s == nil || s.db == nil {
		return domain.Vendor{}, fmt.Errorf("vendor store not initialized")
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return domain.Vendor{}, fmt.Errorf("owner is required")
	}
	parsed, err := parseID(id)
	if err != nil {
		return domain.Vendor{}, err
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE id = $1 AND created_by = $2`,
		parsed,
		owner,
	)
	vendor, err := scanVendor(row)
	if err != nil {
		return domain.Vendor{}, handleNotFound(err)
	}
	return vendor, nil
}

func buildVendorListQuery(filter repo.VendorFilter) (string, []any, error) {
	owner := strings.TrimSpace(filter.Owner)
	if owner == "" {
		return "", nil, fmt.Errorf("owner is required")
	}
	args := []any{owner}
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE created_by = $1 ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args, nil
}

func (s *VendorStore) List(ctx context.Context, filter repo.VendorFilter) ([]domain.Vendor, int, error) {
	if s == nil || s.db == nil {
		return nil, 0, fmt.Errorf("vendor store not initialized")
	}
	query, args, err := buildVendorListQuery(filter)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Vendor, 0)
	for rows.Next() {
		vendor, err := scanVendor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan vendor: %w", err)
		}
		out = append(out, vendor)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate vendors: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM vendors WHERE created_by = $1`, args[0]).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vendors: %w", err)
	}
	return out, total, nil
}

// Update merges patch into the owner's record in one statement. Columns
// whose patch value is NULL keep their current value.
func (s *VendorStore) Update(ctx context.Context, owner, id string, patch domain.VendorPatch, updatedAt time.Time) (domain.Vendor, error) {
	if s == nil || s.db == nil {
		return domain.Vendor{}, fmt.Errorf("vendor store not initialized")
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return domain.Vendor{}, fmt.Errorf("owner is required")
	}
	parsed, err := parseID(id)
	if err != nil {
		return domain.Vendor{}, err
	}
	if err := patch.Validate(); err != nil {
		return domain.Vendor{}, err
	}

	row := s.db.QueryRowContext(
		ctx,
		`UPDATE vendors SET
			name = COALESCE($3, name),
			bank_account_no = COALESCE($4, bank_account_no),
			bank_name = COALESCE($5, bank_name),
			address_line1 = COALESCE($6, address_line1),
			address_line2 = COALESCE($7, address_line2),
			city = COALESCE($8, city),
			country = COALESCE($9, country),
			zip_code = COALESCE($10, zip_code),
			updated_at = $11
		 WHERE id = $1 AND created_by = $2
		 RETURNING `+vendorColumns,
		parsed,
		owner,
		patch.Name,
		patch.BankAccountNo,
		patch.BankName,
		patch.AddressLine1,
		patch.AddressLine2,
		patch.City,
		patch.Country,
		patch.ZipCode,
		normalizeTime(updatedAt),
	)
	vendor, err := scanVendor(row)
	if err != nil {
		return domain.Vendor{}, handleNotFound(mapConstraintError(err))
	}
	return vendor, nil
}

func (s *VendorStore) Delete(ctx context.Context, owner, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("vendor store not initialized")
	}
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return fmt.Errorf("owner is required")
	}
	parsed, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM vendors WHERE id = $1 AND created_by = $2`, parsed, owner)
	if err != nil {
		return fmt.Errorf("delete vendor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete vendor: %w", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

var _ repo.VendorRepository = (*VendorStore)(nil)
