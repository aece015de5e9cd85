package repo

import (
	"context"
	"errors"
	"time"

	"github.com/vendorbook/vendorbook/internal/domain"
)

var ErrNotFound = errors.New("not found")

// VendorFilter selects one owner's records. Offset and Limit are already
// resolved by the caller; Limit <= 0 means no limit.
type VendorFilter struct {
	Owner  string
	Offset int
	Limit  int
}

// VendorRepository stores vendor records. Every lookup is scoped to owner:
// a record owned by someone else is indistinguishable from a missing one.
type VendorRepository interface {
	Create(ctx context.Context, vendor domain.Vendor) error
	Get(ctx context.Context, owner, id string) (domain.Vendor, error)
	List(ctx context.Context, filter VendorFilter) ([]domain.Vendor, int, error)
	Update(ctx context.Context, owner, id string, patch domain.VendorPatch, updatedAt time.Time) (domain.Vendor, error)
	Delete(ctx context.Context, owner, id string) error
}
