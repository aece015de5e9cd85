// Package memory is the in-process vendor store selected with
// VENDORS_STORE=memory. It enforces the same rules as the Postgres schema.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vendorbook/vendorbook/internal/domain"
	"github.com/vendorbook/vendorbook/internal/repo"
)

// VendorStore keeps records by id. domain.Vendor holds only value fields, so
// copies handed out never alias the stored record.
type VendorStore struct {
	mu      sync.RWMutex
	vendors map[string]domain.Vendor
}

func NewVendorStore() *VendorStore {
	return &VendorStore{vendors: make(map[string]domain.Vendor)}
}

func (s *VendorStore) Create(ctx context.Context, vendor domain.Vendor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := vendor.Validate(); err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(vendor.ID))
	if err != nil {
		return errors.New("vendor id must be a uuid")
	}
	vendor.ID = id.String()
	vendor.CreatedBy = strings.TrimSpace(vendor.CreatedBy)
	if vendor.CreatedAt.IsZero() {
		vendor.CreatedAt = time.Now().UTC()
	}
	if vendor.UpdatedAt.IsZero() {
		vendor.UpdatedAt = vendor.CreatedAt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.vendors[vendor.ID]; exists {
		return fmt.Errorf("vendor %s already exists", vendor.ID)
	}
	s.vendors[vendor.ID] = vendor
	return nil
}

func (s *VendorStore) Get(ctx context.Context, owner, id string) (domain.Vendor, error) {
	if err := ctx.Err(); err != nil {
		return domain.Vendor{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(owner, id)
}

// lookup expects s.mu to be held.
func (s *VendorStore) lookup(owner, id string) (domain.Vendor, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return domain.Vendor{}, errors.New("owner is required")
	}
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return domain.Vendor{}, repo.ErrNotFound
	}
	vendor, ok := s.vendors[parsed.String()]
	if !ok || vendor.CreatedBy != owner {
		return domain.Vendor{}, repo.ErrNotFound
	}
	return vendor, nil
}

func (s *VendorStore) List(ctx context.Context, filter repo.VendorFilter) ([]domain.Vendor, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	owner := strings.TrimSpace(filter.Owner)
	if owner == "" {
		return nil, 0, errors.New("owner is required")
	}

	s.mu.RLock()
	owned := make([]domain.Vendor, 0)
	for _, vendor := range s.vendors {
		if vendor.CreatedBy == owner {
			owned = append(owned, vendor)
		}
	}
	s.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID > owned[j].ID
	})

	total := len(owned)
	start := filter.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < total {
		end = start + filter.Limit
	}
	return owned[start:end], total, nil
}

func (s *VendorStore) Update(ctx context.Context, owner, id string, patch domain.VendorPatch, updatedAt time.Time) (domain.Vendor, error) {
	if err := ctx.Err(); err != nil {
		return domain.Vendor{}, err
	}
	if err := patch.Validate(); err != nil {
		return domain.Vendor{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.lookup(owner, id)
	if err != nil {
		return domain.Vendor{}, err
	}
	next := patch.Apply(current)
	if err := next.Validate(); err != nil {
		return domain.Vendor{}, err
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	next.UpdatedAt = updatedAt.UTC()
	s.vendors[next.ID] = next
	return next, nil
}

func (s *VendorStore) Delete(ctx context.Context, owner, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	vendor, err := s.lookup(owner, id)
	if err != nil {
		return err
	}
	delete(s.vendors, vendor.ID)
	return nil
}

var _ repo.VendorRepository = (*VendorStore)(nil)
