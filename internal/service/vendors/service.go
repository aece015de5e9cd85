package vendors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vendorbook/vendorbook/internal/domain"
	"github.com/vendorbook/vendorbook/internal/repo"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	maxOffset = math.MaxInt32
)

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrValidation   = errors.New("validation failed")
)

// ValidationError lists the failing fields of a rejected create or update.
type ValidationError struct {
	Fields domain.ValidationErrors
}

func (e *ValidationError) Error() string {
	return e.Fields.Error()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Input holds the editable fields of a new vendor.
type Input struct {
	Name          string
	BankAccountNo string
	BankName      string
	AddressLine1  string
	AddressLine2  string
	City          string
	Country       string
	ZipCode       string
}

type Pagination struct {
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

type ListResult struct {
	Vendors    []domain.Vendor
	Pagination Pagination
}

// Observer counts operations by outcome. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveOperation(operation, outcome string)
}

type Service struct {
	repo     repo.VendorRepository
	observer Observer
	now      func() time.Time
}

func NewService(repo repo.VendorRepository, observer Observer) (*Service, error) {
	if repo == nil {
		return nil, errors.New("vendor repository is required")
	}
	return &Service{
		repo:     repo,
		observer: observer,
		now:      time.Now,
	}, nil
}

// NormalizePage applies the list defaults: anything below 1 falls back to the
// default and limit is capped at MaxLimit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func offsetFor(page, limit int) int {
	if page-1 > maxOffset/limit {
		return maxOffset
	}
	return (page - 1) * limit
}

func totalPages(total, limit int) int {
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func (s *Service) List(ctx context.Context, owner string, page, limit int) (ListResult, error) {
	owner, err := requireOwner(owner)
	if err != nil {
		s.observe("list", err)
		return ListResult{}, err
	}
	page, limit = NormalizePage(page, limit)

	items, total, err := s.repo.List(ctx, repo.VendorFilter{
		Owner:  owner,
		Offset: offsetFor(page, limit),
		Limit:  limit,
	})
	if err != nil {
		err = fmt.Errorf("list vendors: %w", err)
		s.observe("list", err)
		return ListResult{}, err
	}
	if items == nil {
		items = []domain.Vendor{}
	}

	s.observe("list", nil)
	return ListResult{
		Vendors: items,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		},
	}, nil
}

func (s *Service) Create(ctx context.Context, owner string, in Input) (domain.Vendor, error) {
	owner, err := requireOwner(owner)
	if err != nil {
		s.observe("create", err)
		return domain.Vendor{}, err
	}

	now := s.now().UTC()
	vendor := domain.Vendor{
		ID:            uuid.NewString(),
		Name:          in.Name,
		BankAccountNo: in.BankAccountNo,
		BankName:      in.BankName,
		AddressLine1:  in.AddressLine1,
		AddressLine2:  in.AddressLine2,
		City:          in.City,
		Country:       in.Country,
		ZipCode:       in.ZipCode,
		CreatedBy:     owner,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := vendor.ValidateFields(); err != nil {
		err = asValidation(err)
		s.observe("create", err)
		return domain.Vendor{}, err
	}

	if err := s.repo.Create(ctx, vendor); err != nil {
		err = wrapStoreErr("create vendor", err)
		s.observe("create", err)
		return domain.Vendor{}, err
	}
	s.observe("create", nil)
	return vendor, nil
}

func (s *Service) Get(ctx context.Context, owner, id string) (domain.Vendor, error) {
	owner, err := requireOwner(owner)
	if err != nil {
		s.observe("get", err)
		return domain.Vendor{}, err
	}
	vendor, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		err = wrapStoreErr("get vendor", err)
		s.observe("get", err)
		return domain.Vendor{}, err
	}
	s.observe("get", nil)
	return vendor, nil
}

// Update applies only the supplied fields. An empty patch still refreshes
// updatedAt, matching a save with no edits.
func (s *Service) Update(ctx context.Context, owner, id string, patch domain.VendorPatch) (domain.Vendor, error) {
	owner, err := requireOwner(owner)
	if err != nil {
		s.observe("update", err)
		return domain.Vendor{}, err
	}
	if err := patch.Validate(); err != nil {
		err = asValidation(err)
		s.observe("update", err)
		return domain.Vendor{}, err
	}

	vendor, err := s.repo.Update(ctx, owner, id, patch, s.now().UTC())
	if err != nil {
		err = wrapStoreErr("update vendor", err)
		s.observe("update", err)
		return domain.Vendor{}, err
	}
	s.observe("update", nil)
	return vendor, nil
}

func (s *Service) Delete(ctx context.Context, owner, id string) error {
	owner, err := requireOwner(owner)
	if err != nil {
		s.observe("delete", err)
		return err
	}
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		err = wrapStoreErr("delete vendor", err)
		s.observe("delete", err)
		return err
	}
	s.observe("delete", nil)
	return nil
}

func requireOwner(owner string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", ErrAuthRequired
	}
	return owner, nil
}

func asValidation(err error) error {
	var fields domain.ValidationErrors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return err
}

// wrapStoreErr surfaces store-side constraint failures as validation errors.
func wrapStoreErr(op string, err error) error {
	var fields domain.ValidationErrors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Outcome is the metrics label for err.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAuthRequired):
		return "auth_required"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, repo.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (s *Service) observe(operation string, err error) {
	if s.observer != nil {
		s.observer.ObserveOperation(operation, Outcome(err))
	}
}
