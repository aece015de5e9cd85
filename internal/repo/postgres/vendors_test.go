package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vendorbook/vendorbook/internal/domain"
	"github.com/vendorbook/vendorbook/internal/repo"
)

func TestBuildVendorListQueryRequiresOwner(t *testing.T) {
	if _, _, err := buildVendorListQuery(repo.VendorFilter{}); err == nil {
		t.Fatalf("expected error for missing owner")
	}
}

func TestBuildVendorListQueryScopesToOwner(t *testing.T) {
	query, args, err := buildVendorListQuery(repo.VendorFilter{Owner: "a@x.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args) != 1 || args[0] != "a@x.com" {
		t.Fatalf("expected owner as only arg, got %v", args)
	}
	if !strings.Contains(query, "created_by = $1") {
		t.Fatalf("expected created_by predicate in query, got %s", query)
	}
	if !strings.Contains(query, "ORDER BY created_at DESC, id DESC") {
		t.Fatalf("expected newest-first ordering, got %s", query)
	}
	if strings.Contains(query, "LIMIT") || strings.Contains(query, "OFFSET") {
		t.Fatalf("expected no paging clauses, got %s", query)
	}
}

func TestBuildVendorListQueryWithLimitAndOffset(t *testing.T) {
	query, args, err := buildVendorListQuery(repo.VendorFilter{Owner: "a@x.com", Limit: 10, Offset: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	if !strings.Contains(query, "LIMIT $2") || !strings.Contains(query, "OFFSET $3") {
		t.Fatalf("expected limit and offset in query, got %s", query)
	}
	if args[1] != 10 || args[2] != 20 {
		t.Fatalf("args=%v, want limit 10 offset 20", args)
	}
}

func TestParseIDTreatsMalformedAsNotFound(t *testing.T) {
	if _, err := parseID("not-a-uuid"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
	if _, err := parseID("0b9d3c1e-8a39-4c6f-9b52-5f3cbe1a7e10"); err != nil {
		t.Fatalf("parseID() err=%v", err)
	}
}

func TestMapConstraintError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23514", ConstraintName: "vendors_bank_name_present", Message: "violates check"}
	err := mapConstraintError(fmt.Errorf("exec: %w", pgErr))

	var verrs domain.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err=%v, want ValidationErrors", err)
	}
	if verrs[0].Field != "bankName" || verrs[0].Message != "Bank name is required" {
		t.Fatalf("field error=%+v", verrs[0])
	}

	other := &pgconn.PgError{Code: "23505"}
	if got := mapConstraintError(other); got != error(other) {
		t.Fatalf("non-check errors should pass through, got %v", got)
	}
}

func TestSchemaDeclaresRequiredColumnChecks(t *testing.T) {
	for name := range constraintFields {
		if !strings.Contains(schemaSQL, name) {
			t.Fatalf("schema.sql is missing constraint %s", name)
		}
	}
	if !strings.Contains(schemaSQL, "vendors_owner_recent_idx") {
		t.Fatalf("schema.sql is missing the owner listing index")
	}
}

func TestStoreMethodsRejectNilStore(t *testing.T) {
	var s *VendorStore
	ctx := context.Background()
	if err := s.Create(ctx, domain.Vendor{}); err == nil {
		t.Fatalf("Create: expected error")
	}
	if _, err := s.Get(ctx, "a@x.com", "id"); err == nil {
		t.Fatalf("Get: expected error")
	}
	if _, _, err := s.List(ctx, repo.VendorFilter{Owner: "a@x.com"}); err == nil {
		t.Fatalf("List: expected error")
	}
	if err := s.Delete(ctx, "a@x.com", "id"); err == nil {
		t.Fatalf("Delete: expected error")
	}
	if NewVendorStore(nil) != nil {
		t.Fatalf("NewVendorStore(nil) should be nil")
	}
}

func TestMigrateRequiresDB(t *testing.T) {
	if err := Migrate(context.Background(), nil); err == nil {
		t.Fatalf("expected error")
	}
}
