package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vendorbook/vendorbook/internal/domain"
	"github.com/vendorbook/vendorbook/internal/repo"
)

// openTestDatabase connects to VENDORBOOK_TEST_DATABASE_URL and applies the
// schema. Each test uses a fresh owner so runs do not see each other.
func openTestDatabase(t *testing.T) (*sql.DB, string) {
	t.Helper()
	url := strings.TrimSpace(os.Getenv("VENDORBOOK_TEST_DATABASE_URL"))
	if url == "" {
		t.Skip("set VENDORBOOK_TEST_DATABASE_URL to run against postgres")
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() err=%v", err)
	}

	owner := "it-" + uuid.NewString() + "@x.com"
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), `DELETE FROM vendors WHERE created_by = $1`, owner)
	})
	return db, owner
}

func TestPostgresVendorStore_RoundTrip(t *testing.T) {
	db, owner := openTestDatabase(t)
	store := NewVendorStore(db)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Microsecond)
	v := domain.Vendor{
		ID:            uuid.NewString(),
		Name:          "Acme",
		BankAccountNo: "123",
		BankName:      "Bank A",
		AddressLine2:  "Suite 2",
		City:          "Springfield",
		CreatedBy:     owner,
		CreatedAt:     created,
	}
	if err := store.Create(ctx, v); err != nil {
		t.Fatalf("Create() err=%v", err)
	}

	got, err := store.Get(ctx, owner, v.ID)
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if got.ID != v.ID || got.Name != "Acme" || !got.CreatedAt.Equal(created) {
		t.Fatalf("vendor=%+v", got)
	}
	if _, err := store.Get(ctx, "other-"+owner, v.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("other owner Get() err=%v, want ErrNotFound", err)
	}

	name := "Acme Corp"
	updated, err := store.Update(ctx, owner, v.ID, domain.VendorPatch{Name: &name}, created.Add(time.Minute))
	if err != nil {
		t.Fatalf("Update() err=%v", err)
	}
	if updated.Name != name || updated.City != "Springfield" || updated.BankName != "Bank A" {
		t.Fatalf("updated=%+v", updated)
	}
	if !updated.UpdatedAt.Equal(created.Add(time.Minute)) || !updated.CreatedAt.Equal(created) {
		t.Fatalf("timestamps=%v/%v", updated.CreatedAt, updated.UpdatedAt)
	}

	items, total, err := store.List(ctx, repo.VendorFilter{Owner: owner, Limit: 10})
	if err != nil {
		t.Fatalf("List() err=%v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Name != name {
		t.Fatalf("total=%d items=%+v", total, items)
	}

	if err := store.Delete(ctx, owner, v.ID); err != nil {
		t.Fatalf("Delete() err=%v", err)
	}
	if err := store.Delete(ctx, owner, v.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("second Delete() err=%v, want ErrNotFound", err)
	}
}

func TestPostgresVendorStore_CheckConstraintIsValidation(t *testing.T) {
	db, owner := openTestDatabase(t)
	ctx := context.Background()

	// Bypass the store's own validation to reach the CHECK constraint.
	_, err := db.ExecContext(ctx,
		`INSERT INTO vendors (`+vendorColumns+`) VALUES ($1,'','1','B','','S','','','',$2,now(),now())`,
		uuid.NewString(), owner)
	var verr domain.ValidationErrors
	if !errors.As(mapConstraintError(err), &verr) || verr[0].Field != "name" {
		t.Fatalf("err=%v, want name validation error", err)
	}
}
