package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestAddCustomer_AssignsStoreID(t *testing.T) {
	db := openTestDB(t)

	c := &Customer{
		Telephone: "5551234",
		Password:  "digest",
		Name:      "Alice",
		Email:     "alice@example.com",
	}
	if err := db.AddCustomer(c); err != nil {
		t.Fatalf("AddCustomer returned error: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("expected store-assigned id")
	}
	if c.Password != PasswordMask {
		t.Fatalf("expected masked password, got %q", c.Password)
	}

	// Independent find sees the same id
	found, err := db.FindCustomer(map[string]any{"telephone": "5551234"})
	if err != nil {
		t.Fatalf("FindCustomer returned error: %v", err)
	}
	if found.ID != c.ID {
		t.Fatalf("expected id %d, got %d", c.ID, found.ID)
	}
}

func TestAddCustomer_DuplicateTelephoneConflict(t *testing.T) {
	db := openTestDB(t)

	first := &Customer{Telephone: "5551234", Password: "digest", Name: "Alice"}
	if err := db.AddCustomer(first); err != nil {
		t.Fatalf("first AddCustomer returned error: %v", err)
	}

	second := &Customer{Telephone: "5551234", Password: "digest", Name: "Bob"}
	err := db.AddCustomer(second)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Row count unchanged, first row remains sole owner of the telephone
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM customer").Scan(&count); err != nil {
		t.Fatalf("failed to count customers: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 customer row, got %d", count)
	}

	owner, err := db.FindCustomer(map[string]any{"telephone": "5551234"})
	if err != nil {
		t.Fatalf("FindCustomer returned error: %v", err)
	}
	if owner.Name != "Alice" {
		t.Fatalf("expected first registration to own the telephone, got %q", owner.Name)
	}
}

func TestUpdateCustomer_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	c := &Customer{Telephone: "5551234", Password: "digest", Name: "Alice", Email: "alice@example.com"}
	if err := db.AddCustomer(c); err != nil {
		t.Fatalf("AddCustomer returned error: %v", err)
	}

	updated, err := db.UpdateCustomer(c.ID, map[string]any{"name": "Alicia", "personal_discount": 5})
	if err != nil {
		t.Fatalf("UpdateCustomer returned error: %v", err)
	}

	// Updated fields merged with untouched prior fields
	if updated.Name != "Alicia" {
		t.Fatalf("expected updated name, got %q", updated.Name)
	}
	if updated.PersonalDiscount != 5 {
		t.Fatalf("expected discount 5, got %d", updated.PersonalDiscount)
	}
	if updated.Email != "alice@example.com" {
		t.Fatalf("expected email untouched, got %q", updated.Email)
	}
	if updated.Telephone != "5551234" {
		t.Fatalf("expected telephone untouched, got %q", updated.Telephone)
	}
}

func TestFindCustomer_NotFound(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.FindCustomer(map[string]any{"telephone": "nope"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSession_InsertFindUpdate(t *testing.T) {
	db := openTestDB(t)

	now := time.Now().Truncate(time.Second)
	s, err := db.InsertSession("tok123", now)
	if err != nil {
		t.Fatalf("InsertSession returned error: %v", err)
	}
	if s.ID == 0 {
		t.Fatal("expected store-assigned session id")
	}

	// Link to a customer, then find by id+token
	c := &Customer{Telephone: "5551234", Password: "digest"}
	if err := db.AddCustomer(c); err != nil {
		t.Fatalf("AddCustomer returned error: %v", err)
	}
	if err := db.UpdateSession(
		map[string]any{"customer": c.ID, "authorized": true},
		map[string]any{"id": s.ID},
	); err != nil {
		t.Fatalf("UpdateSession returned error: %v", err)
	}

	found, err := db.FindSession(map[string]any{"id": s.ID, "token": "tok123"})
	if err != nil {
		t.Fatalf("FindSession returned error: %v", err)
	}
	if !found.Authorized {
		t.Fatal("expected session to be authorized")
	}
	if found.Customer == nil || *found.Customer != c.ID {
		t.Fatalf("expected customer link %d, got %v", c.ID, found.Customer)
	}
	if found.Admin != nil {
		t.Fatalf("expected no admin link, got %v", found.Admin)
	}
}

func TestReloadSession_GoneRow(t *testing.T) {
	db := openTestDB(t)

	s, err := db.InsertSession("tok123", time.Now())
	if err != nil {
		t.Fatalf("InsertSession returned error: %v", err)
	}

	if err := db.DeleteWhere("session", map[string]any{"id": s.ID}); err != nil {
		t.Fatalf("DeleteWhere returned error: %v", err)
	}
	if err := db.ReloadSession(s); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestProducts_FindManyAndUpdate(t *testing.T) {
	db := openTestDB(t)

	for _, p := range []*Product{
		{Name: "mug", Type: "kitchen", Price: 700},
		{Name: "plate", Type: "kitchen", Price: 900},
		{Name: "lamp", Type: "decor", Price: 2500, DiscountCheck: true},
	} {
		if err := db.AddProduct(p); err != nil {
			t.Fatalf("AddProduct returned error: %v", err)
		}
		if p.ID == 0 {
			t.Fatal("expected store-assigned product id")
		}
	}

	all, err := db.FindProducts(nil)
	if err != nil {
		t.Fatalf("FindProducts returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 products, got %d", len(all))
	}

	kitchen, err := db.FindProducts(map[string]any{"type": "kitchen"})
	if err != nil {
		t.Fatalf("FindProducts(type) returned error: %v", err)
	}
	if len(kitchen) != 2 {
		t.Fatalf("expected 2 kitchen products, got %d", len(kitchen))
	}

	updated, err := db.UpdateProduct(kitchen[0].ID, map[string]any{"price": 800})
	if err != nil {
		t.Fatalf("UpdateProduct returned error: %v", err)
	}
	if updated.Price != 800 {
		t.Fatalf("expected price 800, got %d", updated.Price)
	}
	if updated.Name != kitchen[0].Name {
		t.Fatalf("expected name untouched, got %q", updated.Name)
	}
}

func TestBanner_AddUpdateByAlias(t *testing.T) {
	db := openTestDB(t)

	b := &Banner{Alias: "summer-sale", Title: "Summer Sale", Text: "Up to 50% off"}
	if err := db.AddBanner(b); err != nil {
		t.Fatalf("AddBanner returned error: %v", err)
	}
	if b.ID == 0 {
		t.Fatal("expected store-assigned banner id")
	}

	dup := &Banner{Alias: "summer-sale", Title: "Other"}
	if err := db.AddBanner(dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate alias, got %v", err)
	}

	updated, err := db.UpdateBanner("summer-sale", map[string]any{"title": "Final Days"})
	if err != nil {
		t.Fatalf("UpdateBanner returned error: %v", err)
	}
	if updated.Title != "Final Days" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
	if updated.Text != "Up to 50% off" {
		t.Fatalf("expected text untouched, got %q", updated.Text)
	}
}

func TestSettings_RoundTrip(t *testing.T) {
	db := openTestDB(t)

	if err := db.SetSetting("maintenance.schedule", "@daily"); err != nil {
		t.Fatalf("SetSetting returned error: %v", err)
	}
	if err := db.SetSetting("maintenance.schedule", "@hourly"); err != nil {
		t.Fatalf("SetSetting overwrite returned error: %v", err)
	}

	val, err := db.GetSetting("maintenance.schedule")
	if err != nil {
		t.Fatalf("GetSetting returned error: %v", err)
	}
	if val != "@hourly" {
		t.Fatalf("expected @hourly, got %q", val)
	}

	missing, err := db.GetSetting("does.not.exist")
	if err != nil {
		t.Fatalf("GetSetting for missing key returned error: %v", err)
	}
	if missing != "" {
		t.Fatalf("expected empty value for missing key, got %q", missing)
	}
}
