// Package testutil opens a throwaway SQLite database with the application schema and
// seeds the fixtures service and API tests build on.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// Password is the plain password of every seeded user
const Password = "correct-horse-battery"

// NewDB returns a migrated in-memory database that is closed when t ends. A single
// connection keeps every query on the same in-memory database.
func NewDB(t *testing.T) *database.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", models.GenerateID("test"))
	raw, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	raw.SetMaxOpenConns(1)

	db := database.Wrap(raw, logger.NewNop())
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Fixtures holds the ids of seeded rows
type Fixtures struct {
	FactoryID      string
	OtherFactoryID string
	PoolModelID    string
	ColorID        string

	AdminID      string
	SuperAdminID string

	DealerID       string
	DealerUserID   string
	DealerEmail    string
	PendingID      string
	PendingUserID  string
	OtherDealerID  string
	OtherDealerUID string
}

// Seed inserts two factories, one pool model, one color, an admin, a superadmin, two
// approved dealers and one dealer awaiting approval.
func Seed(t *testing.T, db *database.Database) *Fixtures {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	f := &Fixtures{
		FactoryID:      "fac_main",
		OtherFactoryID: "fac_south",
		PoolModelID:    "pm_laguna",
		ColorID:        "col_blue",
		AdminID:        "usr_admin",
		SuperAdminID:   "usr_super",
		DealerID:       "dlr_acme",
		DealerUserID:   "usr_acme",
		DealerEmail:    "orders@acme-pools.test",
		PendingID:      "dlr_new",
		PendingUserID:  "usr_new",
		OtherDealerID:  "dlr_rival",
		OtherDealerUID: "usr_rival",
	}

	now := time.Now().UTC()
	price := decimal.RequireFromString("42500.00")

	exec := func(query string, args ...interface{}) {
		t.Helper()
		if _, err := db.DB.Exec(db.DB.Rebind(query), args...); err != nil {
			t.Fatalf("seed %q: %v", query, err)
		}
	}

	exec(`INSERT INTO factories (id, name, location, is_active, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.FactoryID, "Main Plant", "Lakeland, FL", true, now)
	exec(`INSERT INTO factories (id, name, location, is_active, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.OtherFactoryID, "South Plant", "Edinburg, TX", true, now)
	exec(`INSERT INTO pool_models (id, name, length_ft, width_ft, depth_ft, base_price, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.PoolModelID, "Laguna 32", decimal.NewFromInt(32), decimal.NewFromInt(16), decimal.RequireFromString("6.5"), price, true, now)
	exec(`INSERT INTO colors (id, name, hex_code, is_active, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.ColorID, "Caribbean Blue", "#1B6CA8", true, now)

	exec(`INSERT INTO users (id, email, password_hash, role, is_approved, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.AdminID, "admin@pools.test", string(hash), models.RoleAdmin, true, now)
	exec(`INSERT INTO users (id, email, password_hash, role, is_approved, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.SuperAdminID, "root@pools.test", string(hash), models.RoleSuperAdmin, true, now)

	dealer := func(dealerID, userID, company, email string, approved bool) {
		exec(`INSERT INTO dealers (id, company_name, contact_name, onboarding, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`, dealerID, company, "Pat Rivera", "{}", now, now)
		exec(`INSERT INTO users (id, email, password_hash, role, dealer_id, is_approved, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, userID, email, string(hash), models.RoleDealer, dealerID, approved, now)
	}
	dealer(f.DealerID, f.DealerUserID, "Acme Pools", f.DealerEmail, true)
	dealer(f.PendingID, f.PendingUserID, "New Wave Pools", "hello@newwave.test", false)
	dealer(f.OtherDealerID, f.OtherDealerUID, "Rival Pools", "sales@rival.test", true)

	return f
}

// MustExec runs a statement against db or fails the test
func MustExec(t *testing.T, db *database.Database, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.DB.ExecContext(context.Background(), db.DB.Rebind(query), args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}
