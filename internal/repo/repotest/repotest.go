// Package repotest opens throwaway SQLite databases for tests.
package repotest

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
)

const legacyCartsDDL = `CREATE TABLE carts (
	id text PRIMARY KEY,
	user_id text NOT NULL,
	product_id text NOT NULL,
	quantity integer NOT NULL,
	updated_at datetime NOT NULL
)`

// single connection: every new connection to :memory: is a new database
func open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := pkgdb.OpenDialector(context.Background(), sqlite.Open(":memory:"), pkgdb.Pool{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = pkgdb.Close(db) })
	return db
}

// NewRepo returns a migrated repo whose carts table has the unique index.
func NewRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	r := &repo.GormRepo{DB: open(t)}
	ctx := context.Background()
	if err := r.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := r.EnsureCartUniqueness(ctx); err != nil {
		t.Fatalf("unique index: %v", err)
	}
	return r
}

// NewLegacyRepo returns a repo whose carts table has no uniqueness
// constraint, as in databases created before the index existed.
func NewLegacyRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	db := open(t)
	if err := db.Exec(legacyCartsDDL).Error; err != nil {
		t.Fatalf("create legacy carts: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Discount{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &repo.GormRepo{DB: db}
}
