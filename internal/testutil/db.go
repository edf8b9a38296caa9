// internal/testutil/db.go
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/javajoker/move-permit-backend/internal/database"
	"github.com/javajoker/move-permit-backend/internal/models"
)

// NewDB opens a migrated in-memory sqlite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("silent"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	return db
}

// LeaseFixture describes a lease created by CreateLease.
type LeaseFixture struct {
	Lease    models.Lease
	TenantID uuid.UUID
	OwnerID  uuid.UUID
}

// CreateLease inserts an active lease with fresh identities.
func CreateLease(t testing.TB, db *gorm.DB) LeaseFixture {
	t.Helper()

	lease := models.Lease{
		PropertyID: uuid.New(),
		TenantID:   uuid.New(),
		OwnerID:    uuid.New(),
		UnitNumber: "803",
		IsActive:   true,
	}
	require.NoError(t, db.Create(&lease).Error)

	return LeaseFixture{Lease: lease, TenantID: lease.TenantID, OwnerID: lease.OwnerID}
}
