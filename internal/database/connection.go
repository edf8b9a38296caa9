// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/move-permit-backend/internal/config"
	"github.com/javajoker/move-permit-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), GormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("Database connection established")
	return DB, nil
}

// GormConfig builds the shared gorm settings. TranslateError maps driver
// unique violations to gorm.ErrDuplicatedKey for every dialect.
func GormConfig(logLevel string) *gorm.Config {
	level := logger.Warn
	switch logLevel {
	case "silent":
		level = logger.Silent
	case "error":
		level = logger.Error
	case "info":
		level = logger.Info
	}

	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
			return fmt.Errorf("failed to create UUID extension: %w", err)
		}
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.Lease{},
		&models.MovePermitRequest{},
		&models.PermitDocument{},
		&models.PermitAdditionalDocument{},
		&models.PermitVehicle{},
		&models.PermitEvent{},
		&models.PermitNotification{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

// activePermitIndex backs the one-active-permit-per-lease rule at the storage level.
const activePermitIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_permits_active_lease_type
	ON move_permit_requests(lease_id, permit_type)
	WHERE status IN ('draft', 'submitted', 'under_review', 'approved') AND deleted_at IS NULL`

func createIndexes(db *gorm.DB) error {
	// Required for correctness, so a failure aborts the migration.
	if err := db.Exec(activePermitIndex).Error; err != nil {
		return err
	}

	indexes := []string{
		// Permit indexes
		"CREATE INDEX IF NOT EXISTS idx_permits_tenant_status ON move_permit_requests(tenant_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_permits_property_status ON move_permit_requests(property_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_permits_move_date ON move_permit_requests(requested_move_date)",
		"CREATE INDEX IF NOT EXISTS idx_permit_vehicles_position ON permit_vehicles(permit_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_permit_additional_documents_position ON permit_additional_documents(permit_id, position)",

		// Lease indexes
		"CREATE INDEX IF NOT EXISTS idx_leases_owner_active ON leases(owner_id, is_active)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_permit_notifications_recipient ON permit_notifications(recipient_role, recipient_id)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).Warnf("Failed to create index: %s", index)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// SeedData holds the identities created by SeedInitialData.
type SeedData struct {
	LeaseID    uuid.UUID
	PropertyID uuid.UUID
	TenantID   uuid.UUID
	OwnerID    uuid.UUID
}

// SeedInitialData creates a demo lease so a fresh environment can exercise the
// permit flow. It is a no-op when any lease exists.
func SeedInitialData(db *gorm.DB) (*SeedData, error) {
	logrus.Info("Seeding initial data...")

	var leaseCount int64
	if err := db.Model(&models.Lease{}).Count(&leaseCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count leases: %w", err)
	}

	if leaseCount > 0 {
		logrus.Info("Leases already present, skipping seed")
		return nil, nil
	}

	now := time.Now().UTC()
	lease := &models.Lease{
		PropertyID: uuid.New(),
		TenantID:   uuid.New(),
		OwnerID:    uuid.New(),
		UnitNumber: "1204",
		StartDate:  now.AddDate(0, -1, 0),
		EndDate:    now.AddDate(1, -1, 0),
		IsActive:   true,
	}

	if err := db.Create(lease).Error; err != nil {
		return nil, fmt.Errorf("failed to create demo lease: %w", err)
	}

	logrus.WithField("lease_id", lease.ID).Info("Initial data seeding completed")
	return &SeedData{
		LeaseID:    lease.ID,
		PropertyID: lease.PropertyID,
		TenantID:   lease.TenantID,
		OwnerID:    lease.OwnerID,
	}, nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
