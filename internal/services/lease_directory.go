// internal/services/lease_directory.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/move-permit-backend/internal/models"
)

// LeaseInfo is what the permit flow needs to know about a lease.
type LeaseInfo struct {
	LeaseID    uuid.UUID
	PropertyID uuid.UUID
	TenantID   uuid.UUID
	OwnerID    uuid.UUID
	Active     bool
}

// LeaseDirectory answers lease and property questions owned by the leasing system.
type LeaseDirectory interface {
	Lookup(ctx context.Context, leaseID uuid.UUID) (*LeaseInfo, error)
	ManagedPropertyIDs(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
}

var ErrLeaseNotFound = errors.New("lease not found")

// GormLeaseDirectory reads the local lease projection.
type GormLeaseDirectory struct {
	db *gorm.DB
}

func NewLeaseDirectory(db *gorm.DB) *GormLeaseDirectory {
	return &GormLeaseDirectory{db: db}
}

func (d *GormLeaseDirectory) Lookup(ctx context.Context, leaseID uuid.UUID) (*LeaseInfo, error) {
	var lease models.Lease
	if err := d.db.WithContext(ctx).Where("id = ?", leaseID).First(&lease).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaseNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &LeaseInfo{
		LeaseID:    lease.ID,
		PropertyID: lease.PropertyID,
		TenantID:   lease.TenantID,
		OwnerID:    lease.OwnerID,
		Active:     lease.IsActive,
	}, nil
}

// ManagedPropertyIDs lists the properties an owner holds at least one lease on.
func (d *GormLeaseDirectory) ManagedPropertyIDs(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.db.WithContext(ctx).Model(&models.Lease{}).
		Where("owner_id = ?", ownerID).
		Distinct().
		Order("property_id").
		Pluck("property_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load managed properties: %w", err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}
