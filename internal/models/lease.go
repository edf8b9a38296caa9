// internal/models/lease.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Lease is the local projection of the lease/property system. This service
// never writes it outside of seeding; the leasing system owns the data.
type Lease struct {
	BaseModel
	PropertyID uuid.UUID `json:"property_id" gorm:"type:uuid;not null;index"`
	TenantID   uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;index"`
	OwnerID    uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	UnitNumber string    `json:"unit_number" gorm:"size:50"`
	StartDate  time.Time `json:"start_date" gorm:"type:date"`
	EndDate    time.Time `json:"end_date" gorm:"type:date"`
	IsActive   bool      `json:"is_active" gorm:"not null"`
}
