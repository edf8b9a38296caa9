// internal/models/audit.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	UserRole     string     `json:"user_role" gorm:"size:20"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	StatusCode   int        `json:"status_code"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
}

// PermitNotification is the in-app record of a notifier invocation.
type PermitNotification struct {
	BaseModel
	PermitID      uuid.UUID    `json:"permit_id" gorm:"type:uuid;not null;index"`
	Status        PermitStatus `json:"status" gorm:"type:varchar(20);not null"`
	RecipientRole ActorRole    `json:"recipient_role" gorm:"type:varchar(20);not null;index"`
	RecipientID   *uuid.UUID   `json:"recipient_id" gorm:"type:uuid;index"`
	Title         string       `json:"title" gorm:"size:255;not null"`
	Message       string       `json:"message" gorm:"type:text;not null"`
	Data          JSONB        `json:"data" gorm:"type:jsonb"`
	ReadAt        *time.Time   `json:"read_at"`
}
