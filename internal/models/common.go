// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the primary key in Go so every dialect gets the same ids.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type PermitType string

const (
	PermitTypeMoveIn  PermitType = "move_in"
	PermitTypeMoveOut PermitType = "move_out"
)

func (t PermitType) IsValid() bool {
	return t == PermitTypeMoveIn || t == PermitTypeMoveOut
}

// PermitTypes lists every permit type in a stable order.
func PermitTypes() []PermitType {
	return []PermitType{PermitTypeMoveIn, PermitTypeMoveOut}
}

type PermitStatus string

const (
	PermitStatusDraft       PermitStatus = "draft"
	PermitStatusSubmitted   PermitStatus = "submitted"
	PermitStatusUnderReview PermitStatus = "under_review"
	PermitStatusApproved    PermitStatus = "approved"
	PermitStatusRejected    PermitStatus = "rejected"
	PermitStatusCancelled   PermitStatus = "cancelled"
	PermitStatusCompleted   PermitStatus = "completed"
)

// PermitStatuses lists every status in lifecycle order.
func PermitStatuses() []PermitStatus {
	return []PermitStatus{
		PermitStatusDraft,
		PermitStatusSubmitted,
		PermitStatusUnderReview,
		PermitStatusApproved,
		PermitStatusRejected,
		PermitStatusCancelled,
		PermitStatusCompleted,
	}
}

func (s PermitStatus) IsValid() bool {
	for _, known := range PermitStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s PermitStatus) IsTerminal() bool {
	switch s {
	case PermitStatusRejected, PermitStatusCancelled, PermitStatusCompleted:
		return true
	default:
		return false
	}
}

// ActiveStatuses are the non-terminal statuses; at most one permit per lease and type may hold one.
func ActiveStatuses() []PermitStatus {
	return []PermitStatus{
		PermitStatusDraft,
		PermitStatusSubmitted,
		PermitStatusUnderReview,
		PermitStatusApproved,
	}
}

func TerminalStatuses() []PermitStatus {
	return []PermitStatus{
		PermitStatusRejected,
		PermitStatusCancelled,
		PermitStatusCompleted,
	}
}

type ActorRole string

const (
	ActorRoleTenant ActorRole = "tenant"
	ActorRoleOwner  ActorRole = "owner"
	ActorRoleAdmin  ActorRole = "admin"
)

func (r ActorRole) IsValid() bool {
	switch r {
	case ActorRoleTenant, ActorRoleOwner, ActorRoleAdmin:
		return true
	default:
		return false
	}
}

// IsManager reports whether the role reviews permits.
func (r ActorRole) IsManager() bool {
	return r == ActorRoleOwner || r == ActorRoleAdmin
}

type PermitCommand string

const (
	PermitCommandSubmit      PermitCommand = "submit"
	PermitCommandBeginReview PermitCommand = "begin_review"
	PermitCommandCancel      PermitCommand = "cancel"
	PermitCommandApprove     PermitCommand = "approve"
	PermitCommandReject      PermitCommand = "reject"
	PermitCommandComplete    PermitCommand = "complete"
)

func PermitCommands() []PermitCommand {
	return []PermitCommand{
		PermitCommandSubmit,
		PermitCommandBeginReview,
		PermitCommandCancel,
		PermitCommandApprove,
		PermitCommandReject,
		PermitCommandComplete,
	}
}
