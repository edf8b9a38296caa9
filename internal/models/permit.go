// internal/models/permit.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovePermitRequest struct {
	BaseModel
	ReferenceNumber     string       `json:"reference_number" gorm:"size:20;not null;uniqueIndex"`
	TenantID            uuid.UUID    `json:"tenant_id" gorm:"type:uuid;not null;index"`
	PropertyID          uuid.UUID    `json:"property_id" gorm:"type:uuid;not null;index"`
	LeaseID             uuid.UUID    `json:"lease_id" gorm:"type:uuid;not null;index"`
	PermitType          PermitType   `json:"permit_type" gorm:"type:varchar(20);not null"`
	Status              PermitStatus `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	RequestedMoveDate   time.Time    `json:"requested_move_date" gorm:"type:date;not null"`
	TimeWindowStart     string       `json:"time_window_start,omitempty" gorm:"size:5"`
	TimeWindowEnd       string       `json:"time_window_end,omitempty" gorm:"size:5"`
	MoverCompany        MoverCompany `json:"mover_company" gorm:"embedded;embeddedPrefix:mover_"`
	SpecialInstructions string       `json:"special_instructions,omitempty" gorm:"type:text"`
	ReviewNotes         string       `json:"review_notes,omitempty" gorm:"type:text"`
	ReviewedBy          *uuid.UUID   `json:"reviewed_by,omitempty" gorm:"type:uuid"`
	SubmittedAt         *time.Time   `json:"submitted_at"`
	ReviewStartedAt     *time.Time   `json:"review_started_at"`
	DecidedAt           *time.Time   `json:"decided_at"`
	CancelledAt         *time.Time   `json:"cancelled_at"`
	CompletedAt         *time.Time   `json:"completed_at"`

	// Relationships
	Documents           []PermitDocument           `json:"documents" gorm:"foreignKey:PermitID"`
	AdditionalDocuments []PermitAdditionalDocument `json:"additional_documents" gorm:"foreignKey:PermitID"`
	Vehicles            []PermitVehicle            `json:"vehicle_manifest" gorm:"foreignKey:PermitID"`
}

// MoverCompany holds the removal company details required before submission.
type MoverCompany struct {
	Name            string `json:"name" gorm:"size:255" validate:"notblank"`
	TradeLicenseRef string `json:"trade_license_ref" gorm:"size:500" validate:"notblank"`
	NOCRef          string `json:"noc_ref" gorm:"size:500" validate:"notblank"`
	ContactName     string `json:"contact_name" gorm:"size:255" validate:"notblank"`
	ContactMobile   string `json:"contact_mobile" gorm:"size:30" validate:"notblank"`
}

// DocumentRef is the opaque handle returned by the upload collaborator.
type DocumentRef struct {
	URL      string `json:"url" validate:"required,max=2048"`
	Filename string `json:"filename" validate:"max=255"`
}

type PermitDocument struct {
	ID        uuid.UUID `json:"-" gorm:"type:uuid;primary_key"`
	PermitID  uuid.UUID `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_permit_documents_slot"`
	SlotKey   string    `json:"key" gorm:"size:64;not null;uniqueIndex:idx_permit_documents_slot"`
	URL       string    `json:"url" gorm:"size:2048;not null"`
	Filename  string    `json:"filename" gorm:"size:255"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PermitAdditionalDocument struct {
	ID        uuid.UUID `json:"-" gorm:"type:uuid;primary_key"`
	PermitID  uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	Position  int       `json:"position" gorm:"not null"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	URL       string    `json:"url" gorm:"size:2048;not null"`
	Filename  string    `json:"filename" gorm:"size:255"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type PermitVehicle struct {
	ID          uuid.UUID `json:"-" gorm:"type:uuid;primary_key"`
	PermitID    uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	Position    int       `json:"position" gorm:"not null"`
	PlateNumber string    `json:"plate_number" gorm:"size:32;not null" validate:"notblank,max=32"`
	Description string    `json:"description" gorm:"size:255;not null" validate:"notblank,max=255"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// PermitEvent records one applied lifecycle transition.
type PermitEvent struct {
	ID         uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	PermitID   uuid.UUID     `json:"permit_id" gorm:"type:uuid;not null;uniqueIndex:idx_permit_events_sequence"`
	Sequence   int           `json:"sequence" gorm:"not null;uniqueIndex:idx_permit_events_sequence"`
	Command    PermitCommand `json:"command" gorm:"type:varchar(20);not null"`
	FromStatus PermitStatus  `json:"from_status" gorm:"type:varchar(20);not null"`
	ToStatus   PermitStatus  `json:"to_status" gorm:"type:varchar(20);not null"`
	ActorID    uuid.UUID     `json:"actor_id" gorm:"type:uuid;not null"`
	ActorRole  ActorRole     `json:"actor_role" gorm:"type:varchar(20);not null"`
	Notes      string        `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Document returns the stored reference for a slot key.
func (p *MovePermitRequest) Document(key string) (PermitDocument, bool) {
	for _, doc := range p.Documents {
		if doc.SlotKey == key {
			return doc, true
		}
	}
	return PermitDocument{}, false
}

func (d *PermitDocument) BeforeCreate(tx *gorm.DB) error {
	newChildID(&d.ID)
	return nil
}

func (d *PermitAdditionalDocument) BeforeCreate(tx *gorm.DB) error {
	newChildID(&d.ID)
	return nil
}

func (v *PermitVehicle) BeforeCreate(tx *gorm.DB) error {
	newChildID(&v.ID)
	return nil
}

func (e *PermitEvent) BeforeCreate(tx *gorm.DB) error {
	newChildID(&e.ID)
	return nil
}

func newChildID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
