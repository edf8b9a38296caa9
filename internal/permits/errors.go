// internal/permits/errors.go
package permits

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/javajoker/move-permit-backend/internal/models"
)

var (
	ErrMissingRequiredDocument = errors.New("missing required document")
	ErrMissingMoverDetails     = errors.New("missing mover company details")
	ErrEmptyVehicleManifest    = errors.New("vehicle manifest is empty")
	ErrInvalidVehicle          = errors.New("vehicle entry is incomplete")
	ErrSubmissionIncomplete    = errors.New("permit is not ready for submission")
	ErrInvalidTransition       = errors.New("transition not allowed from current status")
	ErrStaleState              = errors.New("permit status changed concurrently")
	ErrDuplicateActiveRequest  = errors.New("an active permit already exists for this lease and type")
	ErrUnauthorizedActor       = errors.New("actor is not allowed to perform this command")
	ErrUpstreamUploadFailure   = errors.New("document upload failed")
	ErrPermitNotFound          = errors.New("permit not found")
	ErrPermitLocked            = errors.New("permit can only be edited in draft")
	ErrUnknownDocumentSlot     = errors.New("unknown document slot for permit type")
	ErrInactiveLease           = errors.New("lease is not active for this tenant")
	ErrReviewNotesRequired     = errors.New("review notes are required to reject")
	ErrMoveDateNotReached      = errors.New("move date has not been reached")
	ErrInvalidIndex            = errors.New("index out of range")
	ErrInvalidSchedule         = errors.New("invalid move schedule")
)

// Issue codes reported by ValidateForSubmission.
const (
	IssueMissingRequiredDocument = "missing_required_document"
	IssueMissingMoverDetails     = "missing_mover_details"
	IssueEmptyVehicleManifest    = "empty_vehicle_manifest"
	IssueInvalidVehicle          = "invalid_vehicle"
)

// FieldIssue is one problem found while checking a draft.
type FieldIssue struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Label   string `json:"label,omitempty"`
	Message string `json:"message"`
}

func (i FieldIssue) sentinel() error {
	switch i.Code {
	case IssueMissingRequiredDocument:
		return ErrMissingRequiredDocument
	case IssueMissingMoverDetails:
		return ErrMissingMoverDetails
	case IssueEmptyVehicleManifest:
		return ErrEmptyVehicleManifest
	default:
		return ErrInvalidVehicle
	}
}

// SubmissionError carries every issue that blocks a submit.
type SubmissionError struct {
	Issues []FieldIssue `json:"issues"`
}

func (e *SubmissionError) Error() string {
	messages := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		messages = append(messages, issue.Message)
	}
	return fmt.Sprintf("%s: %s", ErrSubmissionIncomplete, strings.Join(messages, "; "))
}

// Is lets errors.Is match ErrSubmissionIncomplete and the sentinel of any contained issue.
func (e *SubmissionError) Is(target error) bool {
	if target == ErrSubmissionIncomplete {
		return true
	}
	for _, issue := range e.Issues {
		if issue.sentinel() == target {
			return true
		}
	}
	return false
}

// Codes returns the issue codes in report order.
func (e *SubmissionError) Codes() []string {
	codes := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		codes = append(codes, issue.Code)
	}
	return codes
}

// Actor is the authenticated caller of a permit operation.
type Actor struct {
	ID   uuid.UUID
	Role models.ActorRole
}

func (a Actor) String() string {
	return fmt.Sprintf("%s:%s", a.Role, a.ID)
}
