// internal/permits/validation.go
package permits

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/move-permit-backend/internal/models"
	"github.com/javajoker/move-permit-backend/internal/utils"
)

// ValidateForSubmission reports every reason the permit cannot be submitted.
// It returns nil or a *SubmissionError.
func ValidateForSubmission(p *models.MovePermitRequest) error {
	var issues []FieldIssue

	for _, slot := range RequiredSlots(p.PermitType) {
		doc, ok := p.Document(string(slot.Key))
		if ok && strings.TrimSpace(doc.URL) != "" {
			continue
		}
		issues = append(issues, FieldIssue{
			Code:    IssueMissingRequiredDocument,
			Field:   "documents." + string(slot.Key),
			Label:   slot.Label,
			Message: slot.Label + " is required",
		})
	}

	issues = append(issues, moverIssues(p.MoverCompany)...)

	if len(p.Vehicles) == 0 {
		issues = append(issues, FieldIssue{
			Code:    IssueEmptyVehicleManifest,
			Field:   "vehicle_manifest",
			Message: "at least one vehicle is required",
		})
	}
	for i, vehicle := range p.Vehicles {
		issues = append(issues, vehicleIssues(i, vehicle)...)
	}

	if len(issues) == 0 {
		return nil
	}
	return &SubmissionError{Issues: issues}
}

func moverIssues(mover models.MoverCompany) []FieldIssue {
	return fieldIssues(utils.ValidateStruct(mover), IssueMissingMoverDetails, "mover_company.")
}

func vehicleIssues(index int, vehicle models.PermitVehicle) []FieldIssue {
	prefix := fmt.Sprintf("vehicle_manifest[%d].", index)
	return fieldIssues(utils.ValidateStruct(vehicle), IssueInvalidVehicle, prefix)
}

func fieldIssues(err error, code, prefix string) []FieldIssue {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []FieldIssue{{Code: code, Field: strings.TrimSuffix(prefix, "."), Message: err.Error()}}
	}

	issues := make([]FieldIssue, 0, len(fieldErrs))
	for _, ve := range utils.GetValidationErrors(fieldErrs) {
		issues = append(issues, FieldIssue{
			Code:    code,
			Field:   prefix + ve.Field,
			Message: prefix + ve.Message,
		})
	}
	return issues
}

// TransitionOptions carries command specific input.
type TransitionOptions struct {
	ReviewNotes string
	// Confirm lets a manager complete a permit before the move date.
	Confirm bool
}

// ValidateTransition checks the actor, then the lifecycle table, then the command guards.
// Draft completeness for submit is checked separately by ValidateForSubmission.
func ValidateTransition(p *models.MovePermitRequest, cmd models.PermitCommand, actor Actor, now time.Time, opts TransitionOptions) (models.PermitStatus, error) {
	if !roleMayIssue(actor.Role, cmd) {
		return "", fmt.Errorf("%w: %s cannot %s", ErrUnauthorizedActor, actor.Role, cmd)
	}
	if actor.Role == models.ActorRoleTenant && p.TenantID != actor.ID {
		return "", fmt.Errorf("%w: permit belongs to another tenant", ErrUnauthorizedActor)
	}

	to, ok := CanTransition(p.Status, cmd)
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, cmd, p.Status)
	}

	switch cmd {
	case models.PermitCommandReject:
		if strings.TrimSpace(opts.ReviewNotes) == "" {
			return "", ErrReviewNotesRequired
		}
	case models.PermitCommandComplete:
		if !opts.Confirm && !MoveDateReached(p.RequestedMoveDate, now) {
			return "", fmt.Errorf("%w: move date is %s", ErrMoveDateNotReached, p.RequestedMoveDate.Format(DateLayout))
		}
	}

	return to, nil
}

// DateLayout is the wire format of move dates.
const DateLayout = "2006-01-02"

// MoveDateReached reports whether a permit may be completed without
// confirmation. The move date counts as passed from 00:00 UTC of that day, so
// a move can be closed out on the day it happens; any earlier completion is an
// early completion.
func MoveDateReached(moveDate, now time.Time) bool {
	return !now.UTC().Before(StartOfDay(moveDate))
}

// StartOfDay truncates t to midnight UTC of its calendar date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateSchedule checks an edited move date and time window. The move date
// may not be before today.
func ValidateSchedule(moveDate time.Time, windowStart, windowEnd string, now time.Time) error {
	if moveDate.IsZero() {
		return fmt.Errorf("%w: move date is required", ErrInvalidSchedule)
	}
	if StartOfDay(moveDate).Before(StartOfDay(now.UTC())) {
		return fmt.Errorf("%w: move date %s is in the past", ErrInvalidSchedule, moveDate.Format(DateLayout))
	}
	if (windowStart == "") != (windowEnd == "") {
		return fmt.Errorf("%w: time window needs both start and end", ErrInvalidSchedule)
	}
	if windowStart == "" {
		return nil
	}
	if !utils.IsTimeOfDay(windowStart) || !utils.IsTimeOfDay(windowEnd) {
		return fmt.Errorf("%w: time window must use HH:MM", ErrInvalidSchedule)
	}
	// zero-padded HH:MM compares lexically
	if windowStart >= windowEnd {
		return fmt.Errorf("%w: time window start must be before end", ErrInvalidSchedule)
	}
	return nil
}

// ParseMoveDate parses a YYYY-MM-DD date as UTC midnight.
func ParseMoveDate(value string) (time.Time, error) {
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidSchedule, value)
	}
	return date, nil
}
