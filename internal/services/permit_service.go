// internal/services/permit_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/move-permit-backend/internal/metrics"
	"github.com/javajoker/move-permit-backend/internal/models"
	"github.com/javajoker/move-permit-backend/internal/permits"
	"github.com/javajoker/move-permit-backend/internal/utils"
)

// PermitService drives permit drafts through their lifecycle.
type PermitService struct {
	store    *PermitStore
	leases   LeaseDirectory
	notifier Notifier
	uploader DocumentUploader
	config   PermitServiceConfig
	now      func() time.Time
	log      *logrus.Entry
	queue    notificationQueue
	inflight sync.WaitGroup
}

type PermitServiceConfig struct {
	MoveInPrefix  string
	MoveOutPrefix string
	// Upload limits for slot documents; the folder is set per permit.
	Upload UploadOptions
	// NotifyTimeout bounds each background notifier call.
	NotifyTimeout time.Duration
}

type CreatePermitRequest struct {
	LeaseID             uuid.UUID          `json:"lease_id" validate:"required"`
	PermitType          models.PermitType  `json:"permit_type" validate:"required,permit_type"`
	RequestedMoveDate   string             `json:"requested_move_date" validate:"required,datetime=2006-01-02"`
	TimeWindowStart     string             `json:"time_window_start,omitempty" validate:"omitempty,hhmm"`
	TimeWindowEnd       string             `json:"time_window_end,omitempty" validate:"omitempty,hhmm"`
	MoverCompany        *MoverCompanyInput `json:"mover_company,omitempty"`
	SpecialInstructions string             `json:"special_instructions,omitempty" validate:"max=2000"`
}

type UpdatePermitRequest struct {
	RequestedMoveDate   *string            `json:"requested_move_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TimeWindowStart     *string            `json:"time_window_start,omitempty" validate:"omitempty,hhmm"`
	TimeWindowEnd       *string            `json:"time_window_end,omitempty" validate:"omitempty,hhmm"`
	MoverCompany        *MoverCompanyInput `json:"mover_company,omitempty"`
	SpecialInstructions *string            `json:"special_instructions,omitempty" validate:"omitempty,max=2000"`
}

// MoverCompanyInput may be partial while the permit is a draft.
type MoverCompanyInput struct {
	Name            string `json:"name" validate:"max=255"`
	TradeLicenseRef string `json:"trade_license_ref" validate:"max=500"`
	NOCRef          string `json:"noc_ref" validate:"max=500"`
	ContactName     string `json:"contact_name" validate:"max=255"`
	ContactMobile   string `json:"contact_mobile" validate:"max=30"`
}

func (m *MoverCompanyInput) toModel() models.MoverCompany {
	return models.MoverCompany{
		Name:            strings.TrimSpace(m.Name),
		TradeLicenseRef: strings.TrimSpace(m.TradeLicenseRef),
		NOCRef:          strings.TrimSpace(m.NOCRef),
		ContactName:     strings.TrimSpace(m.ContactName),
		ContactMobile:   strings.TrimSpace(m.ContactMobile),
	}
}

type VehicleRequest struct {
	PlateNumber string `json:"plate_number" validate:"required,notblank,max=32"`
	Description string `json:"description" validate:"required,notblank,max=255"`
}

type AdditionalDocumentRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=255"`
	URL      string `json:"url" validate:"required,max=2048"`
	Filename string `json:"filename,omitempty" validate:"max=255"`
}

type TransitionRequest struct {
	ReviewNotes string `json:"review_notes,omitempty" validate:"max=2000"`
	// Confirm completes an approved permit before its move date.
	Confirm bool `json:"confirm,omitempty"`
	// ExpectedStatus is the status the caller last saw; a mismatch is a stale write.
	ExpectedStatus models.PermitStatus `json:"expected_status,omitempty"`
}

// ValidationReport is the submit readiness of a draft.
type ValidationReport struct {
	Ready  bool                 `json:"ready"`
	Issues []permits.FieldIssue `json:"issues"`
}

func NewPermitService(store *PermitStore, leases LeaseDirectory, notifier Notifier, uploader DocumentUploader, config PermitServiceConfig) *PermitService {
	if config.MoveInPrefix == "" {
		config.MoveInPrefix = "MI"
	}
	if config.MoveOutPrefix == "" {
		config.MoveOutPrefix = "MO"
	}
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = 10 * time.Second
	}
	return &PermitService{
		store:    store,
		leases:   leases,
		notifier: notifier,
		uploader: uploader,
		config:   config,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logrus.WithField("component", "permit_service"),
	}
}

// SetClock replaces the time source used for move date checks and timestamps.
func (s *PermitService) SetClock(now func() time.Time) {
	s.now = now
}

// Wait blocks until background notifications have finished.
func (s *PermitService) Wait() {
	s.inflight.Wait()
}

func (s *PermitService) CreateDraft(ctx context.Context, actor permits.Actor, req *CreatePermitRequest) (*models.MovePermitRequest, error) {
	if actor.Role != models.ActorRoleTenant {
		return nil, fmt.Errorf("%w: only tenants create permits", permits.ErrUnauthorizedActor)
	}

	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	moveDate, err := permits.ParseMoveDate(req.RequestedMoveDate)
	if err != nil {
		return nil, err
	}
	if err := permits.ValidateSchedule(moveDate, req.TimeWindowStart, req.TimeWindowEnd, s.now()); err != nil {
		return nil, err
	}

	lease, err := s.leases.Lookup(ctx, req.LeaseID)
	if err != nil {
		if errors.Is(err, ErrLeaseNotFound) {
			return nil, permits.ErrInactiveLease
		}
		return nil, fmt.Errorf("failed to look up lease: %w", err)
	}
	if !lease.Active || lease.TenantID != actor.ID {
		return nil, permits.ErrInactiveLease
	}

	permit := &models.MovePermitRequest{
		TenantID:            actor.ID,
		PropertyID:          lease.PropertyID,
		LeaseID:             lease.LeaseID,
		PermitType:          req.PermitType,
		Status:              models.PermitStatusDraft,
		RequestedMoveDate:   moveDate,
		TimeWindowStart:     req.TimeWindowStart,
		TimeWindowEnd:       req.TimeWindowEnd,
		SpecialInstructions: strings.TrimSpace(req.SpecialInstructions),
	}
	if req.MoverCompany != nil {
		permit.MoverCompany = req.MoverCompany.toModel()
	}

	if err := s.createWithReference(ctx, permit); err != nil {
		return nil, err
	}

	metrics.RecordPermitCreated(string(permit.PermitType))
	s.log.WithFields(logrus.Fields{
		"permit_id":   permit.ID,
		"reference":   permit.ReferenceNumber,
		"permit_type": permit.PermitType,
		"lease_id":    permit.LeaseID,
	}).Info("Permit draft created")

	return s.store.Get(ctx, permit.ID)
}

// createWithReference inserts the draft, retrying when the generated
// reference number collides with an existing one.
func (s *PermitService) createWithReference(ctx context.Context, permit *models.MovePermitRequest) error {
	prefix := s.config.MoveInPrefix
	if permit.PermitType == models.PermitTypeMoveOut {
		prefix = s.config.MoveOutPrefix
	}

	const attempts = 3
	for attempt := 1; ; attempt++ {
		reference, err := utils.GenerateReferenceNumber(prefix)
		if err != nil {
			return fmt.Errorf("failed to generate reference number: %w", err)
		}
		permit.ID = uuid.Nil
		permit.ReferenceNumber = reference

		err = s.store.Transaction(ctx, func(store *PermitStore) error {
			active, err := store.HasActivePermit(ctx, permit.LeaseID, permit.PermitType, nil)
			if err != nil {
				return err
			}
			if active {
				return permits.ErrDuplicateActiveRequest
			}
			return store.Create(ctx, permit)
		})
		if err == nil || !errors.Is(err, permits.ErrDuplicateActiveRequest) || attempt == attempts {
			return err
		}

		// The unique index on reference numbers reports through the same error.
		active, checkErr := s.store.HasActivePermit(ctx, permit.LeaseID, permit.PermitType, nil)
		if checkErr != nil || active {
			return err
		}
	}
}

func (s *PermitService) GetPermit(ctx context.Context, actor permits.Actor, id uuid.UUID) (*models.MovePermitRequest, error) {
	permit, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, permit, actor); err != nil {
		return nil, err
	}
	return permit, nil
}

func (s *PermitService) Events(ctx context.Context, actor permits.Actor, id uuid.UUID) ([]models.PermitEvent, error) {
	if _, err := s.GetPermit(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.store.Events(ctx, id)
}

func (s *PermitService) UpdateDraft(ctx context.Context, actor permits.Actor, id uuid.UUID, req *UpdatePermitRequest) (*models.MovePermitRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	permit, err := s.editableDraft(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	fields := DraftFields{
		TimeWindowStart: req.TimeWindowStart,
		TimeWindowEnd:   req.TimeWindowEnd,
	}
	if req.SpecialInstructions != nil {
		instructions := strings.TrimSpace(*req.SpecialInstructions)
		fields.SpecialInstructions = &instructions
	}
	if req.MoverCompany != nil {
		mover := req.MoverCompany.toModel()
		fields.MoverCompany = &mover
	}

	if req.RequestedMoveDate != nil || req.TimeWindowStart != nil || req.TimeWindowEnd != nil {
		moveDate := permit.RequestedMoveDate
		if req.RequestedMoveDate != nil {
			if moveDate, err = permits.ParseMoveDate(*req.RequestedMoveDate); err != nil {
				return nil, err
			}
			fields.RequestedMoveDate = &moveDate
		}
		start, end := permit.TimeWindowStart, permit.TimeWindowEnd
		if req.TimeWindowStart != nil {
			start = *req.TimeWindowStart
		}
		if req.TimeWindowEnd != nil {
			end = *req.TimeWindowEnd
		}
		if err := permits.ValidateSchedule(moveDate, start, end, s.now()); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateDraftFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *PermitService) AddVehicle(ctx context.Context, actor permits.Actor, id uuid.UUID, req *VehicleRequest) (*models.MovePermitRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if _, err := s.editableDraft(ctx, actor, id); err != nil {
		return nil, err
	}

	vehicle := models.PermitVehicle{
		PlateNumber: strings.TrimSpace(req.PlateNumber),
		Description: strings.TrimSpace(req.Description),
	}
	if _, err := s.store.AppendVehicle(ctx, id, vehicle); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *PermitService) RemoveVehicle(ctx context.Context, actor permits.Actor, id uuid.UUID, index int) (*models.MovePermitRequest, error) {
	if _, err := s.editableDraft(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.store.RemoveVehicle(ctx, id, index); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// SetDocument records a reference that was uploaded elsewhere.
func (s *PermitService) SetDocument(ctx context.Context, actor permits.Actor, id uuid.UUID, slot string, ref *models.DocumentRef) (*models.MovePermitRequest, error) {
	if err := utils.ValidateStruct(ref); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	permit, err := s.editableDraft(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	key, err := permits.ParseSlotKey(permit.PermitType, slot)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.SetDocumentSlot(ctx, id, key, *ref); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// UploadDocument stores the file first and fills the slot only once the
// upload succeeded, so a failed upload never leaves a dangling reference.
func (s *PermitService) UploadDocument(ctx context.Context, actor permits.Actor, id uuid.UUID, slot string, r io.Reader, filename string, size int64) (*models.MovePermitRequest, error) {
	permit, err := s.editableDraft(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	key, err := permits.ParseSlotKey(permit.PermitType, slot)
	if err != nil {
		return nil, err
	}

	options := s.config.Upload
	options.Folder = fmt.Sprintf("permits/%s/%s", id, key)

	result, err := s.uploader.Upload(ctx, r, filename, size, options)
	if err != nil {
		metrics.RecordUpload(uploadFailureReason(err))
		s.log.WithError(err).WithFields(logrus.Fields{
			"permit_id": id,
			"slot":      key,
		}).Warn("Document upload failed")
		return nil, fmt.Errorf("%w: %w", permits.ErrUpstreamUploadFailure, err)
	}
	metrics.RecordUpload("ok")

	ref := models.DocumentRef{URL: result.URL, Filename: result.Filename}
	if _, err := s.store.SetDocumentSlot(ctx, id, key, ref); err != nil {
		s.discardUpload(result.Key, err)
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// discardUpload removes a stored file that no slot ended up referencing.
func (s *PermitService) discardUpload(key string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.NotifyTimeout)
	defer cancel()

	entry := s.log.WithFields(logrus.Fields{"key": key, "cause": cause.Error()})
	if err := s.uploader.Delete(ctx, key); err != nil {
		entry.WithError(err).Error("Failed to delete orphaned upload")
		return
	}
	entry.Warn("Deleted upload that could not be attached")
}

func uploadFailureReason(err error) string {
	var uploadErr *UploadError
	if errors.As(err, &uploadErr) {
		return uploadErr.Reason
	}
	return UploadStorage
}

func (s *PermitService) ClearDocument(ctx context.Context, actor permits.Actor, id uuid.UUID, slot string) (*models.MovePermitRequest, error) {
	permit, err := s.editableDraft(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	key, err := permits.ParseSlotKey(permit.PermitType, slot)
	if err != nil {
		return nil, err
	}

	if err := s.store.ClearDocumentSlot(ctx, id, key); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *PermitService) AddAdditionalDocument(ctx context.Context, actor permits.Actor, id uuid.UUID, req *AdditionalDocumentRequest) (*models.MovePermitRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if _, err := s.editableDraft(ctx, actor, id); err != nil {
		return nil, err
	}

	doc := models.PermitAdditionalDocument{
		Name:     strings.TrimSpace(req.Name),
		URL:      req.URL,
		Filename: req.Filename,
	}
	if _, err := s.store.AppendAdditionalDocument(ctx, id, doc); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *PermitService) RemoveAdditionalDocument(ctx context.Context, actor permits.Actor, id uuid.UUID, index int) (*models.MovePermitRequest, error) {
	if _, err := s.editableDraft(ctx, actor, id); err != nil {
		return nil, err
	}
	if err := s.store.RemoveAdditionalDocument(ctx, id, index); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// ValidateDraft previews the submit checks without changing anything.
func (s *PermitService) ValidateDraft(ctx context.Context, actor permits.Actor, id uuid.UUID) (*ValidationReport, error) {
	permit, err := s.GetPermit(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	report := &ValidationReport{Ready: true, Issues: []permits.FieldIssue{}}
	var submissionErr *permits.SubmissionError
	if err := permits.ValidateForSubmission(permit); errors.As(err, &submissionErr) {
		report.Ready = false
		report.Issues = submissionErr.Issues
	}
	return report, nil
}

// Transition applies a lifecycle command. The status change, its timestamps
// and the history row commit together; the notifier runs after commit.
func (s *PermitService) Transition(ctx context.Context, actor permits.Actor, id uuid.UUID, cmd models.PermitCommand, req *TransitionRequest) (*models.MovePermitRequest, error) {
	if req == nil {
		req = &TransitionRequest{}
	}

	permit, err := s.transition(ctx, actor, id, cmd, req)
	if err != nil {
		metrics.RecordTransition(string(cmd), transitionFailure(err))
		return nil, err
	}
	metrics.RecordTransition(string(cmd), "ok")
	return permit, nil
}

func (s *PermitService) transition(ctx context.Context, actor permits.Actor, id uuid.UUID, cmd models.PermitCommand, req *TransitionRequest) (*models.MovePermitRequest, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	permit, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.ActorRoleOwner {
		if err := s.authorizeOwner(ctx, permit, actor); err != nil {
			return nil, err
		}
	}

	now := s.now()
	to, err := permits.ValidateTransition(permit, cmd, actor, now, permits.TransitionOptions{
		ReviewNotes: req.ReviewNotes,
		Confirm:     req.Confirm,
	})
	// A caller acting on an outdated view gets a stale error rather than a
	// transition error for a status it never saw.
	stale := req.ExpectedStatus != "" && req.ExpectedStatus != permit.Status
	if stale && (err == nil || errors.Is(err, permits.ErrInvalidTransition)) {
		return nil, fmt.Errorf("%w: expected %s, found %s", permits.ErrStaleState, req.ExpectedStatus, permit.Status)
	}
	if err != nil {
		return nil, err
	}

	if cmd == models.PermitCommandSubmit {
		if err := permits.ValidateForSubmission(permit); err != nil {
			return nil, err
		}
		active, err := s.store.HasActivePermit(ctx, permit.LeaseID, permit.PermitType, &permit.ID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, permits.ErrDuplicateActiveRequest
		}
	}

	from := permit.Status
	notes := strings.TrimSpace(req.ReviewNotes)
	event := &models.PermitEvent{
		PermitID:   id,
		Command:    cmd,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Notes:      notes,
	}
	err = s.store.Transaction(ctx, func(store *PermitStore) error {
		if err := store.CompareAndSetStatus(ctx, id, from, to, transitionFields(cmd, now, actor, notes)); err != nil {
			return err
		}
		if cmd == models.PermitCommandSubmit {
			// The status update holds the row, so no draft edit can land
			// between this check and the commit.
			current, err := store.Get(ctx, id)
			if err != nil {
				return err
			}
			if err := permits.ValidateForSubmission(current); err != nil {
				return err
			}
		}
		return store.RecordEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"permit_id": id,
		"command":   cmd,
		"from":      from,
		"to":        to,
		"actor":     actor.String(),
	}).Info("Permit transitioned")

	updated, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifyAsync(updated, event, now)
	return updated, nil
}

func transitionFields(cmd models.PermitCommand, now time.Time, actor permits.Actor, notes string) map[string]interface{} {
	switch cmd {
	case models.PermitCommandSubmit:
		return map[string]interface{}{"submitted_at": now}
	case models.PermitCommandBeginReview:
		return withReviewNotes(map[string]interface{}{"review_started_at": now, "reviewed_by": actor.ID}, notes)
	case models.PermitCommandApprove, models.PermitCommandReject:
		return withReviewNotes(map[string]interface{}{"decided_at": now, "reviewed_by": actor.ID}, notes)
	case models.PermitCommandCancel:
		return map[string]interface{}{"cancelled_at": now}
	case models.PermitCommandComplete:
		return map[string]interface{}{"completed_at": now}
	default:
		return nil
	}
}

func withReviewNotes(fields map[string]interface{}, notes string) map[string]interface{} {
	if notes != "" {
		fields["review_notes"] = notes
	}
	return fields
}

func transitionFailure(err error) string {
	switch {
	case errors.Is(err, permits.ErrSubmissionIncomplete):
		return "incomplete"
	case errors.Is(err, permits.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, permits.ErrStaleState):
		return "stale"
	case errors.Is(err, permits.ErrUnauthorizedActor):
		return "unauthorized"
	default:
		return "error"
	}
}

// notifyAsync hands the change to the notifier without blocking the caller.
// Changes for one permit are delivered one at a time in event order. Failures
// are logged and never undo the transition.
func (s *PermitService) notifyAsync(permit *models.MovePermitRequest, event *models.PermitEvent, at time.Time) {
	if s.notifier == nil {
		return
	}

	change := StatusChange{
		PermitID:        permit.ID,
		ReferenceNumber: permit.ReferenceNumber,
		PermitType:      permit.PermitType,
		Command:         event.Command,
		OldStatus:       event.FromStatus,
		NewStatus:       event.ToStatus,
		Sequence:        event.Sequence,
		ActorID:         event.ActorID,
		ActorRole:       event.ActorRole,
		Notes:           event.Notes,
		OccurredAt:      at,
	}

	s.inflight.Add(1)
	if !s.queue.push(queuedChange{permit: permit, change: change}) {
		// a drainer for this permit is already running and will pick it up
		s.inflight.Done()
		return
	}

	go func() {
		defer s.inflight.Done()
		for {
			item, ok := s.queue.next(permit.ID)
			if !ok {
				return
			}
			s.deliver(item)
		}
	}()
}

func (s *PermitService) deliver(item queuedChange) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.NotifyTimeout)
	defer cancel()

	change := item.change
	s.addressChange(ctx, item.permit, &change)
	if err := s.notifier.Notify(ctx, change); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"permit_id":  change.PermitID,
			"new_status": change.NewStatus,
			"sequence":   change.Sequence,
		}).Error("Failed to send permit notification")
	}
}

// addressChange picks the party that has to act on the new status.
func (s *PermitService) addressChange(ctx context.Context, permit *models.MovePermitRequest, change *StatusChange) {
	switch change.Command {
	case models.PermitCommandSubmit, models.PermitCommandCancel:
		change.RecipientRole = models.ActorRoleOwner
		lease, err := s.leases.Lookup(ctx, permit.LeaseID)
		if err != nil {
			s.log.WithError(err).WithField("lease_id", permit.LeaseID).Warn("Could not resolve lease owner for notification")
			return
		}
		ownerID := lease.OwnerID
		change.RecipientID = &ownerID
	default:
		change.RecipientRole = models.ActorRoleTenant
		tenantID := permit.TenantID
		change.RecipientID = &tenantID
	}
}

// editableDraft loads a permit the actor may edit.
func (s *PermitService) editableDraft(ctx context.Context, actor permits.Actor, id uuid.UUID) (*models.MovePermitRequest, error) {
	permit, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.ActorRoleTenant || permit.TenantID != actor.ID {
		return nil, fmt.Errorf("%w: only the requesting tenant edits a draft", permits.ErrUnauthorizedActor)
	}
	if permit.Status != models.PermitStatusDraft {
		return nil, permits.ErrPermitLocked
	}
	return permit, nil
}

func (s *PermitService) authorizeRead(ctx context.Context, permit *models.MovePermitRequest, actor permits.Actor) error {
	switch actor.Role {
	case models.ActorRoleAdmin:
		return nil
	case models.ActorRoleOwner:
		return s.authorizeOwner(ctx, permit, actor)
	case models.ActorRoleTenant:
		if permit.TenantID == actor.ID {
			return nil
		}
	}
	return fmt.Errorf("%w: permit is outside the caller's scope", permits.ErrUnauthorizedActor)
}

func (s *PermitService) authorizeOwner(ctx context.Context, permit *models.MovePermitRequest, actor permits.Actor) error {
	propertyIDs, err := s.leases.ManagedPropertyIDs(ctx, actor.ID)
	if err != nil {
		return err
	}
	for _, propertyID := range propertyIDs {
		if propertyID == permit.PropertyID {
			return nil
		}
	}
	return fmt.Errorf("%w: property is not managed by the caller", permits.ErrUnauthorizedActor)
}
