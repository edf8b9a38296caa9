// internal/services/permit_store.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/move-permit-backend/internal/database"
	"github.com/javajoker/move-permit-backend/internal/models"
	"github.com/javajoker/move-permit-backend/internal/permits"
	"github.com/javajoker/move-permit-backend/internal/utils"
)

// PermitStore persists permits and their children. Every draft-only mutation
// re-checks the draft status inside the same transaction.
type PermitStore struct {
	db *gorm.DB
}

// PermitScope restricts reads to a tenant or to a set of properties.
// A nil PropertyIDs means every property; an empty one means none.
type PermitScope struct {
	TenantID    *uuid.UUID
	PropertyIDs []uuid.UUID
}

type PermitFilter struct {
	utils.PaginationParams
	Statuses     []models.PermitStatus `json:"statuses,omitempty"`
	PermitType   models.PermitType     `json:"permit_type,omitempty"`
	PropertyID   *uuid.UUID            `json:"property_id,omitempty"`
	MoveDateFrom *time.Time            `json:"move_date_from,omitempty"`
	MoveDateTo   *time.Time            `json:"move_date_to,omitempty"`
}

var permitSortFields = []string{"created_at", "requested_move_date", "submitted_at", "status"}

func NewPermitStore(db *gorm.DB) *PermitStore {
	return &PermitStore{db: db}
}

// Transaction runs fn against a store bound to a single database transaction.
func (s *PermitStore) Transaction(ctx context.Context, fn func(store *PermitStore) error) error {
	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		return fn(&PermitStore{db: tx})
	})
}

func (s *PermitStore) Create(ctx context.Context, permit *models.MovePermitRequest) error {
	if err := s.db.WithContext(ctx).Create(permit).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %v", permits.ErrDuplicateActiveRequest, err)
		}
		return fmt.Errorf("failed to create permit: %w", err)
	}
	return nil
}

func (s *PermitStore) Get(ctx context.Context, id uuid.UUID) (*models.MovePermitRequest, error) {
	var permit models.MovePermitRequest
	err := s.db.WithContext(ctx).
		Preload("Documents", orderBy("slot_key ASC")).
		Preload("AdditionalDocuments", orderBy("position ASC")).
		Preload("Vehicles", orderBy("position ASC")).
		Where("id = ?", id).
		First(&permit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permits.ErrPermitNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &permit, nil
}

// DraftFields are the editable scalar columns of a draft.
type DraftFields struct {
	RequestedMoveDate   *time.Time
	TimeWindowStart     *string
	TimeWindowEnd       *string
	MoverCompany        *models.MoverCompany
	SpecialInstructions *string
}

func (f DraftFields) columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if f.RequestedMoveDate != nil {
		updates["requested_move_date"] = *f.RequestedMoveDate
	}
	if f.TimeWindowStart != nil {
		updates["time_window_start"] = *f.TimeWindowStart
	}
	if f.TimeWindowEnd != nil {
		updates["time_window_end"] = *f.TimeWindowEnd
	}
	if f.MoverCompany != nil {
		updates["mover_name"] = f.MoverCompany.Name
		updates["mover_trade_license_ref"] = f.MoverCompany.TradeLicenseRef
		updates["mover_noc_ref"] = f.MoverCompany.NOCRef
		updates["mover_contact_name"] = f.MoverCompany.ContactName
		updates["mover_contact_mobile"] = f.MoverCompany.ContactMobile
	}
	if f.SpecialInstructions != nil {
		updates["special_instructions"] = *f.SpecialInstructions
	}
	return updates
}

func (s *PermitStore) UpdateDraftFields(ctx context.Context, id uuid.UUID, fields DraftFields) error {
	updates := fields.columns()
	if len(updates) == 0 {
		return s.Transaction(ctx, func(store *PermitStore) error {
			return store.lockDraft(id)
		})
	}

	result := s.db.WithContext(ctx).Model(&models.MovePermitRequest{}).
		Where("id = ? AND status = ?", id, models.PermitStatusDraft).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update permit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return s.missingDraftError(id)
	}
	return nil
}

func (s *PermitStore) AppendVehicle(ctx context.Context, id uuid.UUID, vehicle models.PermitVehicle) (*models.PermitVehicle, error) {
	err := s.Transaction(ctx, func(store *PermitStore) error {
		if err := store.lockDraft(id); err != nil {
			return err
		}

		var count int64
		if err := store.db.Model(&models.PermitVehicle{}).Where("permit_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count vehicles: %w", err)
		}

		vehicle.ID = uuid.Nil
		vehicle.PermitID = id
		vehicle.Position = int(count)
		if err := store.db.Create(&vehicle).Error; err != nil {
			return fmt.Errorf("failed to add vehicle: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// RemoveVehicle deletes the vehicle at index and closes the gap in positions.
func (s *PermitStore) RemoveVehicle(ctx context.Context, id uuid.UUID, index int) error {
	return s.Transaction(ctx, func(store *PermitStore) error {
		if err := store.lockDraft(id); err != nil {
			return err
		}
		return store.removePositioned(&models.PermitVehicle{}, id, index)
	})
}

func (s *PermitStore) AppendAdditionalDocument(ctx context.Context, id uuid.UUID, doc models.PermitAdditionalDocument) (*models.PermitAdditionalDocument, error) {
	err := s.Transaction(ctx, func(store *PermitStore) error {
		if err := store.lockDraft(id); err != nil {
			return err
		}

		var count int64
		if err := store.db.Model(&models.PermitAdditionalDocument{}).Where("permit_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count additional documents: %w", err)
		}

		doc.ID = uuid.Nil
		doc.PermitID = id
		doc.Position = int(count)
		if err := store.db.Create(&doc).Error; err != nil {
			return fmt.Errorf("failed to add additional document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *PermitStore) RemoveAdditionalDocument(ctx context.Context, id uuid.UUID, index int) error {
	return s.Transaction(ctx, func(store *PermitStore) error {
		if err := store.lockDraft(id); err != nil {
			return err
		}
		return store.removePositioned(&models.PermitAdditionalDocument{}, id, index)
	})
}

func (s *PermitStore) removePositioned(model interface{}, id uuid.UUID, index int) error {
	if index < 0 {
		return permits.ErrInvalidIndex
	}

	result := s.db.Where("permit_id = ? AND position = ?", id, index).Delete(model)
	if result.Error != nil {
		return fmt.Errorf("failed to remove entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return permits.ErrInvalidIndex
	}

	err := s.db.Model(model).
		Where("permit_id = ? AND position > ?", id, index).
		Update("position", gorm.Expr("position - 1")).Error
	if err != nil {
		return fmt.Errorf("failed to reorder entries: %w", err)
	}
	return nil
}

// SetDocumentSlot is the only write path for slot documents.
func (s *PermitStore) SetDocumentSlot(ctx context.Context, id uuid.UUID, key permits.SlotKey, ref models.DocumentRef) (*models.PermitDocument, error) {
	doc := models.PermitDocument{
		PermitID: id,
		SlotKey:  string(key),
		URL:      ref.URL,
		Filename: ref.Filename,
	}

	err := s.Transaction(ctx, func(store *PermitStore) error {
		permitType, err := store.lockDraftOfType(id)
		if err != nil {
			return err
		}
		if !permits.IsKnownSlot(permitType, key) {
			return fmt.Errorf("%w: %q is not a %s slot", permits.ErrUnknownDocumentSlot, key, permitType)
		}

		err = store.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "permit_id"}, {Name: "slot_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"url", "filename", "updated_at"}),
		}).Create(&doc).Error
		if err != nil {
			return fmt.Errorf("failed to store document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *PermitStore) ClearDocumentSlot(ctx context.Context, id uuid.UUID, key permits.SlotKey) error {
	return s.Transaction(ctx, func(store *PermitStore) error {
		permitType, err := store.lockDraftOfType(id)
		if err != nil {
			return err
		}
		if !permits.IsKnownSlot(permitType, key) {
			return fmt.Errorf("%w: %q is not a %s slot", permits.ErrUnknownDocumentSlot, key, permitType)
		}

		err = store.db.Where("permit_id = ? AND slot_key = ?", id, string(key)).
			Delete(&models.PermitDocument{}).Error
		if err != nil {
			return fmt.Errorf("failed to clear document: %w", err)
		}
		return nil
	})
}

// HasActivePermit reports whether a non-terminal permit exists for the lease and type.
func (s *PermitStore) HasActivePermit(ctx context.Context, leaseID uuid.UUID, permitType models.PermitType, exclude *uuid.UUID) (bool, error) {
	query := s.db.WithContext(ctx).Model(&models.MovePermitRequest{}).
		Where("lease_id = ? AND permit_type = ? AND status IN ?", leaseID, permitType, models.ActiveStatuses())
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check active permits: %w", err)
	}
	return count > 0, nil
}

// CompareAndSetStatus moves the permit from one status to another in a single
// conditional update. Zero matched rows means another writer got there first.
func (s *PermitStore) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to models.PermitStatus, fields map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for column, value := range fields {
		updates[column] = value
	}

	result := s.db.WithContext(ctx).Model(&models.MovePermitRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return fmt.Errorf("%w: %v", permits.ErrDuplicateActiveRequest, result.Error)
		}
		return fmt.Errorf("failed to update permit status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: expected %s", permits.ErrStaleState, from)
	}
	return nil
}

// RecordEvent appends to the permit history, assigning the next sequence number.
func (s *PermitStore) RecordEvent(ctx context.Context, event *models.PermitEvent) error {
	var last int
	err := s.db.WithContext(ctx).Model(&models.PermitEvent{}).
		Select("COALESCE(MAX(sequence), 0)").
		Where("permit_id = ?", event.PermitID).
		Scan(&last).Error
	if err != nil {
		return fmt.Errorf("failed to read event sequence: %w", err)
	}

	event.Sequence = last + 1
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %v", permits.ErrStaleState, err)
		}
		return fmt.Errorf("failed to record permit event: %w", err)
	}
	return nil
}

func (s *PermitStore) Events(ctx context.Context, permitID uuid.UUID) ([]models.PermitEvent, error) {
	var events []models.PermitEvent
	err := s.db.WithContext(ctx).
		Where("permit_id = ?", permitID).
		Order("sequence ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load permit events: %w", err)
	}
	return events, nil
}

func (s *PermitStore) ListForTenant(ctx context.Context, tenantID uuid.UUID, filter PermitFilter) ([]models.MovePermitRequest, int64, error) {
	return s.list(ctx, PermitScope{TenantID: &tenantID}, filter)
}

// ListForManager lists permits on the given properties; nil means all properties.
func (s *PermitStore) ListForManager(ctx context.Context, propertyIDs []uuid.UUID, filter PermitFilter) ([]models.MovePermitRequest, int64, error) {
	return s.list(ctx, PermitScope{PropertyIDs: propertyIDs}, filter)
}

func (s *PermitStore) list(ctx context.Context, scope PermitScope, filter PermitFilter) ([]models.MovePermitRequest, int64, error) {
	filter.PaginationParams = utils.NormalizePagination(filter.PaginationParams)
	build := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.MovePermitRequest{})
		return filter.apply(scope.apply(query))
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count permits: %w", err)
	}

	var results []models.MovePermitRequest
	query := utils.ApplySort(build(), filter.PaginationParams, permitSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)
	err := query.
		Preload("Documents", orderBy("slot_key ASC")).
		Preload("AdditionalDocuments", orderBy("position ASC")).
		Preload("Vehicles", orderBy("position ASC")).
		Find(&results).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list permits: %w", err)
	}

	return results, total, nil
}

type statusCount struct {
	Status models.PermitStatus
	Count  int64
}

// CountByStatus groups the permits in scope by status.
func (s *PermitStore) CountByStatus(ctx context.Context, scope PermitScope, propertyID *uuid.UUID) (map[models.PermitStatus]int64, error) {
	var rows []statusCount

	query := scope.apply(s.db.WithContext(ctx).Model(&models.MovePermitRequest{}))
	if propertyID != nil {
		query = query.Where("property_id = ?", *propertyID)
	}
	err := query.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count permits by status: %w", err)
	}

	counts := make(map[models.PermitStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (s PermitScope) apply(query *gorm.DB) *gorm.DB {
	if s.TenantID != nil {
		query = query.Where("tenant_id = ?", *s.TenantID)
	}
	if s.PropertyIDs != nil {
		if len(s.PropertyIDs) == 0 {
			return query.Where("1 = 0")
		}
		query = query.Where("property_id IN ?", s.PropertyIDs)
	}
	return query
}

func (f PermitFilter) apply(query *gorm.DB) *gorm.DB {
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", f.Statuses)
	}
	if f.PermitType != "" {
		query = query.Where("permit_type = ?", f.PermitType)
	}
	if f.PropertyID != nil {
		query = query.Where("property_id = ?", *f.PropertyID)
	}
	if f.MoveDateFrom != nil {
		query = query.Where("requested_move_date >= ?", *f.MoveDateFrom)
	}
	if f.MoveDateTo != nil {
		query = query.Where("requested_move_date <= ?", *f.MoveDateTo)
	}
	return query
}

// lockDraft touches the permit only while it is a draft, so concurrent
// transitions and edits serialize on the row.
func (s *PermitStore) lockDraft(id uuid.UUID) error {
	result := s.db.Model(&models.MovePermitRequest{}).
		Where("id = ? AND status = ?", id, models.PermitStatusDraft).
		Update("updated_at", time.Now().UTC())
	if result.Error != nil {
		return fmt.Errorf("failed to lock permit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return s.missingDraftError(id)
	}
	return nil
}

func (s *PermitStore) lockDraftOfType(id uuid.UUID) (models.PermitType, error) {
	if err := s.lockDraft(id); err != nil {
		return "", err
	}

	var permit models.MovePermitRequest
	if err := s.db.Select("id", "permit_type").Where("id = ?", id).First(&permit).Error; err != nil {
		return "", fmt.Errorf("failed to load permit type: %w", err)
	}
	return permit.PermitType, nil
}

func (s *PermitStore) missingDraftError(id uuid.UUID) error {
	var count int64
	if err := s.db.Model(&models.MovePermitRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return permits.ErrPermitNotFound
	}
	return permits.ErrPermitLocked
}

func orderBy(order string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(order)
	}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
