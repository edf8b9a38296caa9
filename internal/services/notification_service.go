// internal/services/notification_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/move-permit-backend/internal/i18n"
	"github.com/javajoker/move-permit-backend/internal/metrics"
	"github.com/javajoker/move-permit-backend/internal/models"
	"github.com/javajoker/move-permit-backend/internal/utils"
)

var ErrNotificationNotFound = errors.New("notification not found")

// StatusChange describes one applied lifecycle transition to be announced.
type StatusChange struct {
	PermitID        uuid.UUID            `json:"permit_id"`
	ReferenceNumber string               `json:"reference_number"`
	PermitType      models.PermitType    `json:"permit_type"`
	Command         models.PermitCommand `json:"command"`
	OldStatus       models.PermitStatus  `json:"old_status"`
	NewStatus       models.PermitStatus  `json:"new_status"`
	// Sequence is the permit history position of the transition; consumers
	// order changes for one permit by it.
	Sequence      int              `json:"sequence"`
	RecipientRole models.ActorRole `json:"recipient_role"`
	RecipientID   *uuid.UUID       `json:"recipient_id,omitempty"`
	ActorID       uuid.UUID        `json:"actor_id"`
	ActorRole     models.ActorRole `json:"actor_role"`
	Notes         string           `json:"notes,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// Notifier announces status changes. Delivery channels live outside this service.
type Notifier interface {
	Notify(ctx context.Context, change StatusChange) error
}

// NotificationService records an in-app notification and publishes the change
// on a Redis stream when one is configured.
type NotificationService struct {
	db     *gorm.DB
	redis  *redis.Client
	stream string
	lang   string
}

func NewNotificationService(db *gorm.DB, client *redis.Client, stream, defaultLang string) *NotificationService {
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &NotificationService{
		db:     db,
		redis:  client,
		stream: stream,
		lang:   defaultLang,
	}
}

var statusMessageKeys = map[models.PermitStatus]string{
	models.PermitStatusSubmitted:   i18n.KeyPermitSubmitted,
	models.PermitStatusUnderReview: i18n.KeyPermitReviewStarted,
	models.PermitStatusApproved:    i18n.KeyPermitApproved,
	models.PermitStatusRejected:    i18n.KeyPermitRejected,
	models.PermitStatusCancelled:   i18n.KeyPermitCancelled,
	models.PermitStatusCompleted:   i18n.KeyPermitCompleted,
}

func (s *NotificationService) Notify(ctx context.Context, change StatusChange) error {
	title := change.ReferenceNumber
	message := string(change.NewStatus)
	if key, ok := statusMessageKeys[change.NewStatus]; ok {
		message = i18n.T(s.lang, key)
	}

	notification := &models.PermitNotification{
		PermitID:      change.PermitID,
		Status:        change.NewStatus,
		RecipientRole: change.RecipientRole,
		RecipientID:   change.RecipientID,
		Title:         title,
		Message:       message,
		Data: models.JSONB{
			"reference_number": change.ReferenceNumber,
			"permit_type":      string(change.PermitType),
			"old_status":       string(change.OldStatus),
			"command":          string(change.Command),
			"notes":            change.Notes,
			"sequence":         change.Sequence,
		},
	}

	err := s.db.WithContext(ctx).Create(notification).Error
	metrics.RecordNotification("in_app", err)
	if err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if s.redis == nil || s.stream == "" {
		return nil
	}

	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode status change: %w", err)
	}

	id, err := s.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"permit_id":  change.PermitID.String(),
			"new_status": string(change.NewStatus),
			"sequence":   change.Sequence,
			"data":       string(payload),
		},
	}).Result()
	metrics.RecordNotification("redis", err)
	if err != nil {
		return fmt.Errorf("failed to publish status change: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"permit_id":  change.PermitID,
		"new_status": change.NewStatus,
		"stream_id":  id,
	}).Debug("Published permit status change")
	return nil
}

// ListForRecipient returns the notifications addressed to a user, newest first.
func (s *NotificationService) ListForRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, params utils.PaginationParams) ([]models.PermitNotification, int64, error) {
	params = utils.NormalizePagination(params)
	build := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.PermitNotification{}).Where("recipient_id = ?", recipientID)
		if unreadOnly {
			query = query.Where("read_at IS NULL")
		}
		return query
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []models.PermitNotification
	query := utils.ApplySort(build(), params, []string{"created_at"})
	if err := utils.ApplyPagination(query, params).Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkRead stamps a notification as read. Only the recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, recipientID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.PermitNotification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("read_at", gorm.Expr("COALESCE(read_at, ?)", time.Now().UTC()))
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
