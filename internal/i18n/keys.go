// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"
	KeyAccessDenied     = "auth.access_denied"

	// Permits
	KeyPermitNotFound        = "permit.not_found"
	KeyPermitSubmitted       = "permit.submitted"
	KeyPermitReviewStarted   = "permit.review_started"
	KeyPermitApproved        = "permit.approved"
	KeyPermitRejected        = "permit.rejected"
	KeyPermitCancelled       = "permit.cancelled"
	KeyPermitCompleted       = "permit.completed"
	KeyPermitIncomplete      = "permit.incomplete"
	KeyPermitLocked          = "permit.locked"
	KeyPermitInvalidState    = "permit.invalid_transition"
	KeyPermitStale           = "permit.stale_state"
	KeyPermitDuplicate       = "permit.duplicate_active"
	KeyPermitUnknownSlot     = "permit.unknown_slot"
	KeyPermitNotesRequired   = "permit.review_notes_required"
	KeyPermitMoveDatePending = "permit.move_date_not_reached"
	KeyPermitInvalidSchedule = "permit.invalid_schedule"
	KeyPermitInvalidIndex    = "permit.invalid_index"
	KeyLeaseInactive         = "lease.inactive"
	KeyUploadFailed          = "upload.failed"
	KeyUploadTooLarge        = "upload.too_large"
	KeyUploadBadType         = "upload.bad_type"
	KeyPermitTypeUnknown     = "permit.unknown_type"

	// Notifications
	KeyNotificationNotFound = "notification.not_found"
	KeyNotificationRead     = "notification.read"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
)
