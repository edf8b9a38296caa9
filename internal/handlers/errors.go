// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/move-permit-backend/internal/i18n"
	"github.com/javajoker/move-permit-backend/internal/permits"
	"github.com/javajoker/move-permit-backend/internal/services"
	"github.com/javajoker/move-permit-backend/internal/utils"
)

type errorMapping struct {
	target error
	status int
	code   string
	key    string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{permits.ErrPermitNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyPermitNotFound},
	{services.ErrNotificationNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyNotificationNotFound},
	{permits.ErrUnauthorizedActor, http.StatusForbidden, "FORBIDDEN", i18n.KeyAccessDenied},
	{permits.ErrStaleState, http.StatusConflict, "STALE_STATE", i18n.KeyPermitStale},
	{permits.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION", i18n.KeyPermitInvalidState},
	{permits.ErrDuplicateActiveRequest, http.StatusConflict, "DUPLICATE_ACTIVE_REQUEST", i18n.KeyPermitDuplicate},
	{permits.ErrPermitLocked, http.StatusConflict, "PERMIT_LOCKED", i18n.KeyPermitLocked},
	{permits.ErrMoveDateNotReached, http.StatusConflict, "MOVE_DATE_NOT_REACHED", i18n.KeyPermitMoveDatePending},
	{permits.ErrReviewNotesRequired, http.StatusUnprocessableEntity, "REVIEW_NOTES_REQUIRED", i18n.KeyPermitNotesRequired},
	{permits.ErrInvalidSchedule, http.StatusUnprocessableEntity, "INVALID_SCHEDULE", i18n.KeyPermitInvalidSchedule},
	{permits.ErrInactiveLease, http.StatusUnprocessableEntity, "INACTIVE_LEASE", i18n.KeyLeaseInactive},
	{permits.ErrUnknownDocumentSlot, http.StatusBadRequest, "UNKNOWN_SLOT", i18n.KeyPermitUnknownSlot},
	{permits.ErrInvalidIndex, http.StatusBadRequest, "INVALID_INDEX", i18n.KeyPermitInvalidIndex},
}

// respondError translates a service error into the response envelope.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
		return
	}

	var submissionErr *permits.SubmissionError
	if errors.As(err, &submissionErr) {
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "SUBMISSION_INCOMPLETE",
			i18n.T(lang, i18n.KeyPermitIncomplete), submissionErr.Issues)
		return
	}

	if errors.Is(err, permits.ErrUpstreamUploadFailure) {
		respondUploadError(c, err)
		return
	}

	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			utils.ErrorResponse(c, mapping.status, mapping.code, i18n.T(lang, mapping.key), nil)
			return
		}
	}

	logrus.WithError(err).WithField("path", c.FullPath()).Error("Unhandled request error")
	utils.InternalErrorResponse(c, "")
}

func respondUploadError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var uploadErr *services.UploadError
	if errors.As(err, &uploadErr) {
		switch uploadErr.Reason {
		case services.UploadTooLarge:
			utils.ErrorResponse(c, http.StatusBadRequest, "UPLOAD_TOO_LARGE", i18n.T(lang, i18n.KeyUploadTooLarge), nil)
			return
		case services.UploadBadType:
			utils.ErrorResponse(c, http.StatusBadRequest, "UPLOAD_BAD_TYPE", i18n.T(lang, i18n.KeyUploadBadType), nil)
			return
		}
	}

	logrus.WithError(err).Warn("Upstream upload failed")
	utils.ErrorResponse(c, http.StatusBadGateway, "UPLOAD_FAILED", i18n.T(lang, i18n.KeyUploadFailed), nil)
}
