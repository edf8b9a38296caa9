// internal/handlers/permit.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/move-permit-backend/internal/i18n"
	"github.com/javajoker/move-permit-backend/internal/middleware"
	"github.com/javajoker/move-permit-backend/internal/models"
	"github.com/javajoker/move-permit-backend/internal/permits"
	"github.com/javajoker/move-permit-backend/internal/services"
	"github.com/javajoker/move-permit-backend/internal/utils"
)

type PermitHandler struct {
	permitService *services.PermitService
	queryService  *services.PermitQueryService
}

func NewPermitHandler(permitService *services.PermitService, queryService *services.PermitQueryService) *PermitHandler {
	return &PermitHandler{
		permitService: permitService,
		queryService:  queryService,
	}
}

// POST /permits
func (h *PermitHandler) CreatePermit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreatePermitRequest
	if !bindJSON(c, &req) {
		return
	}

	permit, err := h.permitService.CreateDraft(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, h.permitView(permit, actor))
}

// GET /permits/mine
func (h *PermitHandler) ListMyPermits(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	filter, ok := parsePermitFilter(c)
	if !ok {
		return
	}

	results, total, err := h.queryService.ListForTenant(c.Request.Context(), actor.ID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(results, total, utils.NormalizePagination(filter.PaginationParams)))
}

// GET /permits/summary
func (h *PermitHandler) GetMySummary(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	summary, err := h.queryService.TenantSummary(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"summary": summary})
}

// GET /permits/:id
func (h *PermitHandler) GetPermit(c *gin.Context) {
	actor, id, ok := actorAndPermitID(c)
	if !ok {
		return
	}

	permit, err := h.permitService.GetPermit(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, h.permitView(permit, actor))
}

// PATCH /permits/:id
func (h *PermitHandler) UpdatePermit(c *gin.Context) {
	actor, id, ok := actorAndPermitID(c)
	if !ok {
		return
	}

	var req services.UpdatePermitRequest
	if !bindJSON(c, &req) {
		return
	}

	permit, err := h.permitService.UpdateDraft(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, h.permitView(permit, actor))
}

// PUT /permits/:id/documents/:slot
func (h *PermitHandler) SetDocument(c *gin.Context) {
	actor, id, ok := actorAndPermitID(c)
	if !ok {
		return
	}

	var ref models.DocumentRef
	if !bindJSON(c, &ref) {
		return
	}

	permit, err := h.permitService.SetDocument(c.Request.Context(), actor, id, c.Param("slot"), &ref)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, h.permitView(permit, actor))
}

// POST /permits/:id/documents/:slot/upload
func (h *PermitHandler) UploadDocument(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, id, ok := actorAndPermitID(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "file"), nil)
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "file"), nil)
		return
	}
	defer file.Close()

	permit, err := h.permitService.UploadDocument(c.Request.Context(), actor, id, c.Param("slot"), file, header.Filename, header.Size)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, h.permitView(permit, actor))
}

// DELETE /permits/:id/documents/:slot
func (h *PermitHandler) ClearDocument(c *gin.Context) {
	actor, id, ok := actorAndPermitID(c)
	if !ok {
		return
	}

	permit, err := h.permitService.ClearDocument(c.Request.Context(), actor, id, c.Param("slot"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, h.permitView(permit, actor))
}

// POST /permits/:id/additional-documents
func (h *PermitHandler) AddAdditionalDocument(c *gin.Context) {
	actor, id, ok := actorAndPermitID(c)
	if !ok {
		return
	}

	var req services.AdditionalDocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	permit, err := h.permitService.AddAdditionalDocument(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, h.permitView(permit, actor))
}

// DELETE /permits/:id/additional-documents/:index
func (h *PermitHandler) RemoveAdditionalDocument(c *gin.Context) {
	actor, id, ok := actorAndPermitID(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}

	permit, err := h.permitService.RemoveAdditionalDocument(c.Request.Context(), actor, id, index)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, h.permitView(permit, actor))
}

// POST /permits/:id/vehicles
func (h *PermitHandler) AddVehicle(c *gin.Context) {
	actor, id, ok := actorAndPermitID(c)
	if !ok {
		return
	}

	var req services.VehicleRequest
	if !bindJSON(c, &req) {
		return
	}

	permit, err := h.permitService.AddVehicle(c.Request.Context(), actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, h.permitView(permit, actor))
}

// DELETE /permits/:id/vehicles/:index
func (h *PermitHandler) RemoveVehicle(c *gin.Context) {
	actor, id, ok := actorAndPermitID(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}

	permit, err := h.permitService.RemoveVehicle(c.Request.Context(), actor, id, index)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, h.permitView(permit, actor))
}

// GET /permits/:id/validation
func (h *PermitHandler) ValidatePermit(c *gin.Context) {
	actor, id, ok := actorAndPermitID(c)
	if !ok {
		return
	}

	report, err := h.permitService.ValidateDraft(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"validation": report})
}

// GET /permits/:id/events
func (h *PermitHandler) GetEvents(c *gin.Context) {
	actor, id, ok := actorAndPermitID(c)
	if !ok {
		return
	}

	events, err := h.permitService.Events(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"events": events})
}

// Transition serves POST /permits/:id/<command>. The body is optional.
func (h *PermitHandler) Transition(cmd models.PermitCommand) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, id, ok := actorAndPermitID(c)
		if !ok {
			return
		}

		var req services.TransitionRequest
		if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
			return
		}

		permit, err := h.permitService.Transition(c.Request.Context(), actor, id, cmd, &req)
		if err != nil {
			respondError(c, err)
			return
		}

		utils.SuccessResponse(c, h.permitView(permit, actor))
	}
}

// GET /manager/permits
func (h *PermitHandler) ListManagedPermits(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	filter, ok := parsePermitFilter(c)
	if !ok {
		return
	}

	results, total, err := h.queryService.ListForManager(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(results, total, utils.NormalizePagination(filter.PaginationParams)))
}

// GET /manager/permits/summary
func (h *PermitHandler) GetManagerSummary(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	propertyID, ok := optionalUUIDQuery(c, "property_id")
	if !ok {
		return
	}

	summary, err := h.queryService.ManagerSummary(c.Request.Context(), actor, propertyID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"summary": summary})
}

// GET /permits/schema/:type
func (h *PermitHandler) GetSchema(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	permitType := models.PermitType(c.Param("type"))
	if !permitType.IsValid() {
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", i18n.T(lang, i18n.KeyPermitTypeUnknown), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"permit_type": permitType,
		"required":    permits.RequiredSlots(permitType),
		"optional":    permits.OptionalSlots(permitType),
	})
}

func (h *PermitHandler) permitView(permit *models.MovePermitRequest, actor permits.Actor) gin.H {
	commands := permits.AvailableCommands(permit.Status, actor.Role)
	if commands == nil {
		commands = []models.PermitCommand{}
	}
	return gin.H{
		"permit":             permit,
		"available_commands": commands,
	}
}

func requireActor(c *gin.Context) (permits.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return permits.Actor{}, false
	}
	return actor, true
}

func actorAndPermitID(c *gin.Context) (permits.Actor, uuid.UUID, bool) {
	actor, ok := requireActor(c)
	if !ok {
		return permits.Actor{}, uuid.Nil, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, i18n.KeyPermitNotFound)
		return permits.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyPermitInvalidIndex), nil)
		return 0, false
	}
	return index, true
}

func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return nil, false
	}
	return &id, true
}

func optionalDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	date, err := permits.ParseMoveDate(raw)
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, name), nil)
		return nil, false
	}
	return &date, true
}

// parsePermitFilter reads ?status=a,b&permit_type=&property_id=&move_date_from=&move_date_to=
// plus the pagination parameters.
func parsePermitFilter(c *gin.Context) (services.PermitFilter, bool) {
	lang := utils.GetLangFromContext(c)
	filter := services.PermitFilter{PaginationParams: utils.GetPaginationParams(c)}

	if raw := c.Query("status"); raw != "" {
		for _, value := range strings.Split(raw, ",") {
			status := models.PermitStatus(strings.TrimSpace(value))
			if !status.IsValid() {
				utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "status"), nil)
				return filter, false
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := c.Query("permit_type"); raw != "" {
		filter.PermitType = models.PermitType(raw)
		if !filter.PermitType.IsValid() {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "permit_type"), nil)
			return filter, false
		}
	}

	var ok bool
	if filter.PropertyID, ok = optionalUUIDQuery(c, "property_id"); !ok {
		return filter, false
	}
	if filter.MoveDateFrom, ok = optionalDateQuery(c, "move_date_from"); !ok {
		return filter, false
	}
	if filter.MoveDateTo, ok = optionalDateQuery(c, "move_date_to"); !ok {
		return filter, false
	}
	return filter, true
}
