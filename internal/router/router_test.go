// internal/router/router_test.go
package router

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/move-permit-backend/internal/config"
	"github.com/javajoker/move-permit-backend/internal/i18n"
	"github.com/javajoker/move-permit-backend/internal/models"
	"github.com/javajoker/move-permit-backend/internal/permits"
	"github.com/javajoker/move-permit-backend/internal/services"
	"github.com/javajoker/move-permit-backend/internal/testutil"
	"github.com/javajoker/move-permit-backend/internal/utils"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta json.RawMessage `json:"meta"`
}

type permitPayload struct {
	Permit            models.MovePermitRequest `json:"permit"`
	AvailableCommands []models.PermitCommand   `json:"available_commands"`
}

type RouterTestSuite struct {
	suite.Suite
	db            *gorm.DB
	router        *gin.Engine
	stopRouter    func()
	permitService *services.PermitService
	fixture       testutil.LeaseFixture
	tenantToken   string
	ownerToken    string
	moveDate      string
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize("../i18n/locales", "en"))
}

func (suite *RouterTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())

	cfg := &config.Config{
		Environment: "test",
		Upload: config.UploadConfig{
			MaxSizeMB:    1,
			AllowedTypes: []string{"application/pdf", "image/jpeg", "image/png"},
			LocalDir:     suite.T().TempDir(),
			PublicURL:    "http://localhost:8080/uploads",
		},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 60000, Burst: 1000},
		I18n:      config.I18nConfig{DefaultLocale: "en"},
	}

	storage, err := services.NewStorageService(cfg)
	suite.Require().NoError(err)
	store := services.NewPermitStore(suite.db)
	leases := services.NewLeaseDirectory(suite.db)
	notifications := services.NewNotificationService(suite.db, nil, "", "en")

	suite.permitService = services.NewPermitService(store, leases, notifications, storage, services.PermitServiceConfig{
		Upload: services.UploadOptions{
			MaxSize:      cfg.Upload.MaxUploadBytes(),
			AllowedTypes: cfg.Upload.AllowedTypes,
		},
	})
	suite.router, suite.stopRouter = Initialize(suite.db, cfg, Services{
		Permits:       suite.permitService,
		Queries:       services.NewPermitQueryService(store, leases),
		Notifications: notifications,
	})

	suite.fixture = testutil.CreateLease(suite.T(), suite.db)
	suite.tenantToken = suite.token(suite.fixture.TenantID, models.ActorRoleTenant)
	suite.ownerToken = suite.token(suite.fixture.OwnerID, models.ActorRoleOwner)
	suite.moveDate = time.Now().UTC().AddDate(0, 0, 7).Format(permits.DateLayout)
}

func (suite *RouterTestSuite) TearDownTest() {
	suite.stopRouter()
	suite.permitService.Wait()
}

func (suite *RouterTestSuite) token(id uuid.UUID, role models.ActorRole) string {
	token, err := utils.GenerateJWT(id, string(role), 1)
	suite.Require().NoError(err)
	return token
}

func (suite *RouterTestSuite) request(method, path, token string, body interface{}) (int, envelope) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return suite.serve(req, token)
}

func (suite *RouterTestSuite) upload(path, token, filename string, content []byte) (int, envelope) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	suite.Require().NoError(err)
	_, err = part.Write(content)
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return suite.serve(req, token)
}

func (suite *RouterTestSuite) serve(req *http.Request, token string) (int, envelope) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var body envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w.Code, body
}

func (suite *RouterTestSuite) decodePermit(body envelope) permitPayload {
	var payload permitPayload
	suite.Require().NoError(json.Unmarshal(body.Data, &payload))
	return payload
}

func (suite *RouterTestSuite) createDraft() uuid.UUID {
	status, body := suite.request(http.MethodPost, "/v1/permits", suite.tenantToken, gin.H{
		"lease_id":            suite.fixture.Lease.ID,
		"permit_type":         "move_in",
		"requested_move_date": suite.moveDate,
		"time_window_start":   "08:00",
		"time_window_end":     "12:00",
	})
	suite.Require().Equal(http.StatusCreated, status)
	return suite.decodePermit(body).Permit.ID
}

// submitDraft fills a draft over HTTP and submits it.
func (suite *RouterTestSuite) submitDraft(id uuid.UUID) {
	base := "/v1/permits/" + id.String()

	for i, slot := range permits.RequiredSlots(models.PermitTypeMoveIn) {
		if i < 2 {
			status, _ := suite.upload(base+"/documents/"+string(slot.Key)+"/upload", suite.tenantToken, string(slot.Key)+".pdf", samplePDF)
			suite.Require().Equal(http.StatusCreated, status)
			continue
		}
		status, _ := suite.request(http.MethodPut, base+"/documents/"+string(slot.Key), suite.tenantToken, gin.H{
			"url":      "https://files.example.com/" + string(slot.Key) + ".pdf",
			"filename": string(slot.Key) + ".pdf",
		})
		suite.Require().Equal(http.StatusOK, status)
	}

	status, _ := suite.request(http.MethodPost, base+"/vehicles", suite.tenantToken, gin.H{
		"plate_number": "DXB-12345",
		"description":  "3-ton truck",
	})
	suite.Require().Equal(http.StatusCreated, status)

	status, _ = suite.request(http.MethodPatch, base, suite.tenantToken, gin.H{
		"mover_company": gin.H{
			"name":              "Gulf Movers LLC",
			"trade_license_ref": "https://files.example.com/trade.pdf",
			"noc_ref":           "https://files.example.com/noc.pdf",
			"contact_name":      "Rami",
			"contact_mobile":    "+971500000000",
		},
	})
	suite.Require().Equal(http.StatusOK, status)

	status, body := suite.request(http.MethodPost, base+"/submit", suite.tenantToken, nil)
	suite.Require().Equal(http.StatusOK, status, "%+v", body.Error)
}

func (suite *RouterTestSuite) TestHealthAndMetrics() {
	status, _ := suite.request(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *RouterTestSuite) TestSchemaIsPublic() {
	status, body := suite.request(http.MethodGet, "/v1/permits/schema/move_out", "", nil)
	suite.Require().Equal(http.StatusOK, status)

	var schema struct {
		Required []permits.Slot `json:"required"`
		Optional []permits.Slot `json:"optional"`
	}
	suite.Require().NoError(json.Unmarshal(body.Data, &schema))
	suite.Len(schema.Required, len(permits.RequiredSlots(models.PermitTypeMoveOut)))
	suite.Len(schema.Optional, len(permits.OptionalSlots(models.PermitTypeMoveOut)))

	status, _ = suite.request(http.MethodGet, "/v1/permits/schema/relocation", "", nil)
	suite.Equal(http.StatusNotFound, status)
}

func (suite *RouterTestSuite) TestAuthenticationRequired() {
	status, body := suite.request(http.MethodGet, "/v1/permits/mine", "", nil)
	suite.Equal(http.StatusUnauthorized, status)
	suite.Equal("Authentication required", body.Error.Message)

	req := httptest.NewRequest(http.MethodGet, "/v1/permits/mine", nil)
	req.Header.Set("Accept-Language", "ar-AE,ar;q=0.9")
	status, body = suite.serve(req, "")
	suite.Equal(http.StatusUnauthorized, status)
	suite.Equal("يلزم تسجيل الدخول", body.Error.Message)
}

func (suite *RouterTestSuite) TestMoveInLifecycle() {
	id := suite.createDraft()
	suite.submitDraft(id)
	base := "/v1/permits/" + id.String()

	// tenants cannot review
	status, _ := suite.request(http.MethodPost, base+"/begin-review", suite.tenantToken, nil)
	suite.Equal(http.StatusForbidden, status)

	status, body := suite.request(http.MethodPost, base+"/begin-review", suite.ownerToken, nil)
	suite.Require().Equal(http.StatusOK, status)
	payload := suite.decodePermit(body)
	suite.Equal(models.PermitStatusUnderReview, payload.Permit.Status)
	suite.ElementsMatch([]models.PermitCommand{models.PermitCommandApprove, models.PermitCommandReject}, payload.AvailableCommands)

	status, body = suite.request(http.MethodPost, base+"/reject", suite.ownerToken, gin.H{"review_notes": ""})
	suite.Equal(http.StatusUnprocessableEntity, status)
	suite.Equal("REVIEW_NOTES_REQUIRED", body.Error.Code)

	status, body = suite.request(http.MethodPost, base+"/approve", suite.ownerToken, gin.H{"expected_status": "under_review"})
	suite.Require().Equal(http.StatusOK, status)
	suite.Equal(models.PermitStatusApproved, suite.decodePermit(body).Permit.Status)

	// a second approval from the same stale view
	status, body = suite.request(http.MethodPost, base+"/approve", suite.ownerToken, gin.H{"expected_status": "under_review"})
	suite.Equal(http.StatusConflict, status)
	suite.Equal("STALE_STATE", body.Error.Code)

	status, body = suite.request(http.MethodPost, base+"/complete", suite.ownerToken, nil)
	suite.Equal(http.StatusConflict, status)
	suite.Equal("MOVE_DATE_NOT_REACHED", body.Error.Code)

	status, body = suite.request(http.MethodPost, base+"/complete", suite.ownerToken, gin.H{"confirm": true})
	suite.Require().Equal(http.StatusOK, status)
	payload = suite.decodePermit(body)
	suite.Equal(models.PermitStatusCompleted, payload.Permit.Status)
	suite.NotNil(payload.Permit.CompletedAt)
	suite.Empty(payload.AvailableCommands)

	status, body = suite.request(http.MethodGet, base+"/events", suite.tenantToken, nil)
	suite.Require().Equal(http.StatusOK, status)
	var history struct {
		Events []models.PermitEvent `json:"events"`
	}
	suite.Require().NoError(json.Unmarshal(body.Data, &history))
	suite.Len(history.Events, 4)

	suite.permitService.Wait()
	status, body = suite.request(http.MethodGet, "/v1/notifications", suite.ownerToken, nil)
	suite.Require().Equal(http.StatusOK, status)
	var ownerNotifications []models.PermitNotification
	suite.Require().NoError(json.Unmarshal(body.Data, &ownerNotifications))
	suite.Require().Len(ownerNotifications, 1)
	suite.Equal(models.PermitStatusSubmitted, ownerNotifications[0].Status)

	status, _ = suite.request(http.MethodPost, "/v1/notifications/"+ownerNotifications[0].ID.String()+"/read", suite.ownerToken, nil)
	suite.Equal(http.StatusOK, status)
	status, _ = suite.request(http.MethodPost, "/v1/notifications/"+ownerNotifications[0].ID.String()+"/read", suite.tenantToken, nil)
	suite.Equal(http.StatusNotFound, status)
}

func (suite *RouterTestSuite) TestIncompleteSubmitReportsIssues() {
	id := suite.createDraft()

	status, body := suite.request(http.MethodPost, "/v1/permits/"+id.String()+"/submit", suite.tenantToken, nil)
	suite.Equal(http.StatusUnprocessableEntity, status)
	suite.Equal("SUBMISSION_INCOMPLETE", body.Error.Code)

	var issues []permits.FieldIssue
	suite.Require().NoError(json.Unmarshal(body.Error.Details, &issues))
	suite.NotEmpty(issues)

	status, body = suite.request(http.MethodGet, "/v1/permits/"+id.String()+"/validation", suite.tenantToken, nil)
	suite.Require().Equal(http.StatusOK, status)
	var report struct {
		Validation services.ValidationReport `json:"validation"`
	}
	suite.Require().NoError(json.Unmarshal(body.Data, &report))
	suite.False(report.Validation.Ready)
	suite.Equal(len(issues), len(report.Validation.Issues))
}

func (suite *RouterTestSuite) TestDraftRules() {
	id := suite.createDraft()
	base := "/v1/permits/" + id.String()

	status, body := suite.request(http.MethodPost, "/v1/permits", suite.tenantToken, gin.H{
		"lease_id":            suite.fixture.Lease.ID,
		"permit_type":         "move_in",
		"requested_move_date": suite.moveDate,
	})
	suite.Equal(http.StatusConflict, status)
	suite.Equal("DUPLICATE_ACTIVE_REQUEST", body.Error.Code)

	status, body = suite.request(http.MethodPost, "/v1/permits", suite.tenantToken, gin.H{
		"lease_id":    suite.fixture.Lease.ID,
		"permit_type": "relocation",
	})
	suite.Equal(http.StatusUnprocessableEntity, status)
	suite.Equal("VALIDATION_ERROR", body.Error.Code)

	status, body = suite.request(http.MethodPut, base+"/documents/dewaFinalBill", suite.tenantToken, gin.H{"url": "https://files.example.com/bill.pdf"})
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("UNKNOWN_SLOT", body.Error.Code)

	status, body = suite.upload(base+"/documents/passportCopy/upload", suite.tenantToken, "passport.pdf", []byte("plain text pretending to be a pdf"))
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("UPLOAD_BAD_TYPE", body.Error.Code)

	status, _ = suite.request(http.MethodDelete, base+"/vehicles/abc", suite.tenantToken, nil)
	suite.Equal(http.StatusBadRequest, status)

	status, body = suite.request(http.MethodDelete, base+"/vehicles/0", suite.tenantToken, nil)
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("INVALID_INDEX", body.Error.Code)

	stranger := suite.token(uuid.New(), models.ActorRoleTenant)
	status, _ = suite.request(http.MethodGet, base, stranger, nil)
	suite.Equal(http.StatusForbidden, status)

	status, _ = suite.request(http.MethodGet, "/v1/permits/"+uuid.NewString(), suite.tenantToken, nil)
	suite.Equal(http.StatusNotFound, status)

	status, body = suite.request(http.MethodPost, base+"/cancel", suite.tenantToken, nil)
	suite.Equal(http.StatusConflict, status)
	suite.Equal("INVALID_TRANSITION", body.Error.Code)
}

func (suite *RouterTestSuite) TestManagerViews() {
	id := suite.createDraft()
	suite.submitDraft(id)

	status, body := suite.request(http.MethodGet, "/v1/manager/permits?status=submitted", suite.ownerToken, nil)
	suite.Require().Equal(http.StatusOK, status)
	var listed []models.MovePermitRequest
	suite.Require().NoError(json.Unmarshal(body.Data, &listed))
	suite.Require().Len(listed, 1)
	suite.Equal(id, listed[0].ID)

	otherOwner := suite.token(uuid.New(), models.ActorRoleOwner)
	status, body = suite.request(http.MethodGet, "/v1/manager/permits", otherOwner, nil)
	suite.Require().Equal(http.StatusOK, status)
	suite.Require().NoError(json.Unmarshal(body.Data, &listed))
	suite.Empty(listed)

	status, _ = suite.request(http.MethodGet, "/v1/manager/permits?status=bogus", suite.ownerToken, nil)
	suite.Equal(http.StatusBadRequest, status)

	status, _ = suite.request(http.MethodGet, "/v1/manager/permits", suite.tenantToken, nil)
	suite.Equal(http.StatusForbidden, status)

	status, body = suite.request(http.MethodGet, "/v1/manager/permits/summary", suite.ownerToken, nil)
	suite.Require().Equal(http.StatusOK, status)
	var summary struct {
		Summary services.PermitSummary `json:"summary"`
	}
	suite.Require().NoError(json.Unmarshal(body.Data, &summary))
	suite.Equal(int64(1), summary.Summary.Pending)

	status, body = suite.request(http.MethodGet, "/v1/permits/summary", suite.tenantToken, nil)
	suite.Require().Equal(http.StatusOK, status)
	suite.Require().NoError(json.Unmarshal(body.Data, &summary))
	suite.Equal(int64(1), summary.Summary.Total)
}

func (suite *RouterTestSuite) TestStopIsRepeatable() {
	stopped := make(chan struct{})
	go func() {
		suite.stopRouter()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		suite.FailNow("rate limiters did not stop")
	}
	// TearDownTest stops again
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
