// internal/metrics/metrics_test.go
package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(transitions.WithLabelValues("approve", "ok"))

	RecordTransition("approve", "ok")
	RecordTransition("approve", "ok")

	assert.Equal(t, before+2, testutil.ToFloat64(transitions.WithLabelValues("approve", "ok")))
}

func TestRecordNotificationResult(t *testing.T) {
	RecordNotification("redis", errors.New("down"))
	RecordNotification("redis", nil)

	assert.GreaterOrEqual(t, testutil.ToFloat64(notifications.WithLabelValues("redis", "error")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(notifications.WithLabelValues("redis", "ok")), 1.0)
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordPermitCreated("move_in")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "move_permits_permits_created_total")
}
