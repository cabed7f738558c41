package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("boom")))
}

func TestCountersAreExposed(t *testing.T) {
	ResolutionsTotal.WithLabelValues("success").Inc()
	StoreOperationsTotal.WithLabelValues("save", "ok").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `coords_resolutions_total{outcome="success"}`)
	assert.Contains(t, body, `coords_store_operations_total{operation="save",result="ok"}`)
	assert.Contains(t, body, "coords_store_corrupt_entries_total")
}
