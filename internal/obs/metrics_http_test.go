package obs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsMux_Healthz(t *testing.T) {
	healthy := MetricsMux(func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	sick := MetricsMux(func(context.Context) error { return errors.New("db down") })
	rec = httptest.NewRecorder()
	sick.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsMux_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	MetricsMux(func(context.Context) error { return nil }).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
