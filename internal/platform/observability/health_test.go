package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerHandler(t *testing.T) {
	healthy := PingFunc(func(context.Context) error { return nil })
	failing := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     map[string]Pinger
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "liveness", path: "/healthz", wantStatus: http.StatusOK, wantBody: "OK"},
		{name: "ready without checks", path: "/readyz", wantStatus: http.StatusOK, wantBody: "OK"},
		{name: "ready with healthy store", checks: map[string]Pinger{"storage": healthy}, path: "/readyz", wantStatus: http.StatusOK, wantBody: "OK"},
		{name: "not ready", checks: map[string]Pinger{"storage": failing}, path: "/readyz", wantStatus: http.StatusServiceUnavailable, wantBody: "storage error: connection refused"},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK, wantBody: "skeptic_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(0, nil)
			for name, p := range tt.checks {
				s.AddCheck(name, p)
			}

			ReviewQueueDepth.Set(0)

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), tt.wantBody), rec.Body.String())
		})
	}
}
