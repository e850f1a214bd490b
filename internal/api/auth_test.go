package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studiobook/internal/config"

	"github.com/stretchr/testify/assert"
)

func authConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true},
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys: []config.APIClientKey{
				{Key: "reader", Extra: "reader-extra", Permissions: []string{permReadSchedule}},
				{Key: "admin", Extra: "admin-extra"},
			},
		},
		RateLimit: config.APIRateLimitConfig{RPS: 100, Burst: 200},
	}
}

func TestHTTPAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := NewHTTPAuth(authConfig()).Wrap(ok)

	serve := func(method, path, key, extra string) int {
		req := httptest.NewRequest(method, path, strings.NewReader("{}"))
		if key != "" {
			req.Header.Set("x-api-key", key)
		}
		if extra != "" {
			req.Header.Set("x-api-extra", extra)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	tests := []struct {
		name   string
		method string
		path   string
		key    string
		extra  string
		want   int
	}{
		{"ReadAllowed", http.MethodGet, "/api/v1/clients", "reader", "reader-extra", http.StatusOK},
		{"WriteDenied", http.MethodPost, "/api/v1/bookings", "reader", "reader-extra", http.StatusForbidden},
		{"AdminWrites", http.MethodDelete, "/api/v1/clients/c1", "admin", "admin-extra", http.StatusOK},
		{"MissingHeaders", http.MethodGet, "/api/v1/clients", "", "", http.StatusUnauthorized},
		{"InvalidKey", http.MethodGet, "/api/v1/clients", "nope", "reader-extra", http.StatusUnauthorized},
		{"InvalidExtra", http.MethodGet, "/api/v1/clients", "reader", "wrong", http.StatusUnauthorized},
		{"ProbeSkipsAuth", http.MethodGet, "/healthz", "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(tt.method, tt.path, tt.key, tt.extra))
		})
	}
}

func TestHTTPAuth_Disabled(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := NewHTTPAuth(config.APIConfig{}).Wrap(ok)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPAuth_RateLimit(t *testing.T) {
	cfg := config.APIConfig{RateLimit: config.APIRateLimitConfig{RPS: 0.001, Burst: 2}}
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := NewHTTPAuth(cfg).Wrap(ok)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "limits are per client")
}

func TestRateLimiter_DefaultBurst(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{RPS: 1})
	lim := l.getLimiter("k")
	assert.Equal(t, defaultBurst, lim.Burst())
	assert.Same(t, lim, l.getLimiter("k"))
}
