package apikey

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequire(t *testing.T) {
	h := Require("s3cret", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		value  string
		target string
		want   int
	}{
		{"bearer", "Authorization", "Bearer s3cret", "/", http.StatusNoContent},
		{"bearer lowercase", "Authorization", "bearer s3cret", "/", http.StatusNoContent},
		{"x-api-key", "X-API-Key", "s3cret", "/", http.StatusNoContent},
		{"wrong key", "X-API-Key", "nope", "/", http.StatusUnauthorized},
		{"missing", "", "", "/", http.StatusUnauthorized},
		{"query not accepted", "", "", "/?api_key=s3cret", http.StatusUnauthorized},
		{"basic scheme", "Authorization", "Basic s3cret", "/", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, `Bearer realm="inquiry-admin"`, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRequire_EmptyKeyRefusesAll(t *testing.T) {
	h := Require("  ", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", " ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
