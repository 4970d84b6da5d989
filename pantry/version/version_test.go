package version

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMount(t *testing.T) {
	r := chi.NewRouter()
	Mount(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var info Info
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, Version, info.Version)
}

func TestString(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "dev"
	assert.Equal(t, "dev", String())

	Version, Commit, BuildTime = "1.2.3", "abc123", "2026-01-15T10:30:00Z"
	assert.Equal(t, "1.2.3 (abc123, built 2026-01-15T10:30:00Z)", String())
}
