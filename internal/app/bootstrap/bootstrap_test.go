package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/inquiry/config"
	"github.com/dalemusser/inquiry/contact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func load(t *testing.T, args ...string) (*config.CoreConfig, AppConfig, error) {
	t.Helper()
	return loadConfig(nil, config.Options{Args: args, Dir: t.TempDir(), Keys: Keys})
}

func TestLoadConfig_Defaults(t *testing.T) {
	_, appCfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "Contact", appCfg.SiteTitle)
	assert.False(t, appCfg.EmailEnabled())
	assert.Equal(t, "inquiries", appCfg.AMQPQueue)
	assert.Equal(t, 5, appCfg.RateLimitPerMinute)
	assert.Equal(t, 3, appCfg.RateLimitBurst)
	assert.Equal(t, 10*time.Second, appCfg.SinkTimeout)
}

func TestLoadConfig_SMTP(t *testing.T) {
	_, appCfg, err := load(t,
		"--smtp_host=smtp.example.com",
		"--smtp_from=site@example.com",
		"--notify_to=owner@example.com,sales@example.com",
		"--sink_timeout=5s",
	)
	require.NoError(t, err)

	assert.True(t, appCfg.EmailEnabled())
	assert.Equal(t, []string{"owner@example.com", "sales@example.com"}, appCfg.SMTP.NotifyTo)
	assert.Equal(t, 587, appCfg.SMTP.Port)
	assert.Equal(t, 5*time.Second, appCfg.SinkTimeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, _, err := load(t,
		"--smtp_host=smtp.example.com",
		"--notify_to=not-an-address",
		"--rate_limit_per_minute=-1",
		"--sqs_access_key=AKIA",
	)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "INQUIRY_SMTP_FROM")
	assert.Contains(t, msg, `notify_to entry "not-an-address"`)
	assert.Contains(t, msg, "rate_limit_per_minute must be >= 0")
	assert.Contains(t, msg, "sqs_access_key and sqs_secret_key")
}

func TestConnectBackends_NothingConfigured(t *testing.T) {
	coreCfg, appCfg, err := load(t)
	require.NoError(t, err)

	b, err := ConnectBackends(context.Background(), coreCfg, appCfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Backends{}, b)
	assert.Empty(t, b.HealthChecks())
	CloseBackends(b, zap.NewNop())
}

func TestConnectBackends_BadAMQPURL(t *testing.T) {
	coreCfg, appCfg, err := load(t, "--amqp_url=http://not-amqp")
	require.NoError(t, err)

	_, err = ConnectBackends(context.Background(), coreCfg, appCfg, zap.NewNop())
	assert.ErrorContains(t, err, "rabbitmq")
}

func TestBuildDispatcher_Sinks(t *testing.T) {
	_, appCfg, err := load(t)
	require.NoError(t, err)

	d, err := buildDispatcher(appCfg, Backends{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"log"}, d.Sinks())
}

func newHandler(t *testing.T, args ...string) http.Handler {
	t.Helper()
	coreCfg, appCfg, err := load(t, args...)
	require.NoError(t, err)
	h, err := BuildHandler(coreCfg, appCfg, Backends{}, zap.NewNop())
	require.NoError(t, err)
	return h
}

func submit(h http.Handler, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	req.RemoteAddr = "192.0.2.10:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"name":"Alice","email":"alice@example.com","message":"Hi"}`

func TestBuildHandler_ContactEndpoint(t *testing.T) {
	h := newHandler(t)

	rec := submit(h, "application/json", validBody)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var ack contact.Ack
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ack))
	assert.NotEmpty(t, ack.ID)
	assert.Equal(t, "received", ack.Status)
	assert.NotEmpty(t, rec.Header().Get("X-Content-Type-Options"))

	rec = submit(h, "text/plain", validBody)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = submit(h, "application/json", `{"name":"","email":"alice@example.com","message":"Hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_field")
}

func TestBuildHandler_RateLimit(t *testing.T) {
	h := newHandler(t, "--rate_limit_per_minute=1", "--rate_limit_burst=2")

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusAccepted, submit(h, "application/json", validBody).Code)
	}
	rec := submit(h, "application/json", validBody)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestBuildHandler_RateLimitDisabled(t *testing.T) {
	h := newHandler(t, "--rate_limit_per_minute=0")
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusAccepted, submit(h, "application/json", validBody).Code)
	}
}

func TestBuildHandler_Page(t *testing.T) {
	h := newHandler(t, "--site_title=Write to us")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Write to us")

	form := url.Values{"name": {"Alice"}, "email": {"alice@example.com"}, "message": {"Hi"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), contact.MsgSuccess)
}

func TestBuildHandler_Probes(t *testing.T) {
	h := newHandler(t)
	for _, path := range []string{"/health", "/version", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildHandler_LogsAcceptedInquiry(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	coreCfg, appCfg, err := load(t)
	require.NoError(t, err)
	h, err := BuildHandler(coreCfg, appCfg, Backends{}, zap.New(core))
	require.NoError(t, err)

	require.Equal(t, http.StatusAccepted, submit(h, "application/json", validBody).Code)

	entries := logs.FilterMessage("inquiry received").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a***@example.com", entries[0].ContextMap()["email"])
}

func TestBuildHandler_Pprof(t *testing.T) {
	h := newHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "not mounted without a key")

	h = newHandler(t, "--admin_api_key=adm1n")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.Header.Set("X-API-Key", "adm1n")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
