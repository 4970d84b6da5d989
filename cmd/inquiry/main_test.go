package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func endpoint(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Success(t *testing.T) {
	srv, calls := endpoint(t, http.StatusAccepted, `{"id":"abc","status":"received"}`)

	code, out, errOut := runCLI(t, "", "--endpoint", srv.URL,
		"--name", "Alice", "--email", "alice@example.com", "--message", "Hi")

	assert.Equal(t, exitOK, code)
	assert.Equal(t, "Message sent successfully!\nid: abc\n", out)
	assert.Contains(t, errOut, "Sending")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_Failure(t *testing.T) {
	srv, calls := endpoint(t, http.StatusBadGateway, `{"error":"delivery_failed"}`)

	code, out, _ := runCLI(t, "", "--endpoint", srv.URL,
		"--name", "Alice", "--email", "alice@example.com", "--message", "Hi")

	assert.Equal(t, exitFailed, code)
	assert.Equal(t, "Error sending message, try reaching out on social media.\n", out)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_ValidationSkipsNetwork(t *testing.T) {
	srv, calls := endpoint(t, http.StatusAccepted, `{}`)

	code, out, _ := runCLI(t, "", "--endpoint", srv.URL,
		"--name", "Alice", "--email", "bob@@nodot", "--message", "Hi")

	assert.Equal(t, exitInvalid, code)
	assert.Equal(t, "Invalid email address.\n", out)
	assert.Zero(t, calls.Load())
}

func TestRun_TimeoutConfiguresTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	code, out, _ := runCLI(t, "", "--endpoint", srv.URL, "--timeout", "50ms",
		"--name", "Alice", "--email", "alice@example.com", "--message", "Hi")

	assert.Equal(t, exitFailed, code)
	assert.Equal(t, "Error sending message, try reaching out on social media.\n", out)
}

func TestRun_JSONOutput(t *testing.T) {
	srv, _ := endpoint(t, http.StatusAccepted, `{"id":"abc","status":"received"}`)

	code, out, errOut := runCLI(t, "", "--endpoint", srv.URL, "-o", "json",
		"--name", "Alice", "--email", "alice@example.com", "--message", "Hi")
	require.Equal(t, exitOK, code)
	assert.Empty(t, errOut)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "succeeded", v["state"])
	assert.Equal(t, true, v["disabled"])
	assert.Equal(t, "abc", v["ack_id"])
}

func TestRun_YAMLOutputAndStdinMessage(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		got = body["message"]
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	code, out, _ := runCLI(t, "line one\nline two\n", "--endpoint", srv.URL, "--output", "yaml",
		"--name", "Alice", "--email", "alice@example.com", "--message", "-")
	require.Equal(t, exitOK, code)
	assert.Equal(t, "line one\nline two", got)

	var v map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &v))
	assert.Equal(t, "succeeded", v["state"])
	assert.Equal(t, "Message sent successfully!", v["success"])
}

func TestRun_EndpointFromEnv(t *testing.T) {
	srv, calls := endpoint(t, http.StatusAccepted, `{}`)
	t.Setenv("INQUIRY_CONTACT_ENDPOINT", srv.URL)

	code, _, _ := runCLI(t, "", "--name", "Alice", "--email", "alice@example.com", "--message", "Hi")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_UsageErrors(t *testing.T) {
	t.Setenv("INQUIRY_CONTACT_ENDPOINT", "")

	code, _, errOut := runCLI(t, "", "--name", "Alice")
	assert.Equal(t, exitInvalid, code)
	assert.Contains(t, errOut, "--endpoint")

	code, _, errOut = runCLI(t, "", "--endpoint", "http://localhost", "-o", "xml")
	assert.Equal(t, exitInvalid, code)
	assert.Contains(t, errOut, `unknown --output "xml"`)

	code, _, errOut = runCLI(t, "", "--endpoint", "ftp://example.com", "--name", "A", "--email", "a@b.co", "--message", "m")
	assert.Equal(t, exitInvalid, code)
	assert.Contains(t, errOut, "http or https")
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "", "--version")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "inquiry dev\n", out)
}
