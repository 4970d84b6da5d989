package templates

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type view struct {
	State    string
	Disabled bool
	Error    string
	Success  string
}

type values struct{ Name, Email, Message string }

type page struct {
	Title  string
	View   view
	Values values
}

func TestEngine_RenderContact(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.Render(rec, http.StatusBadRequest, "contact", page{
		Title:  "Contact",
		View:   view{State: "idle", Error: "Invalid email address."},
		Values: values{Name: "Alice", Email: "bob@@nodot", Message: "<b>hi</b>"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "Invalid email address.")
	assert.Contains(t, body, `value="Alice"`)
	assert.Contains(t, body, "&lt;b&gt;hi&lt;/b&gt;")
	assert.Contains(t, body, `<button type="submit">`)
	assert.NotContains(t, body, " disabled")
}

func TestEngine_RenderDisabled(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.Render(rec, http.StatusOK, "contact", page{
		Title: "Contact",
		View:  view{State: "succeeded", Disabled: true, Success: "Message sent successfully!"},
	})

	body := rec.Body.String()
	assert.Contains(t, body, "Message sent successfully!")
	assert.Contains(t, body, " disabled")
	assert.Contains(t, body, "Send another message")
	assert.NotContains(t, body, `<button type="submit">`)
}

func TestEngine_UnknownTemplate(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.Render(rec, http.StatusOK, "nope", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
