// templates/engine.go
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

//go:embed html/*.html
var files embed.FS

// Engine renders the embedded page templates.
type Engine struct {
	set    *template.Template
	logger *zap.Logger
}

// New parses the embedded templates.
func New(logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	set, err := template.New("").Funcs(Funcs()).ParseFS(files, "html/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Engine{set: set, logger: logger}, nil
}

// Render executes the named template into a buffer and writes it with
// status, so a template error never leaves a half-written page.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := e.set.ExecuteTemplate(&buf, name, data); err != nil {
		e.logger.Error("template render failed", zap.String("name", name), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
