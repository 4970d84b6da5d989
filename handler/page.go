package handler

import (
	"errors"
	"net/http"

	"github.com/dalemusser/inquiry/contact"
	"github.com/dalemusser/inquiry/templates"
	"go.uber.org/zap"
)

// PageData feeds the "contact" template.
type PageData struct {
	Title  string
	View   contact.View
	Values contact.Submission
}

// Page serves the server-rendered contact form for clients without
// JavaScript. Every POST drives a fresh contact.Form against Contact.
type Page struct {
	contact *Contact
	tpl     *templates.Engine
	title   string
	logger  *zap.Logger
}

// NewPage returns a Page titled title.
func NewPage(c *Contact, tpl *templates.Engine, title string, logger *zap.Logger) *Page {
	if logger == nil {
		logger = zap.NewNop()
	}
	if title == "" {
		title = "Contact"
	}
	return &Page{contact: c, tpl: tpl, title: title, logger: logger}
}

// Show handles GET /.
func (p *Page) Show(w http.ResponseWriter, r *http.Request) {
	form := contact.NewForm(p.contact.Submitter(MetaFrom(r)))
	p.tpl.Render(w, http.StatusOK, "contact", PageData{Title: p.title, View: form.View()})
}

// Submit handles POST / with urlencoded name, email and message.
func (p *Page) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := contact.NewForm(p.contact.Submitter(MetaFrom(r)), contact.WithLogger(p.logger))
	err := form.Submit(r.Context(), r.PostForm)

	// Entered values stay on the page: editable while Idle, disabled once
	// the form has resolved.
	data := PageData{
		Title: p.title,
		View:  form.View(),
		Values: contact.Submission{
			Name:    r.PostForm.Get(contact.FieldName),
			Email:   r.PostForm.Get(contact.FieldEmail),
			Message: r.PostForm.Get(contact.FieldMessage),
		},
	}
	status := http.StatusOK
	var verr *contact.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case err != nil:
		status = http.StatusBadGateway
	}
	p.tpl.Render(w, status, "contact", data)
}
