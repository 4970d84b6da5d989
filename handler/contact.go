// Package handler holds the HTTP handlers of the inquiry service: the JSON
// submission endpoint and the server-rendered contact page.
package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dalemusser/inquiry/contact"
	"github.com/dalemusser/inquiry/delivery"
	"github.com/dalemusser/inquiry/httputil"
	"github.com/dalemusser/inquiry/metrics"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatusReceived is the Ack status for an accepted inquiry.
const StatusReceived = "received"

// Dispatcher is satisfied by *delivery.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, inq delivery.Inquiry) (delivery.Result, error)
}

// Meta is the request metadata attached to an inquiry.
type Meta struct {
	RemoteIP  string
	UserAgent string
	RequestID string
}

// MetaFrom reads Meta from r. RemoteAddr is expected to have been
// rewritten by chi's RealIP.
func MetaFrom(r *http.Request) Meta {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return Meta{
		RemoteIP:  ip,
		UserAgent: r.UserAgent(),
		RequestID: chimw.GetReqID(r.Context()),
	}
}

// Contact accepts inquiries: it re-validates, assigns an id and hands the
// inquiry to the dispatcher.
type Contact struct {
	dispatcher Dispatcher
	logger     *zap.Logger
	newID      func() string
	now        func() time.Time
}

// NewContact returns a Contact delivering through d.
func NewContact(d Dispatcher, logger *zap.Logger) *Contact {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Contact{
		dispatcher: d,
		logger:     logger,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Accept validates sub and dispatches it. Validation failures are returned
// as *contact.ValidationError; delivery failure as delivery.ErrUndelivered.
func (c *Contact) Accept(ctx context.Context, sub contact.Submission, meta Meta) (contact.Ack, error) {
	if err := sub.Validate(); err != nil {
		metrics.ObserveSubmission(metrics.ResultInvalid)
		return contact.Ack{}, err
	}

	inq := delivery.Inquiry{
		ID:         c.newID(),
		Submission: sub,
		ReceivedAt: c.now().UTC(),
		RemoteIP:   meta.RemoteIP,
		UserAgent:  meta.UserAgent,
		RequestID:  meta.RequestID,
	}
	res, err := c.dispatcher.Dispatch(ctx, inq)
	if err != nil {
		metrics.ObserveSubmission(metrics.ResultFailed)
		c.logger.Error("inquiry not delivered",
			zap.String("inquiry_id", inq.ID),
			zap.Int("failed_sinks", len(res.Failed)),
			zap.Error(err))
		return contact.Ack{}, err
	}

	metrics.ObserveSubmission(metrics.ResultAccepted)
	c.logger.Info("inquiry accepted",
		zap.String("inquiry_id", inq.ID),
		zap.Strings("delivered", res.Delivered))
	return contact.Ack{ID: inq.ID, Status: StatusReceived}, nil
}

// Submitter adapts Accept to contact.Submitter for a single request, so a
// contact.Form can drive the endpoint in-process.
func (c *Contact) Submitter(meta Meta) contact.Submitter {
	return contact.SubmitterFunc(func(ctx context.Context, sub contact.Submission) (contact.Ack, error) {
		return c.Accept(ctx, sub, meta)
	})
}

// ServeHTTP handles POST /contact. Mount it behind middleware.RequireJSON.
//
//	202 {"id":"…","status":"received"}
//	400 {"error":"invalid_request"|"missing_field"|"invalid_email","message":"…"}
//	413 {"error":"request_too_large"}
//	502 {"error":"delivery_failed"}
func (c *Contact) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var sub contact.Submission
	if err := httputil.BindJSON(r, &sub); err != nil {
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			httputil.JSONError(w, http.StatusRequestEntityTooLarge, "request_too_large", err.Error())
			return
		}
		metrics.ObserveSubmission(metrics.ResultInvalid)
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ack, err := c.Accept(r.Context(), sub, MetaFrom(r))
	var verr *contact.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.JSONError(w, http.StatusBadRequest, verr.Kind.String(), verr.Message())
	case err != nil:
		httputil.JSONError(w, http.StatusBadGateway, "delivery_failed",
			"The message could not be delivered.")
	default:
		httputil.WriteJSON(w, http.StatusAccepted, ack)
	}
}
