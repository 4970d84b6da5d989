package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/inquiry/auth/apikey"
	"github.com/dalemusser/inquiry/config"
	"github.com/dalemusser/inquiry/delivery"
	"github.com/dalemusser/inquiry/handler"
	"github.com/dalemusser/inquiry/metrics"
	"github.com/dalemusser/inquiry/middleware"
	"github.com/dalemusser/inquiry/pantry/health"
	"github.com/dalemusser/inquiry/pantry/pprof"
	"github.com/dalemusser/inquiry/pantry/ratelimit"
	"github.com/dalemusser/inquiry/pantry/version"
	"github.com/dalemusser/inquiry/router"
	"github.com/dalemusser/inquiry/templates"
	"go.uber.org/zap"
)

// limiterTTL is how long an idle client keeps its in-memory bucket.
const limiterTTL = 10 * time.Minute

// BuildHandler mounts:
//
//	GET  /         contact page
//	POST /         contact page form post
//	POST /contact  JSON submission endpoint
//	GET  /health   liveness plus backend checks
//	GET  /version  build info
//	GET  /metrics  Prometheus
//	     /debug/pprof/*  profiling, only with an admin API key
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, b Backends, logger *zap.Logger) (http.Handler, error) {
	dispatcher, err := buildDispatcher(appCfg, b, logger)
	if err != nil {
		return nil, err
	}
	tpl, err := templates.New(logger)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	contactH := handler.NewContact(dispatcher, logger)
	page := handler.NewPage(contactH, tpl, appCfg.SiteTitle, logger)
	limit := rateLimit(appCfg, b, logger)

	r := router.New(coreCfg, logger)

	r.Get("/", page.Show)
	r.With(limit).Post("/", page.Submit)
	r.With(limit, middleware.RequireJSON()).Method(http.MethodPost, "/contact", contactH)

	health.Mount(r, b.HealthChecks(), logger)
	version.Mount(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	if appCfg.AdminAPIKey != "" {
		pprof.Mount(r, apikey.Require(appCfg.AdminAPIKey, logger))
	}

	logger.Info("contact routes mounted", zap.Strings("sinks", dispatcher.Sinks()))
	return r, nil
}

// buildDispatcher registers every configured sink as required. The log
// sink is always present; it only counts toward delivery when it is the
// sole sink.
func buildDispatcher(appCfg AppConfig, b Backends, logger *zap.Logger) (*delivery.Dispatcher, error) {
	d := delivery.NewDispatcher(
		delivery.WithSinkTimeout(appCfg.SinkTimeout),
		delivery.WithLogger(logger),
	)

	if b.Mailer != nil {
		sink, err := delivery.NewEmailSink(b.Mailer, appCfg.SMTP.NotifyTo, appCfg.SMTP.SubjectPrefix)
		if err != nil {
			return nil, err
		}
		d.Add(sink)
	}
	if b.Publisher != nil {
		d.Add(delivery.NewAMQPSink(b.Publisher))
	}
	if b.SQS != nil {
		d.Add(delivery.NewSQSSink(b.SQS, logger))
	}

	logSink := delivery.NewLogSink(logger)
	if len(d.Sinks()) == 0 {
		logger.Warn("no delivery backend configured; inquiries are only logged")
		d.Add(logSink)
	} else {
		d.AddOptional(logSink)
	}
	return d, nil
}

// rateLimit returns the submission rate limit middleware, shared through
// Redis when one is connected. With rate limiting disabled it passes
// requests through.
func rateLimit(appCfg AppConfig, b Backends, logger *zap.Logger) func(http.Handler) http.Handler {
	if !appCfg.RateLimited() {
		return func(next http.Handler) http.Handler { return next }
	}

	var limiter ratelimit.Limiter
	if b.Redis != nil {
		limiter = ratelimit.NewRedisLimiter(b.Redis, "inquiry:ratelimit", appCfg.RateLimitPerMinute, time.Minute)
	} else {
		limiter = ratelimit.NewKeyLimiter(appCfg.RateLimitPerMinute, appCfg.RateLimitBurst, limiterTTL)
	}

	return ratelimit.Middleware(limiter, ratelimit.Options{
		Logger: logger,
		OnLimited: func(r *http.Request) {
			metrics.ObserveSubmission(metrics.ResultRateLimited)
			logger.Info("submission rate limited", zap.String("remote_ip", ratelimit.IPKeyFunc(r)))
		},
	})
}
