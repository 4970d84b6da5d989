// router/router.go
package router

import (
	"github.com/dalemusser/inquiry/config"
	"github.com/dalemusser/inquiry/logging"
	"github.com/dalemusser/inquiry/metrics"
	"github.com/dalemusser/inquiry/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// QuietPaths are logged at debug level by the access logger.
var QuietPaths = []string{"/health", "/metrics"}

// New returns a chi.Router with the standard middleware stack:
//   - RequestID, RealIP
//   - Recoverer (panic → 500)
//   - body size limit (MaxRequestBodyBytes)
//   - metrics and access logging
//   - CORS, security headers and compression as configured
//   - JSON NotFound / MethodNotAllowed handlers
//
// Routes are mounted by the caller.
func New(coreCfg *config.CoreConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))
	r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))
	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger, QuietPaths...))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(middleware.CompressFromConfig(coreCfg))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
