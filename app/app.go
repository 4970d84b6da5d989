// app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/inquiry/config"
	"github.com/dalemusser/inquiry/httputil"
	"github.com/dalemusser/inquiry/logging"
	"github.com/dalemusser/inquiry/metrics"
	"github.com/dalemusser/inquiry/server"
	"go.uber.org/zap"
)

// Hooks are the integration points a service provides to Run. C is the
// service's settings type; B is whatever bundle of backend connections
// ConnectBackends produces.
type Hooks[C any, B any] struct {
	// Name is used for logging only.
	Name string

	// LoadConfig returns the core config and the service settings,
	// typically via config.Load.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// ConnectBackends dials the delivery backends. ctx carries
	// core.ConnectTimeout.
	ConnectBackends func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (B, error)

	// CloseBackends releases what ConnectBackends opened. Optional.
	CloseBackends func(backends B, logger *zap.Logger)

	// BuildHandler builds the final http.Handler: router, middleware and
	// routes.
	BuildHandler func(core *config.CoreConfig, appCfg C, backends B, logger *zap.Logger) (http.Handler, error)
}

// Run executes the startup sequence and serves until SIGINT/SIGTERM or a
// server failure:
//
//  1. bootstrap logger
//  2. load config (Hooks.LoadConfig)
//  3. final logger from core config
//  4. register metrics
//  5. connect backends (Hooks.ConnectBackends)
//  6. build handler (Hooks.BuildHandler)
//  7. serve with shutdown signals
//
// Any startup failure is logged and returned; callers exit non-zero.
func Run[C any, B any](ctx context.Context, hooks Hooks[C, B]) error {
	bootstrap := logging.BootstrapLogger()
	defer func() { _ = bootstrap.Sync() }()
	bootstrap.Info("bootstrap logger initialized", zap.String("app", hooks.Name))

	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.With(zap.String("app", hooks.Name))
	httputil.SetJSONLogger(logger)

	metrics.RegisterDefault(logger)

	connectCtx, cancelConnect := context.WithTimeout(ctx, coreCfg.ConnectTimeout)
	backends, err := hooks.ConnectBackends(connectCtx, coreCfg, appCfg, logger)
	cancelConnect()
	if err != nil {
		logger.Error("backend connect failed", zap.Error(err))
		return fmt.Errorf("connect backends: %w", err)
	}
	if hooks.CloseBackends != nil {
		defer hooks.CloseBackends(backends, logger)
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler, err := hooks.BuildHandler(coreCfg, appCfg, backends, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
