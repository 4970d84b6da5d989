// Package bootstrap wires the inquiry service into app.Run: it loads the
// settings, opens the delivery backends and builds the HTTP handler.
package bootstrap

import (
	"github.com/dalemusser/inquiry/app"
	"github.com/dalemusser/inquiry/config"
	"go.uber.org/zap"
)

// LoadConfig loads the core config and the inquiry settings from flags,
// INQUIRY_* env vars, config files and defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	return loadConfig(logger, config.Options{Keys: Keys})
}

func loadConfig(logger *zap.Logger, opts config.Options) (*config.CoreConfig, AppConfig, error) {
	coreCfg, vals, err := config.Load(logger, opts)
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg, err := appConfigFrom(vals)
	if err != nil {
		return nil, AppConfig{}, err
	}
	return coreCfg, appCfg, nil
}

// Hooks wires the inquiry service into the app lifecycle.
var Hooks = app.Hooks[AppConfig, Backends]{
	Name:            "inquiryd",
	LoadConfig:      LoadConfig,
	ConnectBackends: ConnectBackends,
	CloseBackends:   CloseBackends,
	BuildHandler:    BuildHandler,
}
