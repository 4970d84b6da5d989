// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/inquiry/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig applies go-chi/cors using coreCfg.CORS. The marketing site
// usually lives on another origin than this service, so browsers need the
// preflight for POST /contact. When CORS is disabled the middleware is a
// no-op.
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return passthrough
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   coreCfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   coreCfg.CORS.CORSAllowedMethods,
		AllowedHeaders:   coreCfg.CORS.CORSAllowedHeaders,
		ExposedHeaders:   coreCfg.CORS.CORSExposedHeaders,
		AllowCredentials: coreCfg.CORS.CORSAllowCredentials,
		MaxAge:           coreCfg.CORS.CORSMaxAge,
	})
}
