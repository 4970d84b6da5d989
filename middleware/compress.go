// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/inquiry/config"
	"github.com/go-chi/chi/v5/middleware"
)

// compressibleTypes are the response types the service produces that are
// worth compressing. JSON acks are tiny but the contact page is not.
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"application/json",
}

// CompressFromConfig returns gzip/deflate compression at
// coreCfg.CompressionLevel when coreCfg.EnableCompression is set, and an
// identity middleware otherwise. The level is range-checked by config
// validation; out-of-range values are clamped here.
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return passthrough
	}
	level := min(max(coreCfg.CompressionLevel, 1), 9)
	return middleware.Compress(level, compressibleTypes...)
}

func passthrough(next http.Handler) http.Handler { return next }
