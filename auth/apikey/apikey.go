// auth/apikey/apikey.go
package apikey

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dalemusser/inquiry/httputil"
	"go.uber.org/zap"
)

// Realm is sent in the WWW-Authenticate header of a 401.
const Realm = "inquiry-admin"

// Require returns a middleware that admits requests carrying expected as
// "Authorization: Bearer <key>" or "X-API-Key: <key>". Keys in the query
// string are not accepted; they end up in access logs.
//
// An empty expected key refuses every request.
func Require(expected string, logger *zap.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	want := []byte(strings.TrimSpace(expected))
	if len(want) == 0 {
		logger.Warn("apikey.Require configured with an empty key; all requests will be refused")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := fromRequest(r)
			if len(want) == 0 || !ok || subtle.ConstantTimeCompare([]byte(key), want) != 1 {
				logger.Warn("API key unauthorized",
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
					zap.String("remote_ip", r.RemoteAddr),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="`+Realm+`"`)
				httputil.JSONError(w, http.StatusUnauthorized, "unauthorized", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func fromRequest(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > len("bearer ") && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		if token := strings.TrimSpace(auth[len("bearer "):]); token != "" {
			return token, true
		}
	}
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key, true
	}
	return "", false
}
