package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/marketshare/internal/config"
)

// APIKeyAuth returns middleware that validates the X-API-Key header against
// the configured keys. With RequireAPIKey off, all requests pass through.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			switch {
			case apiKey == "":
				reject(w, r, http.StatusUnauthorized, "missing API key", "AUTH001")
			case !isValidAPIKey(apiKey, cfg.APIKeys):
				reject(w, r, http.StatusForbidden, "invalid API key", "AUTH002")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, status int, msg, code string) {
	slog.Warn("auth: "+msg,
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "message": msg, "code": code})
}

// isValidAPIKey checks key against every configured key in constant time,
// whichever key matches.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
