package http

import (
	"fmt"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/integrationhub/internal/http/errors"
	"github.com/dropDatabas3/integrationhub/internal/observability/logger"
)

// ─────────────── CORS ───────────────

// WithCORS habilita CORS para los origins permitidos (el frontend que abre
// el popup de autorización y consulta credentials/items).
func WithCORS(next http.Handler, allowed []string) http.Handler {
	trim := func(s string) string { return strings.TrimRight(strings.TrimSpace(s), "/") }

	alist := make([]string, len(allowed))
	for i, v := range allowed {
		alist[i] = trim(v)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := trim(r.Header.Get("Origin"))
		allowedOrigin := ""

		for _, a := range alist {
			if a == "*" || (origin != "" && strings.EqualFold(origin, a)) {
				allowedOrigin = origin
				break
			}
		}

		// Ayuda a caches/proxies
		w.Header().Add("Vary", "Origin")
		w.Header().Add("Vary", "Access-Control-Request-Method")
		w.Header().Add("Vary", "Access-Control-Request-Headers")

		if allowedOrigin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET,POST,HEAD,OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			h.Set("Access-Control-Expose-Headers", "X-Request-ID, Location")
			h.Set("Access-Control-Max-Age", "600") // preflight 10m
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ─────────────── Security Headers ───────────────

// WithSecurityHeaders inyecta cabeceras de defensa por defecto.
// El callback devuelve HTML mínimo (window.close), el resto es API JSON.
func WithSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Permitted-Cross-Domain-Policies", "none")

		next.ServeHTTP(w, r)
	})
}

// ─────────────── Recover de pánicos ───────────────

func WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic recovered",
					logger.Path(r.URL.Path),
					logger.String("recover", fmt.Sprintf("%v", rec)),
				)
				httperrors.WriteError(w, http.StatusInternalServerError, "internal_error", "panic recover")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
