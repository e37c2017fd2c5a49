// Package http arma el router del servicio y sus middlewares.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/integrationhub/internal/cache"
	"github.com/dropDatabas3/integrationhub/internal/http/controllers/integrations"
	httperrors "github.com/dropDatabas3/integrationhub/internal/http/errors"
	"github.com/dropDatabas3/integrationhub/internal/http/middlewares"
)

// RouterDeps agrupa lo que el router necesita para montarse.
type RouterDeps struct {
	Integrations *integrations.Controller
	Cache        cache.Client
	Metrics      http.Handler // handler de /metrics; nil lo deshabilita
	CORSOrigins  []string
}

// NewRouter construye el handler raíz: rutas + cadena de middlewares.
//
// Orden de la cadena (de afuera hacia adentro):
// Recover → RequestID → CORS → SecurityHeaders → Logging → Metrics → mux
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", healthz(deps.Cache))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/v1/integrations", func(r chi.Router) {
		deps.Integrations.Register(r)
	})

	var h http.Handler = r
	h = WithMetrics(h)
	h = middlewares.Chain(h,
		middlewares.WithLogging(),
	)
	h = WithSecurityHeaders(h)
	h = WithCORS(h, deps.CORSOrigins)
	h = middlewares.Chain(h,
		middlewares.WithRequestID(),
	)
	h = WithRecover(h)
	return h
}

// healthz reporta el estado del store transitorio. Un store caído deja al
// servicio incapaz de completar flujos, así que se reporta 503.
func healthz(c cache.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c == nil {
			httperrors.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
			return
		}
		if err := c.Ping(r.Context()); err != nil {
			httperrors.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"cache":  err.Error(),
			})
			return
		}

		body := map[string]any{"status": "ok"}
		if st, err := c.Stats(r.Context()); err == nil {
			body["cache"] = map[string]any{
				"driver": st.Driver,
				"keys":   st.Keys,
				"hits":   st.Hits,
				"misses": st.Misses,
			}
		}
		httperrors.WriteJSON(w, http.StatusOK, body)
	}
}
