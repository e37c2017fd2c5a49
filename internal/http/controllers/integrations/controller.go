// Package integrations expone el flujo OAuth de cada proveedor por HTTP:
// authorize, oauth2callback, credentials (one-time) e items.
package integrations

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/integrationhub/internal/http/errors"
	"github.com/dropDatabas3/integrationhub/internal/integration"
	"github.com/dropDatabas3/integrationhub/internal/metrics"
	"github.com/dropDatabas3/integrationhub/internal/observability/logger"
)

// closePopupHTML cierra el popup de autorización; el frontend detecta el
// cierre y pasa a pedir las credenciales.
const closePopupHTML = "<html><script>window.close();</script></html>"

// Controller maneja los endpoints de integraciones sobre el registry de flows.
type Controller struct {
	registry *integration.Registry
}

// NewController crea el controller.
func NewController(reg *integration.Registry) *Controller {
	return &Controller{registry: reg}
}

// Register monta las rutas del controller bajo el router dado.
func (c *Controller) Register(r chi.Router) {
	r.Get("/providers", c.Providers)
	r.Route("/{provider}", func(r chi.Router) {
		r.Post("/authorize", c.Authorize)
		r.Get("/oauth2callback", c.Callback)
		r.Post("/credentials", c.Credentials)
		r.Post("/items", c.Items)
	})
}

// flow resuelve el proveedor del path. Escribe 404 si no está registrado.
func (c *Controller) flow(w http.ResponseWriter, r *http.Request) (*integration.Flow, bool) {
	name := chi.URLParam(r, "provider")
	f, ok := c.registry.Get(name)
	if !ok {
		httperrors.WriteError(w, http.StatusNotFound, "unknown_provider", "no provider named "+name)
		return nil, false
	}
	return f, true
}

// Authorize maneja POST /v1/integrations/{provider}/authorize
func (c *Controller) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, ok := c.flow(w, r)
	if !ok {
		return
	}
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Authorize"),
		logger.Provider(f.Provider().Name()))

	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "invalid_form", "could not parse form body")
		return
	}
	userID := strings.TrimSpace(r.PostFormValue("user_id"))
	orgID := strings.TrimSpace(r.PostFormValue("org_id"))

	authURL, err := f.Authorize(ctx, userID, orgID)
	if err != nil {
		log.Warn("authorize failed", logger.Err(err))
		httperrors.WriteFlowError(w, err)
		return
	}

	metrics.RecordAuthorization(f.Provider().Name())
	log.Info("authorization started", logger.UserID(userID), logger.OrgID(orgID))
	httperrors.WriteJSON(w, http.StatusOK, map[string]string{"authorization_url": authURL})
}

// Callback maneja GET /v1/integrations/{provider}/oauth2callback
func (c *Controller) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, ok := c.flow(w, r)
	if !ok {
		return
	}
	provider := f.Provider().Name()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Callback"),
		logger.Provider(provider))

	q := r.URL.Query()
	err := f.Complete(ctx, integration.Callback{
		Code:             strings.TrimSpace(q.Get("code")),
		State:            strings.TrimSpace(q.Get("state")),
		Error:            strings.TrimSpace(q.Get("error")),
		ErrorDescription: strings.TrimSpace(q.Get("error_description")),
	})
	if err != nil {
		log.Warn("callback failed", logger.Err(err))
		code := httperrors.WriteFlowError(w, err)
		metrics.RecordCallback(provider, callbackOutcome(code))
		return
	}

	metrics.RecordCallback(provider, "ok")
	log.Info("callback completed")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(closePopupHTML))
}

// Credentials maneja POST /v1/integrations/{provider}/credentials
// La lectura es one-time: el registro se borra al entregarse.
func (c *Controller) Credentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, ok := c.flow(w, r)
	if !ok {
		return
	}
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Credentials"),
		logger.Provider(f.Provider().Name()))

	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "invalid_form", "could not parse form body")
		return
	}
	userID := strings.TrimSpace(r.PostFormValue("user_id"))
	orgID := strings.TrimSpace(r.PostFormValue("org_id"))

	creds, err := f.Take(ctx, userID, orgID)
	if err != nil {
		log.Warn("credentials take failed", logger.Err(err))
		httperrors.WriteFlowError(w, err)
		return
	}

	log.Info("credentials delivered", logger.UserID(userID), logger.OrgID(orgID))
	httperrors.WriteJSON(w, http.StatusOK, creds)
}

// Items maneja POST /v1/integrations/{provider}/items
func (c *Controller) Items(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, ok := c.flow(w, r)
	if !ok {
		return
	}
	provider := f.Provider().Name()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Items"),
		logger.Provider(provider))

	if err := r.ParseForm(); err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "invalid_form", "could not parse form body")
		return
	}

	creds, err := integration.ParseCredentials(r.PostFormValue("credentials"))
	if err != nil {
		httperrors.WriteFlowError(w, err)
		return
	}

	items, err := f.Items(ctx, creds)
	if err != nil {
		log.Error("items fetch failed", logger.Err(err))
		httperrors.WriteFlowError(w, err)
		return
	}
	if items == nil {
		items = []integration.Item{}
	}

	metrics.RecordItemsFetched(provider, len(items))
	log.Info("items fetched", logger.Count(len(items)))
	httperrors.WriteJSON(w, http.StatusOK, items)
}

// Providers maneja GET /v1/integrations/providers
func (c *Controller) Providers(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, map[string][]string{"providers": c.registry.Names()})
}

// callbackOutcome colapsa el código de error a un label de métrica acotado.
func callbackOutcome(code string) string {
	switch code {
	case "provider_denied":
		return "denied"
	case "token_exchange_rejected":
		return "rejected"
	case "missing_parameter", "malformed_state", "state_expired_or_unknown", "state_mismatch":
		return "invalid"
	default:
		return "error"
	}
}
