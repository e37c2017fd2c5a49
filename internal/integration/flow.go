package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/integrationhub/internal/cache"
	"github.com/dropDatabas3/integrationhub/internal/observability/logger"
)

// DefaultHandoffTTL es la vida útil de state, verifier y credenciales en el
// store transitorio. Un registro huérfano expira solo.
const DefaultHandoffTTL = 600 * time.Second

// Flow orquesta el ciclo authorize → callback → credentials → items para un
// proveedor. No guarda estado entre pasos: todo hand-off pasa por el store.
type Flow struct {
	store    cache.Client
	provider Provider
	http     *http.Client
	ttl      time.Duration
}

// Option configura un Flow.
type Option func(*Flow)

// WithHTTPClient reemplaza el cliente HTTP del intercambio de tokens.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Flow) { f.http = c }
}

// WithHandoffTTL reemplaza el TTL de los registros transitorios.
func WithHandoffTTL(ttl time.Duration) Option {
	return func(f *Flow) { f.ttl = ttl }
}

// NewFlow crea el flow de un proveedor sobre el store dado.
func NewFlow(store cache.Client, p Provider, opts ...Option) *Flow {
	f := &Flow{
		store:    store,
		provider: p,
		http:     &http.Client{Timeout: 15 * time.Second},
		ttl:      DefaultHandoffTTL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Provider retorna el adapter del flow.
func (f *Flow) Provider() Provider { return f.provider }

// key arma la key namespaced {provider}_{kind}:{org}:{user}.
func (f *Flow) key(kind, orgID, userID string) string {
	return f.provider.Name() + "_" + kind + ":" + orgID + ":" + userID
}

// Authorize inicia un flujo: genera state + PKCE, los persiste como par en el
// store (ambos o ninguno habilitan el callback) y retorna la URL de
// autorización del proveedor.
//
// Un Authorize nuevo para la misma identidad pisa los registros del flujo
// anterior: a lo sumo un flujo en vuelo por (provider, user, org).
func (f *Flow) Authorize(ctx context.Context, userID, orgID string) (string, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(orgID) == "" {
		return "", fmt.Errorf("%w: user_id and org_id are required", ErrInvalidRequest)
	}

	st, err := NewFlowState(userID, orgID)
	if err != nil {
		return "", err
	}
	stored, _ := json.Marshal(st)

	var pk PKCEPair
	usePKCE := f.provider.Endpoints().UsePKCE
	if usePKCE {
		if pk, err = GeneratePKCE(); err != nil {
			return "", err
		}
	}

	// Los dos writes no dependen entre sí; si cualquiera falla el flujo no
	// arranca y el registro que sí entró expira por TTL.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return f.store.Set(gctx, f.key("state", orgID, userID), string(stored), f.ttl)
	})
	if usePKCE {
		g.Go(func() error {
			return f.store.Set(gctx, f.key("verifier", orgID, userID), pk.Verifier, f.ttl)
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("integration: persisting handoff records: %w", err)
	}

	return f.authorizationURL(EncodeState(st), pk.Challenge), nil
}

// authorizationURL compone la URL del proveedor con client config, state y
// challenge. Los espacios del scope van como %20.
func (f *Flow) authorizationURL(state, challenge string) string {
	ep := f.provider.Endpoints()
	cc := f.provider.Client()

	q := url.Values{}
	q.Set("client_id", cc.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", cc.RedirectURI)
	for k, v := range ep.ExtraAuthParams {
		q.Set(k, v)
	}
	q.Set("state", state)
	if ep.UsePKCE {
		q.Set("code_challenge", challenge)
		q.Set("code_challenge_method", "S256")
	}
	if len(cc.Scopes) > 0 {
		q.Set("scope", strings.Join(cc.Scopes, " "))
	}

	return ep.AuthorizeURL + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}

// Callback son los query params crudos que el proveedor manda al redirect.
type Callback struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Complete valida el callback, intercambia el code por tokens y deja las
// credenciales en el store bajo TTL para retiro one-time vía Take.
//
// Orden estricto: error del proveedor → presencia de params → decode de
// state → lookup → comparación de nonce → intercambio. Nada de red antes de
// validar el state. Una vez intentado el intercambio, state y verifier se
// borran siempre, incluso si el intercambio falló: un verifier vivo tras un
// code gastado sería reutilizable por un atacante con el state blob.
func (f *Flow) Complete(ctx context.Context, cb Callback) error {
	if cb.Error != "" {
		reason := cb.ErrorDescription
		if reason == "" {
			reason = cb.Error
		}
		return &ProviderDeniedError{Reason: reason}
	}
	if cb.Code == "" || cb.State == "" {
		return ErrMissingParameter
	}

	st, err := DecodeState(cb.State)
	if err != nil {
		return err
	}

	stateKey := f.key("state", st.OrgID, st.UserID)
	verifierKey := f.key("verifier", st.OrgID, st.UserID)
	usePKCE := f.provider.Endpoints().UsePKCE

	var savedRaw, verifier string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := f.store.Get(gctx, stateKey)
		savedRaw = v
		return err
	})
	if usePKCE {
		g.Go(func() error {
			v, err := f.store.Get(gctx, verifierKey)
			verifier = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if cache.IsNotFound(err) {
			return ErrStateExpired
		}
		return fmt.Errorf("integration: reading handoff records: %w", err)
	}

	var saved FlowState
	if err := json.Unmarshal([]byte(savedRaw), &saved); err != nil {
		return fmt.Errorf("%w: saved state", ErrCorruptedRecord)
	}
	if st.Nonce != saved.Nonce {
		return ErrStateMismatch
	}

	body, exchErr := f.exchange(ctx, cb.Code, verifier)

	// Limpieza incondicional, incluso si el request fue cancelado.
	cleanupCtx := context.WithoutCancel(ctx)
	dg, dgctx := errgroup.WithContext(cleanupCtx)
	dg.Go(func() error { return f.store.Delete(dgctx, stateKey) })
	dg.Go(func() error { return f.store.Delete(dgctx, verifierKey) })
	if derr := dg.Wait(); derr != nil {
		logger.From(ctx).Warn("handoff cleanup failed",
			logger.Provider(f.provider.Name()), logger.Err(derr))
	}

	if exchErr != nil {
		return exchErr
	}

	var payload Credentials
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTokenResponse, err)
	}
	if payload.AccessToken() == "" {
		return ErrInvalidTokenResponse
	}

	canonical, _ := json.Marshal(payload)
	if err := f.store.Set(ctx, f.key("credentials", st.OrgID, st.UserID), string(canonical), f.ttl); err != nil {
		return fmt.Errorf("integration: persisting credentials: %w", err)
	}
	return nil
}

// exchange ejecuta el POST form-encoded al endpoint de tokens según el estilo
// de client auth del proveedor.
func (f *Flow) exchange(ctx context.Context, code, verifier string) ([]byte, error) {
	ep := f.provider.Endpoints()
	cc := f.provider.Client()

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", cc.RedirectURI)
	switch ep.ClientAuth {
	case ClientAuthBody:
		form.Set("client_id", cc.ClientID)
		form.Set("client_secret", cc.ClientSecret)
	case ClientAuthBasic:
		if ep.ClientIDInBody {
			form.Set("client_id", cc.ClientID)
		}
	}
	if ep.UsePKCE {
		form.Set("code_verifier", verifier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if ep.ClientAuth == ClientAuthBasic {
		req.SetBasicAuth(cc.ClientID, cc.ClientSecret)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading token response: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ExchangeError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// Take retira las credenciales intercambiadas: las lee, las borra y las
// retorna parseadas. Es estrictamente read-once; una segunda llamada retorna
// ErrCredentialsNotFound, igual que si nunca hubieran existido.
func (f *Flow) Take(ctx context.Context, userID, orgID string) (Credentials, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(orgID) == "" {
		return nil, fmt.Errorf("%w: user_id and org_id are required", ErrInvalidRequest)
	}

	key := f.key("credentials", orgID, userID)
	raw, err := f.store.Get(ctx, key)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("integration: reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("%w: credentials", ErrCorruptedRecord)
	}

	if err := f.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		// Best-effort: si el delete falla el registro muere por TTL igual.
		logger.From(ctx).Warn("credentials delete failed",
			logger.Provider(f.provider.Name()), logger.Err(err))
	}
	return creds, nil
}

// Items lista los recursos del proveedor con las credenciales dadas.
func (f *Flow) Items(ctx context.Context, creds Credentials) ([]Item, error) {
	token := creds.AccessToken()
	if token == "" {
		return nil, ErrMissingToken
	}
	return f.provider.Items(ctx, token)
}

// ParseCredentials parsea el payload de credenciales que entrega el caller
// (p.ej. el form del endpoint de items).
func ParseCredentials(raw string) (Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials payload", ErrInvalidRequest)
	}
	return creds, nil
}
