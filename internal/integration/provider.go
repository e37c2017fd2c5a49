// Package integration implementa el núcleo compartido del conector OAuth2:
// codec de state, PKCE, orquestación authorize/callback/credentials y el
// fetch de items normalizados. Todo lo específico de cada proveedor
// (endpoints, scopes, normalización, paginación) vive en un Provider adapter.
package integration

import (
	"context"
	"sort"
)

// ClientAuthStyle define cómo se autentica el cliente OAuth contra el
// endpoint de tokens.
type ClientAuthStyle int

const (
	// ClientAuthBasic: header Authorization: Basic base64(client_id:client_secret).
	ClientAuthBasic ClientAuthStyle = iota
	// ClientAuthBody: client_id y client_secret como campos del form body.
	ClientAuthBody
)

// ClientConfig son las credenciales de aplicación registradas en el proveedor.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
}

// Endpoints describe el protocolo del proveedor: URLs, estilo de client auth
// y si soporta PKCE. El flow core construye la URL de autorización y ejecuta
// el intercambio de tokens solo con esta descripción.
type Endpoints struct {
	AuthorizeURL string
	TokenURL     string

	// ExtraAuthParams: parámetros fijos adicionales del authorize URL
	// (p.ej. owner=user en Airtable y Notion).
	ExtraAuthParams map[string]string

	ClientAuth ClientAuthStyle

	// ClientIDInBody: con ClientAuthBasic, además manda client_id en el body
	// (Airtable lo exige).
	ClientIDInBody bool

	// UsePKCE: si es false el flujo omite challenge y verifier por completo
	// (Notion no soporta PKCE).
	UsePKCE bool
}

// Provider es el adapter por proveedor. Name() se usa como identificador en
// rutas y como namespace de keys en el store transitorio.
type Provider interface {
	Name() string
	Client() ClientConfig
	Endpoints() Endpoints

	// Items lista los recursos del proveedor con el access token dado,
	// paginando hasta agotar y normalizando a Item. Materializa el batch
	// completo antes de retornar.
	Items(ctx context.Context, accessToken string) ([]Item, error)
}

// Registry resuelve flows por nombre de proveedor.
type Registry struct {
	flows map[string]*Flow
}

// NewRegistry crea un registry vacío.
func NewRegistry() *Registry {
	return &Registry{flows: make(map[string]*Flow)}
}

// Register agrega un flow; el nombre viene del provider del flow.
func (r *Registry) Register(f *Flow) {
	r.flows[f.provider.Name()] = f
}

// Get retorna el flow del proveedor, si existe.
func (r *Registry) Get(name string) (*Flow, bool) {
	f, ok := r.flows[name]
	return f, ok
}

// Names retorna los proveedores registrados, ordenados.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.flows))
	for name := range r.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
