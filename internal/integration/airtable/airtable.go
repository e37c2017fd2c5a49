// Package airtable implements the Airtable provider adapter.
// Airtable uses OAuth 2.0 with PKCE and Basic client auth on the token
// endpoint (with client_id repeated in the body). Resources are two-level:
// bases, and tables inside each base.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dropDatabas3/integrationhub/internal/integration"
	"github.com/dropDatabas3/integrationhub/internal/observability/logger"
)

const (
	authEndpoint   = "https://airtable.com/oauth2/v1/authorize"
	tokenEndpoint  = "https://airtable.com/oauth2/v1/token"
	defaultAPIBase = "https://api.airtable.com"
)

var defaultScopes = []string{
	"data.records:read",
	"data.records:write",
	"data.recordComments:read",
	"data.recordComments:write",
	"schema.bases:read",
	"schema.bases:write",
}

// Provider is the Airtable adapter.
type Provider struct {
	cfg integration.ClientConfig

	// APIBase points at the Airtable API host. Overridable in tests.
	APIBase string

	http *http.Client
}

// New creates the Airtable adapter. Scopes default to the full set the
// connector needs when the config leaves them empty.
func New(cfg integration.ClientConfig) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = defaultScopes
	}
	return &Provider{
		cfg:     cfg,
		APIBase: defaultAPIBase,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

func (p *Provider) Name() string { return "airtable" }

func (p *Provider) Client() integration.ClientConfig { return p.cfg }

func (p *Provider) Endpoints() integration.Endpoints {
	return integration.Endpoints{
		AuthorizeURL:    authEndpoint,
		TokenURL:        tokenEndpoint,
		ExtraAuthParams: map[string]string{"owner": "user"},
		ClientAuth:      integration.ClientAuthBasic,
		ClientIDInBody:  true,
		UsePKCE:         true,
	}
}

type base struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type basesPage struct {
	Bases  []base `json:"bases"`
	Offset string `json:"offset"`
}

type table struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tablesPage struct {
	Tables []table `json:"tables"`
}

// Items enumerates every base (offset pagination) and the tables of each
// base, attaching parent linkage to tables. Airtable base and table ids can
// collide across types, so normalized ids carry a type suffix.
// A failing table listing aborts the whole batch.
func (p *Provider) Items(ctx context.Context, accessToken string) ([]integration.Item, error) {
	log := logger.From(ctx).With(logger.Component("airtable"))

	bases, err := p.listBases(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	items := make([]integration.Item, 0, len(bases))
	for _, b := range bases {
		items = append(items, integration.Item{
			ID:   b.ID + "_Base",
			Name: b.Name,
			Type: "Base",
		})

		tables, err := p.listTables(ctx, accessToken, b.ID)
		if err != nil {
			return nil, err
		}
		for _, t := range tables {
			items = append(items, integration.Item{
				ID:               t.ID + "_Table",
				Name:             t.Name,
				Type:             "Table",
				ParentID:         b.ID + "_Base",
				ParentPathOrName: b.Name,
			})
		}
	}

	log.Debug("airtable fetch completed", logger.Count(len(items)))
	return items, nil
}

// listBases pagina /v0/meta/bases siguiendo el campo offset hasta agotarlo.
func (p *Provider) listBases(ctx context.Context, accessToken string) ([]base, error) {
	var out []base
	offset := ""
	for {
		u := p.APIBase + "/v0/meta/bases"
		if offset != "" {
			u += "?" + url.Values{"offset": {offset}}.Encode()
		}

		var page basesPage
		if err := p.getJSON(ctx, accessToken, u, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Bases...)

		if page.Offset == "" {
			return out, nil
		}
		offset = page.Offset
	}
}

func (p *Provider) listTables(ctx context.Context, accessToken, baseID string) ([]table, error) {
	var page tablesPage
	u := fmt.Sprintf("%s/v0/meta/bases/%s/tables", p.APIBase, baseID)
	if err := p.getJSON(ctx, accessToken, u, &page); err != nil {
		return nil, err
	}
	return page.Tables, nil
}

func (p *Provider) getJSON(ctx context.Context, accessToken, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", integration.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &integration.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
