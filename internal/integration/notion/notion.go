// Package notion implements the Notion provider adapter.
// Notion uses plain OAuth 2.0 (no PKCE support) with Basic client auth, and
// a search endpoint with start_cursor/has_more pagination. Item names live in
// deeply nested title structures, so normalization does a recursive key
// search over the raw payload.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dropDatabas3/integrationhub/internal/integration"
	"github.com/dropDatabas3/integrationhub/internal/observability/logger"
)

const (
	authEndpoint   = "https://api.notion.com/v1/oauth/authorize"
	tokenEndpoint  = "https://api.notion.com/v1/oauth/token"
	defaultAPIBase = "https://api.notion.com"

	// notionVersion fija la versión del API; el shape de los payloads
	// depende de este header.
	notionVersion = "2022-06-28"
)

// Provider is the Notion adapter.
type Provider struct {
	cfg integration.ClientConfig

	// APIBase points at the Notion API host. Overridable in tests.
	APIBase string

	http *http.Client
}

// New creates the Notion adapter. Notion does not use scopes in the
// authorize URL; access is decided by the user's page selection.
func New(cfg integration.ClientConfig) *Provider {
	cfg.Scopes = nil
	return &Provider{
		cfg:     cfg,
		APIBase: defaultAPIBase,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

func (p *Provider) Name() string { return "notion" }

func (p *Provider) Client() integration.ClientConfig { return p.cfg }

func (p *Provider) Endpoints() integration.Endpoints {
	return integration.Endpoints{
		AuthorizeURL:    authEndpoint,
		TokenURL:        tokenEndpoint,
		ExtraAuthParams: map[string]string{"owner": "user"},
		ClientAuth:      integration.ClientAuthBasic,
		UsePKCE:         false,
	}
}

type searchPage struct {
	Results    []map[string]any `json:"results"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor"`
}

// Items pagina POST /v1/search hasta agotar has_more y normaliza cada
// resultado. Un resultado que no normaliza se saltea con un warning,
// preservando el resto del batch.
func (p *Provider) Items(ctx context.Context, accessToken string) ([]integration.Item, error) {
	log := logger.From(ctx).With(logger.Component("notion"))

	var items []integration.Item
	cursor := ""
	for {
		page, err := p.search(ctx, accessToken, cursor)
		if err != nil {
			return nil, err
		}

		for _, raw := range page.Results {
			item, ok := normalize(raw)
			if !ok {
				log.Warn("skipping notion result without id")
				continue
			}
			items = append(items, item)
		}

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	log.Debug("notion fetch completed", logger.Count(len(items)))
	return items, nil
}

func (p *Provider) search(ctx context.Context, accessToken, cursor string) (*searchPage, error) {
	payload := map[string]any{}
	if cursor != "" {
		payload["start_cursor"] = cursor
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.APIBase+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &integration.UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}

	var page searchPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decoding search page: %v", integration.ErrUpstreamUnavailable, err)
	}
	return &page, nil
}

// normalize convierte un resultado crudo del search en un Item.
// El nombre se busca primero en properties y después en todo el objeto;
// un parent de tipo workspace queda sin parent_id.
func normalize(raw map[string]any) (integration.Item, bool) {
	id, _ := raw["id"].(string)
	if id == "" {
		return integration.Item{}, false
	}

	objectType, _ := raw["object"].(string)
	if objectType == "" {
		objectType = "unknown"
	}

	name := lookupName(raw["properties"])
	if name == "" {
		name = lookupName(raw)
	}
	if name == "" {
		name = objectType
	}

	parentID := ""
	if parent, ok := raw["parent"].(map[string]any); ok {
		if parentType, _ := parent["type"].(string); parentType != "" && parentType != "workspace" {
			parentID, _ = parent[parentType].(string)
		}
	}

	created, _ := raw["created_time"].(string)
	edited, _ := raw["last_edited_time"].(string)
	pageURL, _ := raw["url"].(string)

	return integration.Item{
		ID:               id,
		Name:             name,
		Type:             objectType,
		ParentID:         parentID,
		CreationTime:     created,
		LastModifiedTime: edited,
		URL:              pageURL,
	}, true
}

// lookupName busca el texto del título en una estructura anidada arbitraria.
// Las keys candidatas se prueban en orden: "content" (rich text interno) y
// "plain_text" (render plano). Un hit que es lista se resuelve al plain_text
// del primer elemento.
func lookupName(v any) string {
	for _, key := range []string{"content", "plain_text"} {
		hit, ok := integration.SearchKey(v, key)
		if !ok {
			continue
		}
		switch val := hit.(type) {
		case string:
			if val != "" {
				return val
			}
		case []any:
			if len(val) == 0 {
				continue
			}
			if m, ok := val[0].(map[string]any); ok {
				if pt, _ := m["plain_text"].(string); pt != "" {
					return pt
				}
				continue
			}
			if s, ok := val[0].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
