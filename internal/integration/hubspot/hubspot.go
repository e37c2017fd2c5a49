// Package hubspot implements the HubSpot provider adapter.
// HubSpot uses OAuth 2.0 with PKCE and body-embedded client credentials.
// Resources are CRM contacts, paginated with an `after` cursor.
package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/integrationhub/internal/integration"
	"github.com/dropDatabas3/integrationhub/internal/observability/logger"
)

const (
	authEndpoint   = "https://app.hubspot.com/oauth/authorize"
	tokenEndpoint  = "https://api.hubapi.com/oauth/v1/token"
	defaultAPIBase = "https://api.hubapi.com"

	pageLimit = "100"
)

var defaultScopes = []string{
	"crm.objects.contacts.read",
	"crm.objects.contacts.write",
	"crm.schemas.companies.read",
	"oauth",
}

// contactProperties are the CRM properties requested per contact.
var contactProperties = []string{
	"firstname", "lastname", "email", "createdate", "lastmodifieddate",
}

// Provider is the HubSpot adapter.
type Provider struct {
	cfg integration.ClientConfig

	// APIBase points at the HubSpot API host. Overridable in tests.
	APIBase string

	http *http.Client
}

// New creates the HubSpot adapter.
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

func (p *Provider) Name() string { return "hubspot" }

func (p *Provider) Client() integration.ClientConfig { return p.cfg }

func (p *Provider) Endpoints() integration.Endpoints {
	return integration.Endpoints{
		AuthorizeURL: authEndpoint,
		TokenURL:     tokenEndpoint,
		ClientAuth:   integration.ClientAuthBody,
		UsePKCE:      true,
	}
}

type contact struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

type contactsPage struct {
	Results []contact `json:"results"`
	Paging  struct {
		Next struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

// Items pagina /crm/v3/objects/contacts con el cursor `after` y normaliza
// cada contacto. Un contacto que no normaliza se saltea con un warning; un
// error del API aborta el batch.
func (p *Provider) Items(ctx context.Context, accessToken string) ([]integration.Item, error) {
	log := logger.From(ctx).With(logger.Component("hubspot"))

	var items []integration.Item
	after := ""
	for {
		page, err := p.listContacts(ctx, accessToken, after)
		if err != nil {
			return nil, err
		}

		for _, c := range page.Results {
			if c.ID == "" {
				log.Warn("skipping contact without id")
				continue
			}
			items = append(items, normalizeContact(c))
		}

		after = page.Paging.Next.After
		if after == "" {
			break
		}
	}

	log.Debug("hubspot fetch completed", logger.Count(len(items)))
	return items, nil
}

func (p *Provider) listContacts(ctx context.Context, accessToken, after string) (*contactsPage, error) {
	q := url.Values{}
	q.Set("limit", pageLimit)
	q.Set("properties", strings.Join(contactProperties, ","))
	if after != "" {
		q.Set("after", after)
	}
	u := p.APIBase + "/crm/v3/objects/contacts?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusForbidden {
			// Casi siempre faltan scopes en la app de HubSpot.
			logger.From(ctx).Warn("hubspot api returned 403, check granted scopes",
				logger.String("scopes", strings.Join(p.cfg.Scopes, " ")))
		}
		return nil, &integration.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var page contactsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: decoding contacts page: %v", integration.ErrUpstreamUnavailable, err)
	}
	return &page, nil
}

// normalizeContact arma el nombre con firstname+lastname, cayendo a email y
// por último a un placeholder. Las fechas se dejan como las manda HubSpot.
func normalizeContact(c contact) integration.Item {
	first := c.Properties["firstname"]
	last := c.Properties["lastname"]

	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		name = c.Properties["email"]
	}
	if name == "" {
		name = "Unnamed Contact"
	}

	return integration.Item{
		ID:               c.ID,
		Name:             name,
		Type:             "Contact",
		CreationTime:     c.Properties["createdate"],
		LastModifiedTime: c.Properties["lastmodifieddate"],
	}
}
