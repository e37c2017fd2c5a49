package hubspot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropDatabas3/integrationhub/internal/integration"
)

func newTestProvider(srvURL string) *Provider {
	p := New(integration.ClientConfig{ClientID: "id", ClientSecret: "secret"})
	p.APIBase = srvURL
	return p
}

func TestItemsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "100" {
			t.Errorf("limit = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("after") == "" {
			_, _ = w.Write([]byte(`{
				"results":[{"id":"1","properties":{"firstname":"Ada","lastname":"Lovelace"}}],
				"paging":{"next":{"after":"p2"}}
			}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"id":"2","properties":{"email":"bob@example.com"}}]}`))
	}))
	defer srv.Close()

	items, err := newTestProvider(srv.URL).Items(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Name != "Ada Lovelace" || items[1].Name != "bob@example.com" {
		t.Fatalf("names = %q, %q", items[0].Name, items[1].Name)
	}
	if items[0].Type != "Contact" {
		t.Fatalf("type = %q", items[0].Type)
	}
}

func TestItemsSkipsContactsWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[
			{"properties":{"firstname":"Ghost"}},
			{"id":"7","properties":{"firstname":"Real"}}
		]}`))
	}))
	defer srv.Close()

	items, err := newTestProvider(srv.URL).Items(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 1 || items[0].ID != "7" {
		t.Fatalf("expected only the contact with id, got %+v", items)
	}
}

func TestItemsForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":"error","category":"MISSING_SCOPES"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Items(context.Background(), "tok")
	var upstream *integration.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != http.StatusForbidden {
		t.Fatalf("expected 403 UpstreamError, got %v", err)
	}
}

func TestNormalizeContactNameFallbacks(t *testing.T) {
	cases := []struct {
		props map[string]string
		want  string
	}{
		{map[string]string{"firstname": "Ada", "lastname": "Lovelace"}, "Ada Lovelace"},
		{map[string]string{"firstname": "Ada"}, "Ada"},
		{map[string]string{"lastname": "Lovelace"}, "Lovelace"},
		{map[string]string{"email": "a@b.c"}, "a@b.c"},
		{map[string]string{}, "Unnamed Contact"},
		{nil, "Unnamed Contact"},
	}
	for _, tc := range cases {
		got := normalizeContact(contact{ID: "1", Properties: tc.props})
		if got.Name != tc.want {
			t.Fatalf("props %v: name = %q, want %q", tc.props, got.Name, tc.want)
		}
	}
}

func TestNormalizeContactTimestamps(t *testing.T) {
	got := normalizeContact(contact{ID: "1", Properties: map[string]string{
		"createdate":       "2024-01-02T03:04:05Z",
		"lastmodifieddate": "2024-02-03T04:05:06Z",
	}})
	if got.CreationTime != "2024-01-02T03:04:05Z" || got.LastModifiedTime != "2024-02-03T04:05:06Z" {
		t.Fatalf("timestamps must pass through verbatim: %+v", got)
	}
}

func TestEndpointsContract(t *testing.T) {
	ep := New(integration.ClientConfig{}).Endpoints()
	if !ep.UsePKCE {
		t.Fatal("hubspot requires PKCE")
	}
	if ep.ClientAuth != integration.ClientAuthBody {
		t.Fatal("hubspot token auth goes in the form body")
	}
}
