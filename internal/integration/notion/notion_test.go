package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
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

func decodeMap(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return m
}

func TestItemsPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Notion-Version"); got != "2022-06-28" {
			t.Errorf("Notion-Version = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(body, &req)

		w.Header().Set("Content-Type", "application/json")
		if req["start_cursor"] == nil {
			_, _ = w.Write([]byte(`{
				"results":[{"id":"p1","object":"page","url":"https://notion.so/p1"}],
				"has_more":true,
				"next_cursor":"cur2"
			}`))
			return
		}
		if req["start_cursor"] != "cur2" {
			t.Errorf("start_cursor = %v", req["start_cursor"])
		}
		_, _ = w.Write([]byte(`{"results":[{"id":"db1","object":"database"}],"has_more":false}`))
	}))
	defer srv.Close()

	items, err := newTestProvider(srv.URL).Items(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].ID != "p1" || items[1].ID != "db1" {
		t.Fatalf("ids = %q, %q", items[0].ID, items[1].ID)
	}
	if items[0].URL != "https://notion.so/p1" {
		t.Fatalf("url = %q", items[0].URL)
	}
}

func TestItemsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"object":"error","status":401}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestProvider(srv.URL).Items(context.Background(), "bad")
	var upstream *integration.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 UpstreamError, got %v", err)
	}
}

func TestNormalizeTitleFromProperties(t *testing.T) {
	raw := decodeMap(t, `{
		"id": "page-1",
		"object": "page",
		"created_time": "2024-05-01T00:00:00.000Z",
		"last_edited_time": "2024-05-02T00:00:00.000Z",
		"parent": {"type": "page_id", "page_id": "parent-9"},
		"properties": {
			"Name": {
				"id": "title",
				"title": [{"text": {"content": "Project X"}, "plain_text": "Project X"}]
			}
		}
	}`)

	item, ok := normalize(raw)
	if !ok {
		t.Fatal("expected normalizable result")
	}
	if item.Name != "Project X" {
		t.Fatalf("name = %q", item.Name)
	}
	if item.ParentID != "parent-9" {
		t.Fatalf("parent_id = %q", item.ParentID)
	}
	if item.CreationTime != "2024-05-01T00:00:00.000Z" {
		t.Fatalf("creation_time = %q", item.CreationTime)
	}
}

func TestNormalizeWorkspaceParent(t *testing.T) {
	raw := decodeMap(t, `{
		"id": "page-2",
		"object": "page",
		"parent": {"type": "workspace", "workspace": true}
	}`)

	item, _ := normalize(raw)
	if item.ParentID != "" {
		t.Fatalf("workspace parent must map to empty parent_id, got %q", item.ParentID)
	}
}

func TestNormalizeFallsBackToObjectType(t *testing.T) {
	item, _ := normalize(decodeMap(t, `{"id":"x","object":"database"}`))
	if item.Name != "database" {
		t.Fatalf("name = %q", item.Name)
	}

	item, _ = normalize(decodeMap(t, `{"id":"y"}`))
	if item.Type != "unknown" || item.Name != "unknown" {
		t.Fatalf("missing object type: %+v", item)
	}
}

func TestNormalizeSkipsWithoutID(t *testing.T) {
	if _, ok := normalize(decodeMap(t, `{"object":"page"}`)); ok {
		t.Fatal("result without id must be skipped")
	}
}

func TestLookupNamePlainTextList(t *testing.T) {
	// Sin rich text interno: el hit es la lista de plain_text renderizados.
	v := decodeMap(t, `{"title": {"plain_text": ["Mi Página", "ignored"]}}`)
	if got := lookupName(v); got != "Mi Página" {
		t.Fatalf("lookupName = %q", got)
	}
}

func TestEndpointsContract(t *testing.T) {
	ep := New(integration.ClientConfig{}).Endpoints()
	if ep.UsePKCE {
		t.Fatal("notion does not support PKCE")
	}
	if ep.ClientAuth != integration.ClientAuthBasic {
		t.Fatal("notion token auth is basic")
	}
	if ep.ExtraAuthParams["owner"] != "user" {
		t.Fatal("authorize URL must pin owner=user")
	}
}

func TestScopesAlwaysEmpty(t *testing.T) {
	p := New(integration.ClientConfig{Scopes: []string{"should", "vanish"}})
	if len(p.Client().Scopes) != 0 {
		t.Fatal("notion ignores configured scopes")
	}
}
