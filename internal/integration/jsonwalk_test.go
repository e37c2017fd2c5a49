package integration

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func TestSearchKeyDirectHit(t *testing.T) {
	v := decode(t, `{"content":"hello","nested":{"content":"inner"}}`)
	hit, ok := SearchKey(v, "content")
	if !ok || hit != "hello" {
		t.Fatalf("got %v, %v; want direct hit before descent", hit, ok)
	}
}

func TestSearchKeyNested(t *testing.T) {
	v := decode(t, `{"a":{"b":{"c":{"target":42}}}}`)
	hit, ok := SearchKey(v, "target")
	if !ok {
		t.Fatal("expected nested hit")
	}
	if hit.(float64) != 42 {
		t.Fatalf("got %v", hit)
	}
}

func TestSearchKeyInsideArray(t *testing.T) {
	v := decode(t, `{"list":[{"other":1},{"target":"found"}]}`)
	hit, ok := SearchKey(v, "target")
	if !ok || hit != "found" {
		t.Fatalf("got %v, %v", hit, ok)
	}
}

func TestSearchKeyArrayOrder(t *testing.T) {
	v := decode(t, `[{"target":"first"},{"target":"second"}]`)
	hit, _ := SearchKey(v, "target")
	if hit != "first" {
		t.Fatalf("expected first array element to win, got %v", hit)
	}
}

func TestSearchKeyMiss(t *testing.T) {
	v := decode(t, `{"a":{"b":[1,2,3]},"c":"x"}`)
	if _, ok := SearchKey(v, "missing"); ok {
		t.Fatal("expected miss")
	}
	if _, ok := SearchKey("scalar", "anything"); ok {
		t.Fatal("scalars have no keys")
	}
	if _, ok := SearchKey(nil, "anything"); ok {
		t.Fatal("nil has no keys")
	}
}

func TestSearchKeyNotionTitleShape(t *testing.T) {
	// Forma real de un título de Notion: el texto vive muy adentro.
	v := decode(t, `{
		"Name": {
			"id": "title",
			"title": [
				{"text": {"content": "Project X"}, "plain_text": "Project X"}
			]
		}
	}`)
	hit, ok := SearchKey(v, "content")
	if !ok || hit != "Project X" {
		t.Fatalf("got %v, %v", hit, ok)
	}
}
