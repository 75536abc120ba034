package docindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch(t *testing.T) {
	errCh := make(chan error, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/indexes/inventories/docs/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("api-key"); got != "test-key" {
			t.Errorf("unexpected api-key header %q", got)
		}

		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errCh <- err
			return
		}
		if req.Search != "who owns SRV042?" || req.Top != 1 || req.Select != "content" {
			t.Errorf("unexpected request body %+v", req)
		}

		errCh <- json.NewEncoder(w).Encode(searchResponse{
			Value: []struct {
				Content string `json:"content"`
			}{
				{Content: "SRV042 owned by Payments"},
				{Content: ""},
				{Content: "SRV042 runs in westeurope"},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "test-key")

	contents, err := client.Search(context.Background(), "inventories", "who owns SRV042?", 1)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if len(contents) != 2 {
		t.Fatalf("expected 2 non-empty contents, got %d", len(contents))
	}
	if contents[0] != "SRV042 owned by Payments" {
		t.Errorf("unexpected first content %q", contents[0])
	}
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := New(server.URL, "bad-key")

	if _, err := client.Search(context.Background(), "inventories", "query", 1); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestSearchNoAPIKeyHeaderWhenUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Api-Key"]; ok {
			t.Error("api-key header should be absent when key is empty")
		}
		_ = json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer server.Close()

	client := New(server.URL, "")

	contents, err := client.Search(context.Background(), "inventories", "query", 3)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(contents) != 0 {
		t.Errorf("expected no contents, got %d", len(contents))
	}
}
