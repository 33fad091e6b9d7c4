package sevco

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListAllSources(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/asset/device/_facet" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body facetRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.Terms) != 1 || body.Terms[0] != "source_ids" {
			t.Errorf("terms = %v", body.Terms)
		}
		w.Write([]byte(`{"source_ids":{"buckets":[{"key":"crowdstrike"},{"key":"tenable"}]}}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	sources := client.ListAllSources(context.Background(), testCreds)
	if len(sources) != 2 || sources[0] != "crowdstrike" || sources[1] != "tenable" {
		t.Errorf("sources = %v", sources)
	}
}

func TestListAllSourcesSwallowsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server)
	if sources := client.ListAllSources(context.Background(), testCreds); len(sources) != 0 {
		t.Errorf("expected empty source list, got %v", sources)
	}
}

func TestListAllSourcesSwallowsMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{broken"))
	}))
	defer server.Close()

	client := newTestClient(server)
	if sources := client.ListAllSources(context.Background(), testCreds); len(sources) != 0 {
		t.Errorf("expected empty source list, got %v", sources)
	}
}

func TestListAllSourcesTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client := newTestClient(server)
	client.FacetTimeout = 50 * time.Millisecond

	done := make(chan []string, 1)
	go func() {
		done <- client.ListAllSources(context.Background(), testCreds)
	}()

	select {
	case sources := <-done:
		if len(sources) != 0 {
			t.Errorf("expected empty source list after timeout, got %v", sources)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ListAllSources did not honor its timeout")
	}
}
