package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sevlook/sevlook/internal/lookup"
	"github.com/sevlook/sevlook/internal/models"
	"github.com/sevlook/sevlook/internal/sevco"
	"github.com/sevlook/sevlook/internal/storage"
)

func newTestWebServer(t *testing.T, apiHandler http.Handler) (*WebServer, storage.Store) {
	t.Helper()

	server := httptest.NewServer(apiHandler)
	t.Cleanup(server.Close)

	client := sevco.NewClient()
	client.BaseURL = server.URL
	client.Client = server.Client()

	store, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "sevlook.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close(context.Background()) })

	service := lookup.NewService(lookup.ServiceConfig{Client: client, Store: store}, 5)

	testLogger := logrus.New()
	testLogger.SetOutput(&bytes.Buffer{}) // Discard output during tests

	config := &WebserverConfig{ListenTo: ":0", StaticDir: t.TempDir()}
	return NewWebServer(service, store, client, config, testLogger), store
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder, data interface{}) HTTPResp {
	t.Helper()
	raw := struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(resp.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("decode envelope data: %v", err)
		}
	}
	return HTTPResp{Status: raw.Status, Message: raw.Message}
}

func TestHandleLastLookupEmpty(t *testing.T) {
	ws, _ := newTestWebServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/lookup/last", nil)
	w := httptest.NewRecorder()
	ws.InitRouter().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestLookupRoundTrip(t *testing.T) {
	ws, store := newTestWebServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/asset/device":
			w.Write([]byte(`{"items":[{"id":"dev-1","attributes":{"hostname":"db01.internal"}}]}`))
		case "/v3/asset/device/_facet":
			w.Write([]byte(`{"source_ids":{"buckets":[{"key":"tenable"}]}}`))
		}
	}))
	store.SaveCredentials(context.Background(), sevco.Credentials{APIKey: "k", OrgID: "o", OrgSlug: "acme"})

	body := bytes.NewBufferString(`{"term":"db01.internal"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/lookup", body)
	w := httptest.NewRecorder()
	ws.InitRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("trigger status = %d, body %s", w.Code, w.Body.String())
	}

	// The display surface reads the slot back.
	req = httptest.NewRequest(http.MethodGet, "/api/lookup/last", nil)
	w = httptest.NewRecorder()
	ws.InitRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("read status = %d", w.Code)
	}

	var data models.LookupResponse
	decodeEnvelope(t, w, &data)
	if len(data.Result.Devices) != 1 {
		t.Fatalf("devices = %+v", data.Result.Devices)
	}
	if data.Stale {
		t.Error("fresh lookup flagged stale")
	}
	wantURL := sevco.DefaultConsoleURL + "/acme/inventory/dev-1"
	if data.ConsoleURLs["dev-1"] != wantURL {
		t.Errorf("console url = %q, want %q", data.ConsoleURLs["dev-1"], wantURL)
	}
}

func TestLookupErrorRendersInResult(t *testing.T) {
	ws, store := newTestWebServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/asset/device":
			w.WriteHeader(http.StatusUnauthorized)
		case "/v3/asset/device/_facet":
			w.Write([]byte(`{"source_ids":{"buckets":[]}}`))
		}
	}))
	store.SaveCredentials(context.Background(), sevco.Credentials{APIKey: "k", OrgID: "o", OrgSlug: "acme"})

	body := bytes.NewBufferString(`{"term":"db01"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/lookup", body)
	w := httptest.NewRecorder()
	ws.InitRouter().ServeHTTP(w, req)

	// Primary lookup failures stay inside the published result so the
	// panel can render the error with a settings link.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var data models.LookupResponse
	decodeEnvelope(t, w, &data)
	if data.Result.Error == "" {
		t.Error("expected the auth failure in the result error slot")
	}
}

func TestStaleFlagSurfaced(t *testing.T) {
	ws, store := newTestWebServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	old := models.LookupResult{
		LookupID:   1,
		SearchTerm: "db01",
		SearchType: sevco.SearchHostname,
		Timestamp:  time.Now().Add(-10 * time.Minute),
	}
	if err := store.PublishLookup(context.Background(), old); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/lookup/last", nil)
	w := httptest.NewRecorder()
	ws.InitRouter().ServeHTTP(w, req)

	var data models.LookupResponse
	decodeEnvelope(t, w, &data)
	if !data.Stale {
		t.Error("10-minute-old result should carry the advisory stale flag")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ws, _ := newTestWebServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	router := ws.InitRouter()

	body := bytes.NewBufferString(`{"api_key":"k","org_id":"o","org_slug":"acme"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/settings", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var creds sevco.Credentials
	decodeEnvelope(t, w, &creds)
	if creds.APIKey != "k" || creds.OrgSlug != "acme" {
		t.Errorf("settings = %+v", creds)
	}
}

func TestPutSettingsRequiresAPIKey(t *testing.T) {
	ws, _ := newTestWebServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	body := bytes.NewBufferString(`{"org_id":"o"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/settings", body)
	w := httptest.NewRecorder()
	ws.InitRouter().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetOrgsUsesHeaderKey(t *testing.T) {
	ws, _ := newTestWebServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/admin/org" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("authorization"); got != "Token fresh-key" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`{"orgs":[{"id":"1","org_name":"Acme","org_slug":"acme"}]}`))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orgs", nil)
	req.Header.Set("X-Api-Key", "fresh-key")
	w := httptest.NewRecorder()
	ws.InitRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var orgs []sevco.Org
	decodeEnvelope(t, w, &orgs)
	if len(orgs) != 1 || orgs[0].Slug != "acme" {
		t.Errorf("orgs = %+v", orgs)
	}
}

func TestGetOrgsWithoutKey(t *testing.T) {
	ws, _ := newTestWebServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/orgs", nil)
	w := httptest.NewRecorder()
	ws.InitRouter().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetOrgsRejectedKey(t *testing.T) {
	ws, _ := newTestWebServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orgs", nil)
	req.Header.Set("X-Api-Key", "revoked-key")
	w := httptest.NewRecorder()
	ws.InitRouter().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestEnrichEndpoint(t *testing.T) {
	ws, store := newTestWebServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/asset/user":
			w.Write([]byte(`{"items":[{"id":"user-1","attributes":{"first_name":"Alice"}}]}`))
		case "/v3/asset/exp_vuln":
			w.Write([]byte(`{"items":[{"id":"vuln-1","attributes":{"name":"CVE-2026-0001","effective_severity":5.0}}]}`))
		}
	}))
	store.SaveCredentials(context.Background(), sevco.Credentials{APIKey: "k", OrgID: "o", OrgSlug: "acme"})

	body := bytes.NewBufferString(`{"usernames":["alice"],"vuln_ids":["vuln-1"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/enrich", body)
	w := httptest.NewRecorder()
	ws.InitRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var enrichment lookup.DeviceEnrichment
	decodeEnvelope(t, w, &enrichment)
	if len(enrichment.Users) != 1 || enrichment.Users[0].FirstName != "Alice" {
		t.Errorf("users = %+v", enrichment.Users)
	}
	if len(enrichment.Vulnerabilities) != 1 || enrichment.Vulnerabilities[0].Severity != "Medium" {
		t.Errorf("vulnerabilities = %+v", enrichment.Vulnerabilities)
	}
}
