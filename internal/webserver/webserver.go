package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/sevlook/sevlook/internal/lookup"
	"github.com/sevlook/sevlook/internal/models"
	"github.com/sevlook/sevlook/internal/sevco"
	"github.com/sevlook/sevlook/internal/storage"
)

// WebServer holds the data needed for handling HTTP requests. It is the
// trigger and display surface of the lookup service: POST /api/lookup
// starts a lookup, GET /api/lookup/last reads the published slot.
type WebServer struct {
	Service *lookup.Service
	Store   storage.Store
	Client  *sevco.Client
	config  *WebserverConfig
	Logger  *logrus.Logger
}

// NewWebServer initializes a new WebServer.
func NewWebServer(service *lookup.Service, store storage.Store, client *sevco.Client, config *WebserverConfig, logger *logrus.Logger) *WebServer {
	return &WebServer{
		Service: service,
		Store:   store,
		Client:  client,
		config:  config,
		Logger:  logger,
	}
}

// StartWebServer starts the HTTP server.
func StartWebServer(ctx context.Context, ws *WebServer) (*http.Server, error) {
	router := ws.InitRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   ws.config.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Api-Key"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		Debug:            false,
	}

	handler := cors.New(corsOptions).Handler(router)

	server := &http.Server{
		Addr:    ws.config.ListenTo,
		Handler: handler,
	}

	go func() {
		ws.Logger.Infof("Server starting on %s", ws.config.ListenTo)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.Logger.Errorf("ListenAndServe(): %v", err)
		}
	}()

	return server, nil
}

// InitRouter initializes the HTTP routes.
func (ws *WebServer) InitRouter() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/lookup", ws.handleLookup).Methods(http.MethodPost)
	api.HandleFunc("/lookup/last", ws.handleLastLookup).Methods(http.MethodGet)
	api.HandleFunc("/enrich", ws.handleEnrich).Methods(http.MethodPost)
	api.HandleFunc("/settings", ws.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", ws.handlePutSettings).Methods(http.MethodPut)
	api.HandleFunc("/orgs", ws.handleGetOrgs).Methods(http.MethodGet)

	// Static panel serving
	r.PathPrefix("/").Handler(
		http.StripPrefix("/", http.FileServer(http.Dir(ws.config.StaticDir))))
	return r
}

type lookupRequest struct {
	Term string `json:"term"`
}

// handleLookup handles the POST /api/lookup endpoint. Lookup failures
// are part of the published result, not transport errors; the envelope
// stays successful so the display surface can render the error panel.
func (ws *WebServer) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.Logger.Errorf("Invalid JSON payload: %v", err)
		WriteErrorResponse(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	result, err := ws.Service.Do(ctx, req.Term)
	if err != nil {
		ws.Logger.WithError(err).Error("Failed to publish lookup result")
		WriteErrorResponse(w, "Failed to store lookup result", http.StatusInternalServerError)
		return
	}

	WriteSuccessResponse(w, "Lookup completed", ws.lookupResponse(ctx, result))
}

// handleLastLookup handles the GET /api/lookup/last endpoint.
func (ws *WebServer) handleLastLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := ws.Store.LastLookup(ctx)
	if err == storage.ErrNoLookup {
		WriteErrorResponse(w, "No lookup recorded yet", http.StatusNotFound)
		return
	}
	if err != nil {
		ws.Logger.WithError(err).Error("Failed to read last lookup")
		WriteErrorResponse(w, "Failed to read last lookup", http.StatusInternalServerError)
		return
	}

	WriteSuccessResponse(w, "Last lookup retrieved", ws.lookupResponse(ctx, result))
}

// lookupResponse decorates a result with the advisory stale flag and
// console deep links.
func (ws *WebServer) lookupResponse(ctx context.Context, result models.LookupResult) models.LookupResponse {
	resp := models.LookupResponse{
		Result: result,
		Stale:  result.Stale(time.Now()),
	}
	creds, err := ws.Store.GetCredentials(ctx)
	if err != nil || creds.OrgSlug == "" {
		return resp
	}
	resp.ConsoleURLs = make(map[string]string, len(result.Devices))
	for _, device := range result.Devices {
		resp.ConsoleURLs[device.ID] = ws.Client.DeviceConsoleURL(creds.OrgSlug, device.ID)
	}
	return resp
}

type enrichRequest struct {
	Usernames []string `json:"usernames"`
	VulnIDs   []string `json:"vuln_ids"`
}

// handleEnrich handles the POST /api/enrich endpoint. Closing the panel
// cancels the request context, abandoning in-flight item fetches.
func (ws *WebServer) handleEnrich(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.Logger.Errorf("Invalid JSON payload: %v", err)
		WriteErrorResponse(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	enrichment := ws.Service.EnrichDevice(ctx, req.Usernames, req.VulnIDs)
	WriteSuccessResponse(w, "Enrichment completed", enrichment)
}

// handleGetSettings handles the GET /api/settings endpoint.
func (ws *WebServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	creds, err := ws.Store.GetCredentials(r.Context())
	if err != nil {
		ws.Logger.WithError(err).Error("Failed to read settings")
		WriteErrorResponse(w, "Failed to read settings", http.StatusInternalServerError)
		return
	}
	WriteSuccessResponse(w, "Settings retrieved", creds)
}

// handlePutSettings handles the PUT /api/settings endpoint.
func (ws *WebServer) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var creds sevco.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		ws.Logger.Errorf("Invalid JSON payload: %v", err)
		WriteErrorResponse(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if creds.APIKey == "" {
		ws.Logger.Warn("api_key field is required")
		WriteErrorResponse(w, "api_key field is required", http.StatusBadRequest)
		return
	}

	if err := ws.Store.SaveCredentials(r.Context(), creds); err != nil {
		ws.Logger.WithError(err).Error("Failed to save settings")
		WriteErrorResponse(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}

	WriteSuccessResponse(w, "Settings saved", creds)
}

// handleGetOrgs handles the GET /api/orgs endpoint. The key comes from
// the X-Api-Key header so the settings flow can list organizations
// before credentials have been saved; it falls back to the stored key.
func (ws *WebServer) handleGetOrgs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	apiKey := strings.TrimSpace(r.Header.Get("X-Api-Key"))
	if apiKey == "" {
		creds, err := ws.Store.GetCredentials(ctx)
		if err != nil {
			ws.Logger.WithError(err).Error("Failed to read settings")
			WriteErrorResponse(w, "Failed to read settings", http.StatusInternalServerError)
			return
		}
		apiKey = creds.APIKey
	}
	if apiKey == "" {
		WriteErrorResponse(w, "An API key is required to list organizations", http.StatusBadRequest)
		return
	}

	orgs, err := ws.Client.ListOrgs(ctx, apiKey)
	if err != nil {
		ws.Logger.WithError(err).Error("Failed to list organizations")
		var authErr *sevco.AuthError
		switch {
		case err == sevco.ErrNoResults:
			WriteErrorResponse(w, "No organizations found for this API key", http.StatusNotFound)
		case errors.As(err, &authErr):
			WriteErrorResponse(w, "The API key was rejected", http.StatusUnauthorized)
		default:
			WriteErrorResponse(w, err.Error(), http.StatusBadGateway)
		}
		return
	}

	WriteSuccessResponse(w, "Organizations retrieved", orgs)
}
