// Package monitor serves the HTTP debugging surface: a live dashboard fed
// over websocket, the telemetry query endpoints, debug charts, and the SQL
// console attached by the telemetry store.
package monitor

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sensepath-app/sensepath/internal/monitoring"
	"github.com/sensepath-app/sensepath/internal/pipeline"
	"github.com/sensepath-app/sensepath/internal/telemetry"
	"github.com/sensepath-app/sensepath/internal/units"
	"github.com/sensepath-app/sensepath/internal/version"
)

//go:embed dashboard.html
var dashboardHTML embed.FS

// WebServer handles the HTTP interface for monitoring guidance sessions.
type WebServer struct {
	address   string
	store     *telemetry.Store
	stats     *pipeline.FrameStats
	hub       *Hub
	sessionID func() string
	server    *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	Store   *telemetry.Store
	Stats   *pipeline.FrameStats
	Hub     *Hub

	// SessionID reports the currently running session for /health.
	// Optional.
	SessionID func() string
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address:   config.Address,
		store:     config.Store,
		stats:     config.Stats,
		hub:       config.Hub,
		sessionID: config.SessionID,
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

// Handler exposes the configured routes, mainly for tests.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// Start begins the HTTP server in a goroutine and blocks until the context
// is canceled, then shuts the server down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}

	monitoring.Logf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleDashboard)
	mux.HandleFunc("/data", ws.handleData)
	mux.HandleFunc("/log", ws.handleLog)
	mux.HandleFunc("/debug/charts/timeline", ws.handleTimelineChart)

	if ws.hub != nil {
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			serveWS(ws.hub, w, r)
		})
	}
	if ws.store != nil {
		if err := ws.store.AttachAdminRoutes(mux); err != nil {
			monitoring.Logf("failed to attach admin routes: %v", err)
		}
	}

	return mux
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// handleHealth reports process liveness plus basic session info.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":  "ok",
		"version": version.String(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if ws.sessionID != nil {
		health["session_id"] = ws.sessionID()
	}
	if ws.hub != nil {
		health["ws_clients"] = ws.hub.ClientCount()
	}
	if ws.stats != nil {
		frames, transitions, unreliable, sinkErrors := ws.stats.Snapshot()
		health["frames"] = frames
		health["transitions"] = transitions
		health["unreliable"] = unreliable
		health["sink_errors"] = sinkErrors
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleDashboard serves the embedded live dashboard page.
func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page, err := dashboardHTML.ReadFile("dashboard.html")
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "dashboard page unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleData returns recent frame records as JSON, newest first.
// Query params:
//
//	session (optional; empty selects across all sessions)
//	limit (optional, default 500)
//	units (optional, "m" or "ft"; distances are stored in meters)
func (ws *WebServer) handleData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if ws.store == nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "no database configured")
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil {
			limit = v
		}
	}

	targetUnits := units.Meters
	if u := r.URL.Query().Get("units"); u != "" {
		if !units.IsValid(u) {
			ws.writeJSONError(w, http.StatusBadRequest, "invalid 'units' parameter: "+u)
			return
		}
		targetUnits = u
	}

	records, err := ws.store.RecentFrames(r.URL.Query().Get("session"), limit)
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "failed to query records: "+err.Error())
		return
	}
	if records == nil {
		records = []telemetry.FrameRecord{}
	}
	if targetUnits != units.Meters {
		for i := range records {
			records[i].Left = units.ConvertDistance(records[i].Left, targetUnits)
			records[i].Center = units.ConvertDistance(records[i].Center, targetUnits)
			records[i].Right = units.ConvertDistance(records[i].Right, targetUnits)
			records[i].Stability = units.ConvertDistance(records[i].Stability, targetUnits)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// handleLog accepts one frame record from an external producer (e.g. the
// phone app in the field) and stores and broadcasts it.
func (ws *WebServer) handleLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if ws.store == nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "no database configured")
		return
	}

	var rec telemetry.FrameRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if rec.State == "" {
		ws.writeJSONError(w, http.StatusBadRequest, "missing 'state' field")
		return
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	if err := ws.store.RecordFrame(rec); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, "failed to store record: "+err.Error())
		return
	}
	if ws.hub != nil {
		ws.hub.Consume(rec)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
