// Package api serves the local HTTP status and control surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opd-ai/thermoguard/internal/classify"
	"github.com/opd-ai/thermoguard/internal/config"
	"github.com/opd-ai/thermoguard/pkg/thermoguard"
)

// Server exposes monitor state over HTTP. It binds to the loopback
// address by default and carries no authentication; it is a local
// control surface, not a public API.
type Server struct {
	mon *thermoguard.Monitor
	log *slog.Logger

	http *http.Server
}

// statusResponse is the GET /status payload.
type statusResponse struct {
	Hostname          string                `json:"hostname"`
	Severity          string                `json:"severity"`
	AlertsEnabled     bool                  `json:"alertsEnabled"`
	Thresholds        thresholdsPayload     `json:"thresholds"`
	Latest            *samplePayload        `json:"latest,omitempty"`
	Stats             statsPayload          `json:"stats"`
	Sources           []sourceStatusPayload `json:"sources"`
	NextReportSeconds float64               `json:"nextReportSeconds"`
}

type thresholdsPayload struct {
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}

type samplePayload struct {
	Timestamp time.Time          `json:"timestamp"`
	Max       float64            `json:"max"`
	Avg       float64            `json:"avg"`
	PerDevice map[string]float64 `json:"perDevice"`
	Synthetic bool               `json:"synthetic"`
}

type statsPayload struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

type sourceStatusPayload struct {
	Name     string `json:"name"`
	Disabled bool   `json:"disabled"`
	Failures int64  `json:"failures"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a Server for mon listening on addr.
func NewServer(addr string, mon *thermoguard.Monitor, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{mon: mon, log: log}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/history", s.handleHistory)
	r.Get("/settings", s.handleGetSettings)
	r.Put("/settings", s.handlePutSettings)
	r.Post("/refresh", s.handleRefresh)
	r.Get("/debug/vars", expvar.Handler().ServeHTTP)
	return r
}

// Start binds the listener and begins serving in a goroutine. Bind
// failures are reported synchronously.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	s.log.Info("http server listening", "addr", ln.Addr().String())

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server failed", "error", err)
		}
	}()
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the route tree, exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	hc := s.mon.Health()
	code := http.StatusOK
	if hc.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, hc)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	settings := s.mon.Settings()
	th := s.mon.Thresholds()
	stats := s.mon.HistoryStats()

	resp := statusResponse{
		Hostname:      s.mon.Hostname(),
		Severity:      s.mon.Severity().String(),
		AlertsEnabled: settings.AlertsEnabled,
		Thresholds:    thresholdsPayload{Warning: th.Warning, Critical: th.Critical},
		Stats: statsPayload{
			Count: stats.Count,
			Min:   stats.Min,
			Max:   stats.Max,
			Avg:   stats.Avg,
		},
		Sources:           make([]sourceStatusPayload, 0),
		NextReportSeconds: s.mon.NextRoutineReport().Seconds(),
	}
	if latest, ok := s.mon.Latest(); ok {
		p := toSamplePayload(latest)
		resp.Latest = &p
	}
	for _, st := range s.mon.SourceStatus() {
		resp.Sources = append(resp.Sources, sourceStatusPayload{
			Name:     st.Name,
			Disabled: st.Disabled,
			Failures: st.Failures,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	samples := s.mon.HistorySnapshot()
	out := make([]samplePayload, 0, len(samples))
	for _, sm := range samples {
		out = append(out, toSamplePayload(sm))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.mon.Settings())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var next config.Settings
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed settings: " + err.Error()})
		return
	}
	if err := s.mon.UpdateSettings(next); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	s.log.Info("settings updated via http")
	writeJSON(w, http.StatusOK, s.mon.Settings())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.mon.Poll(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	latest, ok := s.mon.Latest()
	if !ok {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "no sample produced"})
		return
	}
	writeJSON(w, http.StatusOK, toSamplePayload(latest))
}

func toSamplePayload(s classify.Sample) samplePayload {
	return samplePayload{
		Timestamp: s.Timestamp,
		Max:       s.Max,
		Avg:       s.Avg,
		PerDevice: s.PerDevice,
		Synthetic: s.Synthetic,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
