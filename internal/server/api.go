package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"homedash/internal/dashboard"
	"homedash/internal/history"
	"homedash/internal/metrics"
	"homedash/internal/models"
)

const (
	maxBodyBytes        = 1 << 20
	defaultHistoryHours = 24
	maxHistoryHours     = 24 * 7
)

var errBadRequest = errors.New("bad request")

type dashboardResponse struct {
	Settings   models.Settings       `json:"settings"`
	Apps       []models.App          `json:"apps"`
	Categories []string              `json:"categories"`
	Status     models.StatusSnapshot `json:"status"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dashboardResponse{
		Settings:   s.store.Settings(),
		Apps:       s.store.Apps(),
		Categories: s.store.Categories(),
		Status:     s.snapshot(),
	})
}

func (s *Server) handleListApps(w http.ResponseWriter, r *http.Request) {
	if category := r.URL.Query().Get("category"); category != "" {
		writeJSON(w, http.StatusOK, s.store.AppsByCategory(category))
		return
	}
	writeJSON(w, http.StatusOK, s.store.Apps())
}

func (s *Server) handleGetApp(w http.ResponseWriter, r *http.Request) {
	app, err := s.store.App(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleAddApp(w http.ResponseWriter, r *http.Request) {
	var in dashboard.AppInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.store.AddApp(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	app, err := s.store.App(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (s *Server) handleUpdateApp(w http.ResponseWriter, r *http.Request) {
	var patch dashboard.AppPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	app, err := s.store.UpdateApp(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleDeleteApp(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteApp(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetApps(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ResetApps(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Apps())
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Categories())
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch dashboard.SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	settings, err := s.store.UpdateSettings(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ResetSettings(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Settings())
}

func (s *Server) handleResetAll(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ResetAll(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := dashboard.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := s.store.Export(format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	contentType := "application/json"
	if format == dashboard.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="network-dashboard-config.%s"`, format))
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	format, err := dashboard.ParseFormat(importFormat(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: read body: %w", errBadRequest, err))
		return
	}
	bundle, err := s.store.Import(r.Context(), data, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

// importFormat prefers the format query parameter and falls back to the
// request content type.
func importFormat(r *http.Request) string {
	if format := r.URL.Query().Get("format"); format != "" {
		return format
	}
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		return string(dashboard.FormatYAML)
	}
	return ""
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"generated_at": snap.GeneratedAt,
		"general":      snap.General,
		"categories":   metrics.SummarizeCategories(s.store.Apps(), snap.Apps),
	})
}

type historyResponse struct {
	GeneratedAt time.Time              `json:"generated_at"`
	RangeStart  time.Time              `json:"range_start"`
	RangeEnd    time.Time              `json:"range_end"`
	General     []models.TimelinePoint `json:"general"`
	Apps        []models.AppTimeline   `json:"apps"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	end := s.clock.Now().UTC()
	start := end.Add(-time.Duration(parseIntParam(r, "hours", defaultHistoryHours, maxHistoryHours)) * time.Hour)
	points := parseIntParam(r, "points", history.DefaultTimelinePoints, 240)

	resp := historyResponse{
		GeneratedAt: end,
		RangeStart:  start,
		RangeEnd:    end,
		General:     []models.TimelinePoint{},
		Apps:        []models.AppTimeline{},
	}
	if s.history != nil {
		resp.General = history.BuildGeneralTimeline(s.history.General(), start, end, points)
		if timelines := history.BuildAppTimelines(s.history.Apps(), s.store.Apps(), start, end, points); timelines != nil {
			resp.Apps = timelines
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUptime(w http.ResponseWriter, _ *http.Request) {
	uptime := []metrics.AppUptime{}
	if s.history != nil {
		if computed := metrics.ComputeAppUptime(s.history.Apps(), s.store.Apps()); computed != nil {
			uptime = computed
		}
	}
	writeJSON(w, http.StatusOK, uptime)
}

type checkRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.checker.Check(r.Context(), req.URL))
}

// snapshot assembles the status view. Apps with checking disabled are
// omitted, and no app is reported while monitoring is off.
func (s *Server) snapshot() models.StatusSnapshot {
	snap := models.StatusSnapshot{
		GeneratedAt:       s.clock.Now().UTC(),
		MonitoringEnabled: s.store.MonitoringEnabled(),
		General:           s.board.General(),
		Apps:              map[string]models.AppStatus{},
	}
	if !snap.MonitoringEnabled {
		return snap
	}
	for _, app := range s.store.Apps() {
		if !app.CheckEnabled() {
			continue
		}
		if status, ok := s.board.App(app.ID); ok {
			snap.Apps[app.ID] = status
		}
	}
	return snap
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: decode body: %w", errBadRequest, err)
	}
	return nil
}

func parseIntParam(r *http.Request, name string, fallback, limit int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > limit {
		return limit
	}
	return value
}
