package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/models"
	"github.com/aleister1102/sitewatch/internal/monitor"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": Version,
	})
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.service.ListSites(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sites)
}

func (s *Server) handleAddSite(w http.ResponseWriter, r *http.Request) {
	var input monitor.AddSiteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	site, err := s.service.AddSite(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info().Int64("site_id", site.ID).Str("url", site.URL).Msg("Site added")
	writeJSON(w, http.StatusCreated, site)
}

func (s *Server) handleRemoveSite(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid site id"})
		return
	}

	if err := s.service.RemoveSite(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info().Int64("site_id", id).Msg("Site removed")
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": id})
}

func (s *Server) handleListUpdates(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid site id"})
		return
	}

	if _, err := s.siteStore.GetSite(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	updates, err := s.updateStore.ListUpdates(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updates)
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	siteID, err := strconv.ParseInt(r.PathValue("siteID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid site id"})
		return
	}

	update, err := s.updateStore.GetUpdate(r.Context(), siteID, r.PathValue("ref"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"content": update.Content})
}

func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resource_usage": s.resources.Snapshot(),
		"site_runners":   s.service.RunnerCount(),
		"subscribers":    s.broadcaster.SubscriberCount(),
		"goroutines":     runtime.NumGoroutine(),
		"version":        Version,
	})
}

func (s *Server) handleResetDB(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn().Msg("Database reset requested")

	if err := s.service.Reset(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var validationErr *common.ValidationError

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationErr.Error()})
	case errors.Is(err, models.ErrDuplicateURL):
		writeJSON(w, http.StatusConflict, map[string]string{"error": models.ErrDuplicateURL.Error()})
	case errors.Is(err, models.ErrSiteNotFound), errors.Is(err, models.ErrUpdateNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, monitor.ErrServiceClosed):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": monitor.ErrServiceClosed.Error()})
	default:
		s.logger.Error().Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
