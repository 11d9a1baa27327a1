package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/TomMannion/plex-dualsub-manager/internal/dualsub"
	"github.com/TomMannion/plex-dualsub-manager/internal/jobs"
	"github.com/TomMannion/plex-dualsub-manager/internal/service"
)

func (s *Server) handleListShows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	shows, err := s.engine.Shows(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shows)
}

func (s *Server) handleShowAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// /api/shows/{id}/availability
	path := strings.TrimPrefix(r.URL.Path, "/api/shows/")
	if !strings.HasSuffix(path, "/availability") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	showID := strings.TrimSuffix(path, "/availability")
	showID = strings.TrimSuffix(showID, "/")
	if decoded, err := url.PathUnescape(showID); err == nil {
		showID = decoded
	}
	if showID == "" {
		writeError(w, http.StatusBadRequest, "missing show id")
		return
	}

	primary := r.URL.Query().Get("primary")
	secondary := r.URL.Query().Get("secondary")
	if (primary == "") != (secondary == "") {
		writeError(w, http.StatusBadRequest, "primary and secondary must be given together")
		return
	}

	report, err := s.engine.AnalyzeShow(r.Context(), showID, primary, secondary)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type createBulkJobRequest struct {
	ShowID    string                 `json:"show_id"`
	Primary   string                 `json:"primary"`
	Secondary string                 `json:"secondary"`
	SyncMode  string                 `json:"sync_mode"`
	Format    string                 `json:"format"`
	Styling   *dualsub.StylingConfig `json:"styling"`
}

func (s *Server) handleCreateBulkJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req createBulkJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.ShowID == "" {
		writeError(w, http.StatusBadRequest, "show_id is required")
		return
	}

	var format dualsub.Format
	if req.Format != "" {
		parsed, err := dualsub.ParseFormat(req.Format)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = parsed
	}

	job, err := s.engine.CreateBulkJob(r.Context(), service.BulkJobRequest{
		ShowID:    req.ShowID,
		Primary:   req.Primary,
		Secondary: req.Secondary,
		SyncMode:  jobs.SyncMode(req.SyncMode),
		Format:    format,
		Styling:   req.Styling,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Jobs())
}

func (s *Server) handleJobStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.JobStats())
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	// /api/jobs/{id} or /api/jobs/{id}/cancel
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	path = strings.TrimSuffix(path, "/")

	if strings.HasSuffix(path, "/cancel") {
		s.handleCancelJob(w, r, strings.TrimSuffix(path, "/cancel"))
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	job, ok := s.engine.Job(path)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}
	err := s.engine.CancelJob(jobID)
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		writeError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, jobs.ErrAlreadyTerminal):
		writeError(w, http.StatusConflict, "job already finished")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusAccepted, map[string]any{
			"ok": true,
		})
	}
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.scanner == nil {
		writeError(w, http.StatusNotImplemented, "scanner is not configured")
		return
	}
	s.scanner.Invalidate()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"ok": true,
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	var dualErr *service.DualSubError
	if !errors.As(err, &dualErr) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	switch dualErr.Type {
	case service.ErrValidation:
		writeError(w, http.StatusBadRequest, dualErr.Error())
	case service.ErrNotFound:
		writeError(w, http.StatusNotFound, dualErr.Error())
	case service.ErrAvailabilityGap:
		writeError(w, http.StatusConflict, dualErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, dualErr.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
