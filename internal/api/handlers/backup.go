package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/money-mngr/internal/api/middleware"
	"github.com/dvloznov/money-mngr/internal/jobs"
)

// BackupHandler enqueues backup and restore jobs and reports their status.
type BackupHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	log       zerolog.Logger
}

// NewBackupHandler creates a backup handler.
func NewBackupHandler(publisher jobs.Publisher, store jobs.JobStore, log zerolog.Logger) *BackupHandler {
	return &BackupHandler{publisher: publisher, store: store, log: log}
}

// Run handles POST /api/backup
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	job := &jobs.BackupJob{Kind: jobs.JobKindBackup}
	if err := h.publisher.PublishBackup(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue backup job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue backup job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Msg("Backup job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// Restore handles POST /api/backup/restore
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Object string `json:"object"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Object == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Object is required")
		return
	}

	job := &jobs.BackupJob{Kind: jobs.JobKindRestore, Object: req.Object}
	if err := h.publisher.PublishBackup(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue restore job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue restore job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("object", req.Object).Msg("Restore job enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// GetJob handles GET /api/backup/jobs/{id}
func (h *BackupHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/backup/jobs
func (h *BackupHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Kind:   jobs.JobKind(query.Get("kind")),
		Status: jobs.JobStatus(query.Get("status")),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
