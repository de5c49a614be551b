package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Labhund/CompChemJobServer/core/models"
	"github.com/Labhund/CompChemJobServer/core/registry"
	"github.com/Labhund/CompChemJobServer/storage"
)

// JobHandler handles the /api job endpoints.
type JobHandler struct {
	reg    *registry.Registry
	layout *storage.Layout
	log    *zap.Logger
}

// NewJobHandler creates a new job handler.
func NewJobHandler(reg *registry.Registry, layout *storage.Layout, log *zap.Logger) *JobHandler {
	return &JobHandler{reg: reg, layout: layout, log: log}
}

// SubmitJobRequest is the body for POST /api/submit.
type SubmitJobRequest struct {
	Name         string `json:"name"`
	Program      string `json:"program"`
	InputContent string `json:"input_content"`
}

// SubmitJobResponse is the body returned after a successful submission.
type SubmitJobResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SubmitJob handles POST /api/submit.
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.InputContent == "" {
		writeError(w, http.StatusBadRequest, "Missing input_content in JSON payload")
		return
	}

	jobID, err := h.reg.Submit(req.Name, models.Program(req.Program), req.InputContent)
	if err != nil {
		h.log.Error("submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, SubmitJobResponse{
		JobID:   jobID,
		Status:  "submitted",
		Message: fmt.Sprintf("Job %s submitted successfully.", jobID),
	})
}

// GetJobStatus handles GET /api/status/{job_id}.
func (h *JobHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	job, ok := h.reg.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GetOutputFile handles GET /api/output/{job_id}/{filename}.
func (h *JobHandler) GetOutputFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	serveOutputFile(w, r, h.reg, h.layout, vars["job_id"], vars["filename"])
}

// ListJobs handles GET /api/jobs.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.List())
}

// HealthResponse is the body for GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
	models.Counts
}

// Health handles GET /api/health.
func (h *JobHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Counts: h.reg.Counts(),
	})
}

// serveOutputFile streams a collected artifact as an attachment. The
// filename is flattened to its base so requests cannot escape the job's
// output directory.
func serveOutputFile(w http.ResponseWriter, r *http.Request, reg *registry.Registry, layout *storage.Layout, jobID, filename string) {
	if _, ok := reg.Get(jobID); !ok {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	filename = filepath.Base(filename)
	path := filepath.Join(layout.JobOutputDir(jobID), filename)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("File %s not found for job %s", filename, jobID))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, path)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
