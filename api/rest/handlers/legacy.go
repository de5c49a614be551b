package handlers

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Labhund/CompChemJobServer/core/registry"
	"github.com/Labhund/CompChemJobServer/storage"
)

// LegacyHandler implements the query-parameter API expected by the IQmol
// desktop client: raw-text submission and jobid-keyed status, listing,
// download and delete.
type LegacyHandler struct {
	reg    *registry.Registry
	layout *storage.Layout
	log    *zap.Logger
}

// NewLegacyHandler creates a new legacy handler.
func NewLegacyHandler(reg *registry.Registry, layout *storage.Layout, log *zap.Logger) *LegacyHandler {
	return &LegacyHandler{reg: reg, layout: layout, log: log}
}

// Submit handles POST /submit. The entire request body is the input
// content; the response carries the job ID both as jobid and as the
// session cookie the client echoes back.
func (h *LegacyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "empty input")
		return
	}

	jobID, err := h.reg.Submit("", "", string(body))
	if err != nil {
		h.log.Error("legacy submission failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"jobid":  jobID,
		"cookie": jobID,
	})
}

// Status handles GET /status?jobid=.
func (h *LegacyHandler) Status(w http.ResponseWriter, r *http.Request) {
	job, ok := h.reg.Get(r.URL.Query().Get("jobid"))
	if !ok {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(job.Status)})
}

// List handles GET /list?jobid=.
func (h *LegacyHandler) List(w http.ResponseWriter, r *http.Request) {
	job, ok := h.reg.Get(r.URL.Query().Get("jobid"))
	if !ok {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"files": job.OutputFiles})
}

// Download handles GET /download?jobid=&file=.
func (h *LegacyHandler) Download(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	serveOutputFile(w, r, h.reg, h.layout, q.Get("jobid"), q.Get("file"))
}

// Delete handles GET /delete?jobid=. Best-effort bookkeeping removal: a
// queued job is withdrawn, a running job's subprocess keeps going.
func (h *LegacyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobid")
	status := "not_found"
	if h.reg.Forget(jobID) {
		status = "deleted"
		h.log.Info("job forgotten", zap.String("job_id", jobID))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}
