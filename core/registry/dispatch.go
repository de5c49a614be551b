package registry

import (
	"time"

	"go.uber.org/zap"

	"github.com/Labhund/CompChemJobServer/core/models"
)

// TryAdmit admits at most one queued job if a running slot is free.
// Idempotent no-op when the ceiling is reached or the queue is empty.
// Called after every submission and after every terminal transition, so
// repeated calls drain the queue up to the ceiling.
func (r *Registry) TryAdmit() {
	r.mu.Lock()
	jobID, ok := r.tryAdmitLocked()
	r.mu.Unlock()
	if ok {
		r.startRunner(jobID)
	}
}

// tryAdmitLocked pops the queue head and claims a running slot. Caller
// holds r.mu.
func (r *Registry) tryAdmitLocked() (string, bool) {
	if r.running >= r.maxConcurrent || len(r.queue) == 0 {
		return "", false
	}
	jobID := r.queue[0]
	r.queue = r.queue[1:]
	r.running++
	return jobID, true
}

// startRunner hands an admitted job to the executor asynchronously.
func (r *Registry) startRunner(jobID string) {
	r.log.Info("job admitted", zap.String("job_id", jobID))
	go r.runner.Run(jobID)
}

// MarkRunning transitions an admitted job to running and returns a
// snapshot for the executor. Returns false when the job was forgotten
// between admission and start; the caller must release its slot via
// ReleaseSlot.
func (r *Registry) MarkRunning(jobID string) (*models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, false
	}
	now := time.Now()
	job.Status = models.JobStatusRunning
	job.StartedAt = &now
	return job.Clone(), true
}

// Complete records a successful run and its collected artifacts, then
// releases the slot and re-admits.
func (r *Registry) Complete(jobID string, outputFiles []string) {
	r.finish(jobID, func(job *models.Job) {
		job.Status = models.JobStatusCompleted
		job.OutputFiles = outputFiles
	})
	r.log.Info("job completed",
		zap.String("job_id", jobID),
		zap.Int("output_files", len(outputFiles)))
}

// Fail records a failed run with its diagnostic detail, then releases the
// slot and re-admits.
func (r *Registry) Fail(jobID string, detail string) {
	r.finish(jobID, func(job *models.Job) {
		job.Status = models.JobStatusFailed
		job.Error = detail
	})
	r.log.Warn("job failed",
		zap.String("job_id", jobID),
		zap.String("error", detail))
}

// ReleaseSlot returns a running slot without touching any record. Used
// when the job vanished before the runner could start it.
func (r *Registry) ReleaseSlot(jobID string) {
	r.finish(jobID, nil)
}

// finish applies a terminal mutation (if the record still exists),
// decrements the running count and evaluates the next admission — all
// under one lock acquisition, so the count can never under- or
// over-count between the release and the admission decision.
func (r *Registry) finish(jobID string, mutate func(*models.Job)) {
	r.mu.Lock()
	if job, ok := r.jobs[jobID]; ok && mutate != nil {
		now := time.Now()
		job.CompletedAt = &now
		mutate(job)
	}
	r.running--
	nextID, ok := r.tryAdmitLocked()
	r.mu.Unlock()

	if ok {
		r.startRunner(nextID)
	}
}
