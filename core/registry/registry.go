// Package registry owns the in-memory job table, the FIFO admission
// queue and the concurrency-bounded dispatcher. All bookkeeping is
// serialized under one mutex; subprocess execution and file I/O happen
// outside the lock.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Labhund/CompChemJobServer/core/models"
	"github.com/Labhund/CompChemJobServer/storage"
)

// Runner executes one admitted job to a terminal state. Implementations
// must call back into the registry (Complete, Fail or ReleaseSlot) exactly
// once per invocation so the running slot is returned.
type Runner interface {
	Run(jobID string)
}

// Registry is the canonical owner of job records.
type Registry struct {
	mu      sync.Mutex
	jobs    map[string]*models.Job
	queue   []string
	running int

	maxConcurrent int
	forced        models.Program
	layout        *storage.Layout
	runner        Runner
	log           *zap.Logger
}

// New creates a Registry. forced may be empty; when set, every submission
// runs on that engine regardless of the requested program.
func New(layout *storage.Layout, maxConcurrent int, forced models.Program, log *zap.Logger) *Registry {
	return &Registry{
		jobs:          make(map[string]*models.Job),
		maxConcurrent: maxConcurrent,
		forced:        forced,
		layout:        layout,
		log:           log,
	}
}

// SetRunner wires the executor. Must be called before the first Submit.
func (r *Registry) SetRunner(runner Runner) {
	r.runner = runner
}

// Submit persists the input payload, registers a queued job and triggers
// dispatch. The job is not registered when the input cannot be written.
func (r *Registry) Submit(name string, program models.Program, inputContent string) (string, error) {
	jobID := uuid.New().String()

	if program == "" {
		program = models.ProgramQChem
	}
	program = models.Program(strings.ToLower(string(program)))
	if r.forced != "" {
		program = r.forced
	}
	if name == "" {
		name = fmt.Sprintf("job_%s", jobID[:8])
	}

	if err := r.layout.WriteInput(jobID, inputContent); err != nil {
		return "", fmt.Errorf("persist input for job %s: %w", jobID, err)
	}

	job := &models.Job{
		ID:           jobID,
		Name:         name,
		Program:      program,
		InputContent: inputContent,
		Status:       models.JobStatusQueued,
		SubmittedAt:  time.Now(),
		OutputFiles:  []string{},
	}

	r.mu.Lock()
	r.jobs[jobID] = job
	r.queue = append(r.queue, jobID)
	r.mu.Unlock()

	r.log.Info("job submitted",
		zap.String("job_id", jobID),
		zap.String("name", name),
		zap.String("program", string(program)))

	r.TryAdmit()
	return jobID, nil
}

// Get returns a snapshot of the job record.
func (r *Registry) Get(jobID string) (*models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// List returns summaries of all jobs, newest submission first.
func (r *Registry) List() []models.Summary {
	r.mu.Lock()
	out := make([]models.Summary, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.Summarize())
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

// Counts returns registry occupancy from a single lock scope.
func (r *Registry) Counts() models.Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.Counts{
		Running:       r.running,
		Queued:        len(r.queue),
		Total:         len(r.jobs),
		MaxConcurrent: r.maxConcurrent,
	}
}

// Forget removes a job's bookkeeping. A still-queued job is withdrawn
// before admission; a running job's subprocess is not signaled and its
// slot is released when the runner finishes. Returns false for unknown
// jobs.
func (r *Registry) Forget(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[jobID]; !ok {
		return false
	}
	delete(r.jobs, jobID)
	for i, id := range r.queue {
		if id == jobID {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			break
		}
	}
	return true
}
