package models

import "time"

// Program identifies which computational-chemistry engine runs a job.
type Program string

const (
	ProgramQChem Program = "qchem"
	ProgramORCA  Program = "orca"
)

// Valid reports whether p is a known engine.
func (p Program) Valid() bool {
	return p == ProgramQChem || p == ProgramORCA
}

// JobStatus represents the lifecycle state of a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether s is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is the authoritative record of one submitted calculation.
//
// InputContent is persisted to disk at submission and deliberately never
// serialized in API responses.
type Job struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Program      Program    `json:"program"`
	InputContent string     `json:"-"`
	Status       JobStatus  `json:"status"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	Error        string     `json:"error,omitempty"`
	OutputFiles  []string   `json:"output_files"`
}

// Clone returns a deep copy so readers never alias registry-owned state.
func (j *Job) Clone() *Job {
	c := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	if j.OutputFiles != nil {
		c.OutputFiles = append([]string(nil), j.OutputFiles...)
	}
	return &c
}

// Summary is the listing view of a job, excluding the input payload and
// per-file detail.
type Summary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Program     Program    `json:"program"`
	Status      JobStatus  `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Summarize builds the listing view from a job record.
func (j *Job) Summarize() Summary {
	return Summary{
		ID:          j.ID,
		Name:        j.Name,
		Program:     j.Program,
		Status:      j.Status,
		SubmittedAt: j.SubmittedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

// Counts is a snapshot of registry occupancy. All fields are taken under
// a single lock acquisition so they are mutually consistent.
type Counts struct {
	Running       int `json:"running_jobs"`
	Queued        int `json:"queued_jobs"`
	Total         int `json:"total_jobs"`
	MaxConcurrent int `json:"max_concurrent_jobs"`
}
