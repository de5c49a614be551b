// Package storage owns the on-disk job tree and output-artifact
// collection.
//
// Directory layout under the configured job root:
//
//	<root>/input/<job_id>.inp     persisted submission payload
//	<root>/output/<job_id>.out    staged primary output (transient)
//	<root>/output/<job_id>.err    staged error stream (transient)
//	<root>/output/<job_id>/       durable per-job artifacts
//	<root>/scratch/<job_id>/      subprocess workspace
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout resolves paths inside the job directory tree.
type Layout struct {
	root string
}

// NewLayout creates a Layout rooted at dir.
func NewLayout(dir string) *Layout {
	return &Layout{root: dir}
}

// Root returns the job root directory.
func (l *Layout) Root() string {
	return l.root
}

// Ensure creates the root and the three subtrees.
func (l *Layout) Ensure() error {
	for _, dir := range []string{l.root, l.inputDir(), l.outputDir(), l.scratchDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func (l *Layout) inputDir() string   { return filepath.Join(l.root, "input") }
func (l *Layout) outputDir() string  { return filepath.Join(l.root, "output") }
func (l *Layout) scratchDir() string { return filepath.Join(l.root, "scratch") }

// InputPath is the persisted input file for a job.
func (l *Layout) InputPath(jobID string) string {
	return filepath.Join(l.inputDir(), jobID+".inp")
}

// StagedOutputPath is the shared-area primary output file written before
// collection relocates it.
func (l *Layout) StagedOutputPath(jobID string) string {
	return filepath.Join(l.outputDir(), jobID+".out")
}

// StagedErrorPath is the shared-area error-stream file.
func (l *Layout) StagedErrorPath(jobID string) string {
	return filepath.Join(l.outputDir(), jobID+".err")
}

// JobOutputDir is the durable per-job artifact directory.
func (l *Layout) JobOutputDir(jobID string) string {
	return filepath.Join(l.outputDir(), jobID)
}

// WorkspaceDir is the per-job scratch directory used as the subprocess
// working directory.
func (l *Layout) WorkspaceDir(jobID string) string {
	return filepath.Join(l.scratchDir(), jobID)
}

// WriteInput persists the submission payload to input/<id>.inp.
func (l *Layout) WriteInput(jobID, content string) error {
	if err := os.MkdirAll(l.inputDir(), 0o755); err != nil {
		return fmt.Errorf("create input dir: %w", err)
	}
	if err := os.WriteFile(l.InputPath(jobID), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write input file: %w", err)
	}
	return nil
}
