// Package executor runs admitted jobs as external-engine subprocesses
// with a wall-clock deadline and normalizes the outcome into the job's
// terminal state.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Labhund/CompChemJobServer/core/models"
	"github.com/Labhund/CompChemJobServer/core/registry"
	"github.com/Labhund/CompChemJobServer/storage"
)

const timeoutDetail = "job execution timed out"

// Runner executes one job per invocation. It is handed job IDs by the
// dispatcher and reports terminal transitions back into the registry.
type Runner struct {
	reg       *registry.Registry
	layout    *storage.Layout
	collector *storage.Collector
	programs  map[models.Program]string
	timeout   time.Duration
	log       *zap.Logger
}

// New creates a Runner. programs maps each supported engine to its
// executable path; timeout bounds one subprocess execution.
func New(
	reg *registry.Registry,
	layout *storage.Layout,
	collector *storage.Collector,
	programs map[models.Program]string,
	timeout time.Duration,
	log *zap.Logger,
) *Runner {
	return &Runner{
		reg:       reg,
		layout:    layout,
		collector: collector,
		programs:  programs,
		timeout:   timeout,
		log:       log,
	}
}

// Run drives one job from admitted to a terminal state. Every path
// returns the running slot to the dispatcher exactly once.
func (r *Runner) Run(jobID string) {
	job, ok := r.reg.MarkRunning(jobID)
	if !ok {
		// Forgotten between admission and start.
		r.reg.ReleaseSlot(jobID)
		return
	}

	workspace := r.layout.WorkspaceDir(jobID)
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		r.reg.Fail(jobID, fmt.Sprintf("create workspace: %v", err))
		return
	}

	exePath, known := r.programs[job.Program]
	if !known {
		r.reg.Fail(jobID, fmt.Sprintf("unsupported program: %s", job.Program))
		return
	}

	args, err := r.buildArgs(jobID, job.Program, workspace)
	if err != nil {
		r.reg.Fail(jobID, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, exePath, args...)
	cmd.Dir = workspace
	// Engines fork helper processes that inherit the captured streams; cap
	// how long a killed run may hold them open.
	cmd.WaitDelay = 10 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Info("running job",
		zap.String("job_id", jobID),
		zap.String("program", string(job.Program)),
		zap.String("exe", exePath),
		zap.String("workspace", workspace))

	runErr := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		r.reg.Fail(jobID, timeoutDetail)
		return
	}

	// The stdout-output engine writes its primary output to the captured
	// streams; stage them before collection relocates anything.
	if job.Program == models.ProgramORCA {
		r.stageStreams(jobID, stdout.Bytes(), stderr.Bytes())
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			r.reg.Fail(jobID, fmt.Sprintf(
				"return code: %d\nstdout:\n%s\nstderr:\n%s",
				exitErr.ExitCode(), stdout.String(), stderr.String()))
		} else {
			r.reg.Fail(jobID, runErr.Error())
		}
		return
	}

	files, err := r.collector.Collect(jobID, workspace)
	if err != nil {
		// Collection trouble does not fail a finished calculation.
		r.log.Warn("artifact collection incomplete",
			zap.String("job_id", jobID),
			zap.Error(err))
	}
	if files == nil {
		files = []string{}
	}
	r.reg.Complete(jobID, files)
}

// buildArgs constructs the engine invocation.
//
// Q-Chem takes the input path, a target output path and the job ID as a
// scratch-name prefix, writing its output file itself. ORCA takes only a
// workspace-local input path and writes its primary output to stdout, so
// the input is copied into the workspace first.
func (r *Runner) buildArgs(jobID string, program models.Program, workspace string) ([]string, error) {
	inputPath := r.layout.InputPath(jobID)

	switch program {
	case models.ProgramQChem:
		return []string{inputPath, r.layout.StagedOutputPath(jobID), jobID}, nil
	case models.ProgramORCA:
		wsInput := filepath.Join(workspace, jobID+".inp")
		if err := copyFile(inputPath, wsInput); err != nil {
			return nil, fmt.Errorf("copy input into workspace: %w", err)
		}
		return []string{wsInput}, nil
	default:
		return nil, fmt.Errorf("unsupported program: %s", program)
	}
}

// stageStreams persists non-empty captured streams to the shared output
// area so collection can relocate them.
func (r *Runner) stageStreams(jobID string, stdout, stderr []byte) {
	if len(stdout) > 0 {
		if err := os.WriteFile(r.layout.StagedOutputPath(jobID), stdout, 0o644); err != nil {
			r.log.Warn("failed to stage stdout",
				zap.String("job_id", jobID),
				zap.Error(err))
		}
	}
	if len(stderr) > 0 {
		if err := os.WriteFile(r.layout.StagedErrorPath(jobID), stderr, 0o644); err != nil {
			r.log.Warn("failed to stage stderr",
				zap.String("job_id", jobID),
				zap.Error(err))
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
