package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// collectExtensions is the allow-list of artifact suffixes picked up from
// a job workspace. Covers log, geometry, orbital, checkpoint, wavefunction,
// volumetric and property files emitted by Q-Chem and ORCA.
var collectExtensions = []string{
	".log", ".xyz", ".molden", ".gbw", ".fchk", ".wfn",
	".cube", ".prop", ".hess", ".opt", ".cis",
}

// collectSubstrings matches ORCA checkpoint-style names such as
// job.gbw.tmp or job.scfp.tmp that fall outside the suffix list.
var collectSubstrings = []string{".gbw", ".scfp"}

// Collector relocates recognized output artifacts from a completed job's
// workspace and the shared staging area into the durable per-job output
// directory.
type Collector struct {
	layout *Layout
	log    *zap.Logger
}

// NewCollector creates a Collector over the given layout.
func NewCollector(layout *Layout, log *zap.Logger) *Collector {
	return &Collector{layout: layout, log: log}
}

// Collect gathers artifacts for jobID from workspace and returns the
// ordered list of collected filenames: staged primary output first, then
// workspace matches in enumeration order, then the staged error stream.
// Per-file failures are logged and skipped; only the inability to create
// the durable directory is an error.
func (c *Collector) Collect(jobID, workspace string) ([]string, error) {
	destDir := c.layout.JobOutputDir(jobID)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir for job %s: %w", jobID, err)
	}

	var files []string

	// Primary output: Q-Chem writes it directly to the staging path,
	// the ORCA runner stages captured stdout there.
	stagedOut := c.layout.StagedOutputPath(jobID)
	if fileExists(stagedOut) {
		name := jobID + ".out"
		if err := os.Rename(stagedOut, filepath.Join(destDir, name)); err != nil {
			c.log.Warn("failed to move primary output",
				zap.String("job_id", jobID),
				zap.Error(err))
		} else {
			files = append(files, name)
		}
	}

	files = append(files, c.collectWorkspace(jobID, workspace, destDir)...)

	stagedErr := c.layout.StagedErrorPath(jobID)
	if fileExists(stagedErr) {
		name := jobID + ".err"
		if err := os.Rename(stagedErr, filepath.Join(destDir, name)); err != nil {
			c.log.Warn("failed to move error stream",
				zap.String("job_id", jobID),
				zap.Error(err))
		} else {
			files = append(files, name)
		}
	}

	return files, nil
}

// collectWorkspace copies recognized files from the workspace's immediate
// contents. The workspace is left intact for diagnostics.
func (c *Collector) collectWorkspace(jobID, workspace, destDir string) []string {
	entries, err := os.ReadDir(workspace)
	if err != nil {
		c.log.Warn("failed to read workspace",
			zap.String("job_id", jobID),
			zap.String("workspace", workspace),
			zap.Error(err))
		return nil
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		// The copied-in input is not an artifact.
		if name == jobID+".inp" {
			continue
		}
		if !collectable(name) {
			continue
		}
		src := filepath.Join(workspace, name)
		if err := copyFile(src, filepath.Join(destDir, name)); err != nil {
			c.log.Warn("failed to copy artifact",
				zap.String("job_id", jobID),
				zap.String("file", name),
				zap.Error(err))
			continue
		}
		files = append(files, name)
	}
	return files
}

func collectable(name string) bool {
	for _, ext := range collectExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	for _, sub := range collectSubstrings {
		if strings.Contains(name, sub) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
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
