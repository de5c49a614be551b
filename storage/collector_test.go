package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCollector(t *testing.T) (*Collector, *Layout) {
	t.Helper()
	l := NewLayout(t.TempDir())
	require.NoError(t, l.Ensure())
	return NewCollector(l, zap.NewNop()), l
}

func writeWorkspaceFile(t *testing.T, workspace, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(workspace, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(workspace, name), []byte(content), 0o644))
}

func TestCollectOrder(t *testing.T) {
	c, l := newTestCollector(t)
	const jobID = "job-1"
	workspace := l.WorkspaceDir(jobID)

	require.NoError(t, os.WriteFile(l.StagedOutputPath(jobID), []byte("primary"), 0o644))
	require.NoError(t, os.WriteFile(l.StagedErrorPath(jobID), []byte("warnings"), 0o644))
	writeWorkspaceFile(t, workspace, "a.xyz", "geometry")
	writeWorkspaceFile(t, workspace, "b.log", "log")

	files, err := c.Collect(jobID, workspace)
	require.NoError(t, err)

	// Primary output first, workspace matches in enumeration order,
	// error stream last.
	assert.Equal(t, []string{"job-1.out", "a.xyz", "b.log", "job-1.err"}, files)
}

func TestCollectMovesStagedAndCopiesWorkspace(t *testing.T) {
	c, l := newTestCollector(t)
	const jobID = "job-2"
	workspace := l.WorkspaceDir(jobID)

	require.NoError(t, os.WriteFile(l.StagedOutputPath(jobID), []byte("out"), 0o644))
	writeWorkspaceFile(t, workspace, "wfn.molden", "orbitals")

	files, err := c.Collect(jobID, workspace)
	require.NoError(t, err)
	assert.Equal(t, []string{"job-2.out", "wfn.molden"}, files)

	// Staged file was moved out of the staging area.
	_, err = os.Stat(l.StagedOutputPath(jobID))
	assert.True(t, os.IsNotExist(err))

	// Workspace copy left the original intact for diagnostics.
	_, err = os.Stat(filepath.Join(workspace, "wfn.molden"))
	assert.NoError(t, err)

	// Both landed in the durable directory.
	for _, name := range files {
		_, err := os.Stat(filepath.Join(l.JobOutputDir(jobID), name))
		assert.NoError(t, err, name)
	}
}

func TestCollectSkipsInputAndUnrecognized(t *testing.T) {
	c, l := newTestCollector(t)
	const jobID = "job-3"
	workspace := l.WorkspaceDir(jobID)

	writeWorkspaceFile(t, workspace, jobID+".inp", "input copy")
	writeWorkspaceFile(t, workspace, "notes.txt", "scratch notes")
	writeWorkspaceFile(t, workspace, "grid.cube", "density")

	files, err := c.Collect(jobID, workspace)
	require.NoError(t, err)
	assert.Equal(t, []string{"grid.cube"}, files)
}

func TestCollectCheckpointSubstrings(t *testing.T) {
	c, l := newTestCollector(t)
	const jobID = "job-4"
	workspace := l.WorkspaceDir(jobID)

	writeWorkspaceFile(t, workspace, "calc.gbw.tmp", "checkpoint")
	writeWorkspaceFile(t, workspace, "calc.scfp.tmp", "density matrix")

	files, err := c.Collect(jobID, workspace)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"calc.gbw.tmp", "calc.scfp.tmp"}, files)
}

func TestCollectMissingWorkspace(t *testing.T) {
	c, l := newTestCollector(t)
	const jobID = "job-5"

	require.NoError(t, os.WriteFile(l.StagedOutputPath(jobID), []byte("out"), 0o644))

	// An unreadable workspace is logged and skipped, not fatal.
	files, err := c.Collect(jobID, l.WorkspaceDir(jobID))
	require.NoError(t, err)
	assert.Equal(t, []string{"job-5.out"}, files)
}

func TestCollectEmpty(t *testing.T) {
	c, l := newTestCollector(t)
	workspace := l.WorkspaceDir("job-6")
	require.NoError(t, os.MkdirAll(workspace, 0o755))

	files, err := c.Collect("job-6", workspace)
	require.NoError(t, err)
	assert.Empty(t, files)
}
