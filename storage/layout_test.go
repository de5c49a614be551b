package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutEnsure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "jobs")
	l := NewLayout(root)
	require.NoError(t, l.Ensure())

	for _, dir := range []string{root, filepath.Join(root, "input"), filepath.Join(root, "output"), filepath.Join(root, "scratch")} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}

	// Idempotent.
	require.NoError(t, l.Ensure())
}

func TestLayoutPaths(t *testing.T) {
	l := NewLayout("/data/jobs")

	assert.Equal(t, "/data/jobs/input/abc.inp", l.InputPath("abc"))
	assert.Equal(t, "/data/jobs/output/abc.out", l.StagedOutputPath("abc"))
	assert.Equal(t, "/data/jobs/output/abc.err", l.StagedErrorPath("abc"))
	assert.Equal(t, "/data/jobs/output/abc", l.JobOutputDir("abc"))
	assert.Equal(t, "/data/jobs/scratch/abc", l.WorkspaceDir("abc"))
}

func TestWriteInputRoundTrip(t *testing.T) {
	l := NewLayout(t.TempDir())
	require.NoError(t, l.Ensure())

	content := "! HF def2-SVP\n* xyz 0 1\nH 0 0 0\nH 0 0 1\n*"
	require.NoError(t, l.WriteInput("job-1", content))

	b, err := os.ReadFile(l.InputPath("job-1"))
	require.NoError(t, err)
	assert.Equal(t, content, string(b))
}
