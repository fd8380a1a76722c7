package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/runnerforge/internal/config"
	"git.home.luguber.info/inful/runnerforge/internal/discovery"
	forgeerrors "git.home.luguber.info/inful/runnerforge/internal/errors"
)

// fakeEngine writes a trivial artifact, failing on configured entries.
type fakeEngine struct {
	failOn   map[string]bool
	compiled []string
}

func (f *fakeEngine) Compile(_ context.Context, entryPath, outFile string, _ Options) error {
	if f.failOn[filepath.Base(entryPath)] {
		return fmt.Errorf("forced compile failure for %s", entryPath)
	}
	f.compiled = append(f.compiled, entryPath)
	return os.WriteFile(outFile, []byte("var "+WellKnownExport+"={};"), 0o600)
}

func bundleConfig() config.BundleConfig {
	cfg := config.BundleConfig{External: []string{"@runnerforge/host"}}
	return cfg
}

func TestBundleAll_OneArtifactPerEntry(t *testing.T) {
	scratch := t.TempDir()
	engine := &fakeEngine{}
	entries := []discovery.Entry{
		{SourcePath: "src/a.js", BuildID: "id_a"},
		{SourcePath: "src/b.js", BuildID: "id_b"},
	}

	err := New(engine, bundleConfig()).BundleAll(context.Background(), entries, scratch)
	require.NoError(t, err)

	for _, e := range entries {
		assert.FileExists(t, ArtifactPath(scratch, e.BuildID))
	}
	assert.Len(t, engine.compiled, 2)
}

func TestBundleAll_AllOrNothing(t *testing.T) {
	scratch := t.TempDir()
	engine := &fakeEngine{failOn: map[string]bool{"bad.js": true}}
	entries := []discovery.Entry{
		{SourcePath: "src/good.js", BuildID: "id_good"},
		{SourcePath: "src/bad.js", BuildID: "id_bad"},
		{SourcePath: "src/late.js", BuildID: "id_late"},
	}

	err := New(engine, bundleConfig()).BundleAll(context.Background(), entries, scratch)
	require.Error(t, err)
	assert.Equal(t, forgeerrors.CategoryCompile, forgeerrors.CategoryOf(err))
	assert.True(t, forgeerrors.IsFatal(err))

	// The failing entry stops the step; later entries are never compiled.
	assert.NotContains(t, engine.compiled, "src/late.js")
}

func TestArtifactPath(t *testing.T) {
	assert.Equal(t, filepath.Join("scratch", "abc123.mjs"), ArtifactPath("scratch", "abc123"))
}
