package build

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/runnerforge/internal/bundler"
	"git.home.luguber.info/inful/runnerforge/internal/config"
	"git.home.luguber.info/inful/runnerforge/internal/manifest"
	"git.home.luguber.info/inful/runnerforge/internal/sandbox"
)

// jsonEngine "compiles" an entry by writing the runner metadata as JSON; the
// runner name is the source file stem. Entries named fail*.js abort.
type jsonEngine struct{}

func (jsonEngine) Compile(_ context.Context, entryPath, outFile string, _ bundler.Options) error {
	stem := strings.TrimSuffix(filepath.Base(entryPath), filepath.Ext(entryPath))
	if strings.HasPrefix(stem, "fail") {
		return fmt.Errorf("forced compile failure for %s", entryPath)
	}
	meta := map[string]any{"name": stem, "version": "1.0.0", "description": "test runner"}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(outFile, data, 0o600)
}

// jsonLoader parses the metadata JSON a jsonEngine artifact carries.
type jsonLoader struct{}

type jsonHandle struct{ raw map[string]any }

func (h *jsonHandle) Normalize() (sandbox.Metadata, error) {
	return sandbox.NormalizeFields(h.raw), nil
}

func (jsonLoader) Load(_ context.Context, artifactPath string) (sandbox.Handle, error) {
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &jsonHandle{raw: raw}, nil
}

type fixture struct {
	cfg     *config.Config
	svc     *Service
	srcDir  string
	outDir  string
	scratch string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	srcDir := filepath.Join(base, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o750))

	cfg := &config.Config{
		Source: config.SourceConfig{
			Roots:   []string{srcDir},
			Include: []string{".js"},
			Exclude: []string{"node_modules"},
		},
		Catalog: config.CatalogConfig{ListName: config.DefaultListName, OutputDir: filepath.Join(base, "dist")},
		Assets:  config.AssetsConfig{Dir: filepath.Join(base, "assets")},
	}

	return &fixture{
		cfg:     cfg,
		svc:     NewService(cfg, jsonEngine{}, jsonLoader{}, nil, nil),
		srcDir:  srcDir,
		outDir:  cfg.Catalog.OutputDir,
		scratch: filepath.Join(base, "scratch"),
	}
}

func (f *fixture) addRunner(t *testing.T, stem string) {
	t.Helper()
	content := "export class X extends Runner {}\n"
	require.NoError(t, os.WriteFile(filepath.Join(f.srcDir, stem+".js"), []byte(content), 0o600))
}

func (f *fixture) run(t *testing.T) (*Result, error) {
	t.Helper()
	return f.svc.Run(context.Background(), Options{ScratchDir: f.scratch})
}

func TestRun_CatalogHasOneEntryPerQualifyingFile(t *testing.T) {
	f := newFixture(t)
	f.addRunner(t, "alpha")
	f.addRunner(t, "beta")
	f.addRunner(t, "gamma")

	res, err := f.run(t)
	require.NoError(t, err)
	require.NotNil(t, res.Catalog)
	assert.Len(t, res.Catalog.Runners, 3)

	for _, name := range []string{"alpha", "beta", "gamma"} {
		assert.FileExists(t, filepath.Join(f.outDir, "runners", name+".mjs"))
	}
	assert.FileExists(t, filepath.Join(f.outDir, "runners.json"))
}

func TestRun_WorkspaceAbsentAfterSuccess(t *testing.T) {
	f := newFixture(t)
	f.addRunner(t, "alpha")

	_, err := f.run(t)
	require.NoError(t, err)
	assert.NoDirExists(t, f.scratch)
}

func TestRun_WorkspaceAbsentAfterCompileFailure(t *testing.T) {
	f := newFixture(t)
	f.addRunner(t, "alpha")
	f.addRunner(t, "fail_mid_bundle")

	_, err := f.run(t)
	require.Error(t, err)
	assert.NoDirExists(t, f.scratch, "cleanup must run on the failure path too")

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageBundle, se.Stage)
}

func TestRun_ClearThenPopulateOutputDir(t *testing.T) {
	f := newFixture(t)
	f.addRunner(t, "alpha")

	require.NoError(t, os.MkdirAll(f.outDir, 0o750))
	stray := filepath.Join(f.outDir, "stray.txt")
	require.NoError(t, os.WriteFile(stray, []byte("leftover"), 0o600))

	_, err := f.run(t)
	require.NoError(t, err)
	assert.NoFileExists(t, stray, "pre-existing stray files must not survive a build")
}

func TestRun_HashChangesAcrossEpochs(t *testing.T) {
	f := newFixture(t)
	f.addRunner(t, "alpha")

	first, err := f.run(t)
	require.NoError(t, err)
	time.Sleep(3 * time.Millisecond)
	second, err := f.run(t)
	require.NoError(t, err)

	require.Len(t, first.Catalog.Runners, 1)
	require.Len(t, second.Catalog.Runners, 1)
	e1, e2 := first.Catalog.Runners[0], second.Catalog.Runners[0]

	assert.Equal(t, e1["name"], e2["name"])
	assert.Equal(t, e1[manifest.FieldPath], e2[manifest.FieldPath])
	assert.Equal(t, e1[manifest.FieldEnvironment], e2[manifest.FieldEnvironment])
	assert.NotEqual(t, e1[manifest.FieldHash], e2[manifest.FieldHash],
		"same metadata at different epochs must produce different hashes")
}

func TestRun_SkipCatalog(t *testing.T) {
	f := newFixture(t)
	f.addRunner(t, "alpha")

	res, err := f.svc.Run(context.Background(), Options{ScratchDir: f.scratch, SkipCatalog: true})
	require.NoError(t, err)

	assert.Nil(t, res.Catalog)
	assert.NoFileExists(t, filepath.Join(f.outDir, "runners.json"))
	assert.NoDirExists(t, filepath.Join(f.outDir, "runners"))
	assert.NoDirExists(t, f.scratch)
}

func TestRun_ListNameOverride(t *testing.T) {
	f := newFixture(t)
	f.addRunner(t, "alpha")
	f.cfg.Catalog.ListName = "custom-list"

	res, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, "custom-list", res.Catalog.ListName)

	data, err := os.ReadFile(filepath.Join(f.outDir, "runners.json"))
	require.NoError(t, err)
	parsed, err := manifest.FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "custom-list", parsed.ListName)
}

func TestRun_EmptyProjectWritesEmptyCatalog(t *testing.T) {
	f := newFixture(t)

	res, err := f.run(t)
	require.NoError(t, err)
	require.NotNil(t, res.Catalog)
	assert.Empty(t, res.Catalog.Runners)

	data, err := os.ReadFile(filepath.Join(f.outDir, "runners.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"runners": []`)
}

func TestRun_AssetsMirroredWhenPresent(t *testing.T) {
	f := newFixture(t)
	f.addRunner(t, "alpha")
	require.NoError(t, os.MkdirAll(f.cfg.Assets.Dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.Assets.Dir, "logo.svg"), []byte("<svg/>"), 0o600))

	_, err := f.run(t)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(f.outDir, "assets", "logo.svg"))
}

func TestRun_GeneratesCatalogPage(t *testing.T) {
	f := newFixture(t)
	f.addRunner(t, "alpha")

	_, err := f.run(t)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(f.outDir, "index.html"))
}
