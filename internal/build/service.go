// Package build orchestrates the catalog build: workspace lifecycle, entry
// discovery, bundling, catalog assembly, post-processing, and the manifest.
package build

import (
	"context"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/runnerforge/internal/assets"
	"git.home.luguber.info/inful/runnerforge/internal/bundler"
	"git.home.luguber.info/inful/runnerforge/internal/capability"
	"git.home.luguber.info/inful/runnerforge/internal/catalog"
	"git.home.luguber.info/inful/runnerforge/internal/config"
	"git.home.luguber.info/inful/runnerforge/internal/discovery"
	forgeerrors "git.home.luguber.info/inful/runnerforge/internal/errors"
	"git.home.luguber.info/inful/runnerforge/internal/logfields"
	"git.home.luguber.info/inful/runnerforge/internal/manifest"
	"git.home.luguber.info/inful/runnerforge/internal/metrics"
	"git.home.luguber.info/inful/runnerforge/internal/pages"
	"git.home.luguber.info/inful/runnerforge/internal/sandbox"
	"git.home.luguber.info/inful/runnerforge/internal/workspace"
)

// Options are per-run knobs supplied by the CLI.
type Options struct {
	// SkipCatalog stops after bundling; no catalog or manifest is produced.
	SkipCatalog bool
	// OutputDir overrides the configured output directory name.
	OutputDir string
	// ScratchDir overrides the scratch workspace location (tests mostly).
	ScratchDir string
}

// Result summarizes one build run.
type Result struct {
	Catalog        *manifest.Catalog
	Epoch          int64
	OutputDir      string
	StageDurations map[StageName]time.Duration
	Warnings       []error
	Duration       time.Duration
}

// state carries mutable data between stages of one run.
type state struct {
	outDir  string
	scratch string
	epoch   int64
	entries []discovery.Entry
	runners []manifest.Entry
	result  *Result
}

// Service wires the pipeline collaborators.
type Service struct {
	cfg       *config.Config
	engine    bundler.Engine
	loader    sandbox.Loader
	evaluator capability.Evaluator
	recorder  metrics.Recorder
}

// NewService creates a build service. A nil recorder disables metrics.
func NewService(cfg *config.Config, engine bundler.Engine, loader sandbox.Loader, evaluator capability.Evaluator, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if evaluator == nil {
		evaluator = capability.StaticEvaluator{}
	}
	return &Service{cfg: cfg, engine: engine, loader: loader, evaluator: evaluator, recorder: recorder}
}

// Run executes one full build. The build epoch is captured once here and
// threaded into every hash computation; it is never re-sampled mid-run. The
// scratch workspace is released on every exit path, success or failure.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	outDir := s.cfg.Catalog.OutputDir
	if opts.OutputDir != "" {
		outDir = opts.OutputDir
	}

	// Captured once per run; every hash computation shares this value.
	epoch := time.Now().UnixMilli()

	st := &state{
		outDir: outDir,
		epoch:  epoch,
		result: &Result{
			Epoch:          epoch,
			OutputDir:      outDir,
			StageDurations: make(map[StageName]time.Duration),
		},
	}

	ws := workspace.New(opts.ScratchDir)
	if err := ws.Acquire(); err != nil {
		return nil, forgeerrors.WorkspaceError("acquire", err)
	}
	defer func() {
		if err := ws.Release(); err != nil {
			slog.Warn("Failed to release scratch workspace", logfields.Error(err))
		}
	}()
	st.scratch = ws.Path()

	slog.Info("Starting catalog build",
		logfields.Path(outDir),
		logfields.Epoch(st.epoch))

	stages := []StageDef{
		{Name: StagePrepareOutput, Fn: s.stagePrepareOutput},
		{Name: StageDiscover, Fn: s.stageDiscover},
		{Name: StageBundle, Fn: s.stageBundle},
	}
	if !opts.SkipCatalog {
		stages = append(stages,
			StageDef{Name: StageCatalog, Fn: s.stageCatalog},
			StageDef{Name: StageAssets, Fn: s.stageAssets, Soft: true},
			StageDef{Name: StagePages, Fn: s.stagePages, Soft: true},
			StageDef{Name: StageManifest, Fn: s.stageManifest},
		)
	}

	if err := runStages(ctx, st, stages, s.recorder); err != nil {
		s.recorder.IncBuildOutcome("failed")
		slog.Error("Catalog build failed", logfields.Error(err))
		return nil, err
	}

	st.result.Duration = time.Since(start)
	s.recorder.ObserveBuildDuration(st.result.Duration)
	s.recorder.IncBuildOutcome("success")
	if st.result.Catalog != nil {
		s.recorder.SetCatalogSize(len(st.result.Catalog.Runners))
	}
	slog.Info("Catalog build completed",
		logfields.Count(len(st.runners)),
		logfields.DurationMS(float64(st.result.Duration.Milliseconds())))
	return st.result, nil
}

// stagePrepareOutput clears and recreates the final output directory. The
// output tree is overwritten wholesale each run; stray files from earlier
// runs never survive.
func (s *Service) stagePrepareOutput(_ context.Context, st *state) error {
	if err := os.RemoveAll(st.outDir); err != nil {
		return forgeerrors.OutputError(st.outDir, err)
	}
	if err := os.MkdirAll(st.outDir, 0o750); err != nil {
		return forgeerrors.OutputError(st.outDir, err)
	}
	return nil
}

func (s *Service) stageDiscover(_ context.Context, st *state) error {
	entries, err := discovery.NewDiscoverer(s.cfg.Source).Discover()
	if err != nil {
		return err
	}
	st.entries = entries
	return nil
}

func (s *Service) stageBundle(ctx context.Context, st *state) error {
	return bundler.New(s.engine, s.cfg.Bundle).BundleAll(ctx, st.entries, st.scratch)
}

func (s *Service) stageCatalog(ctx context.Context, st *state) error {
	runners, err := catalog.NewBuilder(s.loader, s.evaluator).Build(ctx, st.scratch, st.outDir, st.epoch)
	if err != nil {
		return err
	}
	st.runners = runners
	return nil
}

func (s *Service) stageAssets(_ context.Context, st *state) error {
	_, err := assets.Mirror(s.cfg.Assets.Dir, st.outDir)
	return err
}

func (s *Service) stagePages(_ context.Context, st *state) error {
	cat := &manifest.Catalog{Runners: st.runners, ListName: s.cfg.Catalog.ListName}
	if err := pages.Generate(cat, st.outDir); err != nil {
		return forgeerrors.PageGenerationError(err)
	}
	return nil
}

func (s *Service) stageManifest(_ context.Context, st *state) error {
	cat := &manifest.Catalog{Runners: st.runners, ListName: s.cfg.Catalog.ListName}
	if cat.Runners == nil {
		cat.Runners = []manifest.Entry{}
	}
	if err := cat.Write(st.outDir); err != nil {
		return forgeerrors.OutputError(st.outDir, err)
	}
	st.result.Catalog = cat
	return nil
}
