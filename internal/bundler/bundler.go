// Package bundler compiles discovered entry points into self-contained
// artifacts. The actual dependency resolution and minification live in an
// external engine; this package owns the invocation and the all-or-nothing
// failure policy around it.
package bundler

import (
	"context"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/runnerforge/internal/config"
	"git.home.luguber.info/inful/runnerforge/internal/discovery"
	forgeerrors "git.home.luguber.info/inful/runnerforge/internal/errors"
	"git.home.luguber.info/inful/runnerforge/internal/logfields"
)

// WellKnownExport is the global symbol each artifact exposes so the loading
// sandbox can introspect the compiled runner. Downstream loading depends on
// this symbol existing.
const WellKnownExport = "RunnerModule"

// Options configures a single compile invocation.
type Options struct {
	// External is the deny-list of host-provided modules left unbundled.
	External []string
	Minify   bool
}

// Engine is the external bundling collaborator. One call compiles one entry
// point into a self-contained artifact at outFile.
type Engine interface {
	Compile(ctx context.Context, entryPath, outFile string, opts Options) error
}

// Bundler drives the engine over a discovered entry set.
type Bundler struct {
	engine Engine
	opts   Options
}

// New creates a Bundler around the given engine.
func New(engine Engine, bundleCfg config.BundleConfig) *Bundler {
	return &Bundler{
		engine: engine,
		opts: Options{
			External: bundleCfg.External,
			Minify:   bundleCfg.Minify == nil || *bundleCfg.Minify,
		},
	}
}

// ArtifactPath returns the scratch-directory path of the artifact produced
// for the given build id.
func ArtifactPath(scratchDir, buildID string) string {
	return filepath.Join(scratchDir, buildID+config.ArtifactExtension)
}

// BundleAll compiles every entry into the scratch directory, one artifact
// per entry named by its build id. The policy is all-or-nothing: the first
// entry that fails to compile aborts the whole step and no partial artifact
// set is handed downstream.
func (b *Bundler) BundleAll(ctx context.Context, entries []discovery.Entry, scratchDir string) error {
	for _, entry := range entries {
		outFile := ArtifactPath(scratchDir, entry.BuildID)
		slog.Debug("Bundling entry",
			logfields.Path(entry.SourcePath),
			logfields.BuildID(entry.BuildID))
		if err := b.engine.Compile(ctx, entry.SourcePath, outFile, b.opts); err != nil {
			return forgeerrors.CompileError(entry.SourcePath, err)
		}
	}
	slog.Info("Bundling completed", logfields.Count(len(entries)))
	return nil
}
