// Package catalog turns a scratch directory of bundled artifacts into
// catalog entries and the final artifact tree.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/runnerforge/internal/capability"
	"git.home.luguber.info/inful/runnerforge/internal/config"
	forgeerrors "git.home.luguber.info/inful/runnerforge/internal/errors"
	"git.home.luguber.info/inful/runnerforge/internal/logfields"
	"git.home.luguber.info/inful/runnerforge/internal/manifest"
	"git.home.luguber.info/inful/runnerforge/internal/sandbox"
)

// Builder assembles catalog entries from bundled artifacts.
type Builder struct {
	loader    sandbox.Loader
	evaluator capability.Evaluator
}

// NewBuilder creates a Builder over the given collaborators.
func NewBuilder(loader sandbox.Loader, evaluator capability.Evaluator) *Builder {
	return &Builder{loader: loader, evaluator: evaluator}
}

// artifactResult is the per-artifact fan-out slot. Each goroutine owns
// exactly one slot; nothing mutates shared state until fan-in.
type artifactResult struct {
	meta        sandbox.Metadata
	name        string
	environment string
	hash        string
	err         error
}

// Build processes every artifact in scratchDir: load through the sandbox,
// normalize metadata, evaluate the environment fingerprint, hash with the
// shared build epoch, copy the artifact into outDir, and emit an entry.
//
// Policy: a single artifact that fails to load (or declares no name) is
// logged and excluded; the batch continues. This is deliberately asymmetric
// with the bundler's all-or-nothing policy. Filesystem errors while writing
// the output tree stay fatal.
func (b *Builder) Build(ctx context.Context, scratchDir, outDir string, epoch int64) ([]manifest.Entry, error) {
	artifacts, err := filepath.Glob(filepath.Join(scratchDir, "*"+config.ArtifactExtension))
	if err != nil {
		return nil, forgeerrors.Wrap(err, forgeerrors.CategoryFileSystem, forgeerrors.SeverityFatal, "scratch directory unreadable")
	}

	runnersDir := filepath.Join(outDir, config.RunnersSubdir)
	if err := os.MkdirAll(runnersDir, 0o750); err != nil {
		return nil, forgeerrors.OutputError(runnersDir, err)
	}

	results := make([]artifactResult, len(artifacts))
	var wg sync.WaitGroup
	for i, artifactPath := range artifacts {
		wg.Add(1)
		go func(i int, artifactPath string) {
			defer wg.Done()
			results[i] = b.inspect(ctx, artifactPath, epoch)
		}(i, artifactPath)
	}
	wg.Wait()

	entries := make([]manifest.Entry, 0, len(artifacts))
	claimed := make(map[string]string, len(artifacts))
	for i, res := range results {
		artifactPath := artifacts[i]
		if res.err != nil {
			slog.Warn("Excluding artifact from catalog",
				logfields.Path(artifactPath),
				logfields.Error(res.err))
			continue
		}
		if prior, dup := claimed[res.name]; dup {
			slog.Warn("Duplicate runner name; keeping first occurrence",
				logfields.Runner(res.name),
				logfields.Path(artifactPath),
				slog.String("kept", prior))
			continue
		}
		claimed[res.name] = artifactPath

		if err := copyFile(artifactPath, filepath.Join(runnersDir, res.name+config.ArtifactExtension)); err != nil {
			return nil, forgeerrors.OutputError(artifactPath, err)
		}

		entry := make(manifest.Entry, len(res.meta)+3)
		for k, v := range res.meta {
			entry[k] = v
		}
		entry[manifest.FieldPath] = res.name
		entry[manifest.FieldEnvironment] = res.environment
		entry[manifest.FieldHash] = res.hash
		entries = append(entries, entry)
	}

	slog.Info("Catalog assembled",
		slog.Int("artifacts", len(artifacts)),
		logfields.Count(len(entries)))
	return entries, nil
}

// inspect runs the sandbox/normalize/evaluate/hash chain for one artifact.
func (b *Builder) inspect(ctx context.Context, artifactPath string, epoch int64) artifactResult {
	handle, err := b.loader.Load(ctx, artifactPath)
	if err != nil {
		return artifactResult{err: forgeerrors.ArtifactLoadError(artifactPath, err)}
	}
	meta, err := handle.Normalize()
	if err != nil {
		return artifactResult{err: forgeerrors.ArtifactLoadError(artifactPath, err)}
	}
	name, ok := meta.Name()
	if !ok {
		return artifactResult{err: forgeerrors.MissingNameError(artifactPath)}
	}
	hash, err := EntryHash(meta, epoch)
	if err != nil {
		return artifactResult{err: fmt.Errorf("hash entry %s: %w", name, err)}
	}
	return artifactResult{
		meta:        meta,
		name:        name,
		environment: b.evaluator.Evaluate(meta),
		hash:        hash,
	}
}

// copyFile copies (never moves) an artifact into the output tree; the
// scratch workspace keeps exclusive ownership of the original until release.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
