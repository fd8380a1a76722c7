package bundler

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// hostShimBanner rewires standard host APIs so an artifact resolves them
// inside a restricted, browser-like sandbox instead of a full native runtime.
const hostShimBanner = `globalThis.process=globalThis.process??{env:{}};globalThis.require=globalThis.require??((m)=>{throw new Error("host module not provided: "+m)});`

// ESBuildEngine shells out to the esbuild binary to produce one
// self-contained artifact per entry. The artifact is importable both as a
// standalone script and as a loadable module exposing WellKnownExport
// (iife + global-name gives the dual-mode adapter).
type ESBuildEngine struct {
	// Binary overrides the esbuild executable path; empty means $PATH lookup.
	Binary string
}

// Available reports whether the engine binary can be resolved.
func (e *ESBuildEngine) Available() bool {
	_, err := exec.LookPath(e.binary())
	return err == nil
}

func (e *ESBuildEngine) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return "esbuild"
}

// Compile bundles entryPath into outFile, inlining all non-external
// dependencies and leaving the deny-listed host modules unbundled.
func (e *ESBuildEngine) Compile(ctx context.Context, entryPath, outFile string, opts Options) error {
	args := []string{
		entryPath,
		"--bundle",
		"--format=iife",
		"--global-name=" + WellKnownExport,
		"--platform=browser",
		"--banner:js=" + hostShimBanner,
		"--outfile=" + outFile,
	}
	if opts.Minify {
		args = append(args, "--minify")
	}
	for _, ext := range opts.External {
		args = append(args, "--external:"+ext)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary(), args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("esbuild failed: %w: %s", err, stderr.String())
	}
	return nil
}
