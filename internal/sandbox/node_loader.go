package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// introspectHarness runs inside node: it evaluates the artifact bytes in the
// current realm and prints the declared metadata of the well-known export as
// JSON. The artifact is the only code executed; no project code is loaded.
const introspectHarness = `
const fs = require("fs");
const src = fs.readFileSync(process.argv[1], "utf8");
(0, eval)(src);
const mod = globalThis.RunnerModule;
const def = mod && (mod.default ?? mod.definition ?? mod);
if (!def || typeof def.metadata !== "object") {
  console.error("artifact exposes no runner metadata");
  process.exit(2);
}
process.stdout.write(JSON.stringify(def.metadata));
`

// NodeLoader loads artifacts by running them in a node subprocess with a
// restricted flag set. This is the production Loader; tests use fakes.
type NodeLoader struct {
	// Binary overrides the node executable path; empty means $PATH lookup.
	Binary string
}

func (l *NodeLoader) binary() string {
	if l.Binary != "" {
		return l.Binary
	}
	return "node"
}

// Available reports whether the sandbox runtime can be resolved.
func (l *NodeLoader) Available() bool {
	_, err := exec.LookPath(l.binary())
	return err == nil
}

// Load confirms the artifact is present and executes it in the sandbox.
func (l *NodeLoader) Load(ctx context.Context, artifactPath string) (Handle, error) {
	if _, err := os.Stat(artifactPath); err != nil {
		return nil, fmt.Errorf("artifact not present: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, l.binary(),
		"--no-addons",
		"--no-deprecation",
		"-e", introspectHarness,
		artifactPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("sandbox execution failed: %w: %s", err, stderr.String())
	}

	var raw map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return nil, fmt.Errorf("sandbox emitted malformed metadata: %w", err)
	}
	return &nodeHandle{raw: raw}, nil
}

type nodeHandle struct {
	raw map[string]any
}

func (h *nodeHandle) Normalize() (Metadata, error) {
	return NormalizeFields(h.raw), nil
}
