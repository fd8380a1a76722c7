// Package sandbox is the capability-limited execution boundary used to
// introspect compiled artifacts. An artifact declares its own metadata, so
// loading one means running untrusted payload code; keeping that behind the
// Loader interface makes the trust boundary explicit and testable with fakes.
package sandbox

import (
	"context"
	"fmt"
	"strings"
)

// Metadata is the normalized target metadata extracted from a loaded
// artifact. The shape is open: name is required, everything else is whatever
// the runner declared.
type Metadata map[string]any

// Name returns the declared runner name, or false when absent or blank.
func (m Metadata) Name() (string, bool) {
	v, ok := m["name"]
	if !ok {
		return "", false
	}
	name := strings.TrimSpace(fmt.Sprint(v))
	return name, name != ""
}

// Requires returns the declared host capability list, if any.
func (m Metadata) Requires() []string {
	raw, ok := m["requires"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}

// Handle is a loaded target definition awaiting normalization.
type Handle interface {
	// Normalize presents a stable metadata shape regardless of internal
	// version differences in the loaded target definition.
	Normalize() (Metadata, error)
}

// Loader loads one bundled artifact inside the execution sandbox.
type Loader interface {
	Load(ctx context.Context, artifactPath string) (Handle, error)
}
