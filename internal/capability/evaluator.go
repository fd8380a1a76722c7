// Package capability evaluates the environment fingerprint an artifact
// requires from its host.
package capability

import (
	"sort"
	"strings"

	"git.home.luguber.info/inful/runnerforge/internal/sandbox"
)

// Evaluator derives an opaque environment fingerprint from normalized target
// metadata. The descriptor is opaque to the catalog builder.
type Evaluator interface {
	Evaluate(meta sandbox.Metadata) string
}

// StaticEvaluator maps the declared capability list to a canonical
// descriptor: the sorted, deduplicated requirements joined with "+". A
// runner with no declared requirements runs anywhere.
type StaticEvaluator struct{}

// AnyEnvironment is the fingerprint of a runner with no host requirements.
const AnyEnvironment = "any"

func (StaticEvaluator) Evaluate(meta sandbox.Metadata) string {
	requires := meta.Requires()
	if len(requires) == 0 {
		return AnyEnvironment
	}

	seen := make(map[string]struct{}, len(requires))
	caps := make([]string, 0, len(requires))
	for _, r := range requires {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		caps = append(caps, r)
	}
	if len(caps) == 0 {
		return AnyEnvironment
	}
	sort.Strings(caps)
	return strings.Join(caps, "+")
}
