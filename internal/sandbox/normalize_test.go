package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFields_FoldsLegacyNames(t *testing.T) {
	meta := NormalizeFields(map[string]any{
		"runnerName":    "trainer",
		"runnerVersion": "0.3.0",
		"capabilities":  []any{"gpu"},
		"description":   "keeps its own key",
	})

	name, ok := meta.Name()
	assert.True(t, ok)
	assert.Equal(t, "trainer", name)
	assert.Equal(t, "0.3.0", meta["version"])
	assert.Equal(t, []string{"gpu"}, meta.Requires())
	assert.Equal(t, "keeps its own key", meta["description"])
	assert.NotContains(t, meta, "runnerName")
}

func TestNormalizeFields_CurrentFormWins(t *testing.T) {
	meta := NormalizeFields(map[string]any{
		"name":       "current",
		"runnerName": "legacy",
	})
	name, _ := meta.Name()
	assert.Equal(t, "current", name)
}

func TestMetadata_NameAbsentOrBlank(t *testing.T) {
	_, ok := Metadata{}.Name()
	assert.False(t, ok)

	_, ok = Metadata{"name": "   "}.Name()
	assert.False(t, ok)
}
