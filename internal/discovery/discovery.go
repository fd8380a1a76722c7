// Package discovery resolves the project file set and selects the source
// files that define a buildable runner entry.
package discovery

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/runnerforge/internal/config"
	forgeerrors "git.home.luguber.info/inful/runnerforge/internal/errors"
	"git.home.luguber.info/inful/runnerforge/internal/logfields"
)

// TargetMarker is the substring that qualifies a source file as a runner
// entry point. This is a plain text match, not a parse: a marker inside a
// comment or string literal still qualifies. Documented behavior.
const TargetMarker = "extends Runner"

// Entry pairs a qualifying source file with its opaque build identifier.
// The build id is minted fresh per discovery run and is deliberately not
// derived from the path, so bundling keys never collide across entries.
type Entry struct {
	SourcePath string
	BuildID    string
}

// Discoverer scans the resolved project file set for entry points.
type Discoverer struct {
	source config.SourceConfig
}

// NewDiscoverer creates a Discoverer for the given source configuration.
func NewDiscoverer(source config.SourceConfig) *Discoverer {
	return &Discoverer{source: source}
}

// Discover resolves the project file set under the configured roots and
// returns one Entry per file whose text contains TargetMarker. File reads
// run concurrently; each goroutine writes into its own result slot and the
// slots are combined afterwards. Order of the result is not significant.
func (d *Discoverer) Discover() ([]Entry, error) {
	files, err := d.resolveFileSet()
	if err != nil {
		return nil, err
	}

	type slot struct {
		entry Entry
		match bool
		err   error
	}
	slots := make([]slot, len(files))

	var wg sync.WaitGroup
	for i, path := range files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			text, err := os.ReadFile(path)
			if err != nil {
				slots[i].err = fmt.Errorf("read %s: %w", path, err)
				return
			}
			if strings.Contains(string(text), TargetMarker) {
				slots[i].entry = Entry{SourcePath: path, BuildID: newBuildID()}
				slots[i].match = true
			}
		}(i, path)
	}
	wg.Wait()

	entries := make([]Entry, 0, len(files))
	for _, s := range slots {
		if s.err != nil {
			return nil, forgeerrors.Wrap(s.err, forgeerrors.CategoryFileSystem, forgeerrors.SeverityFatal, "source file unreadable")
		}
		if s.match {
			entries = append(entries, s.entry)
		}
	}

	slog.Info("Entry point discovery completed",
		slog.Int("scanned", len(files)),
		logfields.Count(len(entries)))
	return entries, nil
}

// resolveFileSet walks every configured root, skipping excluded directories
// and collecting files whose extension is in the include list. A missing
// root is a configuration error and aborts before any output mutation.
func (d *Discoverer) resolveFileSet() ([]string, error) {
	var files []string
	for _, root := range d.source.Roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return nil, forgeerrors.SourceRootMissing(root)
		}

		err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				if slices.Contains(d.source.Exclude, entry.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if slices.Contains(d.source.Include, filepath.Ext(path)) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, forgeerrors.Wrap(err, forgeerrors.CategoryDiscovery, forgeerrors.SeverityFatal, "source tree walk failed")
		}
	}
	return files, nil
}

// newBuildID mints a collision-resistant opaque token (128-bit random uuid,
// dashes stripped so it is safe as a file stem).
func newBuildID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
