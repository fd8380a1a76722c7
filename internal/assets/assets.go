// Package assets mirrors a project's static assets directory into the
// output tree.
package assets

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/runnerforge/internal/logfields"
)

// Mirror copies srcDir recursively into <outDir>/assets. A missing srcDir is
// not an error; mirrored reports whether anything was copied.
func Mirror(srcDir, outDir string) (mirrored bool, err error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if !info.IsDir() {
		return false, nil
	}

	dstRoot := filepath.Join(outDir, "assets")
	err = filepath.WalkDir(srcDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstRoot, rel)
		if entry.IsDir() {
			return os.MkdirAll(dst, 0o750)
		}
		return copyFile(path, dst)
	})
	if err != nil {
		return false, err
	}

	slog.Debug("Mirrored assets", logfields.Path(srcDir))
	return true, nil
}

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
