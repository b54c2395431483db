package emitter

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/otiai10/copy"
	"github.com/spf13/afero"
)

//go:embed templates/*.tpl
var templateFiles embed.FS

// Templates returns the embedded operator and DAG templates
func Templates() fs.FS {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// CopyAssets copies the workflow's lib directory next to the generated DAG.
// On the OS filesystem the copy is delegated to otiai10/copy; other filesystems are walked file by file.
// A missing source directory is not an error.
func CopyAssets(fsys afero.Fs, src, dst string) error {
	info, err := fsys.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat assets %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("assets path %s is not a directory", src)
	}
	if _, ok := fsys.(*afero.OsFs); ok {
		err = copy.Copy(src, dst, copy.Options{PreserveTimes: true})
	} else {
		err = copyTree(fsys, src, dst)
	}
	if err != nil {
		return fmt.Errorf("failed to copy assets from %s: %w", src, err)
	}
	return nil
}

func copyTree(fsys afero.Fs, src, dst string) error {
	return afero.Walk(fsys, src, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fsys.MkdirAll(target, info.Mode().Perm()|0o700)
		}
		raw, err := afero.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		return afero.WriteFile(fsys, target, raw, info.Mode().Perm())
	})
}
