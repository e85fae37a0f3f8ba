package export

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ZipArchiver packs a directory into a deflate-compressed zip file.
type ZipArchiver struct{}

// NewZipArchiver creates a ZipArchiver.
func NewZipArchiver() *ZipArchiver {
	return &ZipArchiver{}
}

// Archive writes every regular file under srcDir to destPath, keeping paths
// relative to srcDir, then removes srcDir. A missing srcDir yields an empty archive.
func (a *ZipArchiver) Archive(srcDir, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	tmp := destPath + ".tmp"
	if err := writeZip(srcDir, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, destPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("move archive into place: %w", err)
	}

	if err := os.RemoveAll(srcDir); err != nil {
		return fmt.Errorf("remove %s: %w", srcDir, err)
	}
	return nil
}

func writeZip(srcDir, destPath string) (err error) {
	out, err := os.Create(destPath) // #nosec G304 -- destination comes from configuration
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == srcDir {
				return filepath.SkipDir
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		return addFile(zw, path, filepath.ToSlash(rel))
	})
	if walkErr != nil {
		_ = zw.Close()
		return fmt.Errorf("archive %s: %w", srcDir, walkErr)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	f, err := os.Open(path) // #nosec G304 -- path is produced by WalkDir under srcDir
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(w, f)
	return err
}
