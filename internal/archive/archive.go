// Package archive reads zip package archives. An Archive is opened
// read-only, exposes its indexed entries, extracts everything into a
// directory, and is closed exactly once.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxFileSize caps the decompressed size of a single archive entry to
// guard against decompression bombs.
const maxFileSize = 500 * 1024 * 1024 // 500MB

const (
	defaultDirMode  = 0o750
	defaultFileMode = 0o640
)

// Entry describes one indexed archive member.
type Entry struct {
	// Name is the slash-separated path of the member inside the archive.
	// Directory entries keep their trailing slash.
	Name string

	// IsDir reports whether the member represents a directory.
	IsDir bool
}

// Depth returns the number of path components of the entry after
// trimming any trailing separator: "file.txt" is 1, "bin/tool" is 2.
func (e Entry) Depth() int {
	name := strings.TrimSuffix(e.Name, "/")
	if name == "" {
		return 0
	}
	return strings.Count(name, "/") + 1
}

// Archive is a read-only handle on a zip package archive.
type Archive struct {
	path   string
	reader *zip.ReadCloser
	closed bool
}

// Open opens the zip archive at path.
func Open(path string) (*Archive, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	return &Archive{path: path, reader: reader}, nil
}

// Path returns the archive's filesystem path.
func (a *Archive) Path() string {
	return a.path
}

// Entries returns the archive members in index order.
func (a *Archive) Entries() []Entry {
	entries := make([]Entry, 0, len(a.reader.File))
	for _, f := range a.reader.File {
		entries = append(entries, Entry{
			Name:  f.Name,
			IsDir: f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/"),
		})
	}
	return entries
}

// ContainerDir returns the shared top-level directory of the archive when
// every member lives under a single top-level folder, as package archives
// produced by the Quill build tooling do. The second return is false when
// the archive has files at its root or more than one top-level entry.
func (a *Archive) ContainerDir() (string, bool) {
	container := ""
	for _, f := range a.reader.File {
		name := strings.TrimSuffix(f.Name, "/")
		if name == "" {
			continue
		}
		top, _, found := strings.Cut(name, "/")
		if !found && !f.FileInfo().IsDir() && !strings.HasSuffix(f.Name, "/") {
			// A file at the archive root rules out a container.
			return "", false
		}
		if container == "" {
			container = top
		} else if top != container {
			return "", false
		}
	}
	if container == "" {
		return "", false
	}
	return container, true
}

// ExtractTo extracts every member of the archive into destDir,
// preserving relative paths. Paths escaping destDir are rejected.
func (a *Archive) ExtractTo(destDir string) error {
	for _, f := range a.reader.File {
		if err := extractFile(f, destDir); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying zip reader. Closing twice is an error,
// matching the one-close-per-operation contract of install.
func (a *Archive) Close() error {
	if a.closed {
		return errors.New("archive already closed")
	}
	a.closed = true
	return a.reader.Close()
}

// extractFile writes a single archive member into destDir.
func extractFile(f *zip.File, destDir string) error {
	target, err := sanitizePath(destDir, f.Name)
	if err != nil {
		return err
	}

	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		if mkErr := os.MkdirAll(target, defaultDirMode); mkErr != nil {
			return fmt.Errorf("creating directory %s: %w", target, mkErr)
		}
		return nil
	}

	if f.UncompressedSize64 > maxFileSize {
		return fmt.Errorf("entry %s exceeds maximum file size", f.Name)
	}

	if mkErr := os.MkdirAll(filepath.Dir(target), defaultDirMode); mkErr != nil {
		return fmt.Errorf("creating parent directory for %s: %w", target, mkErr)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = defaultFileMode
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}

	written, copyErr := io.Copy(out, io.LimitReader(rc, maxFileSize+1))
	if copyErr != nil {
		_ = out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, copyErr)
	}
	if written > maxFileSize {
		_ = out.Close()
		return fmt.Errorf("entry %s exceeds maximum file size", f.Name)
	}

	if closeErr := out.Close(); closeErr != nil {
		return fmt.Errorf("closing %s: %w", target, closeErr)
	}
	return nil
}

// sanitizePath joins name onto destDir and rejects results that escape
// destDir (zip-slip).
func sanitizePath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, name)

	cleanDest := filepath.Clean(destDir)
	if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry %s escapes extraction directory", name)
	}
	return target, nil
}
