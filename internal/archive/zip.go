// Package archive extracts the zip-format payloads the pipeline downloads:
// installer jars, native bundles, and runtime packages. Archives are
// untrusted input; entries that would escape the destination root are
// refused, and a single bad entry never aborts its siblings.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extractor is the archive backend the provisioning components consume. The
// zip implementation below is the default; tests substitute doubles.
type Extractor interface {
	// ExtractAll unpacks every entry under destRoot and reports per-entry
	// failures. The returned error is non-nil only for container-level
	// failures that prevented iteration entirely.
	ExtractAll(destRoot string) (Report, error)

	// ReadEntry returns the contents of a single named entry.
	ReadEntry(name string) ([]byte, error)

	// Close releases the archive handle. Safe to call more than once.
	Close() error
}

// OpenError reports an archive unreadable at the container level.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening archive %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// EntryError records one entry that could not be extracted. Collected in the
// report, non-fatal to sibling entries.
type EntryError struct {
	Entry string
	Err   error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("entry %s: %v", e.Entry, e.Err)
}

func (e EntryError) Unwrap() error { return e.Err }

// Report is the outcome of one extraction pass.
type Report struct {
	Extracted int
	Failed    []EntryError
}

// OK is true only when every entry extracted cleanly.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// EntryFilter decides whether an entry (by its normalized relative path) is
// extracted. A nil filter extracts everything.
type EntryFilter func(name string) bool

// ZipFile is the archive/zip-backed Extractor.
type ZipFile struct {
	path   string
	reader *zip.ReadCloser
	Filter EntryFilter
}

// Open opens a zip archive for reading. The returned handle must be closed
// on every exit path.
func Open(path string) (*ZipFile, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return &ZipFile{path: path, reader: r}, nil
}

// Close releases the underlying reader.
func (z *ZipFile) Close() error {
	if z.reader == nil {
		return nil
	}
	err := z.reader.Close()
	z.reader = nil
	return err
}

// ExtractAll unpacks the archive under destRoot. Entry paths are normalized
// and checked against the root before anything is written; escaping entries
// are recorded as failed, never written. Directory creation is idempotent,
// and a failure on one entry is recorded and extraction continues.
func (z *ZipFile) ExtractAll(destRoot string) (Report, error) {
	var report Report
	if z.reader == nil {
		return report, &OpenError{Path: z.path, Err: os.ErrClosed}
	}

	if err := os.MkdirAll(destRoot, 0750); err != nil {
		return report, fmt.Errorf("creating destination root: %w", err)
	}

	for _, f := range z.reader.File {
		target, err := securePath(destRoot, f.Name)
		if err != nil {
			report.Failed = append(report.Failed, EntryError{Entry: f.Name, Err: err})
			continue
		}
		if z.Filter != nil && !z.Filter(f.Name) {
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0750); err != nil {
				report.Failed = append(report.Failed, EntryError{Entry: f.Name, Err: err})
			}
			continue
		}

		if err := z.extractEntry(f, target); err != nil {
			report.Failed = append(report.Failed, EntryError{Entry: f.Name, Err: err})
			continue
		}
		report.Extracted++
	}

	return report, nil
}

// ReadEntry returns the contents of one entry without touching disk. Used
// for installer profile documents.
func (z *ZipFile) ReadEntry(name string) ([]byte, error) {
	if z.reader == nil {
		return nil, &OpenError{Path: z.path, Err: os.ErrClosed}
	}
	for _, f := range z.reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, EntryError{Entry: name, Err: err}
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, EntryError{Entry: name, Err: err}
		}
		return data, nil
	}
	return nil, EntryError{Entry: name, Err: os.ErrNotExist}
}

func (z *ZipFile) extractEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening entry: %w", err)
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode) // #nosec G304 - target is rooted by securePath
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	if _, err := io.Copy(out, rc); err != nil { // #nosec G110 - sizes are bounded by manifest-declared artifact sizes
		_ = out.Close()
		_ = os.Remove(target)
		return fmt.Errorf("writing entry data: %w", err)
	}
	return out.Close()
}

// securePath resolves an entry name under root, rejecting absolute paths and
// any path whose normalized form escapes the root.
func securePath(root, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return "", fmt.Errorf("absolute entry path not allowed")
	}
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry path escapes destination root")
	}
	target := filepath.Join(root, cleaned)
	if rel, err := filepath.Rel(root, target); err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("entry path escapes destination root")
	}
	return target, nil
}
