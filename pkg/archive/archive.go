// Package archive reads and writes package archives. A package archive
// is a flat-ish zip whose stored file names are referenced from the
// manifest's file table; lookups go by base name and ignore case, since
// manifests produced on case-insensitive filesystems disagree with
// their archives about casing.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Reader provides name-based access to a package archive.
type Reader struct {
	zr   *zip.ReadCloser
	path string
}

// Open opens a package archive for reading.
func Open(archivePath string) (*Reader, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	return &Reader{zr: zr, path: archivePath}, nil
}

// Close releases the underlying archive.
func (r *Reader) Close() error {
	return r.zr.Close()
}

// find returns the first entry whose base name matches, ignoring case.
func (r *Reader) find(name string) *zip.File {
	base := path.Base(name)
	for _, f := range r.zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.EqualFold(path.Base(f.Name), base) {
			return f
		}
	}
	return nil
}

// Contains reports whether a file with the given base name exists.
func (r *Reader) Contains(name string) bool {
	return r.find(name) != nil
}

// ReadFile returns the content of the first file whose base name
// matches, ignoring case.
func (r *Reader) ReadFile(name string) ([]byte, error) {
	f := r.find(name)
	if f == nil {
		return nil, fmt.Errorf("archive %s: no file named %q", r.path, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s in archive: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s from archive: %w", f.Name, err)
	}
	return data, nil
}

// DuplicateNames returns base names that occur in more than one
// directory of the archive, sorted. Case is ignored when counting.
func (r *Reader) DuplicateNames() []string {
	seen := make(map[string][]string)
	for _, f := range r.zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		key := strings.ToLower(path.Base(f.Name))
		dir := path.Dir(f.Name)
		dirs := seen[key]
		found := false
		for _, d := range dirs {
			if d == dir {
				found = true
				break
			}
		}
		if !found {
			seen[key] = append(dirs, dir)
		}
	}
	var dups []string
	for name, dirs := range seen {
		if len(dirs) > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}

// MissingFiles returns the subset of names with no matching entry in
// the archive, preserving input order.
func (r *Reader) MissingFiles(names []string) []string {
	var missing []string
	for _, n := range names {
		if !r.Contains(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// FileTarget maps a stored archive name to its destination below the
// extraction root.
type FileTarget struct {
	// Name is the stored file name inside the archive.
	Name string
	// DestDir is the destination directory, relative to the root.
	DestDir string
	// DestName is the file name to write; defaults to Name when empty.
	DestName string
}

// MissingFilesError reports the archive entries a copy could not find.
type MissingFilesError struct {
	Names []string
}

func (e *MissingFilesError) Error() string {
	return fmt.Sprintf("archive is missing %d file(s): %s", len(e.Names), strings.Join(e.Names, ", "))
}

// CopyFiles extracts each target below root. It keeps going past
// missing entries and reports all of them in a single
// *MissingFilesError afterwards, so one bad entry does not abort the
// rest of an installation's files.
func (r *Reader) CopyFiles(root string, targets []FileTarget) error {
	var missing []string
	for _, t := range targets {
		src := r.find(t.Name)
		if src == nil {
			missing = append(missing, t.Name)
			continue
		}
		name := t.DestName
		if name == "" {
			name = t.Name
		}
		dest, err := safeJoin(root, t.DestDir, name)
		if err != nil {
			return err
		}
		if err := extractTo(src, dest); err != nil {
			return err
		}
	}
	if len(missing) > 0 {
		return &MissingFilesError{Names: missing}
	}
	return nil
}

// safeJoin joins path parts below root and rejects traversal outside
// of it.
func safeJoin(root string, parts ...string) (string, error) {
	joined := filepath.Join(append([]string{root}, parts...)...)
	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal archive path outside extraction root: %s", filepath.Join(parts...))
	}
	return joined, nil
}

func extractTo(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", dest, err)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s in archive: %w", f.Name, err)
	}
	defer rc.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return nil
}

// Extract unpacks the whole archive below destDir, refusing entries
// that would escape it.
func Extract(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		dest, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", dest, err)
			}
			continue
		}
		if err := extractTo(f, dest); err != nil {
			return err
		}
	}
	return nil
}

// ZipDirectory packs the contents of srcDir into a zip at destPath.
// Entry names are relative to srcDir with forward slashes.
func ZipDirectory(srcDir, destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", destPath, err)
	}
	zw := zip.NewWriter(out)
	err = filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(w, in)
		return err
	})
	if err != nil {
		zw.Close()
		out.Close()
		return fmt.Errorf("pack %s: %w", srcDir, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive %s: %w", destPath, err)
	}
	return out.Close()
}
