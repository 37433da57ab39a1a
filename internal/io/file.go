package ioutils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots = regexp.MustCompile(`\.+$`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// SanitizeFileName removes or replaces characters that are invalid in
// file names across operating systems (Windows is the most restrictive):
// invalid characters become underscores, trailing dots and whitespace
// are removed, runs of whitespace collapse to a single space.
//
//	SanitizeFileName("plan: 1/2.jpg") // "plan_ 1_2.jpg"
func SanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}

// EnsureDir creates a directory and all parents if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// WriteFileAtomic persists data under path without ever exposing a
// partially written file under the final name.
//
// The bytes are written to a uniquely named temporary file in the
// destination directory, flushed and closed, then renamed onto the
// final path. Rename within one directory is atomic on POSIX
// filesystems, so an external observer sees either the complete file or
// no file. The temporary file is removed on any failure.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// NameAllocator hands out destination file names unique within one run.
//
// Two different source URLs can reduce to the same basename. The first
// caller keeps the plain name; later callers get a deterministic numeric
// suffix in discovery order, inserted before the extension:
//
//	photo.jpg, photo_1.jpg, photo_2.jpg, ...
//
// NameAllocator is not safe for concurrent use; names are allocated
// up front while tasks are built, before any worker starts.
type NameAllocator struct {
	taken map[string]struct{}
}

// NewNameAllocator creates an empty allocator.
func NewNameAllocator() *NameAllocator {
	return &NameAllocator{taken: make(map[string]struct{})}
}

// Claim reserves a unique variant of name and returns it.
func (a *NameAllocator) Claim(name string) string {
	if _, used := a.taken[name]; !used {
		a.taken[name] = struct{}{}
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, used := a.taken[candidate]; !used {
			a.taken[candidate] = struct{}{}
			return candidate
		}
	}
}
