// Package ioutils provides file system utilities for the image
// downloader.
//
// This package contains functions for:
//   - Crash-safe file writing (temp file + atomic rename)
//   - Filename sanitization
//   - Per-run destination name collision resolution
//   - Directory creation
//
// The write path guarantees that a file is only ever visible under its
// final name once it is complete; interrupted writes leave at most a
// temporary file that is removed on the error path.
package ioutils
