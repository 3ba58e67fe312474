// Package fsx holds the filesystem primitives the sync engine builds
// on: an existence probe and a copy that preserves the source's
// modification time. This is the only place destination bytes are
// written.
package fsx

import (
	"io"
	"os"
	"path/filepath"

	"github.com/calebhs/mdrive/pkg/errors"
)

// Exists reports whether path exists at all (any file type).
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// FileSize returns the size of a regular file, or -1 if it cannot be
// determined.
func FileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return -1
	}
	return fi.Size()
}

// CopyPreserving copies src to dst, creating parent directories as
// needed and carrying over the source modification time. The write is
// streamed and synced before the timestamps are set, so a completed
// copy is durable with its final mtime.
func CopyPreserving(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot stat source %s", src)
	}
	if !srcInfo.Mode().IsRegular() {
		return errors.Newf(errors.ErrFileAccess, "source %s is not a regular file", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create parent directory for %s", dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot open source %s", src)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot create destination %s", dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot write destination %s", dst)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot sync destination %s", dst)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot close destination %s", dst)
	}

	if err := os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "cannot set timestamps on %s", dst)
	}
	return nil
}
