package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
)

// AtomicFile writes to a temporary sibling of the destination and renames it
// into place on Commit. An uncommitted file leaves the destination untouched.
type AtomicFile struct {
	dst  string
	tmp  *os.File
	h    hash.Hash
	n    int64
	done bool
}

// CreateAtomic opens a temporary file next to dst. The parent directory is
// created if needed.
func CreateAtomic(dst string, mode os.FileMode) (*AtomicFile, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return nil, err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, err
	}
	return &AtomicFile{dst: dst, tmp: tmp, h: sha256.New()}, nil
}

func (f *AtomicFile) Write(p []byte) (int, error) {
	if f.done {
		return 0, os.ErrClosed
	}
	n, err := f.tmp.Write(p)
	f.n += int64(n)
	_, _ = f.h.Write(p[:n])
	return n, err
}

// Size returns the number of bytes written so far.
func (f *AtomicFile) Size() int64 { return f.n }

// Digest returns the hex SHA256 of the bytes written so far.
func (f *AtomicFile) Digest() string { return hex.EncodeToString(f.h.Sum(nil)) }

// Commit flushes the temporary file to disk and renames it over the destination.
func (f *AtomicFile) Commit() error {
	if f.done {
		return os.ErrClosed
	}
	f.done = true
	name := f.tmp.Name()
	if err := f.tmp.Sync(); err != nil {
		_ = f.tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("sync %s: %w", f.dst, err)
	}
	if err := f.tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close %s: %w", f.dst, err)
	}
	if err := os.Rename(name, f.dst); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename into %s: %w", f.dst, err)
	}
	return nil
}

// Abort discards the temporary file. It is safe to call after Commit.
func (f *AtomicFile) Abort() {
	if f.done {
		return
	}
	f.done = true
	name := f.tmp.Name()
	_ = f.tmp.Close()
	_ = os.Remove(name)
}

// WriteAtomic streams r into dst through an AtomicFile and returns the byte
// count and hex SHA256 of what was written.
func WriteAtomic(dst string, r io.Reader, mode os.FileMode) (int64, string, error) {
	out, err := CreateAtomic(dst, mode)
	if err != nil {
		return 0, "", err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Abort()
		return 0, "", err
	}
	size, digest := out.Size(), out.Digest()
	if err := out.Commit(); err != nil {
		return 0, "", err
	}
	return size, digest, nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
