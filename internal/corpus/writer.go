package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"radiocorpus/internal/pairs"
)

// ErrLocked is returned when another process holds the corpus lock.
var ErrLocked = errors.New("corpus file is locked by another process")

// Writer appends training pairs to a corpus file. Each Append call writes
// complete lines and syncs the file before returning.
type Writer struct {
	mu   sync.Mutex
	path string
	file *os.File
	lock *flock.Flock
}

// OpenWriter opens path for appending and takes an exclusive lock on
// "<path>.lock".
func OpenWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure corpus dir: %w", err)
	}
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire corpus lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	return &Writer{path: path, file: file, lock: lock}, nil
}

// Path returns the corpus file path.
func (w *Writer) Path() string { return w.path }

// Truncate empties the corpus file.
func (w *Writer) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate corpus: %w", err)
	}
	return w.file.Sync()
}

// Append writes records as JSON lines. The batch is encoded before any byte
// is written, so an encoding error leaves the file unchanged.
func (w *Writer) Append(records []pairs.TrainingPair) error {
	if len(records) == 0 {
		return nil
	}
	var batch []byte
	for _, rec := range records {
		line, err := encodeJSON(rec)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		batch = append(batch, line...)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return os.ErrClosed
	}
	if _, err := w.file.Write(batch); err != nil {
		return fmt.Errorf("append corpus: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync corpus: %w", err)
	}
	return nil
}

// Close closes the file and releases the lock.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	if unlockErr := w.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	return err
}
