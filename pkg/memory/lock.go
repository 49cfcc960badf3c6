package memory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

const lockFileName = ".ambient.lock"

// Lock is an exclusive advisory lock on the data directory. Only one agent
// process may write a given set of documents.
type Lock struct {
	file *os.File
}

// Lock takes the data directory lock without blocking. It fails with
// ErrLocked when another process already holds it.
func (s *Store) Lock() (*Lock, error) {
	if err := os.MkdirAll(s.root, 0o750); err != nil {
		return nil, fmt.Errorf("memory: creating %s: %w", s.root, err)
	}

	file, err := os.OpenFile(filepath.Join(s.root, lockFileName), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("memory: opening lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("memory: locking data directory: %w", err)
	}

	return &Lock{file: file}, nil
}

// Release drops the lock. It is safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("memory: unlocking data directory: %w", err)
	}
	return l.file.Close()
}
