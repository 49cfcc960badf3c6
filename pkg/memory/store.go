package memory

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/emilwagman/Ambient-AI/pkg/logger"
)

const (
	memoryDirName  = "memory"
	journalDirName = "journal"
	draftsDirName  = "drafts"
	workspaceName  = "workspace"

	tmpSuffix = ".tmp"
)

// rename is swapped in tests to simulate a crash between write and rename.
var rename = os.Rename

// Store reads and atomically writes the memory documents and the journal.
// It is safe for concurrent use.
type Store struct {
	root       string
	memoryDir  string
	journalDir string
	draftsDir  string

	logger *slog.Logger
	now    func() time.Time

	// journalMu serializes the read-concatenate-write of AppendJournal.
	journalMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for journal dating.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a Store rooted at root. Call Initialize before use.
func NewStore(root string, opts ...Option) *Store {
	workspace := filepath.Join(root, workspaceName)
	s := &Store{
		root:       root,
		memoryDir:  filepath.Join(root, memoryDirName),
		journalDir: filepath.Join(workspace, journalDirName),
		draftsDir:  filepath.Join(workspace, draftsDirName),
		logger:     logger.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the data directory.
func (s *Store) Root() string {
	return s.root
}

// MemoryDir returns the directory holding the named documents.
func (s *Store) MemoryDir() string {
	return s.memoryDir
}

// JournalDir returns the directory holding dated journal files.
func (s *Store) JournalDir() string {
	return s.journalDir
}

// Initialize creates the directory layout, removes temp files left by an
// interrupted write and seeds any missing document with its template. It is
// safe to call on every startup.
func (s *Store) Initialize() error {
	for _, dir := range []string{s.memoryDir, s.journalDir, s.draftsDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("memory: creating %s: %w", dir, err)
		}
	}

	for _, dir := range []string{s.memoryDir, s.journalDir} {
		if err := s.sweepTemp(dir); err != nil {
			return err
		}
	}

	for _, d := range Documents {
		path := s.documentPath(d)
		_, err := os.Stat(path)
		switch {
		case err == nil:
			continue
		case errors.Is(err, fs.ErrNotExist):
			if err := atomicWrite(path, templates[d]); err != nil {
				return fmt.Errorf("memory: seeding %s: %w", d, err)
			}
			s.logger.Info("seeded memory document", "document", string(d))
		default:
			return fmt.Errorf("memory: stat %s: %w", d, err)
		}
	}

	return nil
}

// ReadDocument returns the content of the named document, or "" when the
// file does not exist.
func (s *Store) ReadDocument(name string) (string, error) {
	d, err := ParseDocument(name)
	if err != nil {
		return "", fmt.Errorf("memory: read %q: %w", name, err)
	}
	return s.read(d)
}

// WriteDocument atomically replaces the named document with content.
func (s *Store) WriteDocument(name string, content string) error {
	d, err := ParseDocument(name)
	if err != nil {
		return fmt.Errorf("memory: write %q: %w", name, err)
	}
	if err := atomicWrite(s.documentPath(d), content); err != nil {
		return fmt.Errorf("memory: write %s: %w", d, err)
	}
	return nil
}

// LoadFullContext joins every non-empty document in context order.
func (s *Store) LoadFullContext() (string, error) {
	return s.join(Documents)
}

// LoadLightweightContext joins the identity, active threads and queue
// documents.
func (s *Store) LoadLightweightContext() (string, error) {
	return s.join(lightweightDocuments)
}

// Snapshot returns the content of every document keyed by name.
func (s *Store) Snapshot() (map[Document]string, error) {
	out := make(map[Document]string, len(Documents))
	for _, d := range Documents {
		content, err := s.read(d)
		if err != nil {
			return nil, err
		}
		out[d] = content
	}
	return out, nil
}

// Debug renders a short preview of every document: its size in characters
// and its first five lines.
func (s *Store) Debug() (string, error) {
	const previewLines = 5

	parts := make([]string, 0, len(Documents))
	for _, d := range Documents {
		content, err := s.read(d)
		if err != nil {
			return "", err
		}

		lines := strings.Split(strings.TrimSpace(content), "\n")
		preview := strings.Join(lines[:min(len(lines), previewLines)], "\n")
		if len(lines) > previewLines {
			preview += fmt.Sprintf("\n... (%d more lines)", len(lines)-previewLines)
		}

		parts = append(parts, fmt.Sprintf("**%s** (%d chars)\n%s", d, utf8.RuneCountInString(content), preview))
	}
	return strings.Join(parts, "\n\n"), nil
}

func (s *Store) join(docs []Document) (string, error) {
	sections := make([]string, 0, len(docs))
	for _, d := range docs {
		content, err := s.read(d)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(content) != "" {
			sections = append(sections, content)
		}
	}
	return strings.Join(sections, ContextSeparator), nil
}

func (s *Store) read(d Document) (string, error) {
	data, err := os.ReadFile(s.documentPath(d))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("memory: read %s: %w", d, err)
	}
	return string(data), nil
}

func (s *Store) documentPath(d Document) string {
	return filepath.Join(s.memoryDir, string(d))
}

func (s *Store) sweepTemp(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("memory: listing %s: %w", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !isTempName(name) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("memory: removing stale temp file %s: %w", name, err)
		}
		s.logger.Warn("removed temp file from interrupted write", "file", name)
	}
	return nil
}

func isTempName(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, tmpSuffix)
}

// atomicWrite writes content to a temp file beside path and renames it over
// path. The temp file is removed on any failure.
func atomicWrite(path, content string) error {
	dir, base := filepath.Split(path)

	tmpFile, err := os.CreateTemp(dir, "."+base+".*"+tmpSuffix)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmpFile.Name()

	cleanup := func() {
		_ = os.Remove(tmpName)
	}

	if err := tmpFile.Chmod(0o600); err != nil {
		_ = tmpFile.Close()
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		_ = tmpFile.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", base, err)
	}

	return nil
}
