package memory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	journalDateLayout = "2006-01-02"
	journalTimeLayout = "15:04 UTC"
)

// AppendJournal appends a timestamped block to today's UTC journal file,
// creating it with a header on the first entry of the day. It returns the
// journal file path.
func (s *Store) AppendJournal(text string) (string, error) {
	now := s.now().UTC()
	date := now.Format(journalDateLayout)
	path := s.journalPath(date)
	entry := fmt.Sprintf("\n## %s\n\n%s\n", now.Format(journalTimeLayout), text)

	s.journalMu.Lock()
	defer s.journalMu.Unlock()

	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		existing = []byte(fmt.Sprintf("# Journal - %s\n", date))
	default:
		return "", fmt.Errorf("memory: read journal %s: %w", date, err)
	}

	if err := atomicWrite(path, string(existing)+entry); err != nil {
		return "", fmt.Errorf("memory: append journal %s: %w", date, err)
	}

	s.logger.Debug("journal entry appended", "date", date, "chars", len(text))
	return path, nil
}

// RecentJournal concatenates the journal files for the last days UTC dates,
// newest first, skipping dates with no file. It returns NoJournalEntries
// when nothing is found.
func (s *Store) RecentJournal(days int) (string, error) {
	today := s.now().UTC()

	var entries []string
	for i := range max(days, 0) {
		date := today.AddDate(0, 0, -i).Format(journalDateLayout)
		data, err := os.ReadFile(s.journalPath(date))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("memory: read journal %s: %w", date, err)
		}
		entries = append(entries, string(data))
	}

	if len(entries) == 0 {
		return NoJournalEntries, nil
	}
	return strings.Join(entries, "\n\n"), nil
}

func (s *Store) journalPath(date string) string {
	return filepath.Join(s.journalDir, date+".md")
}
