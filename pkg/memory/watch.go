package memory

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn with the document name whenever a memory document is
// replaced or written, by this process or by an operator editing files by
// hand. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, fn func(Document)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("memory: creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.memoryDir); err != nil {
		return fmt.Errorf("memory: watching %s: %w", s.memoryDir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			d, err := ParseDocument(filepath.Base(event.Name))
			if err != nil {
				continue
			}
			fn(d)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("memory: watcher error: %w", err)
		}
	}
}
