// Package dotdir resolves the .ambient/ directory that holds config.toml.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Name is the directory name looked up in the working directory and home.
const Name = ".ambient"

// Source names the rule that picked a directory.
type Source string

const (
	SourceOverride Source = "override"
	SourceLocal    Source = "local"
	SourceHome     Source = "home"
)

// Resolution is a resolved .ambient/ directory.
type Resolution struct {
	Dir    string
	Source Source
}

// Manager resolves directories against the process working directory and
// the user's home.
type Manager struct {
	getwd   func() (string, error)
	homeDir func() (string, error)
}

func NewManager() *Manager {
	return &Manager{
		getwd:   os.Getwd,
		homeDir: os.UserHomeDir,
	}
}

// Resolve picks a directory without creating it. The first rule that matches
// wins: an explicit override, then ./.ambient/ if it is a directory, then
// ~/.ambient/.
func (m *Manager) Resolve(override string) (Resolution, error) {
	if override != "" {
		dir, err := filepath.Abs(override)
		if err != nil {
			return Resolution{}, fmt.Errorf("resolving %s: %w", override, err)
		}
		return Resolution{Dir: dir, Source: SourceOverride}, nil
	}

	cwd, err := m.getwd()
	if err != nil {
		return Resolution{}, fmt.Errorf("getting current directory: %w", err)
	}
	if local := filepath.Join(cwd, Name); isDir(local) {
		return Resolution{Dir: local, Source: SourceLocal}, nil
	}

	home, err := m.homeDir()
	if err != nil {
		return Resolution{}, fmt.Errorf("getting home directory: %w", err)
	}
	return Resolution{Dir: filepath.Join(home, Name), Source: SourceHome}, nil
}

// Target resolves the directory and creates it when missing.
func (m *Manager) Target(override string) (string, error) {
	res, err := m.TargetResolution(override)
	return res.Dir, err
}

// TargetResolution is Target that also reports which rule matched.
func (m *Manager) TargetResolution(override string) (Resolution, error) {
	res, err := m.Resolve(override)
	if err != nil {
		return Resolution{}, err
	}
	if err := os.MkdirAll(res.Dir, 0o755); err != nil {
		return Resolution{}, fmt.Errorf("creating ambient directory %s: %w", res.Dir, err)
	}
	return res, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
