// Package prefs persists local UI preferences and owns the dashboard's UI
// context (theme and badge counts).
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v2"

	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

// Themes lists the theme names the dashboard can render, in cycle order.
var Themes = []string{"dark", "light", "matrix"}

// DefaultTheme is used when nothing has been saved.
const DefaultTheme = "dark"

// Preferences is the on-disk document.
type Preferences struct {
	Theme string `yaml:"theme"`
}

// Defaults returns the preferences used before anything is saved.
func Defaults() Preferences {
	return Preferences{Theme: DefaultTheme}
}

// ValidTheme reports whether name is a known theme.
func ValidTheme(name string) bool {
	return slices.Contains(Themes, name)
}

// DefaultPath returns the preferences file under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "arbdash", "preferences.yaml"), nil
}

// Store reads and writes the preferences file.
type Store struct {
	path string
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the file. A missing file yields defaults. An unknown theme in the
// file is replaced by the default rather than failing startup.
func (s *Store) Load() (Preferences, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), apperror.Internal(apperror.CodePreferencesIOFailed,
			fmt.Sprintf("read %s", s.path), err)
	}

	p := Defaults()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Defaults(), apperror.Internal(apperror.CodePreferencesIOFailed,
			fmt.Sprintf("parse %s", s.path), err)
	}

	if !ValidTheme(p.Theme) {
		p.Theme = DefaultTheme
	}
	return p, nil
}

// Save validates p and writes it atomically.
func (s *Store) Save(p Preferences) error {
	if !ValidTheme(p.Theme) {
		return apperror.Validation(apperror.CodeInvalidTheme, fmt.Sprintf("unknown theme %q", p.Theme))
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return apperror.Internal(apperror.CodePreferencesIOFailed, "encode preferences", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperror.Internal(apperror.CodePreferencesIOFailed, "create preferences dir", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return apperror.Internal(apperror.CodePreferencesIOFailed, fmt.Sprintf("write %s", tmp), err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return apperror.Internal(apperror.CodePreferencesIOFailed, fmt.Sprintf("replace %s", s.path), err)
	}
	return nil
}
