package prefs

import (
	"fmt"
	"slices"
	"sync"

	"github.com/fd1az/arbitrage-dashboard/internal/apperror"
)

// Context is the UI-wide state shared by pages: the selected theme, which is
// persisted, and badge counts, which are not. It is created once by the
// entrypoint and handed to the UI explicitly.
type Context struct {
	store *Store

	mu     sync.RWMutex
	theme  string
	badges map[string]int
	loaded bool
}

// NewContext creates a context backed by store. Call Load before use.
func NewContext(store *Store) *Context {
	return &Context{
		store:  store,
		theme:  DefaultTheme,
		badges: make(map[string]int),
	}
}

// Load reads persisted preferences. On error the defaults stay in place and
// the error is returned so the caller can log it.
func (c *Context) Load() error {
	p, err := c.store.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.theme = p.Theme
	c.loaded = true
	return err
}

// Loaded reports whether Load has run.
func (c *Context) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Theme returns the current theme name.
func (c *Context) Theme() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.theme
}

// SetTheme validates, persists and applies name. The in-memory theme only
// changes if persisting succeeded.
func (c *Context) SetTheme(name string) error {
	if !ValidTheme(name) {
		return apperror.Validation(apperror.CodeInvalidTheme, fmt.Sprintf("unknown theme %q", name))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if name == c.theme && c.loaded {
		return nil
	}
	if err := c.store.Save(Preferences{Theme: name}); err != nil {
		return err
	}
	c.theme = name
	return nil
}

// CycleTheme switches to the next theme in Themes and persists it.
func (c *Context) CycleTheme() (string, error) {
	current := c.Theme()
	i := slices.Index(Themes, current)
	next := Themes[(i+1)%len(Themes)]

	if err := c.SetTheme(next); err != nil {
		return current, err
	}
	return next, nil
}

// SetBadge sets the badge count for a page. Counts are not persisted.
func (c *Context) SetBadge(name string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 {
		delete(c.badges, name)
		return
	}
	c.badges[name] = n
}

// Badge returns the badge count for a page.
func (c *Context) Badge(name string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.badges[name]
}
