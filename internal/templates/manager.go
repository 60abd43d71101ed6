// Package templates provides a template manager with change-driven reload.
package templates

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Manager handles template loading and caching. Templates are parsed
// lazily and cached; a filesystem watcher drops the cache whenever a
// template file changes, so edits show up without a restart and steady
// state never re-reads from disk.
type Manager struct {
	dir     string
	cache   map[string]*template.Template
	mu      sync.RWMutex
	funcMap template.FuncMap
	watcher *fsnotify.Watcher
}

// NewManager creates a template manager rooted at dir
func NewManager(dir string) (*Manager, error) {
	cleanDir := filepath.Clean(dir)
	if _, err := os.Stat(cleanDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("template directory does not exist: %s", cleanDir)
	}

	m := &Manager{
		dir:   cleanDir,
		cache: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			"formatDate": formatDate,
			"safeHTML":   safeHTML,
			"seq":        seq,
		},
	}

	if err := m.startWatcher(); err != nil {
		return nil, err
	}

	return m, nil
}

// startWatcher watches every template subdirectory and invalidates the
// cache on any change
func (m *Manager) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create template watcher: %w", err)
	}
	m.watcher = watcher

	err = filepath.Walk(m.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch template directory: %w", err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					m.mu.Lock()
					m.cache = make(map[string]*template.Template)
					m.mu.Unlock()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}

// Close stops the filesystem watcher
func (m *Manager) Close() error {
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}

// Render renders a template with the given data
func (m *Manager) Render(w io.Writer, name string, data interface{}) error {
	m.mu.RLock()
	tmpl, ok := m.cache[name]
	m.mu.RUnlock()

	if !ok {
		var err error
		tmpl, err = m.load(name)
		if err != nil {
			return err
		}
	}

	return tmpl.ExecuteTemplate(w, "base", data)
}

// load parses the layout plus one page template and caches the result
func (m *Manager) load(name string) (*template.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tmpl, ok := m.cache[name]; ok {
		return tmpl, nil
	}

	cleanName := filepath.Clean(name)
	pagePath := filepath.Join(m.dir, cleanName)
	if !isSubPath(m.dir, pagePath) {
		return nil, fmt.Errorf("invalid template path: %s", name)
	}

	layoutContent, err := os.ReadFile(filepath.Join(m.dir, "layouts", "base.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}

	pageContent, err := os.ReadFile(pagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	tmpl := template.New("base").Funcs(m.funcMap)
	if _, err := tmpl.Parse(string(layoutContent)); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	if _, err := tmpl.Parse(string(pageContent)); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	m.cache[name] = tmpl
	return tmpl, nil
}

// isSubPath checks if child is a subpath of parent
func isSubPath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return !filepath.IsAbs(rel) && rel != ".." && len(rel) > 0 && rel[0] != '.'
}

// Template helper functions

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

func safeHTML(s string) template.HTML {
	return template.HTML(s)
}

// seq returns 0..n-1 for range loops in templates
func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
