package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sul-dlss/workflow"
)

// Loader reads workflow templates from a directory, one <name>.xml file
// per workflow, and caches parsed templates for the process lifetime.
// There is no TTL or invalidation: a deploy restart is required to pick
// up template changes. Safe for concurrent use.
type Loader struct {
	dir      string
	excluded map[string]bool

	cache *gocache.Cache

	// loadMu serializes cache misses so a template is parsed once even
	// under concurrent first loads.
	loadMu sync.Mutex
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithExcluded hides the named workflows from List. Load and Exists still
// resolve them; exclusion is a reporting filter, not an access control.
func WithExcluded(names ...string) LoaderOption {
	return func(l *Loader) {
		for _, n := range names {
			l.excluded[n] = true
		}
	}
}

// NewLoader creates a Loader reading templates from dir.
func NewLoader(dir string, opts ...LoaderOption) *Loader {
	l := &Loader{
		dir:      dir,
		excluded: make(map[string]bool),
		cache:    gocache.New(gocache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the parsed template for the named workflow, reading and
// caching it on first use. Returns workflow.ErrTemplateNotFound if no
// template file exists, or a parse error for malformed content.
func (l *Loader) Load(name string) (*Template, error) {
	if cached, ok := l.cache.Get(name); ok {
		return cached.(*Template), nil
	}

	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	// Re-check under the lock; another goroutine may have won the miss.
	if cached, ok := l.cache.Get(name); ok {
		return cached.(*Template), nil
	}

	data, err := os.ReadFile(l.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("workflow/template: load %q: %w", name, workflow.ErrTemplateNotFound)
		}
		return nil, fmt.Errorf("workflow/template: load %q: %w", name, err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if t.Name != name {
		return nil, fmt.Errorf("workflow/template: load %q: document declares id %q: %w",
			name, t.Name, workflow.ErrMalformedTemplate)
	}

	l.cache.Set(name, t, gocache.NoExpiration)
	return t, nil
}

// Exists reports whether a template file for the named workflow exists.
func (l *Loader) Exists(name string) bool {
	if _, ok := l.cache.Get(name); ok {
		return true
	}
	_, err := os.Stat(l.path(name))
	return err == nil
}

// List returns the names of all templates in the directory, minus the
// configured exclusions, sorted.
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("workflow/template: list: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".xml") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".xml")
		if l.excluded[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (l *Loader) path(name string) string {
	return filepath.Join(l.dir, name+".xml")
}
