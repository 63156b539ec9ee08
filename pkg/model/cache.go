package model

import (
	"sync"

	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// Cache memoizes compiled models per definition. Each definition compiles at
// most once, and failures are remembered as well.
type Cache struct {
	compiler *Compiler
	namer    func(*widget.Definition) string

	mu      sync.Mutex
	entries map[*widget.Definition]*cacheEntry
}

type cacheEntry struct {
	once  sync.Once
	model *Model
	err   error
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCompiler sets the compiler used on cache misses.
func WithCompiler(compiler *Compiler) CacheOption {
	return func(c *Cache) {
		if compiler != nil {
			c.compiler = compiler
		}
	}
}

// WithModelNamer overrides how a definition's model name is derived.
func WithModelNamer(namer func(*widget.Definition) string) CacheOption {
	return func(c *Cache) {
		if namer != nil {
			c.namer = namer
		}
	}
}

// NewCache constructs an empty cache. Models are named with widget.ModelName
// unless WithModelNamer says otherwise.
func NewCache(options ...CacheOption) *Cache {
	c := &Cache{
		compiler: NewCompiler(),
		namer: func(def *widget.Definition) string {
			return widget.ModelName(def.Name())
		},
		entries: make(map[*widget.Definition]*cacheEntry),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the model for def, compiling it on first use.
func (c *Cache) Get(def *widget.Definition) (*Model, error) {
	if def == nil {
		return nil, &widget.SchemaError{Reason: "definition is nil"}
	}

	c.mu.Lock()
	entry, ok := c.entries[def]
	if !ok {
		entry = &cacheEntry{}
		c.entries[def] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.model, entry.err = c.compiler.Compile(def.Schema(), c.namer(def))
	})
	return entry.model, entry.err
}

// Len reports how many definitions have been requested.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
