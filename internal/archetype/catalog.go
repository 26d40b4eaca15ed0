package archetype

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formtree/pkg/model"
	"github.com/goliatone/go-formtree/pkg/transport"
)

const defaultDebounce = 200 * time.Millisecond

// Entry is one indexed archetype.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"-"`
}

// Catalog indexes the archetypes below a directory and serves their forms.
type Catalog struct {
	root     string
	logger   zerolog.Logger
	debounce time.Duration
	onScan   func([]Entry)

	mu      sync.RWMutex
	entries []Entry
	byID    map[string]Entry
}

var _ transport.SchemaFetcher = (*Catalog)(nil)

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithLogger sets the logger used for skipped files and rescans.
func WithLogger(logger zerolog.Logger) CatalogOption {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// WithDebounce sets how long Watch waits for a burst of file events to settle
// before rescanning.
func WithDebounce(d time.Duration) CatalogOption {
	return func(c *Catalog) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithScanHook registers fn to run after every completed scan.
func WithScanHook(fn func([]Entry)) CatalogOption {
	return func(c *Catalog) {
		c.onScan = fn
	}
}

// NewCatalog scans root and returns the populated catalog.
func NewCatalog(root string, options ...CatalogOption) (*Catalog, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("archetype: catalog root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archetype: catalog root %s is not a directory", root)
	}
	c := &Catalog{
		root:     root,
		logger:   zerolog.Nop(),
		debounce: defaultDebounce,
		byID:     map[string]Entry{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if err := c.Scan(); err != nil {
		return nil, err
	}
	return c, nil
}

// Scan rebuilds the index from disk. Files that fail to parse are skipped.
func (c *Catalog) Scan() error {
	var entries []Entry
	byID := make(map[string]Entry)
	seen := 0

	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil
		}
		seen++
		data, err := os.ReadFile(path)
		if err != nil {
			c.logger.Warn().Err(err).Str("file", path).Msg("skipping unreadable archetype")
			return nil
		}
		h, err := ParseHeader(data)
		if err != nil {
			c.logger.Warn().Err(err).Str("file", path).Msg("skipping archetype without header")
			return nil
		}
		entry := Entry{ID: h.ID, Name: h.Name, Path: path}
		if prev, dup := byID[h.ID]; dup {
			c.logger.Warn().Str("id", h.ID).Str("kept", prev.Path).Str("skipped", path).Msg("duplicate archetype id")
			return nil
		}
		byID[h.ID] = entry
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("archetype: scan %s: %w", c.root, err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ID < entries[j].ID
	})

	c.mu.Lock()
	c.entries = entries
	c.byID = byID
	c.mu.Unlock()

	c.logger.Info().Int("indexed", len(entries)).Int("files", seen).Msg("archetype catalog built")
	if c.onScan != nil {
		c.onScan(c.List())
	}
	return nil
}

// List returns the indexed archetypes sorted by display name.
func (c *Catalog) List() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.entries...)
}

// Lookup returns the entry for id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.byID[id]
	return entry, ok
}

// FetchSchema implements transport.SchemaFetcher. Unknown ids and archetypes
// without parsable fields report transport.ErrNotFound.
func (c *Catalog) FetchSchema(ctx context.Context, id string) (model.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, ok := c.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: archetype %q", transport.ErrNotFound, id)
	}
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("archetype: read %s: %w", entry.Path, err)
	}
	schema, err := Parse(data, entry.Path)
	if errors.Is(err, ErrNoFields) {
		return nil, fmt.Errorf("%w: %w", transport.ErrNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	return schema, nil
}

// Watch rescans the catalog whenever an XML file below root changes. It
// returns once the watcher is running; watching stops when ctx is done.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("archetype: create watcher: %w", err)
	}
	err = filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return fmt.Errorf("archetype: watch %s: %w", c.root, err)
	}

	go c.watchLoop(ctx, watcher)
	c.logger.Info().Str("root", c.root).Msg("watching archetype directory")
	return nil
}

func (c *Catalog) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						c.logger.Error().Err(err).Str("dir", event.Name).Msg("watch new directory")
					}
					timer.Reset(c.debounce)
					continue
				}
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".xml") {
				continue
			}
			c.logger.Debug().Str("event", event.Op.String()).Str("file", event.Name).Msg("archetype file changed")
			timer.Reset(c.debounce)

		case <-timer.C:
			if err := c.Scan(); err != nil {
				c.logger.Error().Err(err).Msg("archetype rescan failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Error().Err(err).Msg("archetype watcher error")

		case <-ctx.Done():
			return
		}
	}
}
