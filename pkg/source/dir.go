package source

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vigil-dev/vigil"
)

// DirOption configures a Dir source.
type DirOption func(*Dir)

// WithLogger sets the logger for load and watch diagnostics.
func WithLogger(logger *slog.Logger) DirOption {
	return func(d *Dir) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDebounce sets how long to wait after a filesystem event before
// reloading, coalescing editor write bursts into one batch.
func WithDebounce(delay time.Duration) DirOption {
	return func(d *Dir) {
		if delay > 0 {
			d.debounce = delay
		}
	}
}

// Dir is a Memory source fed from a directory of JSON files. Every
// <type>.json file holds an array of objects and becomes one record
// type. Edits to a file reload it: records are matched to existing
// items by their "id" field so field edits report as updates rather
// than remove-plus-add, and each reload lands as a single batch
// followed by a scheduler pulse.
type Dir struct {
	*Memory

	dir      string
	logger   *slog.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	items   map[string]map[string]*Item
	pending map[string]struct{}
	timer   *time.Timer
	closed  bool
	done    chan struct{}
}

// OpenDir loads every *.json file in dir and starts watching for
// changes. Close must be called to release the watcher.
func OpenDir(dir string, opts ...DirOption) (*Dir, error) {
	d := &Dir{
		Memory:   NewMemory(),
		dir:      dir,
		logger:   slog.Default(),
		debounce: 100 * time.Millisecond,
		items:    make(map[string]map[string]*Item),
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("source: read dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := d.loadFile(filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("source: watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("source: watch %s: %w", dir, err)
	}
	d.watcher = w
	go d.run()
	return d, nil
}

// Close stops watching. Loaded records stay readable.
func (d *Dir) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.done)
	d.mu.Unlock()
	return d.watcher.Close()
}

// run consumes filesystem events until Close.
func (d *Dir) run() {
	for {
		select {
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(ev.Name) != ".json" {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			d.schedule(ev.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.logger.Error("source: watch error", "dir", d.dir, "error", err)

		case <-d.done:
			return
		}
	}
}

// schedule queues a file for reload once the debounce window closes.
func (d *Dir) schedule(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, d.reloadPending)
}

// reloadPending reloads every queued file inside one flush, so
// observers see a single net diff for the whole burst.
func (d *Dir) reloadPending() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()
	sort.Strings(paths)

	d.Flush(func() {
		for _, path := range paths {
			if _, err := os.Stat(path); err != nil {
				d.dropFile(path)
				continue
			}
			if err := d.loadFile(path); err != nil {
				d.logger.Error("source: reload failed", "file", path, "error", err)
			}
		}
	})
}

// loadFile parses one <type>.json file into the memory source,
// preserving item identity across reloads via the "id" field.
func (d *Dir) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("source: read %s: %w", path, err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("source: parse %s: %w", path, err)
	}

	typeName := strings.TrimSuffix(filepath.Base(path), ".json")
	mt := d.DefineType(typeName, columnsFor(rows))

	d.mu.Lock()
	known := d.items[typeName]
	if known == nil {
		known = make(map[string]*Item)
		d.items[typeName] = known
	}

	next := make([]*Item, 0, len(rows))
	nextKnown := make(map[string]*Item, len(rows))
	for i, row := range rows {
		id := rowID(row, i)
		if it, ok := known[id]; ok {
			it.SetFields(row)
			nextKnown[id] = it
			next = append(next, it)
			continue
		}
		it := NewItem(row)
		nextKnown[id] = it
		next = append(next, it)
	}
	d.items[typeName] = nextKnown
	d.mu.Unlock()

	mt.Replace(next)
	d.logger.Debug("source: loaded", "type", typeName, "records", len(next))
	return nil
}

// dropFile empties the collection for a deleted file.
func (d *Dir) dropFile(path string) {
	typeName := strings.TrimSuffix(filepath.Base(path), ".json")
	mt, ok := d.Type(typeName)
	if !ok {
		return
	}
	d.mu.Lock()
	delete(d.items, typeName)
	d.mu.Unlock()
	mt.Replace(nil)
	d.logger.Debug("source: dropped", "type", typeName)
}

// columnsFor derives a stable column schema from the union of row
// keys.
func columnsFor(rows []map[string]any) []vigil.ColumnSpec {
	keys := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			keys[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	cols := make([]vigil.ColumnSpec, len(names))
	for i, name := range names {
		cols[i] = vigil.ColumnSpec{Name: name, Desc: name}
	}
	return cols
}

// rowID returns the identity key for a row: its "id" field when
// present, else its position.
func rowID(row map[string]any, index int) string {
	if v, ok := row["id"]; ok {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("#%d", index)
}
