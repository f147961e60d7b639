// Package roster provides the file-backed entity roster: the
// authoritative id-to-name mapping the engine resolves submissions
// against. The roster is persisted independently of engine state and the
// engine only ever sees it through the read-only lookup port.
package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/gridrival/podium/internal/ports"
)

var (
	// Compile-time verification of the roster ports.
	_ ports.EntityRoster    = (*FileRoster)(nil)
	_ ports.RosterSuggester = (*FileRoster)(nil)

	// foldCaser is a package-level Unicode case folder so name lookups
	// are case-insensitive without allocating a caser per call.
	foldCaser = cases.Fold()

	validate = validator.New()
)

// suggestionThreshold is the minimum similarity (1 - distance/maxLen) for
// a roster name to be offered as a suggestion.
const suggestionThreshold = 0.4

// Entry is one roster item: an immutable id/name pair, unique by id.
type Entry struct {
	ID   int    `yaml:"id" validate:"required,min=1"`
	Name string `yaml:"name" validate:"required,min=1,max=100"`
}

// rosterFile is the on-disk YAML shape.
type rosterFile struct {
	Entities []Entry `yaml:"entities" validate:"dive"`
}

// FileRoster is a YAML-file-backed roster with optional hot reload. All
// methods are safe for concurrent use; lookups take a shared lock.
type FileRoster struct {
	mu     sync.RWMutex
	byID   map[int]string
	byFold map[string]int

	path   string
	logger *zap.Logger

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// RosterOption configures optional FileRoster collaborators.
type RosterOption func(*FileRoster)

// WithLogger sets the structured logger. The default discards all output.
func WithLogger(logger *zap.Logger) RosterOption {
	return func(r *FileRoster) { r.logger = logger }
}

// NewFileRoster loads the roster from path. A missing file is created
// empty, matching first-run behavior on a fresh host.
func NewFileRoster(path string, opts ...RosterOption) (*FileRoster, error) {
	if path == "" {
		return nil, fmt.Errorf("roster path must not be empty")
	}

	r := &FileRoster{
		path:   path,
		byID:   make(map[int]string),
		byFold: make(map[string]int),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := r.save(nil); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve maps an entity id to its canonical name.
func (r *FileRoster) Resolve(id int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byID[id]
	return name, ok
}

// ResolveName maps a name (case-insensitively) back to its entity id.
func (r *FileRoster) ResolveName(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byFold[foldCaser.String(strings.TrimSpace(name))]
	return id, ok
}

// SuggestName returns up to n roster names closest to the given name by
// Levenshtein distance, best match first. Names below the similarity
// threshold are not offered.
func (r *FileRoster) SuggestName(name string, n int) []string {
	if n <= 0 {
		return nil
	}
	needle := foldCaser.String(strings.TrimSpace(name))

	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		name string
		sim  float64
	}
	candidates := make([]scored, 0, len(r.byID))
	for _, candidate := range r.byID {
		folded := foldCaser.String(candidate)
		maxLen := max(len(needle), len(folded))
		if maxLen == 0 {
			continue
		}
		dist := levenshtein.ComputeDistance(needle, folded)
		sim := 1.0 - float64(dist)/float64(maxLen)
		if sim >= suggestionThreshold {
			candidates = append(candidates, scored{candidate, sim})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].sim != candidates[j].sim {
			return candidates[i].sim > candidates[j].sim
		}
		return candidates[i].name < candidates[j].name
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.name
	}
	return names
}

// All returns every roster entry sorted by id.
func (r *FileRoster) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.byID))
	for id, name := range r.byID {
		entries = append(entries, Entry{ID: id, Name: name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Add inserts or replaces the entry for id and persists the roster. The
// file is written first and the indexes updated only on success, so a
// failed save leaves memory and disk in agreement.
func (r *FileRoster) Add(id int, name string) error {
	entry := Entry{ID: id, Name: strings.TrimSpace(name)}
	if err := validate.Struct(entry); err != nil {
		return fmt.Errorf("roster entry validation failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]Entry, 0, len(r.byID)+1)
	for eid, ename := range r.byID {
		if eid == id {
			continue
		}
		entries = append(entries, Entry{ID: eid, Name: ename})
	}
	entries = append(entries, entry)
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	if err := r.save(entries); err != nil {
		return err
	}
	if prev, ok := r.byID[id]; ok {
		delete(r.byFold, foldCaser.String(prev))
	}
	r.byID[id] = entry.Name
	r.byFold[foldCaser.String(entry.Name)] = id
	return nil
}

// Remove deletes the entry for id and persists the roster. Removing an
// unknown id reports ok=false without touching the file; a failed save
// leaves the in-memory roster unchanged.
func (r *FileRoster) Remove(id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byID[id]
	if !ok {
		return false, nil
	}

	entries := make([]Entry, 0, len(r.byID)-1)
	for eid, ename := range r.byID {
		if eid == id {
			continue
		}
		entries = append(entries, Entry{ID: eid, Name: ename})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	if err := r.save(entries); err != nil {
		return false, err
	}
	delete(r.byID, id)
	delete(r.byFold, foldCaser.String(name))
	return true, nil
}

// Len returns the number of roster entries.
func (r *FileRoster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Watch starts reloading the roster whenever its file changes on disk,
// debouncing rapid successive writes. Stop releases the watcher.
func (r *FileRoster) Watch() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create roster watcher: %w", err)
	}
	// Watch the directory, not the file: atomic saves replace the inode.
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch roster directory: %w", err)
	}

	r.watcher = watcher
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	go r.watchLoop(watcher, r.stopCh, r.doneCh)
	return nil
}

// Stop halts the watcher started by Watch.
func (r *FileRoster) Stop() {
	r.mu.Lock()
	watcher, stopCh, doneCh := r.watcher, r.stopCh, r.doneCh
	r.watcher = nil
	r.mu.Unlock()

	if watcher == nil {
		return
	}
	close(stopCh)
	<-doneCh
	watcher.Close()
}

func (r *FileRoster) watchLoop(watcher *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(r.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerCh = timer.C
		case <-timerCh:
			timerCh = nil
			if err := r.reload(); err != nil {
				r.logger.Warn("roster reload failed", zap.Error(err))
				continue
			}
			r.logger.Info("roster reloaded", zap.Int("entries", r.Len()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Warn("roster watcher error", zap.Error(err))
		}
	}
}

// reload re-reads the roster file and swaps the indexes in one step.
func (r *FileRoster) reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return ports.NewRosterError(r.path, err)
	}

	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ports.NewRosterError(r.path, err)
	}
	if err := validate.Struct(file); err != nil {
		return ports.NewRosterError(r.path, err)
	}

	byID := make(map[int]string, len(file.Entities))
	byFold := make(map[string]int, len(file.Entities))
	for _, e := range file.Entities {
		if _, dup := byID[e.ID]; dup {
			return ports.NewRosterError(r.path, fmt.Errorf("duplicate entity id %d", e.ID))
		}
		folded := foldCaser.String(e.Name)
		if _, dup := byFold[folded]; dup {
			return ports.NewRosterError(r.path, fmt.Errorf("duplicate entity name %q", e.Name))
		}
		byID[e.ID] = e.Name
		byFold[folded] = e.ID
	}

	r.mu.Lock()
	r.byID = byID
	r.byFold = byFold
	r.mu.Unlock()
	return nil
}

// save writes the roster atomically via temp file and rename.
func (r *FileRoster) save(entries []Entry) error {
	data, err := yaml.Marshal(rosterFile{Entities: entries})
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write roster temp file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace roster file %s: %w", r.path, err)
	}
	return nil
}
