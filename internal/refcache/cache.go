package refcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"vaultmig/internal/logging"
)

// CaseState mirrors the case-management platform's lifecycle states.
type CaseState string

const (
	CaseStateOpen           CaseState = "OPEN"
	CaseStatePendingClosure CaseState = "PENDING_CLOSURE"
	CaseStateClosed         CaseState = "CLOSED"
)

// CachedCase is one known case keyed by its reference.
type CachedCase struct {
	CaseReference  string    `json:"case_reference"`
	CourtReference string    `json:"court_reference,omitempty"`
	State          CaseState `json:"state"`
	CachedAt       time.Time `json:"cached_at"`
}

// IsOpen reports whether new bookings may still be attached to the case.
func (c CachedCase) IsOpen() bool {
	return c.State == CaseStateOpen
}

type snapshot struct {
	Cases    []CachedCase   `json:"cases"`
	Versions map[string]int `json:"versions"`
	Migrated []string       `json:"migrated"`
}

// Cache provides thread-safe access to the reference data for a run.
// Lookups take a read lock; ingestion and success bookkeeping take the
// write lock; Checkpoint serializes through its own mutex so concurrent
// callers never interleave partial writes.
type Cache struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	cases    map[string]CachedCase
	versions map[string]int
	migrated map[string]struct{}

	checkpointMu sync.Mutex
}

// Open creates a cache backed by the given snapshot path, loading any
// previous checkpoint. An empty path yields a purely in-memory cache.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	logger = logging.NewComponentLogger(logger, "refcache")

	c := &Cache{
		path:     path,
		logger:   logger,
		cases:    make(map[string]CachedCase),
		versions: make(map[string]int),
		migrated: make(map[string]struct{}),
	}

	if path == "" {
		return c, nil
	}

	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCase returns the cached case for a reference, if known.
func (c *Cache) GetCase(caseReference string) (CachedCase, bool) {
	key := normalizeReference(caseReference)
	if key == "" {
		return CachedCase{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.cases[key]
	return entry, found
}

// PutCase adds or replaces a case entry.
func (c *Cache) PutCase(entry CachedCase) {
	key := normalizeReference(entry.CaseReference)
	if key == "" {
		c.logger.Warn("ignoring case entry without a reference")
		return
	}
	entry.CaseReference = key
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cases[key] = entry
}

// MergeCases adds every entry, replacing existing references.
func (c *Cache) MergeCases(entries []CachedCase) {
	for _, entry := range entries {
		c.PutCase(entry)
	}
}

// ObserveVersion records a version high-water mark for a case/exhibit group.
func (c *Cache) ObserveVersion(groupKey string, version int) {
	groupKey = strings.TrimSpace(groupKey)
	if groupKey == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if version > c.versions[groupKey] {
		c.versions[groupKey] = version
	}
}

// LatestVersion returns the highest version seen for a group.
func (c *Cache) LatestVersion(groupKey string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	version, ok := c.versions[strings.TrimSpace(groupKey)]
	return version, ok
}

// MarkMigrated records that a case/exhibit/version group has produced a
// migrated item.
func (c *Cache) MarkMigrated(groupKey string) {
	groupKey = strings.TrimSpace(groupKey)
	if groupKey == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.migrated[groupKey] = struct{}{}
}

// IsMigrated reports whether a group already produced a migrated item.
func (c *Cache) IsMigrated(groupKey string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.migrated[strings.TrimSpace(groupKey)]
	return ok
}

// Cases returns all cached cases sorted by reference.
func (c *Cache) Cases() []CachedCase {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]CachedCase, 0, len(c.cases))
	for _, entry := range c.cases {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CaseReference < entries[j].CaseReference
	})
	return entries
}

// Count returns the number of cached cases.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cases)
}

// Clear drops all state and removes the snapshot file.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.cases = make(map[string]CachedCase)
	c.versions = make(map[string]int)
	c.migrated = make(map[string]struct{})
	c.mu.Unlock()

	if c.path == "" {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

// Checkpoint writes the current state to the snapshot path atomically.
// Repeated checkpointing replaces the previous snapshot wholesale; a crash
// mid-write leaves the prior snapshot intact.
func (c *Cache) Checkpoint() error {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	snap := snapshot{
		Cases:    make([]CachedCase, 0, len(c.cases)),
		Versions: make(map[string]int, len(c.versions)),
		Migrated: make([]string, 0, len(c.migrated)),
	}
	for _, entry := range c.cases {
		snap.Cases = append(snap.Cases, entry)
	}
	for key, version := range c.versions {
		snap.Versions[key] = version
	}
	for key := range c.migrated {
		snap.Migrated = append(snap.Migrated, key)
	}
	c.mu.RUnlock()

	sort.Slice(snap.Cases, func(i, j int) bool {
		return snap.Cases[i].CaseReference < snap.Cases[j].CaseReference
	})
	sort.Strings(snap.Migrated)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	c.checkpointMu.Lock()
	defer c.checkpointMu.Unlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename snapshot: %w", err)
	}

	return nil
}

func (c *Cache) load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range snap.Cases {
		key := normalizeReference(entry.CaseReference)
		if key == "" {
			continue
		}
		entry.CaseReference = key
		c.cases[key] = entry
	}
	for key, version := range snap.Versions {
		if strings.TrimSpace(key) != "" {
			c.versions[key] = version
		}
	}
	for _, key := range snap.Migrated {
		if strings.TrimSpace(key) != "" {
			c.migrated[key] = struct{}{}
		}
	}

	c.logger.Debug("loaded reference cache snapshot",
		logging.Int("case_count", len(c.cases)),
		logging.String("path", c.path))

	return nil
}

func normalizeReference(reference string) string {
	return strings.ToUpper(strings.TrimSpace(reference))
}
