package tracker

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"vaultmig/internal/logging"
	"vaultmig/internal/pipeline"
)

// Tracker collects per-item outcomes during a run.
type Tracker struct {
	logger *slog.Logger

	mu        sync.Mutex
	failed    []pipeline.FailedItem
	tests     []pipeline.TestItem
	notifies  []pipeline.NotifyItem
	succeeded int
}

// New constructs an empty tracker.
func New(logger *slog.Logger) *Tracker {
	return &Tracker{logger: logging.NewComponentLogger(logger, "tracker")}
}

// AddFailed records one failed item.
func (t *Tracker) AddFailed(item pipeline.FailedItem) {
	if item.At.IsZero() {
		item.At = time.Now().UTC()
	}

	t.mu.Lock()
	t.failed = append(t.failed, item)
	t.mu.Unlock()

	t.logger.Debug("tracked failed item",
		logging.String(logging.FieldArchiveID, item.ArchiveID),
		logging.String(logging.FieldCategory, item.Category.String()))
}

// AddTest records one test-recording detection.
func (t *Tracker) AddTest(item pipeline.TestItem) {
	t.mu.Lock()
	t.tests = append(t.tests, item)
	t.mu.Unlock()

	t.logger.Debug("tracked test item",
		logging.String(logging.FieldArchiveID, item.ArchiveID),
		logging.String("keyword", item.Keyword))
}

// AddNotify flags one recording for manual review.
func (t *Tracker) AddNotify(item pipeline.NotifyItem) {
	t.mu.Lock()
	t.notifies = append(t.notifies, item)
	t.mu.Unlock()

	t.logger.Debug("tracked notify item",
		logging.String(logging.FieldArchiveID, item.Recording.ArchiveID),
		logging.String("reason", item.Reason))
}

// IncrementSucceeded advances the run progress counter.
func (t *Tracker) IncrementSucceeded() {
	t.mu.Lock()
	t.succeeded++
	t.mu.Unlock()
}

// Failed returns a copy of the failed items.
func (t *Tracker) Failed() []pipeline.FailedItem {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]pipeline.FailedItem, len(t.failed))
	copy(out, t.failed)
	return out
}

// Tests returns a copy of the test items.
func (t *Tracker) Tests() []pipeline.TestItem {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]pipeline.TestItem, len(t.tests))
	copy(out, t.tests)
	return out
}

// Notifies returns a copy of the notify items.
func (t *Tracker) Notifies() []pipeline.NotifyItem {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]pipeline.NotifyItem, len(t.notifies))
	copy(out, t.notifies)
	return out
}

// Summary aggregates run outcomes for reporting.
type Summary struct {
	Succeeded           int
	Failed              int
	Tests               int
	Notifies            int
	FailuresByCategory  map[pipeline.Category]int
	FailureCategoryKeys []pipeline.Category
}

// Summarize computes the roll-up counts of the run so far.
func (t *Tracker) Summarize() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	byCategory := make(map[pipeline.Category]int)
	for _, item := range t.failed {
		byCategory[item.Category]++
	}

	keys := make([]pipeline.Category, 0, len(byCategory))
	for category := range byCategory {
		keys = append(keys, category)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return Summary{
		Succeeded:           t.succeeded,
		Failed:              len(t.failed),
		Tests:               len(t.tests),
		Notifies:            len(t.notifies),
		FailuresByCategory:  byCategory,
		FailureCategoryKeys: keys,
	}
}
