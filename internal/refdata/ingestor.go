package refdata

import (
	"log/slog"
	"strings"
	"sync"

	"vaultmig/internal/logging"
)

// SiteRow maps a source site code to the court it records for.
type SiteRow struct {
	SiteReference string
	CourtName     string
	CourtID       string
}

// ChannelRow describes one contact attached to a source channel.
type ChannelRow struct {
	ChannelName      string
	ChannelUser      string
	ChannelUserEmail string
}

// Ingestor accumulates site and channel lookup tables for a run.
type Ingestor struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sites    map[string]SiteRow
	channels map[string][]ChannelRow
}

// NewIngestor constructs an empty ingestor.
func NewIngestor(logger *slog.Logger) *Ingestor {
	return &Ingestor{
		logger:   logging.NewComponentLogger(logger, "refdata"),
		sites:    make(map[string]SiteRow),
		channels: make(map[string][]ChannelRow),
	}
}

// IngestSite merges one site row into the lookup table. Rows without a
// site reference are logged and dropped.
func (i *Ingestor) IngestSite(row SiteRow) {
	key := normalizeKey(row.SiteReference)
	if key == "" {
		i.logger.Warn("dropping site row without a site reference",
			logging.String("court_name", row.CourtName))
		return
	}
	row.SiteReference = key

	i.mu.Lock()
	defer i.mu.Unlock()
	i.sites[key] = row
}

// IngestChannel appends one channel contact row. Rows without a channel
// name are logged and dropped.
func (i *Ingestor) IngestChannel(row ChannelRow) {
	key := normalizeKey(row.ChannelName)
	if key == "" {
		i.logger.Warn("dropping channel row without a channel name",
			logging.String("channel_user", row.ChannelUser))
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.channels[key] = append(i.channels[key], row)
}

// CourtForSite resolves a site code to its court mapping.
func (i *Ingestor) CourtForSite(siteReference string) (SiteRow, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	row, ok := i.sites[normalizeKey(siteReference)]
	return row, ok
}

// ChannelContacts returns the contact rows for a channel name.
func (i *Ingestor) ChannelContacts(channelName string) []ChannelRow {
	i.mu.RLock()
	defer i.mu.RUnlock()

	rows := i.channels[normalizeKey(channelName)]
	out := make([]ChannelRow, len(rows))
	copy(out, rows)
	return out
}

// SiteCount returns the number of ingested site mappings.
func (i *Ingestor) SiteCount() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.sites)
}

// ChannelCount returns the number of distinct ingested channels.
func (i *Ingestor) ChannelCount() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.channels)
}

func normalizeKey(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
