package lookup

import (
	"fmt"
	"strings"
	"time"

	"github.com/sevlook/sevlook/internal/sevco"
)

// SourceStatus is the derived per-source display row: the union of
// sources that observed a device and those that did not. Computed, never
// stored.
type SourceStatus struct {
	SourceID string `json:"source_id"`
	Name     string `json:"name"`
	Observed bool   `json:"observed"`
	Status   string `json:"status"`
}

// Aggregate stamps every device in a batch with the same full source
// list. It is pure and idempotent; running it twice on the same inputs
// yields the same records.
func Aggregate(devices []sevco.DeviceRecord, allSources []string) []sevco.DeviceRecord {
	out := make([]sevco.DeviceRecord, len(devices))
	for i, device := range devices {
		device.AllSources = allSources
		out[i] = device
	}
	return out
}

// DeriveSourceStatuses computes the unified source-status list for one
// device: observed sources first in their original order, then any
// remaining source from the stamped full list, tagged as unobserved.
func DeriveSourceStatuses(device sevco.DeviceRecord) []SourceStatus {
	statuses := make([]SourceStatus, 0, len(device.Sources)+len(device.AllSources))
	observed := make(map[string]bool, len(device.Sources))

	for _, src := range device.Sources {
		status := "Unknown"
		if !src.LastActivityTimestamp.IsZero() {
			status = "Last activity " + FormatTimeAgo(src.LastActivityTimestamp)
		}
		observed[src.Source] = true
		statuses = append(statuses, SourceStatus{
			SourceID: src.Source,
			Name:     FormatSourceName(src.Source),
			Observed: true,
			Status:   status,
		})
	}

	for _, sourceID := range device.AllSources {
		if observed[sourceID] {
			continue
		}
		statuses = append(statuses, SourceStatus{
			SourceID: sourceID,
			Name:     FormatSourceName(sourceID),
			Observed: false,
			Status:   "Not observed",
		})
	}

	return statuses
}

// FormatSourceName turns a hyphen-delimited source id into a display
// name: crowd-strike becomes Crowd Strike.
func FormatSourceName(sourceID string) string {
	if sourceID == "" {
		return "Unknown"
	}
	words := strings.Split(sourceID, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// VulnerabilitySummary is the pass-through exposure summary for one
// device: count and the raw references, no deduplication or sorting.
func VulnerabilitySummary(device sevco.DeviceRecord) (int, []sevco.VulnRef) {
	return len(device.ExpVulns), device.ExpVulns
}

// FormatTimeAgo renders a coarse relative duration since a timestamp.
func FormatTimeAgo(t time.Time) string {
	return formatTimeAgoAt(t, time.Now())
}

func formatTimeAgoAt(t, now time.Time) string {
	diff := now.Sub(t)
	seconds := int(diff.Seconds())
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	months := days / 30
	years := days / 365

	switch {
	case years > 0:
		return plural(years, "year")
	case months > 0:
		return plural(months, "month")
	case days > 0:
		return plural(days, "day")
	case hours > 0:
		return plural(hours, "hour")
	case minutes > 0:
		return plural(minutes, "minute")
	default:
		if seconds < 0 {
			seconds = 0
		}
		return plural(seconds, "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
