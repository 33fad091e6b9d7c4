package models

import (
	"time"

	"github.com/sevlook/sevlook/internal/sevco"
)

// StaleThreshold is the advisory age after which a cached lookup is
// flagged as stale on the read path. Staleness never gates display.
const StaleThreshold = 5 * time.Minute

// LookupResult is the single-slot handoff record bridging the trigger
// surface and the display surface. Exactly one of Devices or Error is
// populated. The slot is overwritten on every lookup and never
// explicitly deleted.
type LookupResult struct {
	LookupID   uint64               `json:"lookup_id"`
	SearchTerm string               `json:"search_term"`
	SearchType sevco.SearchKind     `json:"search_type"`
	Devices    []sevco.DeviceRecord `json:"devices,omitempty"`
	Error      string               `json:"error,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}

// Stale reports whether the result is older than the advisory threshold.
func (r *LookupResult) Stale(now time.Time) bool {
	return now.Sub(r.Timestamp) > StaleThreshold
}

// LookupResponse is the read-path envelope for the last lookup,
// carrying the advisory stale flag and console deep links per device.
type LookupResponse struct {
	Result      LookupResult      `json:"result"`
	Stale       bool              `json:"stale"`
	ConsoleURLs map[string]string `json:"console_urls,omitempty"`
}
