package sevco

import (
	"context"
	"time"
)

// searchLimit is the fixed result cap per lookup. The API is paginated
// but a lookup never walks past the first page.
const searchLimit = 50

// SourceObservation is one source that actually observed a device.
type SourceObservation struct {
	Source                string    `json:"source"`
	LastActivityTimestamp time.Time `json:"last_activity_timestamp"`
}

// VulnRef is a minimal vulnerability reference attached to a device,
// enriched on demand via LookupVulnerability.
type VulnRef struct {
	ID string `json:"id"`
}

// GeoIP holds the coarse location attributes of a device.
type GeoIP struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// DeviceAttributes is the nested attribute object of a raw device item.
// It is embedded into DeviceRecord so the attributes flatten to the top
// level of the record handed to the presentation layer.
type DeviceAttributes struct {
	Hostname            string   `json:"hostname,omitempty"`
	IPs                 []string `json:"ips,omitempty"`
	OS                  string   `json:"os,omitempty"`
	OSVersion           string   `json:"os_version,omitempty"`
	GeoIP               *GeoIP   `json:"geo_ip,omitempty"`
	AssociatedUsernames []string `json:"associated_usernames,omitempty"`
}

// DeviceRecord is a self-contained device ready for display. AllSources
// is injected post-hoc by the result aggregator and is not part of the
// raw API shape; every device in one lookup batch shares the same value.
type DeviceRecord struct {
	ID string `json:"id"`
	DeviceAttributes
	Sources               []SourceObservation `json:"sources,omitempty"`
	SourceIDs             []string            `json:"source_ids,omitempty"`
	LastActivityTimestamp time.Time           `json:"last_activity_timestamp"`
	LastObservedTimestamp time.Time           `json:"last_observed_timestamp"`
	ExpVulns              []VulnRef           `json:"exp_vulns,omitempty"`
	AllSources            []string            `json:"all_sources,omitempty"`
}

// deviceItem is the raw wire shape of one search result item.
type deviceItem struct {
	ID                    string              `json:"id"`
	Attributes            DeviceAttributes    `json:"attributes"`
	Sources               []SourceObservation `json:"sources"`
	SourceIDs             []string            `json:"source_ids"`
	LastActivityTimestamp time.Time           `json:"last_activity_timestamp"`
	LastObservedTimestamp time.Time           `json:"last_observed_timestamp"`
	ExpVulns              []VulnRef           `json:"exp_vulns"`
}

type deviceSearchResponse struct {
	Items []deviceItem `json:"items"`
}

// SearchDevices issues a structured device query and returns the
// flattened records. It fails with ConfigError before any network call
// when the credentials are incomplete, and with ErrNoResults when the
// response contains zero items.
func (c *Client) SearchDevices(ctx context.Context, creds Credentials, q SearchQuery) ([]DeviceRecord, error) {
	if !creds.Complete() {
		return nil, &ConfigError{Missing: creds.missing()}
	}

	var resp deviceSearchResponse
	if err := c.postJSON(ctx, creds, "/v3/asset/device", deviceQuery(q, searchLimit), &resp); err != nil {
		return nil, err
	}

	if len(resp.Items) == 0 {
		return nil, ErrNoResults
	}

	devices := make([]DeviceRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		devices = append(devices, DeviceRecord{
			ID:                    item.ID,
			DeviceAttributes:      item.Attributes,
			Sources:               item.Sources,
			SourceIDs:             item.SourceIDs,
			LastActivityTimestamp: item.LastActivityTimestamp,
			LastObservedTimestamp: item.LastObservedTimestamp,
			ExpVulns:              item.ExpVulns,
		})
	}
	return devices, nil
}
