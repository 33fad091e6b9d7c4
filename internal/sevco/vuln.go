package sevco

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Vulnerability is the flattened shape of one exposure vulnerability.
type Vulnerability struct {
	ID                string  `json:"id"`
	Name              string  `json:"name,omitempty"`
	EffectiveSeverity float64 `json:"effective_severity"`
}

type vulnAttributes struct {
	Name              string  `json:"name"`
	EffectiveSeverity float64 `json:"effective_severity"`
}

type vulnSearchResponse struct {
	Items []struct {
		ID         string         `json:"id"`
		Attributes vulnAttributes `json:"attributes"`
	} `json:"items"`
}

// LookupVulnerability fetches the exposure vulnerability matching an id
// exactly. Any failure, including an empty result, returns nil.
func (c *Client) LookupVulnerability(ctx context.Context, creds Credentials, id string) *Vulnerability {
	var resp vulnSearchResponse
	err := c.postJSON(ctx, creds, "/v3/asset/exp_vuln", vulnQuery(id), &resp)
	if err != nil {
		logrus.WithError(err).WithField("vuln_id", id).Warn("Failed to look up vulnerability")
		return nil
	}
	if len(resp.Items) == 0 {
		return nil
	}

	item := resp.Items[0]
	return &Vulnerability{
		ID:                item.ID,
		Name:              item.Attributes.Name,
		EffectiveSeverity: item.Attributes.EffectiveSeverity,
	}
}
