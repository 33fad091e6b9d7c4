package sevco

import (
	"context"

	"github.com/sirupsen/logrus"
)

type facetRequest struct {
	Terms []string `json:"terms"`
}

type facetResponse struct {
	SourceIDs struct {
		Buckets []struct {
			Key string `json:"key"`
		} `json:"buckets"`
	} `json:"source_ids"`
}

// ListAllSources fetches the full set of known data-source identifiers
// for the organization. It never fails the caller: any error, including
// the 10-second timeout, degrades to an empty list and is logged for
// diagnostics only. Source enumeration is an enrichment, not a
// requirement, and must never block the primary device lookup.
func (c *Client) ListAllSources(ctx context.Context, creds Credentials) []string {
	ctx, cancel := context.WithTimeout(ctx, c.FacetTimeout)
	defer cancel()

	var resp facetResponse
	err := c.postJSON(ctx, creds, "/v3/asset/device/_facet", facetRequest{Terms: []string{"source_ids"}}, &resp)
	if err != nil {
		logrus.WithError(err).Warn("Failed to fetch source list")
		return nil
	}

	sources := make([]string, 0, len(resp.SourceIDs.Buckets))
	for _, bucket := range resp.SourceIDs.Buckets {
		sources = append(sources, bucket.Key)
	}
	return sources
}
