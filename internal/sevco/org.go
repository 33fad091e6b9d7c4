package sevco

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
)

// Org is one organization the API key can target.
type Org struct {
	ID   string `json:"id"`
	Name string `json:"org_name"`
	Slug string `json:"org_slug"`
}

type orgListResponse struct {
	Orgs []Org `json:"orgs"`
}

// ListOrgs fetches the organizations available to an API key, sorted by
// name. It lives on the v1 admin path and targets the wildcard org, so
// it only needs the key; the settings flow calls it before a full
// credential set exists.
func (c *Client) ListOrgs(ctx context.Context, apiKey string) ([]Org, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/admin/org", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("authorization", "Token "+apiKey)
	req.Header.Set("X-Sevco-Target-Org", "*")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "/v1/admin/org"); err != nil {
		return nil, err
	}

	var out orgListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(out.Orgs) == 0 {
		return nil, ErrNoResults
	}

	sort.Slice(out.Orgs, func(i, j int) bool {
		return out.Orgs[i].Name < out.Orgs[j].Name
	})
	return out.Orgs, nil
}
