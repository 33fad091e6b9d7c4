package sevco

import (
	"context"

	"github.com/sirupsen/logrus"
)

// User is the flattened shape of one user asset.
type User struct {
	ID        string   `json:"id"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Usernames []string `json:"usernames,omitempty"`
	Emails    []string `json:"emails,omitempty"`
}

type userAttributes struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Usernames []string `json:"usernames"`
	Emails    []string `json:"emails"`
}

type userSearchResponse struct {
	Items []struct {
		ID         string         `json:"id"`
		Attributes userAttributes `json:"attributes"`
	} `json:"items"`
}

// LookupUser fetches the user asset matching a username exactly. Any
// failure, including an empty result, returns nil; enrichment lookups
// are per-item and never abort their siblings.
func (c *Client) LookupUser(ctx context.Context, creds Credentials, username string) *User {
	var resp userSearchResponse
	err := c.postJSON(ctx, creds, "/v3/asset/user?lang=en", userQuery(username), &resp)
	if err != nil {
		logrus.WithError(err).WithField("username", username).Warn("Failed to look up user")
		return nil
	}
	if len(resp.Items) == 0 {
		return nil
	}

	item := resp.Items[0]
	return &User{
		ID:        item.ID,
		FirstName: item.Attributes.FirstName,
		LastName:  item.Attributes.LastName,
		Usernames: item.Attributes.Usernames,
		Emails:    item.Attributes.Emails,
	}
}
