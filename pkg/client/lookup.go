package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Rainier-MSFT/ID360Model/internal/api"
	"github.com/Rainier-MSFT/ID360Model/internal/core"
	"github.com/Rainier-MSFT/ID360Model/internal/service"
)

// Lookup fetches the directory profile behind identityRef through the
// gateway. Pass "me" to look up the caller's own identity; the gateway only
// honors that for true delegated credentials.
func (c *Client) Lookup(ctx context.Context, identityRef string) (*core.ProfileSummary, string, error) {
	if identityRef == "" {
		return nil, "", fmt.Errorf("identity reference must not be empty")
	}

	path := strings.Replace(api.UserLookupRoute, "{ref}", url.PathEscape(identityRef), 1)

	var profile core.ProfileSummary
	correlation, err := c.get(ctx, c.url().
		setPath(path).
		build(), &profile)
	if err != nil {
		return nil, correlation, err
	}
	return &profile, correlation, nil
}

// Whoami reports the principal and credential kind the gateway resolved for
// this client's identity material.
func (c *Client) Whoami(ctx context.Context) (*service.WhoamiResult, string, error) {
	var result service.WhoamiResult
	correlation, err := c.get(ctx, c.url().
		setPath(api.WhoamiRoute).
		build(), &result)
	if err != nil {
		return nil, correlation, err
	}
	return &result, correlation, nil
}
