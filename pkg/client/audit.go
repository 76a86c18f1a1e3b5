package client

import (
	"context"

	"github.com/Rainier-MSFT/ID360Model/internal/api"
	"github.com/Rainier-MSFT/ID360Model/internal/core"
)

// RecentDecisions retrieves the latest authorization decisions from the
// server, limited to the specified number.
func (c *Client) RecentDecisions(ctx context.Context, limit uint) ([]core.AuditEntry, string, error) {
	ub := c.url().setPath(api.AuditDecisionsRoute)
	if limit > 0 {
		ub = ub.addQueryParam("limit", limit)
	}
	var entries []core.AuditEntry
	correlation, err := c.get(ctx, ub.build(), &entries)
	return entries, correlation, err
}
