// Package directory is the thin adapter for the downstream directory API.
// It owns the HTTP call and response normalization; no retry policy lives
// here.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Rainier-MSFT/ID360Model/internal/api/middleware"
	"github.com/Rainier-MSFT/ID360Model/internal/audit"
	"github.com/Rainier-MSFT/ID360Model/internal/core"
)

const usersEndpoint = "/v1.0/users/"

var _ core.DirectoryService = (*Client)(nil)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// errorEnvelope is the directory service's error shape.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Lookup fetches the profile behind identityRef with the resolved credential.
func (c *Client) Lookup(ctx context.Context, cred core.Credential, identityRef string) (*core.ProfileSummary, error) {
	if !cred.Usable() {
		return nil, core.ErrNoCredential
	}

	endpoint := c.baseURL + usersEndpoint + url.PathEscape(identityRef)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Accept", "application/json")

	// inject audit user-agent
	correlationID := middleware.CorrelationCtx(ctx)
	req.Header.Set("User-Agent", audit.CreateUserAgent(correlationID, identityRef))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &core.DirectoryError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		var envelope errorEnvelope
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		msg := envelope.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("unexpected status code %d", resp.StatusCode)
		}
		return nil, &core.DirectoryError{
			StatusCode: resp.StatusCode,
			Code:       envelope.Error.Code,
			Message:    msg,
		}
	}

	var profile core.ProfileSummary
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, &core.DirectoryError{
			StatusCode: resp.StatusCode,
			Message:    "decoding response: " + err.Error(),
		}
	}
	return &profile, nil
}
