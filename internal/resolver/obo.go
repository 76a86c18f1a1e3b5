package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Rainier-MSFT/ID360Model/internal/core"
)

const oboGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

type oboResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// exchangeOnBehalfOf trades the session token for a directory-audience token
// via the on-behalf-of grant. One synchronous call, bounded by the configured
// timeout; callers decide what a failure means.
func (r *Resolver) exchangeOnBehalfOf(ctx context.Context, assertion string) (string, error) {
	form := url.Values{
		"grant_type":          {oboGrantType},
		"client_id":           {r.exchange.ClientID},
		"client_secret":       {r.exchange.ClientSecret},
		"assertion":           {assertion},
		"scope":               {r.exchange.Scope},
		"requested_token_use": {"on_behalf_of"},
	}

	ctx, cancel := context.WithTimeout(ctx, r.exchange.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", r.exchange.TokenEndpoint(),
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", &core.ExchangeError{Detail: "creating request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", &core.ExchangeError{Detail: "performing request: " + err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var body oboResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := body.ErrorDescription
		if detail == "" {
			detail = body.Error
		}
		if detail == "" {
			detail = fmt.Sprintf("unexpected status code %d", resp.StatusCode)
		}
		return "", &core.ExchangeError{StatusCode: resp.StatusCode, Detail: detail}
	}
	if decodeErr != nil {
		return "", &core.ExchangeError{StatusCode: resp.StatusCode, Detail: "decoding response: " + decodeErr.Error()}
	}
	if body.AccessToken == "" {
		return "", &core.ExchangeError{StatusCode: resp.StatusCode, Detail: "response contained no access token"}
	}
	return body.AccessToken, nil
}
