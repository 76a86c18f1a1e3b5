package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/Rainier-MSFT/ID360Model/internal/core"
)

const (
	imdsAPIVersion        = "2018-02-01"
	altEndpointAPIVersion = "2019-08-01"
)

type identityResponse struct {
	AccessToken string `json:"access_token"`
}

// fetchServiceIdentityToken obtains a non-user-bound token from the platform
// identity facility: the metadata endpoint first, then the header-based
// alternate protocol. At most one attempt each, sequential, never retried.
func (r *Resolver) fetchServiceIdentityToken(ctx context.Context) (string, error) {
	token, primaryErr := r.fetchIMDSToken(ctx)
	if primaryErr == nil {
		return token, nil
	}
	log.Ctx(ctx).Debug().Err(primaryErr).Msg("primary identity endpoint failed, trying alternate")

	token, altErr := r.fetchAltIdentityToken(ctx)
	if altErr == nil {
		return token, nil
	}

	return "", &core.ServiceIdentityError{
		Detail: fmt.Sprintf("primary: %v; alternate: %v", primaryErr, altErr),
	}
}

// fetchIMDSToken queries the instance metadata endpoint, reachable only from
// within the execution environment.
func (r *Resolver) fetchIMDSToken(ctx context.Context) (string, error) {
	query := url.Values{
		"api-version": {imdsAPIVersion},
		"resource":    {r.identity.Resource},
	}
	if r.identity.ClientID != "" {
		query.Set("client_id", r.identity.ClientID)
	}
	return r.identityRequest(ctx, r.identity.Endpoint, query, "Metadata", "true")
}

// fetchAltIdentityToken uses the documented alternate protocol: a
// per-environment endpoint authenticated with a shared header value.
func (r *Resolver) fetchAltIdentityToken(ctx context.Context) (string, error) {
	if r.identity.AltEndpoint == "" || r.identity.AltHeader == "" {
		return "", fmt.Errorf("alternate identity endpoint not configured")
	}
	query := url.Values{
		"api-version": {altEndpointAPIVersion},
		"resource":    {r.identity.Resource},
	}
	if r.identity.ClientID != "" {
		query.Set("client_id", r.identity.ClientID)
	}
	return r.identityRequest(ctx, r.identity.AltEndpoint, query, "X-IDENTITY-HEADER", r.identity.AltHeader)
}

func (r *Resolver) identityRequest(ctx context.Context, endpoint string, query url.Values, headerName, headerValue string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.identity.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(headerName, headerValue)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("performing request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body identityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("response contained no access token")
	}
	return body.AccessToken, nil
}
