package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Rainier-MSFT/ID360Model/internal/audit"
	"github.com/Rainier-MSFT/ID360Model/internal/authz"
	"github.com/Rainier-MSFT/ID360Model/internal/config"
	"github.com/Rainier-MSFT/ID360Model/internal/core"
	"github.com/Rainier-MSFT/ID360Model/internal/resolver"
	"github.com/Rainier-MSFT/ID360Model/internal/roles"
	"github.com/Rainier-MSFT/ID360Model/internal/service"
)

type stubDirectory struct {
	profile *core.ProfileSummary
	err     error
}

func (s *stubDirectory) Lookup(_ context.Context, _ core.Credential, _ string) (*core.ProfileSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

func newTestHandler(t *testing.T, dir core.DirectoryService) http.Handler {
	t.Helper()
	gate, err := authz.NewGate(authz.DefaultOperations())
	if err != nil {
		t.Fatalf("building gate: %v", err)
	}
	res := resolver.New(
		config.ExchangeConfig{Timeout: time.Second},
		config.IdentityConfig{Resource: "r", Timeout: time.Second},
		config.CacheConfig{},
	)
	gateway := service.NewGatewayService(roles.NewExtractor(), res, gate, dir, audit.NewInMemoryAuditor())
	return NewServer(gateway).Routes()
}

func TestRoutes_Health(t *testing.T) {
	handler := newTestHandler(t, &stubDirectory{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", HealthCheckRoute, nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", rec.Body.String())
	}
}

func TestRoutes_LookupWithoutIdentity(t *testing.T) {
	handler := newTestHandler(t, &stubDirectory{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/users/jo%40contoso.com", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var resp struct {
		Error         string `json:"error"`
		CorrelationID string `json:"correlation_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if !strings.Contains(resp.Error, "no credential available") {
		t.Errorf("error = %q, want mention of missing credential", resp.Error)
	}
	if resp.CorrelationID == "" {
		t.Error("correlation_id is empty")
	}
}

func TestRoutes_LookupAuthorized(t *testing.T) {
	handler := newTestHandler(t, &stubDirectory{
		profile: &core.ProfileSummary{ID: "u-1", DisplayName: "Jo", UserPrincipalName: "jo@contoso.com"},
	})

	req := httptest.NewRequest("GET", "/v1/users/jo%40contoso.com", nil)
	req.Header.Set("X-MS-TOKEN-AAD-ACCESS-TOKEN", "delegated-token")
	req.Header.Set("X-User-Roles", `["Directory.Reader"]`)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s, want 200", rec.Code, rec.Body.String())
	}
	var profile core.ProfileSummary
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("decoding profile: %v", err)
	}
	if profile.ID != "u-1" {
		t.Errorf("ID = %q, want u-1", profile.ID)
	}
}

func TestRoutes_LookupRoleDenial(t *testing.T) {
	handler := newTestHandler(t, &stubDirectory{})

	req := httptest.NewRequest("GET", "/v1/users/jo", nil)
	req.Header.Set("X-MS-TOKEN-AAD-ACCESS-TOKEN", "delegated-token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var resp struct {
		RequiredRoles []string `json:"required_roles"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if len(resp.RequiredRoles) == 0 {
		t.Error("required_roles missing from denial response")
	}
}

func TestRoutes_SelfLookupRequiresDelegated(t *testing.T) {
	handler := newTestHandler(t, &stubDirectory{})

	// session token without exchange config resolves unexchanged, which may
	// not be used against the self-reference route
	req := httptest.NewRequest("GET", SelfLookupRoute, nil)
	req.Header.Set("x-ms-auth-token", "session-token")
	req.Header.Set("X-User-Roles", `["Admin"]`)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRoutes_Whoami(t *testing.T) {
	handler := newTestHandler(t, &stubDirectory{})

	principal := base64.StdEncoding.EncodeToString([]byte(
		`{"userId":"u1","userDetails":"jo@contoso.com","userRoles":["authenticated","Admin"]}`))

	req := httptest.NewRequest("GET", WhoamiRoute, nil)
	req.Header.Set("X-MS-TOKEN-AAD-ACCESS-TOKEN", "delegated-token")
	req.Header.Set("x-ms-client-principal", principal)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s, want 200", rec.Code, rec.Body.String())
	}
	var result service.WhoamiResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decoding whoami response: %v", err)
	}
	if result.Identity != "jo@contoso.com" {
		t.Errorf("identity = %q, want jo@contoso.com", result.Identity)
	}
	if result.CredentialKind != core.CredentialDelegatedDirect {
		t.Errorf("credential_kind = %v, want delegated_direct", result.CredentialKind)
	}
}

func TestRoutes_DebugClaims(t *testing.T) {
	handler := newTestHandler(t, &stubDirectory{})

	seg := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
	token := seg(`{"alg":"none"}`) + "." + seg(`{"sub":"abc"}`) + ".sig"

	body, _ := json.Marshal(map[string]string{"token": token})
	req := httptest.NewRequest("POST", DebugClaimsRoute, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s, want 200", rec.Code, rec.Body.String())
	}
	var mapping map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&mapping); err != nil {
		t.Fatalf("decoding claims response: %v", err)
	}
	if mapping["sub"] != "abc" {
		t.Errorf("sub = %v, want abc", mapping["sub"])
	}

	// malformed token is a 400, not a 500
	body, _ = json.Marshal(map[string]string{"token": "garbage"})
	req = httptest.NewRequest("POST", DebugClaimsRoute, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for malformed token", rec.Code)
	}
}

func TestRoutes_AuditDecisionsLimitValidation(t *testing.T) {
	handler := newTestHandler(t, &stubDirectory{})

	req := httptest.NewRequest("GET", AuditDecisionsRoute+"?limit=bogus", nil)
	req.Header.Set("X-MS-TOKEN-AAD-ACCESS-TOKEN", "t")
	req.Header.Set("X-User-Roles", `["Admin"]`)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid limit", rec.Code)
	}
}
