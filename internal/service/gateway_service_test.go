package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/Rainier-MSFT/ID360Model/internal/audit"
	"github.com/Rainier-MSFT/ID360Model/internal/authz"
	"github.com/Rainier-MSFT/ID360Model/internal/config"
	"github.com/Rainier-MSFT/ID360Model/internal/core"
	"github.com/Rainier-MSFT/ID360Model/internal/resolver"
	"github.com/Rainier-MSFT/ID360Model/internal/roles"
)

// fakeDirectory records the credential it was called with.
type fakeDirectory struct {
	profile  *core.ProfileSummary
	err      error
	lastCred core.Credential
	calls    int
}

func (f *fakeDirectory) Lookup(_ context.Context, cred core.Credential, _ string) (*core.ProfileSummary, error) {
	f.calls++
	f.lastCred = cred
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func newTestService(t *testing.T, dir core.DirectoryService, auditor core.Auditor) *GatewayService {
	t.Helper()
	gate, err := authz.NewGate(authz.DefaultOperations())
	if err != nil {
		t.Fatalf("building gate: %v", err)
	}
	// no exchange credentials and no reachable identity endpoints: session
	// tokens come back unexchanged and the service-identity path yields none
	res := resolver.New(
		config.ExchangeConfig{Timeout: time.Second},
		config.IdentityConfig{Resource: "r", Endpoint: "", Timeout: time.Second},
		config.CacheConfig{},
	)
	return NewGatewayService(roles.NewExtractor(), res, gate, dir, auditor)
}

func wantHTTPStatus(t *testing.T, err error, status int) *HTTPError {
	t.Helper()
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error = %T (%v), want *HTTPError", err, err)
	}
	if httpErr.StatusCode != status {
		t.Fatalf("StatusCode = %d (%v), want %d", httpErr.StatusCode, err, status)
	}
	return httpErr
}

func TestGatewayService_Lookup_NoIdentity(t *testing.T) {
	dir := &fakeDirectory{}
	svc := newTestService(t, dir, nil)

	_, err := svc.Lookup(context.Background(), http.Header{}, "jo@contoso.com")

	httpErr := wantHTTPStatus(t, err, http.StatusUnauthorized)
	if !errors.Is(httpErr, core.ErrNoCredential) {
		t.Errorf("error = %v, want ErrNoCredential", err)
	}
	if dir.calls != 0 {
		t.Errorf("directory calls = %d, want 0", dir.calls)
	}
}

func TestGatewayService_Lookup_Allowed(t *testing.T) {
	dir := &fakeDirectory{profile: &core.ProfileSummary{ID: "u-1", DisplayName: "Jo"}}
	auditor := audit.NewInMemoryAuditor()
	svc := newTestService(t, dir, auditor)

	h := http.Header{}
	h.Set("X-MS-TOKEN-AAD-ACCESS-TOKEN", "delegated-token")
	h.Set("X-User-Roles", `["Admin"]`)

	result, err := svc.Lookup(context.Background(), h, "jo@contoso.com")
	if err != nil {
		t.Fatalf("Lookup() unexpected error: %v", err)
	}
	if result.Profile.ID != "u-1" {
		t.Errorf("Profile.ID = %q, want u-1", result.Profile.ID)
	}
	if !result.Decision.Allowed {
		t.Error("Decision.Allowed = false")
	}
	if dir.lastCred.Kind != core.CredentialDelegatedDirect {
		t.Errorf("credential kind = %v, want %v", dir.lastCred.Kind, core.CredentialDelegatedDirect)
	}

	entries, err := auditor.Recent(10)
	if err != nil {
		t.Fatalf("Recent() unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	if !entries[0].Allowed {
		t.Error("audit entry Allowed = false")
	}
	if entries[0].CredentialKind != core.CredentialDelegatedDirect {
		t.Errorf("audit credential kind = %v, want delegated_direct", entries[0].CredentialKind)
	}
}

func TestGatewayService_Lookup_InsufficientRole(t *testing.T) {
	dir := &fakeDirectory{}
	auditor := audit.NewInMemoryAuditor()
	svc := newTestService(t, dir, auditor)

	h := http.Header{}
	h.Set("X-MS-TOKEN-AAD-ACCESS-TOKEN", "delegated-token")

	_, err := svc.Lookup(context.Background(), h, "jo@contoso.com")

	httpErr := wantHTTPStatus(t, err, http.StatusForbidden)
	var roleErr *core.InsufficientRoleError
	if !errors.As(httpErr, &roleErr) {
		t.Fatalf("error = %v, want *InsufficientRoleError", err)
	}
	if len(roleErr.Required) == 0 {
		t.Error("Required role set is empty")
	}
	if dir.calls != 0 {
		t.Errorf("directory calls = %d, want 0 on denial", dir.calls)
	}

	entries, _ := auditor.Recent(10)
	if len(entries) != 1 || entries[0].Allowed {
		t.Errorf("audit entries = %v, want one denied entry", entries)
	}
}

func TestGatewayService_Lookup_SelfReferenceUnexchanged(t *testing.T) {
	dir := &fakeDirectory{profile: &core.ProfileSummary{ID: "u-1"}}
	svc := newTestService(t, dir, nil)

	// session token without exchange credentials resolves unexchanged
	h := http.Header{}
	h.Set("x-ms-auth-token", "session-token")
	h.Set("X-User-Roles", `["Admin"]`)

	_, err := svc.Lookup(context.Background(), h, authz.SelfReference)

	httpErr := wantHTTPStatus(t, err, http.StatusForbidden)
	var selfErr *core.SelfReferenceError
	if !errors.As(httpErr, &selfErr) {
		t.Fatalf("error = %v, want *SelfReferenceError", err)
	}
	if selfErr.Kind != core.CredentialDelegatedUnexchanged {
		t.Errorf("Kind = %v, want %v", selfErr.Kind, core.CredentialDelegatedUnexchanged)
	}
	if dir.calls != 0 {
		t.Errorf("directory calls = %d, want 0 before downstream", dir.calls)
	}

	// an explicit reference still proceeds with the unexchanged token
	if _, err := svc.Lookup(context.Background(), h, "jo@contoso.com"); err != nil {
		t.Fatalf("explicit lookup unexpected error: %v", err)
	}
	if dir.lastCred.Kind != core.CredentialDelegatedUnexchanged {
		t.Errorf("credential kind = %v, want %v", dir.lastCred.Kind, core.CredentialDelegatedUnexchanged)
	}
}

func TestGatewayService_Lookup_DirectoryErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		dirErr     error
		wantStatus int
	}{
		{
			name:       "Safe Status Passes Through",
			dirErr:     &core.DirectoryError{StatusCode: http.StatusNotFound, Message: "not found"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Throttling Passes Through",
			dirErr:     &core.DirectoryError{StatusCode: http.StatusTooManyRequests, Message: "throttled"},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "Unsafe Status Normalized",
			dirErr:     &core.DirectoryError{StatusCode: http.StatusTeapot, Message: "odd"},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "Transport Failure Maps To Bad Gateway",
			dirErr:     &core.DirectoryError{StatusCode: http.StatusBadGateway, Message: "dial failed"},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "Unknown Error Normalized",
			dirErr:     errors.New("something else"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	h := http.Header{}
	h.Set("X-MS-TOKEN-AAD-ACCESS-TOKEN", "delegated-token")
	h.Set("X-User-Roles", `["Directory.Reader"]`)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := &fakeDirectory{err: tt.dirErr}
			svc := newTestService(t, dir, nil)

			_, err := svc.Lookup(context.Background(), h, "jo@contoso.com")
			wantHTTPStatus(t, err, tt.wantStatus)
		})
	}
}

func TestGatewayService_Whoami(t *testing.T) {
	svc := newTestService(t, &fakeDirectory{}, nil)

	h := http.Header{}
	h.Set("X-MS-TOKEN-AAD-ACCESS-TOKEN", "delegated-token")

	result, err := svc.Whoami(context.Background(), h)
	if err != nil {
		t.Fatalf("Whoami() unexpected error: %v", err)
	}
	if result.CredentialKind != core.CredentialDelegatedDirect {
		t.Errorf("CredentialKind = %v, want delegated_direct", result.CredentialKind)
	}
	if result.CredentialFingerprint == "" {
		t.Error("CredentialFingerprint is empty")
	}
	found := false
	for _, role := range result.Roles {
		if role == roles.RoleAuthenticated {
			found = true
		}
	}
	if !found {
		t.Errorf("Roles = %v, want to contain %q", result.Roles, roles.RoleAuthenticated)
	}

	if _, err := svc.Whoami(context.Background(), http.Header{}); err == nil {
		t.Error("Whoami() with no identity succeeded, want 401")
	}
}

func TestGatewayService_RecentDecisions(t *testing.T) {
	auditor := audit.NewInMemoryAuditor()
	_ = auditor.Log(core.AuditEntry{Action: authz.OperationLookup, Allowed: true})
	svc := newTestService(t, &fakeDirectory{}, auditor)

	h := http.Header{}
	h.Set("X-MS-TOKEN-AAD-ACCESS-TOKEN", "t")
	h.Set("X-User-Roles", `["Admin"]`)

	entries, err := svc.RecentDecisions(context.Background(), h, 10)
	if err != nil {
		t.Fatalf("RecentDecisions() unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1", len(entries))
	}

	// without the audit role the gate denies
	plain := http.Header{}
	plain.Set("X-MS-TOKEN-AAD-ACCESS-TOKEN", "t")
	_, err = svc.RecentDecisions(context.Background(), plain, 10)
	wantHTTPStatus(t, err, http.StatusForbidden)

	// a write-only auditor cannot serve reads
	noop := newTestService(t, &fakeDirectory{}, audit.NewNoopAuditor())
	_, err = noop.RecentDecisions(context.Background(), h, 10)
	wantHTTPStatus(t, err, http.StatusNotImplemented)
}
