package roles

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Rainier-MSFT/ID360Model/internal/platform"
)

func encodeSegment(payload string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func TestExtractor_Extract(t *testing.T) {
	tests := []struct {
		name            string
		headers         map[string]string
		wantRoles       []string
		wantEstablished bool
		wantIdentity    string
	}{
		{
			name:      "No Headers Yields Authenticated Only",
			headers:   map[string]string{},
			wantRoles: []string{RoleAuthenticated},
		},
		{
			name: "Principal Roles Plus Asserted Header",
			headers: map[string]string{
				platform.HeaderClientPrincipal: mustEncode(map[string]any{
					"userId":      "u1",
					"userDetails": "jo@contoso.com",
					"userRoles":   []string{"authenticated", "Directory.Reader"},
				}),
				platform.HeaderUserRoles: `["Admin","Directory.Reader"]`,
			},
			wantRoles:       []string{"authenticated", "Directory.Reader", "Admin"},
			wantEstablished: true,
			wantIdentity:    "jo@contoso.com",
		},
		{
			name: "Duplicate Roles Merged Once",
			headers: map[string]string{
				platform.HeaderClientPrincipal: mustEncode(map[string]any{
					"userId":    "u1",
					"userRoles": []string{"Admin", "Admin", "authenticated"},
				}),
				platform.HeaderUserRoles: `["Admin"]`,
			},
			wantRoles:       []string{"Admin", "authenticated"},
			wantEstablished: true,
		},
		{
			name: "Malformed Role Assertion Ignored",
			headers: map[string]string{
				platform.HeaderClientPrincipal: mustEncode(map[string]any{
					"userId":    "u1",
					"userRoles": []string{"Directory.Reader"},
				}),
				platform.HeaderUserRoles: `not json at all`,
			},
			wantRoles:       []string{"Directory.Reader", RoleAuthenticated},
			wantEstablished: true,
		},
		{
			name: "Role-Typed Claims Merged",
			headers: map[string]string{
				platform.HeaderClientPrincipal: mustEncode(map[string]any{
					"userId": "u1",
					"claims": []map[string]string{
						{"typ": "roles", "val": "Directory.Reader"},
						{"typ": LegacyRoleClaimType, "val": "Admin"},
						{"typ": "CustomRoleType", "val": "Auditor"},
						{"typ": "aud", "val": "ignored"},
					},
				}),
			},
			wantRoles:       []string{"Directory.Reader", "Admin", "Auditor", RoleAuthenticated},
			wantEstablished: true,
		},
		{
			name: "ID Token Fallback When Nothing Else Yields Roles",
			headers: map[string]string{
				platform.HeaderIDToken: encodeSegment(`{"alg":"none"}`) + "." +
					encodeSegment(`{"roles":["Reader","Admin"]}`) + ".sig",
			},
			wantRoles:       []string{"Reader", "Admin", RoleAuthenticated},
			wantEstablished: true,
		},
		{
			name: "ID Token Skipped When Primary Sources Yield Roles",
			headers: map[string]string{
				platform.HeaderUserRoles: `["Admin"]`,
				platform.HeaderIDToken: encodeSegment(`{"alg":"none"}`) + "." +
					encodeSegment(`{"roles":["FromToken"]}`) + ".sig",
			},
			wantRoles:       []string{"Admin", RoleAuthenticated},
			wantEstablished: true,
		},
		{
			name: "Unparsable Principal Envelope Ignored",
			headers: map[string]string{
				platform.HeaderClientPrincipal: "!!not base64!!",
				platform.HeaderUserRoles:       `["Admin"]`,
			},
			wantRoles:       []string{"Admin", RoleAuthenticated},
			wantEstablished: true,
		},
		{
			name: "Undecodable ID Token Ignored",
			headers: map[string]string{
				platform.HeaderIDToken: "garbage",
			},
			wantRoles:       []string{RoleAuthenticated},
			wantEstablished: true,
		},
	}

	extractor := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for name, value := range tt.headers {
				h.Set(name, value)
			}

			principal := extractor.Extract(context.Background(), h)

			if principal.Established != tt.wantEstablished {
				t.Errorf("Established = %v, want %v", principal.Established, tt.wantEstablished)
			}
			if tt.wantIdentity != "" && principal.DisplayIdentity != tt.wantIdentity {
				t.Errorf("DisplayIdentity = %q, want %q", principal.DisplayIdentity, tt.wantIdentity)
			}
			if len(principal.Roles) != len(tt.wantRoles) {
				t.Fatalf("Roles = %v, want %v", principal.Roles, tt.wantRoles)
			}
			for i, role := range tt.wantRoles {
				if principal.Roles[i] != role {
					t.Errorf("Roles[%d] = %q, want %q", i, principal.Roles[i], role)
				}
			}
		})
	}
}

func mustEncode(payload any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}
