// Package roles reconciles the partial, redundant role signals that reach the
// gateway into one effective role set per request.
package roles

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Rainier-MSFT/ID360Model/internal/claims"
	"github.com/Rainier-MSFT/ID360Model/internal/core"
	"github.com/Rainier-MSFT/ID360Model/internal/platform"
)

// RoleAuthenticated is granted to every caller that reached the gateway via a
// recognized identity mechanism. It never grants more than baseline access.
const RoleAuthenticated = "authenticated"

// LegacyRoleClaimType is the long-form URI spelling of the role claim.
const LegacyRoleClaimType = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

// Extractor merges candidate role sets from the request into a Principal.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract builds the caller's Principal from the inbound headers.
//
// Sources are merged in fixed precedence order, later sources only adding
// roles not already present:
//  1. userRoles from the platform client-principal envelope
//  2. the caller-asserted role header (JSON array; parse failures ignored)
//  3. role-typed claims inside the client-principal claims list
//  4. only if nothing above yielded a role: role claims decoded from the
//     platform identity token
//
// The result always contains RoleAuthenticated; a request with no identity
// signal at all still yields {authenticated}, which grants nothing beyond
// baseline access.
func (e *Extractor) Extract(ctx context.Context, h http.Header) *core.Principal {
	logger := log.Ctx(ctx)

	principal := &core.Principal{
		Established: platform.HasIdentitySignal(h),
	}

	var cp *platform.ClientPrincipal
	if encoded := h.Get(platform.HeaderClientPrincipal); encoded != "" {
		var err error
		if cp, err = platform.ParseClientPrincipal(encoded); err != nil {
			logger.Warn().Err(err).Msg("ignoring unparsable client principal")
			cp = nil
		}
	}

	// source 1: baseline platform role grants
	if cp != nil {
		principal.DisplayIdentity = cp.UserDetails
		for _, role := range cp.UserRoles {
			principal.AddRole(role)
		}
	}

	// source 2: caller-asserted roles, weakest trust, never fatal
	if declared := h.Get(platform.HeaderUserRoles); declared != "" {
		var asserted []string
		if err := json.Unmarshal([]byte(declared), &asserted); err != nil {
			logger.Warn().Err(err).Msg("ignoring malformed role assertion header")
		} else {
			for _, role := range asserted {
				principal.AddRole(role)
			}
		}
	}

	// source 3: role-typed claims on the principal envelope
	if cp != nil {
		for _, claim := range cp.Claims {
			if assertsRole(claim.Type) {
				principal.AddRole(claim.Value)
			}
		}
	}

	// source 4: identity token fallback, consulted only when the primary
	// sources produced nothing
	if len(principal.Roles) == 0 {
		if idToken := h.Get(platform.HeaderIDToken); idToken != "" {
			mapping, err := claims.Decode(idToken)
			if err != nil {
				logger.Warn().Err(err).Msg("ignoring undecodable identity token")
			} else {
				principal.Claims = mapping
				addClaimRoles(principal, mapping["roles"])
				addClaimRoles(principal, mapping[LegacyRoleClaimType])
			}
		}
	}

	principal.AddRole(RoleAuthenticated)
	return principal
}

// assertsRole implements the type-matching rule: the short form, the legacy
// long-form URI, and any type containing "role" (case-insensitively) are
// equivalent role assertions.
func assertsRole(typ string) bool {
	if typ == "roles" || typ == LegacyRoleClaimType {
		return true
	}
	return strings.Contains(strings.ToLower(typ), "role")
}

// addClaimRoles merges a roles claim value that may be a string, a
// []string, or a JSON-decoded []any.
func addClaimRoles(principal *core.Principal, value any) {
	switch v := value.(type) {
	case string:
		principal.AddRole(v)
	case []string:
		for _, role := range v {
			principal.AddRole(role)
		}
	case []any:
		for _, item := range v {
			if role, ok := item.(string); ok {
				principal.AddRole(role)
			}
		}
	}
}
