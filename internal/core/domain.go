package core

// CredentialKind tags the variant of a resolved Credential.
type CredentialKind string

const (
	// CredentialNone means no credential could be resolved for the request.
	CredentialNone CredentialKind = "none"

	// CredentialDelegatedDirect is a pre-acquired delegated token supplied
	// by the caller directly in a request header.
	CredentialDelegatedDirect CredentialKind = "delegated_direct"

	// CredentialDelegatedExchanged is a delegated token obtained by trading
	// a session token for a target-audience token via the on-behalf-of grant.
	CredentialDelegatedExchanged CredentialKind = "delegated_exchanged"

	// CredentialDelegatedUnexchanged is a session token that could not be
	// exchanged. It carries the original token plus a diagnostic reason.
	// It must never be treated as a true delegated token for
	// identity-sensitive operations.
	CredentialDelegatedUnexchanged CredentialKind = "delegated_unexchanged"

	// CredentialServiceIdentity is a non-user-bound token obtained from the
	// platform-managed identity facility.
	CredentialServiceIdentity CredentialKind = "service_identity"
)

// Credential is the single resolved credential for a request.
// Exactly one is produced per request; the resolver never returns more than
// one candidate.
type Credential struct {
	// Kind is the resolved variant.
	Kind CredentialKind `json:"kind"`

	// Token is the raw bearer token. Empty when Kind is CredentialNone.
	// Never logged or serialized into audit entries; use a fingerprint.
	Token string `json:"-"`

	// Source names where the token came from (e.g. the header it was read from).
	Source string `json:"source,omitempty"`

	// Reason explains why an exchange did not happen.
	// Only set for CredentialDelegatedUnexchanged.
	Reason string `json:"reason,omitempty"`
}

// Delegated reports whether the credential carries a verified caller
// identity the downstream service can resolve (true delegated tokens only,
// not unexchanged session tokens).
func (c Credential) Delegated() bool {
	return c.Kind == CredentialDelegatedDirect || c.Kind == CredentialDelegatedExchanged
}

// Usable reports whether the credential can be attached to a downstream call.
func (c Credential) Usable() bool {
	return c.Kind != CredentialNone && c.Token != ""
}

// Principal represents the effective identity of the caller for one request.
// It is constructed fresh per request and never persisted.
type Principal struct {
	// DisplayIdentity is a human-readable identifier (e.g. UPN or email).
	// May be empty when the platform principal carried no user details.
	DisplayIdentity string `json:"display_identity,omitempty"`

	// Roles is the merged, deduplicated role set. Order follows first
	// appearance across the extraction sources; set equality is what matters.
	Roles []string `json:"roles"`

	// Claims are the raw claims the extractor saw, kept for policy
	// expressions and diagnostics.
	Claims map[string]any `json:"claims,omitempty"`

	// Established reports whether any recognized identity mechanism was
	// present on the request at all.
	Established bool `json:"established"`
}

// HasRole reports whether the principal holds the given role (case-sensitive).
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AddRole appends a role if it is not already present (idempotent union).
func (p *Principal) AddRole(role string) {
	if role == "" || p.HasRole(role) {
		return
	}
	p.Roles = append(p.Roles, role)
}

// RoleClaim is a raw role assertion extracted from a decoded claims collection.
type RoleClaim struct {
	Type  string `json:"typ" mapstructure:"typ"`
	Value string `json:"val" mapstructure:"val"`
}

// AuthorizationDecision is the outcome of gating one operation.
// Derived per request, never stored outside the audit trail.
type AuthorizationDecision struct {
	Allowed       bool     `json:"allowed"`
	Operation     string   `json:"operation"`
	RequiredRoles []string `json:"required_roles"`
	ActualRoles   []string `json:"actual_roles"`

	// Reason is set on denials (e.g. "unknown operation", expr condition).
	Reason string `json:"reason,omitempty"`
}

// ProfileSummary is the normalized shape of a downstream directory lookup.
type ProfileSummary struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	Mail              string `json:"mail,omitempty"`
	JobTitle          string `json:"jobTitle,omitempty"`
}
