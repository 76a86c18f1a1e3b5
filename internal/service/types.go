package service

import "github.com/Rainier-MSFT/ID360Model/internal/core"

// WhoamiResult describes the caller as the gateway sees it: the merged role
// set plus the resolved credential kind. The token value itself never leaves
// the service, only its fingerprint.
type WhoamiResult struct {
	Identity              string              `json:"identity,omitempty"`
	Roles                 []string            `json:"roles"`
	CredentialKind        core.CredentialKind `json:"credential_kind"`
	CredentialSource      string              `json:"credential_source,omitempty"`
	CredentialReason      string              `json:"credential_reason,omitempty"`
	CredentialFingerprint string              `json:"credential_fingerprint,omitempty"`
}

// LookupResult pairs the downstream profile with the decision that allowed it.
type LookupResult struct {
	Profile  *core.ProfileSummary       `json:"profile"`
	Decision core.AuthorizationDecision `json:"decision"`
}
