package authz

import "github.com/Rainier-MSFT/ID360Model/internal/core"

// SelfReference is the sentinel identity reference meaning "the caller's own
// identity".
const SelfReference = "me"

// CheckSelfReference rejects the self-reference request shape whenever the
// resolved credential does not carry a caller identity the directory can
// resolve against the sentinel. Service-identity tokens are not user-bound,
// and unexchanged session tokens have an unverified audience, so neither
// qualifies. Checked before any downstream call is made.
func CheckSelfReference(cred core.Credential, identityRef string) error {
	if identityRef != SelfReference {
		return nil
	}
	if !cred.Delegated() {
		return &core.SelfReferenceError{Kind: cred.Kind}
	}
	return nil
}
