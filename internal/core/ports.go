package core

import "context"

// DirectoryService is the boundary to the downstream directory API.
// Implementations own the HTTP call, response normalization and error
// surfacing; the core supplies the resolved credential and never retries.
type DirectoryService interface {
	// Lookup fetches the profile behind identityRef using the credential.
	Lookup(ctx context.Context, cred Credential, identityRef string) (*ProfileSummary, error)
}
