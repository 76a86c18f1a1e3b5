package core

import (
	"errors"
	"fmt"
)

// ErrNoCredential indicates that no usable identity could be established for
// the request at all (no identity headers, no service identity).
var ErrNoCredential = errors.New("no credential available")

// ErrMissingExchangeCredentials indicates the on-behalf-of exchange could not
// be attempted because client id, client secret or tenant are not configured.
var ErrMissingExchangeCredentials = errors.New("missing exchange credentials")

// MalformedTokenError is returned by the claims decoder when the input is not
// a decodable compact token. It is non-fatal: callers log it and treat the
// source as empty.
type MalformedTokenError struct {
	Reason string
}

func (e *MalformedTokenError) Error() string {
	return "malformed token: " + e.Reason
}

// ExchangeError captures a failed on-behalf-of exchange attempt.
// It is carried as data (the unexchanged credential's reason), never used to
// abort resolution.
type ExchangeError struct {
	StatusCode int
	Detail     string
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token exchange failed (status %d): %s", e.StatusCode, e.Detail)
	}
	return "token exchange failed: " + e.Detail
}

// ServiceIdentityError indicates that neither the primary nor the secondary
// platform identity endpoint produced a token.
type ServiceIdentityError struct {
	Detail string
}

func (e *ServiceIdentityError) Error() string {
	return "service identity unavailable: " + e.Detail
}

// InsufficientRoleError is the user-visible denial for a role gate miss.
// Required and actual role sets are included for diagnosability.
type InsufficientRoleError struct {
	Operation string
	Required  []string
	Actual    []string
}

func (e *InsufficientRoleError) Error() string {
	return fmt.Sprintf("operation %q requires one of %v, caller holds %v",
		e.Operation, e.Required, e.Actual)
}

// SelfReferenceError rejects a "me" lookup performed with a credential that
// does not carry a resolvable caller identity.
type SelfReferenceError struct {
	Kind CredentialKind
}

func (e *SelfReferenceError) Error() string {
	return fmt.Sprintf("self-reference lookup requires a delegated credential, resolved kind is %q", e.Kind)
}

// DirectoryError surfaces a non-success result from the downstream directory
// service.
type DirectoryError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *DirectoryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("directory error %s (status %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("directory error (status %d): %s", e.StatusCode, e.Message)
}
