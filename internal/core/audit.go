package core

import "time"

type AuditEntry struct {
	// ID is the unique request ID (X-Correlation-ID)
	ID string `json:"id"`

	// Time is the timestamp of the event
	Time time.Time `json:"time"`

	// Action describing what happened (e.g. "directory.lookup", "whoami")
	Action string `json:"action"`

	// Identity is the caller's display identity, if one was established.
	Identity string `json:"identity,omitempty"`

	// Roles is the caller's effective role set at decision time.
	Roles []string `json:"roles,omitempty"`

	// CredentialKind records which credential variant was resolved.
	CredentialKind CredentialKind `json:"credential_kind,omitempty"`

	// CredentialFingerprint identifies the resolved token without leaking it.
	CredentialFingerprint string `json:"credential_fingerprint,omitempty"`

	// TargetRef is the directory reference that was looked up, if any.
	TargetRef string `json:"target_ref,omitempty"`

	// Decision details
	RequiredRoles []string `json:"required_roles,omitempty"`
	Allowed       bool     `json:"allowed"`
	Error         string   `json:"error,omitempty"`
}

type Auditor interface {
	Log(entry AuditEntry) error
	Close() error
}

// AuditReader is implemented by auditors that can serve recent entries back
// (currently the in-memory auditor).
type AuditReader interface {
	Recent(limit int) ([]AuditEntry, error)
}
