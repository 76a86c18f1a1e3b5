package audit

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint derives a stable, non-reversible identifier for a token so it
// can appear in audit entries and logs without leaking the token itself.
func Fingerprint(token string) string {
	if token == "" {
		return "(n/a)"
	}
	hash := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// ShortFingerprint truncates the fingerprint for human-facing output.
func ShortFingerprint(token string) string {
	fp := Fingerprint(token)
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
