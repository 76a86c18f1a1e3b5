// Package claims decodes compact token payloads without verifying them.
// It is a diagnostic/extraction utility only, never an authentication proof.
package claims

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Rainier-MSFT/ID360Model/internal/core"
)

// Decode extracts the claim mapping from the payload segment of a compact
// token. The input must have at least two dot-separated segments; the second
// segment must be base64url (padding is tolerated either way) and decode to a
// JSON object. No signature verification is performed.
//
// We do not use jwt.ParseUnverified here: it requires exactly three segments,
// while the platform occasionally hands us unsigned header.payload tokens.
func Decode(compact string) (map[string]any, error) {
	segments := strings.Split(strings.TrimSpace(compact), ".")
	if len(segments) < 2 {
		return nil, &core.MalformedTokenError{Reason: "expected at least two dot-separated segments"}
	}

	payload := segments[1]
	if m := len(payload) % 4; m != 0 {
		payload += strings.Repeat("=", 4-m)
	}

	raw, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, &core.MalformedTokenError{Reason: "payload is not valid base64url: " + err.Error()}
	}

	var mapping map[string]any
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return nil, &core.MalformedTokenError{Reason: "payload is not a JSON object: " + err.Error()}
	}
	return mapping, nil
}

// Expiry returns the exp claim of a full JWT, when present.
// Used to derive cache lifetimes from the token itself.
func Expiry(compact string) (time.Time, bool) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(compact, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
