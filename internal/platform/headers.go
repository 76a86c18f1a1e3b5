// Package platform reads the identity signals the hosting platform attaches
// to inbound requests: injected token headers and the encoded client
// principal envelope.
package platform

import (
	"net/http"
	"strings"
)

// Header names the platform and callers use. Lookup is case-insensitive, but
// the candidate lists below fix the fallback order between distinct headers.
const (
	// HeaderDelegatedToken carries a pre-acquired delegated access token
	// injected by the platform's auth layer.
	HeaderDelegatedToken = "X-MS-TOKEN-AAD-ACCESS-TOKEN"

	// HeaderGraphToken is the caller-supplied alternate delegated token.
	HeaderGraphToken = "X-Graph-Token"

	// HeaderSessionToken carries the session-bound token used for the
	// on-behalf-of exchange.
	HeaderSessionToken = "x-ms-auth-token"

	// HeaderClientPrincipal is the base64-encoded identity-principal
	// structure.
	HeaderClientPrincipal = "x-ms-client-principal"

	// HeaderUserRoles is a caller-asserted JSON array of role names.
	HeaderUserRoles = "X-User-Roles"

	// HeaderIDToken is the platform-injected identity token, decoded for
	// role claims as a last resort.
	HeaderIDToken = "x-ms-token-aad-id-token"
)

// DelegatedTokenHeaders, in precedence order. Both spellings of the platform
// header are listed so the order survives any transport that bypasses
// net/http canonicalization.
var DelegatedTokenHeaders = []string{
	HeaderDelegatedToken,
	"x-ms-token-aad-access-token",
	HeaderGraphToken,
	"x-graph-token",
}

// SessionTokenHeaders, in precedence order. The Authorization header is the
// documented "Bearer "-prefixed alternate carrier.
var SessionTokenHeaders = []string{
	HeaderSessionToken,
	"X-MS-AUTH-TOKEN",
	"X-Session-Token",
	"Authorization",
}

// FirstHeader returns the first non-empty value among the ordered candidate
// names, with any "Bearer " prefix stripped. The returned source is the
// candidate name that matched.
func FirstHeader(h http.Header, names []string) (value, source string, ok bool) {
	for _, name := range names {
		v := strings.TrimSpace(h.Get(name))
		if v == "" {
			continue
		}
		v = strings.TrimSpace(strings.TrimPrefix(v, "Bearer "))
		if v == "" {
			continue
		}
		return v, name, true
	}
	return "", "", false
}

// HasIdentitySignal reports whether the request carries any recognized
// identity mechanism at all.
func HasIdentitySignal(h http.Header) bool {
	for _, name := range []string{
		HeaderDelegatedToken,
		HeaderGraphToken,
		HeaderSessionToken,
		HeaderClientPrincipal,
		HeaderIDToken,
	} {
		if h.Get(name) != "" {
			return true
		}
	}
	return false
}
