package resolver

import (
	"sync"
	"time"

	"github.com/Rainier-MSFT/ID360Model/internal/audit"
	"github.com/Rainier-MSFT/ID360Model/internal/claims"
	"github.com/Rainier-MSFT/ID360Model/internal/core"
)

// expirySkew is subtracted from a token's own lifetime so a cached token is
// never handed out moments before it expires downstream.
const expirySkew = 30 * time.Second

// tokenCache is a bounded read-through cache. Expiry is derived from the
// token's own exp claim where possible and checked lazily at read time; there
// is no background refresh.
type tokenCache struct {
	mu          sync.Mutex
	entries     map[string]cacheEntry
	maxEntries  int
	fallbackTTL time.Duration
}

type cacheEntry struct {
	token   string
	expires time.Time
}

func newTokenCache(maxEntries int, fallbackTTL time.Duration) *tokenCache {
	return &tokenCache{
		entries:     make(map[string]cacheEntry),
		maxEntries:  maxEntries,
		fallbackTTL: fallbackTTL,
	}
}

func (c *tokenCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return "", false
	}
	return entry.token, true
}

func (c *tokenCache) put(key, token string) {
	expires := time.Now().Add(c.fallbackTTL)
	if exp, ok := claims.Expiry(token); ok {
		if capped := exp.Add(-expirySkew); capped.Before(expires) {
			expires = capped
		}
	}
	if !expires.After(time.Now()) {
		return // not worth caching
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictSoonestLocked()
	}
	c.entries[key] = cacheEntry{token: token, expires: expires}
}

// evictSoonestLocked drops the entry closest to expiry.
func (c *tokenCache) evictSoonestLocked() {
	var victim string
	var soonest time.Time
	for key, entry := range c.entries {
		if victim == "" || entry.expires.Before(soonest) {
			victim = key
			soonest = entry.expires
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}

// cacheKey namespaces entries by credential kind and audience so a cached
// service-identity token can never satisfy a delegated lookup or vice versa.
// Delegated entries additionally key on a fingerprint of the inbound
// assertion, keeping one caller's exchanged token away from another's.
func cacheKey(kind core.CredentialKind, audience, assertion string) string {
	key := string(kind) + "|" + audience
	if assertion != "" {
		key += "|" + audit.Fingerprint(assertion)
	}
	return key
}
