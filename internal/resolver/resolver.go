// Package resolver implements the prioritized credential fallback chain:
// pre-acquired delegated token, on-behalf-of exchange of a session token,
// then platform service identity. It yields exactly one tagged Credential
// per request and never returns an error; every failure mode is data.
package resolver

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/Rainier-MSFT/ID360Model/internal/config"
	"github.com/Rainier-MSFT/ID360Model/internal/core"
	"github.com/Rainier-MSFT/ID360Model/internal/platform"
)

type Resolver struct {
	exchange config.ExchangeConfig
	identity config.IdentityConfig

	httpClient *http.Client
	cache      *tokenCache
	group      singleflight.Group
}

// Option tweaks resolver construction (used by tests to inject transports).
type Option func(*Resolver)

// WithHTTPClient replaces the outbound HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) { r.httpClient = client }
}

func New(exchange config.ExchangeConfig, identity config.IdentityConfig, cache config.CacheConfig, opts ...Option) *Resolver {
	r := &Resolver{
		exchange:   exchange,
		identity:   identity,
		httpClient: &http.Client{},
	}
	if cache.Enabled {
		r.cache = newTokenCache(cache.MaxEntries, cache.FallbackTTL)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the fallback chain once for the given request headers.
// States are strictly ordered and terminal on first success:
//
//  1. a pre-acquired delegated token header short-circuits everything
//  2. a session token, if present, is exchanged (state 3); at most one
//     exchange call, never retried
//  4. otherwise the platform identity endpoints are tried, primary then
//     secondary, at most once each
func (r *Resolver) Resolve(ctx context.Context, h http.Header) core.Credential {
	// state 1: direct delegated token
	if token, source, ok := platform.FirstHeader(h, platform.DelegatedTokenHeaders); ok {
		log.Ctx(ctx).Debug().Str("source", source).Msg("resolved direct delegated credential")
		return core.Credential{
			Kind:   core.CredentialDelegatedDirect,
			Token:  token,
			Source: "header",
		}
	}

	// state 2: session-bound token
	session, source, ok := platform.FirstHeader(h, platform.SessionTokenHeaders)
	if !ok {
		// state 4: service identity fallback
		return r.resolveServiceIdentity(ctx)
	}

	// state 3: on-behalf-of exchange, single attempt
	return r.resolveExchange(ctx, session, source)
}

func (r *Resolver) resolveExchange(ctx context.Context, session, source string) core.Credential {
	logger := log.Ctx(ctx)

	if !r.exchange.Complete() {
		logger.Debug().Str("source", source).Msg("exchange credentials not configured, emitting unexchanged credential")
		return core.Credential{
			Kind:   core.CredentialDelegatedUnexchanged,
			Token:  session,
			Source: source,
			Reason: core.ErrMissingExchangeCredentials.Error(),
		}
	}

	key := cacheKey(core.CredentialDelegatedExchanged, r.exchange.Scope, session)
	token, err := r.fetchThrough(ctx, key, func() (string, error) {
		return r.exchangeOnBehalfOf(ctx, session)
	})
	if err != nil {
		logger.Warn().Err(err).Msg("on-behalf-of exchange failed, emitting unexchanged credential")
		return core.Credential{
			Kind:   core.CredentialDelegatedUnexchanged,
			Token:  session,
			Source: source,
			Reason: err.Error(),
		}
	}

	return core.Credential{
		Kind:   core.CredentialDelegatedExchanged,
		Token:  token,
		Source: source,
	}
}

func (r *Resolver) resolveServiceIdentity(ctx context.Context) core.Credential {
	logger := log.Ctx(ctx)

	key := cacheKey(core.CredentialServiceIdentity, r.identity.Resource, "")
	token, err := r.fetchThrough(ctx, key, func() (string, error) {
		return r.fetchServiceIdentityToken(ctx)
	})
	if err != nil {
		logger.Debug().Err(err).Msg("no credential source available for request")
		return core.Credential{Kind: core.CredentialNone}
	}

	return core.Credential{
		Kind:   core.CredentialServiceIdentity,
		Token:  token,
		Source: "platform",
	}
}

// fetchThrough consults the cache, collapsing concurrent fills for the same
// key into a single outbound call. With caching disabled it calls fetch
// directly, preserving the one-attempt-per-request guarantee.
func (r *Resolver) fetchThrough(ctx context.Context, key string, fetch func() (string, error)) (string, error) {
	if r.cache == nil {
		return fetch()
	}
	if token, ok := r.cache.get(key); ok {
		log.Ctx(ctx).Debug().Msg("credential cache hit")
		return token, nil
	}
	value, err, _ := r.group.Do(key, func() (any, error) {
		if token, ok := r.cache.get(key); ok {
			return token, nil
		}
		token, err := fetch()
		if err != nil {
			return "", err
		}
		r.cache.put(key, token)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}
