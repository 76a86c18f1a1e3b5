package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/Rainier-MSFT/ID360Model/internal/authz"
)

const (
	DefaultAuthority      = "https://login.microsoftonline.com"
	DefaultDirectoryScope = "https://graph.microsoft.com/.default"
	DefaultDirectoryURL   = "https://graph.microsoft.com"
	DefaultIMDSEndpoint   = "http://169.254.169.254/metadata/identity/oauth2/token"

	DefaultNetworkTimeout = 5 * time.Second
	DefaultCacheTTL       = 5 * time.Minute
	DefaultCacheEntries   = 128
)

type Config struct {
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Identity  IdentityConfig  `yaml:"identity"`
	Directory DirectoryConfig `yaml:"directory"`
	Cache     CacheConfig     `yaml:"cache"`
	Policy    PolicyConfig    `yaml:"policy"`
	Audit     AuditConfig     `yaml:"audit"`
}

// ExchangeConfig holds the client credentials for the on-behalf-of exchange.
// An incomplete config is a valid, typed state: the resolver then emits
// unexchanged credentials instead of attempting the exchange.
type ExchangeConfig struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	TenantID     string        `yaml:"tenant_id"`
	Authority    string        `yaml:"authority"`
	Scope        string        `yaml:"scope"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Complete reports whether all three exchange credentials are present.
func (c ExchangeConfig) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.TenantID != ""
}

// TokenEndpoint returns the OAuth token endpoint for the configured tenant.
func (c ExchangeConfig) TokenEndpoint() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.Authority, c.TenantID)
}

// IdentityConfig holds the platform managed-identity settings.
type IdentityConfig struct {
	// ClientID selects a user-assigned identity; empty for the system one.
	ClientID string `yaml:"client_id"`

	// Resource is the audience requested for service-identity tokens.
	Resource string `yaml:"resource"`

	// Endpoint is the primary metadata endpoint.
	Endpoint string `yaml:"endpoint"`

	// AltEndpoint and AltHeader form the secondary header-based protocol,
	// normally taken from the IDENTITY_ENDPOINT / IDENTITY_HEADER
	// environment of the execution environment.
	AltEndpoint string        `yaml:"alt_endpoint"`
	AltHeader   string        `yaml:"alt_header"`
	Timeout     time.Duration `yaml:"timeout"`
}

type DirectoryConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// MaxEntries bounds the cache size; oldest entries are evicted first.
	MaxEntries int `yaml:"max_entries"`

	// FallbackTTL applies when a cached token carries no usable expiry.
	FallbackTTL time.Duration `yaml:"fallback_ttl"`
}

type PolicyConfig struct {
	Operations []authz.Operation `yaml:"operations"`
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Type    string `yaml:"type"` // e.g., "file", "memory"
	Path    string `yaml:"path"`
}

// Default returns a runnable configuration: public cloud endpoints, the
// default policy, in-memory auditing.
func Default() *Config {
	cfg := &Config{
		Audit: AuditConfig{Enabled: true, Type: "memory"},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads, parses and validates the configuration file at the given path,
// then overlays secrets from the process environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.ApplyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv overlays process-environment values onto the config. Environment
// wins only where the file left a field empty, so explicit file values stay
// authoritative.
func (c *Config) ApplyEnv() {
	overlay := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	overlay(&c.Exchange.ClientID, "AAD_CLIENT_ID")
	overlay(&c.Exchange.ClientSecret, "AAD_CLIENT_SECRET")
	overlay(&c.Exchange.TenantID, "AAD_TENANT_ID")
	overlay(&c.Identity.ClientID, "IDENTITY_CLIENT_ID")
	overlay(&c.Identity.AltEndpoint, "IDENTITY_ENDPOINT")
	overlay(&c.Identity.AltHeader, "IDENTITY_HEADER")
}

func (c *Config) applyDefaults() {
	if c.Exchange.Authority == "" {
		c.Exchange.Authority = DefaultAuthority
	}
	if c.Exchange.Scope == "" {
		c.Exchange.Scope = DefaultDirectoryScope
	}
	if c.Exchange.Timeout <= 0 {
		c.Exchange.Timeout = DefaultNetworkTimeout
	}
	if c.Identity.Resource == "" {
		c.Identity.Resource = DefaultDirectoryURL
	}
	if c.Identity.Endpoint == "" {
		c.Identity.Endpoint = DefaultIMDSEndpoint
	}
	if c.Identity.Timeout <= 0 {
		c.Identity.Timeout = DefaultNetworkTimeout
	}
	if c.Directory.BaseURL == "" {
		c.Directory.BaseURL = DefaultDirectoryURL
	}
	if c.Directory.Timeout <= 0 {
		c.Directory.Timeout = DefaultNetworkTimeout
	}
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = DefaultCacheEntries
	}
	if c.Cache.FallbackTTL <= 0 {
		c.Cache.FallbackTTL = DefaultCacheTTL
	}
	if len(c.Policy.Operations) == 0 {
		c.Policy.Operations = authz.DefaultOperations()
	}
}

func (c *Config) Validate() error {
	seen := make(map[string]struct{})
	for idx, op := range c.Policy.Operations {
		if op.Name == "" {
			return fmt.Errorf("policy operation at index %d has empty name", idx)
		}
		if _, dup := seen[op.Name]; dup {
			return fmt.Errorf("policy operation %q declared twice", op.Name)
		}
		seen[op.Name] = struct{}{}
		if len(op.RequiredRoles) == 0 && op.Expr == "" {
			return fmt.Errorf("policy operation %q grants nothing: no roles and no condition", op.Name)
		}
	}

	if c.Audit.Enabled {
		switch c.Audit.Type {
		case "", "memory", "noop":
		case "file":
			if c.Audit.Path == "" {
				return fmt.Errorf("audit type 'file' requires a path")
			}
		default:
			return fmt.Errorf("unknown audit type %q", c.Audit.Type)
		}
	}

	return nil
}
