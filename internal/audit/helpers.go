package audit

import (
	"fmt"

	"github.com/Rainier-MSFT/ID360Model/internal/buildinfo"
	"github.com/Rainier-MSFT/ID360Model/internal/config"
	"github.com/Rainier-MSFT/ID360Model/internal/core"
)

// CreateUserAgent tags outbound directory calls so downstream access logs can
// be correlated back to a gateway request and caller.
func CreateUserAgent(correlationID, identity string) string {
	return fmt.Sprintf("ID360/%s (correlation_id=%s; identity=%s)",
		buildinfo.Version, correlationID, identity)
}

// NewFromConfig builds the auditor described by the audit configuration.
func NewFromConfig(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return NewNoopAuditor(), nil
	}
	switch cfg.Type {
	case "", "memory":
		return NewInMemoryAuditor(), nil
	case "file":
		return NewFileAuditor(cfg.Path)
	case "noop":
		return NewNoopAuditor(), nil
	default:
		return nil, fmt.Errorf("unknown audit type %q", cfg.Type)
	}
}
