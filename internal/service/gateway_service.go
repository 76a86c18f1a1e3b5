package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rainier-MSFT/ID360Model/internal/api/middleware"
	"github.com/Rainier-MSFT/ID360Model/internal/audit"
	"github.com/Rainier-MSFT/ID360Model/internal/authz"
	"github.com/Rainier-MSFT/ID360Model/internal/core"
	"github.com/Rainier-MSFT/ID360Model/internal/resolver"
	"github.com/Rainier-MSFT/ID360Model/internal/roles"
)

// safeDirectoryStatuses are downstream statuses that may be passed through to
// the caller verbatim. Anything else is normalized to 500.
var safeDirectoryStatuses = map[int]struct{}{
	http.StatusBadRequest:      {},
	http.StatusUnauthorized:    {},
	http.StatusForbidden:       {},
	http.StatusNotFound:        {},
	http.StatusTooManyRequests: {},
}

// GatewayService runs the per-request pipeline: role extraction and
// credential resolution (independent, both reading only the inbound
// headers), the authorization gate, then the downstream directory call.
type GatewayService struct {
	extractor *roles.Extractor
	resolver  *resolver.Resolver
	gate      *authz.Gate
	directory core.DirectoryService
	auditor   core.Auditor
}

func NewGatewayService(
	extractor *roles.Extractor,
	res *resolver.Resolver,
	gate *authz.Gate,
	dir core.DirectoryService,
	auditor core.Auditor,
) *GatewayService {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}
	return &GatewayService{
		extractor: extractor,
		resolver:  res,
		gate:      gate,
		directory: dir,
		auditor:   auditor,
	}
}

// Lookup authorizes and performs a directory lookup for identityRef.
// identityRef may be the self-reference sentinel, which is only honored for
// true delegated credentials.
func (s *GatewayService) Lookup(ctx context.Context, h http.Header, identityRef string) (*LookupResult, error) {
	logger := log.Ctx(ctx)

	principal := s.extractor.Extract(ctx, h)
	cred := s.resolver.Resolve(ctx, h)

	entry := core.AuditEntry{
		ID:                    middleware.CorrelationCtx(ctx),
		Time:                  time.Now(),
		Action:                authz.OperationLookup,
		Identity:              principal.DisplayIdentity,
		Roles:                 principal.Roles,
		CredentialKind:        cred.Kind,
		CredentialFingerprint: audit.Fingerprint(cred.Token),
		TargetRef:             identityRef,
	}
	defer func() {
		if err := s.auditor.Log(entry); err != nil {
			logger.Error().Err(err).Msg("failed to write audit log entry for lookup")
		}
	}()

	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("credential_kind", string(cred.Kind))
	})

	if cred.Kind == core.CredentialNone && !principal.Established {
		entry.Error = "no usable identity"
		return nil, httpError(http.StatusUnauthorized, core.ErrNoCredential)
	}

	decision := s.gate.Authorize(principal, authz.OperationLookup)
	entry.RequiredRoles = decision.RequiredRoles
	if !decision.Allowed {
		entry.Error = "insufficient role"
		return nil, httpError(http.StatusForbidden, &core.InsufficientRoleError{
			Operation: decision.Operation,
			Required:  decision.RequiredRoles,
			Actual:    decision.ActualRoles,
		})
	}

	// fail fast on the self-reference shape, before any downstream call
	if err := authz.CheckSelfReference(cred, identityRef); err != nil {
		entry.Error = err.Error()
		return nil, httpError(http.StatusForbidden, err)
	}

	if !cred.Usable() {
		entry.Error = "no credential for downstream call"
		return nil, httpError(http.StatusUnauthorized, core.ErrNoCredential)
	}

	profile, err := s.directory.Lookup(ctx, cred, identityRef)
	if err != nil {
		entry.Error = err.Error()
		return nil, mapDirectoryError(err)
	}

	entry.Allowed = true
	return &LookupResult{Profile: profile, Decision: decision}, nil
}

// Whoami reports the caller's extracted principal and resolved credential
// kind without touching the downstream service.
func (s *GatewayService) Whoami(ctx context.Context, h http.Header) (*WhoamiResult, error) {
	principal := s.extractor.Extract(ctx, h)
	cred := s.resolver.Resolve(ctx, h)

	if cred.Kind == core.CredentialNone && !principal.Established {
		return nil, httpError(http.StatusUnauthorized, core.ErrNoCredential)
	}

	decision := s.gate.Authorize(principal, authz.OperationWhoami)
	if !decision.Allowed {
		return nil, httpError(http.StatusForbidden, &core.InsufficientRoleError{
			Operation: decision.Operation,
			Required:  decision.RequiredRoles,
			Actual:    decision.ActualRoles,
		})
	}

	result := &WhoamiResult{
		Identity:         principal.DisplayIdentity,
		Roles:            principal.Roles,
		CredentialKind:   cred.Kind,
		CredentialSource: cred.Source,
		CredentialReason: cred.Reason,
	}
	if cred.Token != "" {
		result.CredentialFingerprint = audit.Fingerprint(cred.Token)
	}
	return result, nil
}

// RecentDecisions returns recent audit entries to callers holding the audit
// role. Only available when the configured auditor can read entries back.
func (s *GatewayService) RecentDecisions(ctx context.Context, h http.Header, limit int) ([]core.AuditEntry, error) {
	principal := s.extractor.Extract(ctx, h)

	decision := s.gate.Authorize(principal, authz.OperationAuditRead)
	if !decision.Allowed {
		return nil, httpError(http.StatusForbidden, &core.InsufficientRoleError{
			Operation: decision.Operation,
			Required:  decision.RequiredRoles,
			Actual:    decision.ActualRoles,
		})
	}

	reader, ok := s.auditor.(core.AuditReader)
	if !ok {
		return nil, httpError(http.StatusNotImplemented,
			errors.New("configured auditor does not support reading entries"))
	}
	return reader.Recent(limit)
}

func mapDirectoryError(err error) error {
	var dirErr *core.DirectoryError
	if errors.As(err, &dirErr) {
		if _, safe := safeDirectoryStatuses[dirErr.StatusCode]; safe {
			return httpError(dirErr.StatusCode, err)
		}
		if dirErr.StatusCode == http.StatusBadGateway {
			return httpError(http.StatusBadGateway, err)
		}
	}
	return httpError(http.StatusInternalServerError, err)
}
