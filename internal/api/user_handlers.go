package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rainier-MSFT/ID360Model/internal/api/presenter"
	"github.com/Rainier-MSFT/ID360Model/internal/authz"
)

// handleUserLookup resolves a credential, authorizes the caller and proxies
// the directory lookup for the referenced identity.
func (s *Server) handleUserLookup(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, r.PathValue("ref"))
}

// handleSelfLookup is the explicit self-reference route.
func (s *Server) handleSelfLookup(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, authz.SelfReference)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, ref string) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	if ref == "" {
		presenter.Error(w, r, "missing identity reference", http.StatusBadRequest)
		return
	}

	result, err := s.gateway.Lookup(ctx, r.Header, ref)
	if err != nil {
		logger.Warn().Err(err).Str("ref", ref).Msg("directory lookup rejected or failed")
		presenter.Err(w, r, err, "lookup failed")
		return
	}

	logger.Info().
		Str("ref", ref).
		Str("operation", result.Decision.Operation).
		Msg("directory lookup served")

	presenter.JSON(w, r, result.Profile, http.StatusOK)
}

// handleWhoami reports the caller's extracted roles and resolved credential kind.
func (s *Server) handleWhoami(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := s.gateway.Whoami(ctx, r.Header)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("whoami rejected")
		presenter.Err(w, r, err, "whoami failed")
		return
	}

	presenter.JSON(w, r, result, http.StatusOK)
}
