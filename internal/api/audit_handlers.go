package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Rainier-MSFT/ID360Model/internal/api/presenter"
)

const defaultDecisionLimit = 50

// handleAuditDecisions lists recent authorization decisions. Gated on the
// audit read operation's required roles.
func (s *Server) handleAuditDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultDecisionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			presenter.Error(w, r, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := s.gateway.RecentDecisions(ctx, r.Header, limit)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("audit decision listing rejected")
		presenter.Err(w, r, err, "listing decisions failed")
		return
	}

	presenter.JSON(w, r, entries, http.StatusOK)
}
