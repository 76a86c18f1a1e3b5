package api

import (
	"net/http"

	"github.com/Rainier-MSFT/ID360Model/internal/api/middleware"
	"github.com/Rainier-MSFT/ID360Model/internal/service"
)

type Server struct {
	gateway *service.GatewayService
}

func NewServer(gateway *service.GatewayService) *Server {
	return &Server{
		gateway: gateway,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// gated routes; the gate itself lives in the service layer because the
	// decision depends on both extracted roles and the resolved credential
	mux.HandleFunc("GET "+UserLookupRoute, s.handleUserLookup)
	mux.HandleFunc("GET "+SelfLookupRoute, s.handleSelfLookup)
	mux.HandleFunc("GET "+WhoamiRoute, s.handleWhoami)
	mux.HandleFunc("GET "+AuditDecisionsRoute, s.handleAuditDecisions)

	// diagnostics
	mux.HandleFunc("POST "+DebugClaimsRoute, s.handleDebugClaims)

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				mux)))
}
