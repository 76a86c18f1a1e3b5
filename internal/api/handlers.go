package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Rainier-MSFT/ID360Model/internal/api/presenter"
	"github.com/Rainier-MSFT/ID360Model/internal/buildinfo"
	"github.com/Rainier-MSFT/ID360Model/internal/claims"
)

// handleHealth responds with a simple OK status to indicate the server is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleAbout responds with service information including version and commit hash.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, buildinfo.GetBuildInfo(), http.StatusOK)
}

func DecodePayload(r *http.Request, dest any, allowEmpty bool) error {
	switch r.Header.Get("Content-Type") {
	case "application/json", "":
		// strict encoding for JSON
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dest); err != nil {
			if !errors.Is(err, io.EOF) || !allowEmpty {
				return err
			}
		}
		// ensure there's no extra data
		if dec.More() {
			return errors.New("extra data in request body")
		}
		return nil
	default:
		return errors.New("unsupported content type")
	}
}

type DebugClaimsPayload struct {
	// Token is a compact token whose payload segment will be decoded.
	// No signature verification happens; this is a diagnostic view only.
	Token string `json:"token"`
}

// handleDebugClaims decodes a posted compact token into its claim mapping.
func (s *Server) handleDebugClaims(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var payload DebugClaimsPayload
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode claims debug payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.Token == "" {
		presenter.Error(w, r, "missing token", http.StatusBadRequest)
		return
	}

	mapping, err := claims.Decode(payload.Token)
	if err != nil {
		presenter.Error(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	presenter.JSON(w, r, mapping, http.StatusOK)
}
