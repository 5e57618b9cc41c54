package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bibguard/bibguard/internal/domain"
	"github.com/bibguard/bibguard/internal/verify"
)

// maxRequestBodySize bounds verify payloads. Bibliographies and LaTeX
// sources are text; 10 MB is far beyond any real document.
const maxRequestBodySize = 10 << 20

// verifyRequest is the JSON request body for a verification run.
type verifyRequest struct {
	// Bibliography is the raw BibTeX text to verify.
	Bibliography string `json:"bibliography" validate:"required,min=3"`

	// Document is the optional LaTeX source; enables cited/uncited checks.
	Document string `json:"document,omitempty"`

	// CheckDuplicates enables duplicate clustering.
	CheckDuplicates bool `json:"check_duplicates,omitempty"`

	// Workers overrides the entry-resolution pool size. Zero means the
	// server default.
	Workers int `json:"workers,omitempty" validate:"gte=0,lte=32"`
}

// verifyHandler handles POST /api/v1/verify. The response body is the full
// report JSON, or its Markdown rendering when ?format=markdown is set.
func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req verifyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.verifier.Run(r.Context(), req.Bibliography, req.Document, verify.Options{
		Workers:         req.Workers,
		CheckDuplicates: req.CheckDuplicates,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("verification run failed")
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(rep.Markdown()))
		return
	}

	writeJSON(w, http.StatusOK, rep)
}
