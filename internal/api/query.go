package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coursechat/coursechat/internal/app"
)

// maxQueryBodyBytes caps the /api/query request body.
const maxQueryBodyBytes = 64 * 1024

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is the reply to POST /api/query.
type QueryResponse struct {
	Answer    string       `json:"answer"`
	Sources   []SourceJSON `json:"sources"`
	SessionID string       `json:"session_id"`
}

// SourceJSON is one cited source in a query response.
type SourceJSON struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

type queryHandler struct {
	app    *app.App
	logger *slog.Logger
}

func (h *queryHandler) query(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxQueryBodyBytes)

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", h.logger)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query is required", h.logger)
		return
	}

	answer, sessionID, err := h.app.Query(r.Context(), req.Query, req.SessionID)
	if err != nil {
		h.logger.Error("answering query", "error", err, "session", sessionID)
		writeError(w, http.StatusInternalServerError, "query_failed", "failed to answer query", h.logger)
		return
	}

	resp := QueryResponse{
		Answer:    answer.Text,
		Sources:   make([]SourceJSON, 0, len(answer.Sources)),
		SessionID: sessionID,
	}
	for _, s := range answer.Sources {
		resp.Sources = append(resp.Sources, SourceJSON{Text: s.Label(), Link: s.Link})
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}
