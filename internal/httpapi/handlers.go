package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/terrain-assistant/server/internal/orchestrator"
	logx "github.com/terrain-assistant/server/pkg/logger"
)

// errorPayload is the structured body for non-200 responses.
type errorPayload struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat decodes the request, runs the orchestration loop, and replies
// 200 with the outcome. Only request-shape violations produce a non-200;
// tool and model failures come back as apologetic 200 answers.
func handleChat(loop *orchestrator.Loop) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orchestrator.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errorDetail{
				Message: "invalid request",
				Detail:  "body must be a JSON object",
			})
			return
		}

		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" {
			writeError(w, http.StatusBadRequest, errorDetail{
				Message: "invalid request",
				Field:   "message",
				Detail:  "message is required",
			})
			return
		}

		outcome := loop.Handle(r.Context(), req)
		writeJSON(w, http.StatusOK, outcome)
	}
}

// writeJSON encodes v without HTML escaping so non-ASCII and markup-ish text
// survive verbatim.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logx.Error().Err(err).Msg("Response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, detail errorDetail) {
	writeJSON(w, status, errorPayload{Error: detail})
}
