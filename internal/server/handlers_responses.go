package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"party-pulse/internal/db"

	"gorm.io/datatypes"
)

type responseRequest struct {
	AttendeeID   string         `json:"attendee_id"`
	ResponseType string         `json:"response_type"`
	RoundNumber  int            `json:"round_number"`
	Payload      map[string]any `json:"payload"`
	Score        int            `json:"score"`
}

// handleInsertResponse appends one submission row. Append-only: duplicate
// submissions are a scoring concern, not a storage one.
func (s *Server) handleInsertResponse(w http.ResponseWriter, r *http.Request) {
	programID := r.PathValue("programID")
	var req responseRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.AttendeeID) == "" || strings.TrimSpace(req.ResponseType) == "" {
		writeError(w, http.StatusUnprocessableEntity, "attendee_id and response_type are required")
		return
	}
	response := db.GameResponse{
		ProgramID:    programID,
		AttendeeID:   req.AttendeeID,
		ResponseType: req.ResponseType,
		RoundNumber:  req.RoundNumber,
		Score:        req.Score,
	}
	if len(req.Payload) > 0 {
		if raw, err := json.Marshal(req.Payload); err == nil {
			response.Payload = datatypes.JSON(raw)
		}
	}
	saved, err := s.store.InsertResponse(r.Context(), response)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	programID := r.PathValue("programID")
	round := -1
	if raw := r.URL.Query().Get("round"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "round must be an integer")
			return
		}
		round = value
	}
	responses, err := s.store.ListResponses(r.Context(), programID, round)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": responses})
}
