package server

import (
	"context"
	"encoding/json"
	"net/http"

	"party-pulse/internal/program"
	"party-pulse/internal/realtime"
)

type startGameRequest struct {
	GameID string `json:"game_id"`
}

func (s *Server) handleProgramState(w http.ResponseWriter, r *http.Request) {
	state, err := s.programs.CurrentState(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// broadcastActivate pushes the new active block to every channel member.
// The payload carries the resolved game slug so receivers can load the
// right module without a round-trip.
func (s *Server) broadcastActivate(ctx context.Context, eventID string, block *program.Block) {
	data := map[string]any{
		"id":    block.ID,
		"type":  block.BlockType,
		"title": block.Title,
	}
	if slug := s.programs.GameSlug(ctx, block); slug != "" {
		data["game_slug"] = slug
	}
	if len(block.Config) > 0 {
		var config map[string]any
		if err := json.Unmarshal(block.Config, &config); err == nil {
			data["config"] = config
		}
	}
	s.hub.Broadcast(eventID, realtime.Command{Action: realtime.ActionBlockActivate, Data: data})
	s.scheduleBlockTimer(eventID, *block)
}

func (s *Server) broadcastDeactivate(eventID string) {
	s.hub.Broadcast(eventID, realtime.Command{Action: realtime.ActionBlockDeactivate})
	s.cancelBlockTimer(eventID)
}

func (s *Server) handleStartProgram(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	block, err := s.programs.Start(r.Context(), actorFrom(r), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.broadcastActivate(r.Context(), eventID, block)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "block": block})
}

func (s *Server) handleAdvanceProgram(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	block, finished, err := s.programs.Advance(r.Context(), actorFrom(r), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if finished || block == nil {
		s.broadcastDeactivate(eventID)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "finished": finished})
		return
	}
	s.broadcastActivate(r.Context(), eventID, block)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "block": block})
}

func (s *Server) handleActivateBlock(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	block, err := s.programs.Activate(r.Context(), actorFrom(r), eventID, r.PathValue("blockID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.broadcastActivate(r.Context(), eventID, block)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "block": block})
}

func (s *Server) handleDeactivateProgram(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if err := s.programs.Deactivate(r.Context(), actorFrom(r), eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	s.broadcastDeactivate(eventID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleStartGame launches an ad-hoc game outside the planned agenda. The
// returned block id is the program id scoping GameResponse rows.
func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req startGameRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	eventID := r.PathValue("id")
	block, err := s.programs.StartGame(r.Context(), actorFrom(r), eventID, req.GameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.broadcastActivate(r.Context(), eventID, block)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "program_id": block.ID, "block": block})
}
