package server

import (
	"net/http"

	"party-pulse/internal/program"
)

type reorderRequest struct {
	OrderedBlockIDs []string `json:"ordered_block_ids"`
}

type moveRequest struct {
	Direction string `json:"direction"`
}

type templateRequest struct {
	EventType string `json:"event_type"`
}

func (s *Server) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := s.programs.ListBlocks(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": blocks})
}

func (s *Server) handleCreateBlock(w http.ResponseWriter, r *http.Request) {
	var spec program.BlockSpec
	if err := readJSON(r.Body, &spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	block, err := s.programs.CreateBlock(r.Context(), actorFrom(r), r.PathValue("id"), spec)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

func (s *Server) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	var update program.BlockUpdate
	if err := readJSON(r.Body, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	block, err := s.programs.UpdateBlock(r.Context(), actorFrom(r), r.PathValue("id"), r.PathValue("blockID"), update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (s *Server) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	err := s.programs.DeleteBlock(r.Context(), actorFrom(r), r.PathValue("id"), r.PathValue("blockID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleReorderBlocks(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.programs.ReorderBlocks(r.Context(), actorFrom(r), r.PathValue("id"), req.OrderedBlockIDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleMoveBlock(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.programs.MoveBlock(r.Context(), actorFrom(r), r.PathValue("id"), r.PathValue("blockID"), req.Direction)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	blocks, err := s.programs.ApplyTemplate(r.Context(), actorFrom(r), r.PathValue("id"), req.EventType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": blocks})
}
