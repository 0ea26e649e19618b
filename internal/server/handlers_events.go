package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"party-pulse/internal/db"
)

type createEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	EventDate   string `json:"event_date,omitempty"`
}

type eventResponse struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	JoinCode string `json:"join_code"`
	IsActive bool   `json:"is_active"`
}

func toEventResponse(event db.Event) eventResponse {
	return eventResponse{
		ID:       event.ID,
		Slug:     event.Slug,
		Title:    event.Title,
		JoinCode: event.JoinCode,
		IsActive: event.IsActive,
	}
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor.UserID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req createEventRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, http.StatusUnprocessableEntity, "title is required")
		return
	}
	event := db.Event{
		Slug:        slugify(title),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		CreatorID:   actor.UserID,
		JoinCode:    newJoinCode(),
		IsActive:    true,
	}
	if req.EventDate != "" {
		if parsed, err := time.Parse(time.RFC3339, req.EventDate); err == nil {
			event.EventDate = &parsed
		}
	}
	created, err := s.store.CreateEvent(r.Context(), event)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	log.Printf("event created event_id=%s slug=%s join_code=%s", created.ID, created.Slug, created.JoinCode)
	writeJSON(w, http.StatusCreated, toEventResponse(created))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.store.EventByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

func (s *Server) handleGetEventBySlug(w http.ResponseWriter, r *http.Request) {
	event, err := s.store.EventBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// handleLiveLookup resolves a short display code to the event, used by the
// shared display to find its channel.
func (s *Server) handleLiveLookup(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))
	event, err := s.store.EventByJoinCode(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

func (s *Server) handleGameManifest(w http.ResponseWriter, r *http.Request) {
	module := s.registry.Resolve(r.PathValue("slug"))
	writeJSON(w, http.StatusOK, module.Manifest())
}
