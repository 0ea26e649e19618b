package server

import (
	"log"
	"net/http"
	"strings"

	"party-pulse/internal/db"
	"party-pulse/internal/program"
)

type inviteRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type selfJoinRequest struct {
	DisplayName string `json:"display_name"`
}

func (s *Server) handleListAttendees(w http.ResponseWriter, r *http.Request) {
	attendees, err := s.store.ListAttendees(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attendees": attendees})
}

func (s *Server) handleInviteAttendee(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	eventID := r.PathValue("id")
	event, err := s.store.EventByID(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if event.CreatorID != actor.UserID {
		writeServiceError(w, program.Unauthorized("only the event creator can invite"))
		return
	}
	var req inviteRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.DisplayName)
	if email == "" || name == "" {
		writeError(w, http.StatusUnprocessableEntity, "email and display_name are required")
		return
	}
	attendee, err := s.store.InviteAttendee(r.Context(), db.Attendee{
		EventID:     eventID,
		Email:       email,
		DisplayName: name,
		Status:      db.AttendeeStatusInvited,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	log.Printf("attendee invited event_id=%s attendee_id=%s", eventID, attendee.ID)
	writeJSON(w, http.StatusCreated, attendee)
}

// handleSelfJoin is idempotent per (event, user): rejoining returns the
// existing row as a success, never a duplicate.
func (s *Server) handleSelfJoin(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor.UserID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	eventID := r.PathValue("id")
	if _, err := s.store.EventByID(r.Context(), eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	var req selfJoinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "display_name is required")
		return
	}
	userID := actor.UserID
	attendee, created, err := s.store.SelfJoin(r.Context(), db.Attendee{
		EventID:     eventID,
		UserID:      &userID,
		DisplayName: name,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		log.Printf("attendee joined event_id=%s attendee_id=%s", eventID, attendee.ID)
	}
	writeJSON(w, status, attendee)
}

func (s *Server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor.UserID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	attendee, err := s.store.AcceptInvite(r.Context(), r.PathValue("token"), actor.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attendee)
}
