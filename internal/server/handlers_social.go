package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"party-pulse/internal/db"
	"party-pulse/internal/realtime"
)

type postMessageRequest struct {
	AttendeeID string `json:"attendee_id"`
	Content    string `json:"content"`
}

type postPhotoRequest struct {
	AttendeeID  string `json:"attendee_id"`
	URL         string `json:"url"`
	StoragePath string `json:"storage_path"`
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.store.ListMessages(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	var req postMessageRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" || utf8.RuneCountInString(content) > s.cfg.MaxMessageLength {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("content must be between 1 and %d characters", s.cfg.MaxMessageLength))
		return
	}
	attendee, err := s.store.AttendeeByID(r.Context(), eventID, req.AttendeeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	message, err := s.store.InsertMessage(r.Context(), db.SocialMessage{
		EventID:     eventID,
		AttendeeID:  attendee.ID,
		DisplayName: attendee.DisplayName,
		Content:     content,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.hub.Broadcast(eventID, realtime.Command{
		Action: realtime.ActionWallMessage,
		Data: map[string]any{
			"id":           message.ID,
			"attendee_id":  message.AttendeeID,
			"display_name": message.DisplayName,
			"content":      message.Content,
		},
	})
	writeJSON(w, http.StatusCreated, message)
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := s.store.ListPhotos(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"photos": photos})
}

// handlePostPhoto records photo metadata only; the binary lives in object
// storage and arrives here as a URL after upload.
func (s *Server) handlePostPhoto(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	// URLs can carry inline base64 data; the payload cap keeps those in check.
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxPhotoBytes))
	var req postPhotoRequest
	if err := readJSON(r.Body, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("photo payload exceeds %d bytes", s.cfg.MaxPhotoBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusUnprocessableEntity, "url is required")
		return
	}
	attendee, err := s.store.AttendeeByID(r.Context(), eventID, req.AttendeeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	photo, err := s.store.InsertPhoto(r.Context(), db.SocialPhoto{
		EventID:     eventID,
		AttendeeID:  attendee.ID,
		DisplayName: attendee.DisplayName,
		StoragePath: req.StoragePath,
		URL:         req.URL,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.hub.Broadcast(eventID, realtime.Command{
		Action: realtime.ActionWallPhoto,
		Data: map[string]any{
			"id":           photo.ID,
			"attendee_id":  photo.AttendeeID,
			"display_name": photo.DisplayName,
			"url":          photo.URL,
		},
	})
	writeJSON(w, http.StatusCreated, photo)
}
