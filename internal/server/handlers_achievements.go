package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"party-pulse/internal/db"
	"party-pulse/internal/realtime"

	"gorm.io/datatypes"
)

type awardRequest struct {
	AchievementType string         `json:"achievement_type"`
	Title           string         `json:"title"`
	Points          int            `json:"points"`
	Metadata        map[string]any `json:"metadata"`
}

// achievementResponse is the wire shape shared by the list endpoint, the
// award response and the resync path of session clients.
type achievementResponse struct {
	ID              string         `json:"id"`
	EventID         string         `json:"event_id"`
	AchievementType string         `json:"achievement_type"`
	Title           string         `json:"title"`
	Points          int            `json:"points"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	AwardedAt       time.Time      `json:"awarded_at"`
}

func achievementPayload(achievement db.Achievement) achievementResponse {
	payload := achievementResponse{
		ID:              achievement.ID,
		EventID:         achievement.EventID,
		AchievementType: achievement.AchievementType,
		Title:           achievement.Title,
		Points:          achievement.Points,
		AwardedAt:       achievement.AwardedAt,
	}
	if len(achievement.Metadata) > 0 {
		var metadata map[string]any
		if err := json.Unmarshal(achievement.Metadata, &metadata); err == nil {
			payload.Metadata = metadata
		}
	}
	return payload
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	achievements, total, err := s.store.ListAchievements(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	feed := make([]achievementResponse, 0, len(achievements))
	for _, achievement := range achievements {
		feed = append(feed, achievementPayload(achievement))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"achievements": feed,
		"total_score":  total,
	})
}

// handleAwardAchievement inserts the durable row first, then publishes the
// award on the event channel. Clients that miss the broadcast pick the row
// up on their next resync.
func (s *Server) handleAwardAchievement(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	eventID := r.PathValue("id")
	if err := s.programs.Authorize(r.Context(), actor, eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	var req awardRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.AchievementType) == "" || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusUnprocessableEntity, "achievement_type and title are required")
		return
	}
	achievement := db.Achievement{
		EventID:         eventID,
		AchievementType: req.AchievementType,
		Title:           req.Title,
		Points:          req.Points,
	}
	if len(req.Metadata) > 0 {
		if raw, err := json.Marshal(req.Metadata); err == nil {
			achievement.Metadata = datatypes.JSON(raw)
		}
	}
	saved, err := s.store.InsertAchievement(r.Context(), achievement)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	log.Printf("achievement awarded event_id=%s type=%s points=%d", eventID, saved.AchievementType, saved.Points)
	s.hub.Broadcast(eventID, realtime.Command{
		Action: realtime.ActionAchievement,
		Data: map[string]any{
			"id":               saved.ID,
			"achievement_type": saved.AchievementType,
			"title":            saved.Title,
			"points":           saved.Points,
		},
	})
	writeJSON(w, http.StatusCreated, achievementPayload(saved))
}
