package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"party-pulse/internal/realtime"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebsocket joins a participant to the event channel. The socket is a
// dumb relay: every non-track command a member sends is fanned out to the
// whole channel, durable mutations go through the HTTP API instead.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if _, err := s.store.EventByID(r.Context(), eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	query := r.URL.Query()
	presence := realtime.Presence{
		ParticipantID: query.Get("participant_id"),
		DisplayName:   query.Get("display_name"),
		IsModerator:   query.Get("moderator") == "1",
		IsDisplay:     query.Get("display") == "1",
	}
	if presence.ParticipantID == "" {
		writeError(w, http.StatusUnprocessableEntity, "participant_id is required")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed event_id=%s error=%v", eventID, err)
		return
	}
	s.hub.Join(eventID, conn, presence)
	log.Printf("channel joined event_id=%s participant_id=%s", eventID, presence.ParticipantID)

	s.sendSnapshot(r, eventID, conn)

	heartbeat := time.Duration(s.cfg.HeartbeatSeconds) * time.Second
	readDeadline := 2 * heartbeat
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	done := make(chan struct{})
	go s.pingLoop(eventID, conn, heartbeat, done)

	for {
		var cmd realtime.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		switch cmd.Action {
		case "track":
			s.hub.Track(eventID, conn, presenceFrom(cmd.Data, presence))
		default:
			s.hub.Broadcast(eventID, cmd)
		}
	}
	close(done)
	s.hub.Leave(eventID, conn)
	log.Printf("channel left event_id=%s participant_id=%s", eventID, presence.ParticipantID)
}

// sendSnapshot pushes the current active block to a freshly joined member so
// late joiners land mid-program instead of in an empty lobby.
func (s *Server) sendSnapshot(r *http.Request, eventID string, conn *websocket.Conn) {
	state, err := s.programs.CurrentState(r.Context(), eventID)
	if err != nil || state.ActiveBlock == nil {
		return
	}
	block := state.ActiveBlock
	data := map[string]any{
		"id":    block.ID,
		"type":  block.BlockType,
		"title": block.Title,
	}
	if slug := s.programs.GameSlug(r.Context(), block); slug != "" {
		data["game_slug"] = slug
	}
	if len(block.Config) > 0 {
		var config map[string]any
		if err := json.Unmarshal(block.Config, &config); err == nil {
			data["config"] = config
		}
	}
	s.hub.Send(conn, realtime.Command{Action: realtime.ActionBlockActivate, Data: data})
}

func (s *Server) pingLoop(eventID string, conn *websocket.Conn, interval time.Duration, done chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-s.stopped:
			return
		case <-ticker.C:
			if err := s.hub.Ping(conn, 5*time.Second); err != nil {
				return
			}
		}
	}
}

// presenceFrom merges a track payload over the identity the member joined
// with; missing fields keep their join-time values.
func presenceFrom(data map[string]any, fallback realtime.Presence) realtime.Presence {
	presence := fallback
	if id, ok := data["participant_id"].(string); ok && id != "" {
		presence.ParticipantID = id
	}
	if name, ok := data["display_name"].(string); ok && name != "" {
		presence.DisplayName = name
	}
	if moderator, ok := data["is_moderator"].(bool); ok {
		presence.IsModerator = moderator
	}
	if display, ok := data["is_display"].(bool); ok {
		presence.IsDisplay = display
	}
	return presence
}
