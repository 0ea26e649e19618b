package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const commandsChannel = "party-pulse:commands"

// Presence is the small identity record tracked for every channel member.
type Presence struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	IsModerator   bool   `json:"is_moderator,omitempty"`
	IsDisplay     bool   `json:"is_display,omitempty"`
}

type fanoutEnvelope struct {
	Origin  string  `json:"origin"`
	EventID string  `json:"event_id"`
	Command Command `json:"command"`
}

// Hub is the per-event realtime channel: presence tracking plus broadcast
// fan-out over local websocket members and the broker for other instances.
type Hub struct {
	mu      sync.Mutex
	events  map[string]map[*websocket.Conn]Presence
	writeMu map[*websocket.Conn]*sync.Mutex
	broker  Broker
	origin  string
}

func NewHub(broker Broker) (*Hub, error) {
	h := &Hub{
		events:  make(map[string]map[*websocket.Conn]Presence),
		writeMu: make(map[*websocket.Conn]*sync.Mutex),
		broker:  broker,
		origin:  uuid.NewString(),
	}
	if broker != nil {
		err := broker.Subscribe(context.Background(), commandsChannel, h.handleBrokerMessage)
		if err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Join adds a member and pushes the recomputed roster to everyone.
func (h *Hub) Join(eventID string, conn *websocket.Conn, presence Presence) {
	h.mu.Lock()
	members := h.events[eventID]
	if members == nil {
		members = make(map[*websocket.Conn]Presence)
		h.events[eventID] = members
	}
	members[conn] = presence
	h.writeMu[conn] = &sync.Mutex{}
	h.mu.Unlock()
	h.syncPresence(eventID)
}

// Track re-announces a member's identity. Used on heartbeat and when the
// client regains foreground visibility.
func (h *Hub) Track(eventID string, conn *websocket.Conn, presence Presence) {
	h.mu.Lock()
	members := h.events[eventID]
	if members == nil {
		h.mu.Unlock()
		return
	}
	members[conn] = presence
	h.mu.Unlock()
	h.syncPresence(eventID)
}

// Leave drops a member and pushes the recomputed roster.
func (h *Hub) Leave(eventID string, conn *websocket.Conn) {
	h.mu.Lock()
	members := h.events[eventID]
	if members != nil {
		delete(members, conn)
		if len(members) == 0 {
			delete(h.events, eventID)
		}
	}
	delete(h.writeMu, conn)
	h.mu.Unlock()
	_ = conn.Close()
	h.syncPresence(eventID)
}

// Roster recomputes the full presence set from scratch on every call. O(n)
// but immune to missed-delta drift at party scale.
func (h *Hub) Roster(eventID string) []Presence {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.events[eventID]
	roster := make([]Presence, 0, len(members))
	for _, presence := range members {
		roster = append(roster, presence)
	}
	sort.Slice(roster, func(i, j int) bool {
		return roster[i].ParticipantID < roster[j].ParticipantID
	})
	return roster
}

func (h *Hub) syncPresence(eventID string) {
	roster := h.Roster(eventID)
	players := make([]map[string]any, 0, len(roster))
	for _, p := range roster {
		players = append(players, map[string]any{
			"participant_id": p.ParticipantID,
			"display_name":   p.DisplayName,
			"is_moderator":   p.IsModerator,
			"is_display":     p.IsDisplay,
		})
	}
	h.fanout(eventID, Command{
		Action: ActionPresenceSync,
		Data:   map[string]any{"players": players},
	})
}

// Broadcast delivers a command to local members and publishes it for other
// instances. Fire and forget: members briefly disconnected resync from the
// durable store instead.
func (h *Hub) Broadcast(eventID string, cmd Command) {
	h.fanout(eventID, cmd)
	if h.broker == nil {
		return
	}
	payload, err := json.Marshal(fanoutEnvelope{Origin: h.origin, EventID: eventID, Command: cmd})
	if err != nil {
		return
	}
	if err := h.broker.Publish(context.Background(), commandsChannel, payload); err != nil {
		log.Printf("broker publish failed event_id=%s action=%s error=%v", eventID, cmd.Action, err)
	}
}

func (h *Hub) handleBrokerMessage(payload []byte) {
	var envelope fanoutEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return
	}
	if envelope.Origin == h.origin {
		// Already delivered locally by Broadcast.
		return
	}
	h.fanout(envelope.EventID, envelope.Command)
}

func (h *Hub) fanout(eventID string, cmd Command) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.events[eventID]))
	for conn := range h.events[eventID] {
		conns = append(conns, conn)
	}
	h.mu.Unlock()
	data, err := json.Marshal(cmd)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := h.writeMessage(conn, data); err != nil {
			h.Leave(eventID, conn)
		}
	}
}

// Send writes a command to a single member, used for join snapshots.
func (h *Hub) Send(conn *websocket.Conn, cmd Command) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return
	}
	_ = h.writeMessage(conn, data)
}

// Ping keeps mobile connections alive; platforms silently drop idle
// sockets, so the server-side heartbeat is mandatory.
func (h *Hub) Ping(conn *websocket.Conn, deadline time.Duration) error {
	h.mu.Lock()
	lock := h.writeMu[conn]
	h.mu.Unlock()
	if lock == nil {
		return websocket.ErrCloseSent
	}
	lock.Lock()
	defer lock.Unlock()
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(deadline))
}

func (h *Hub) writeMessage(conn *websocket.Conn, data []byte) error {
	h.mu.Lock()
	lock := h.writeMu[conn]
	h.mu.Unlock()
	if lock == nil {
		lock = &sync.Mutex{}
	}
	lock.Lock()
	defer lock.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}
