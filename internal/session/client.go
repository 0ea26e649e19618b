package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"party-pulse/internal/realtime"

	"github.com/gorilla/websocket"
)

// Options parameterizes a session identically for moderator, attendee and
// display roles.
type Options struct {
	BaseURL       string
	EventID       string
	ParticipantID string
	DisplayName   string
	IsModerator   bool
	IsDisplay     bool
	Heartbeat     time.Duration
}

// Client joins an event channel, tracks its own presence and routes
// received commands into its State. One Client per participant connection;
// Close tears everything down with no dangling timers.
type Client struct {
	opts  Options
	state *State
	httpc *http.Client

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	done chan struct{}
	wg   sync.WaitGroup
}

func NewClient(opts Options) *Client {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 30 * time.Second
	}
	return &Client{
		opts:  opts,
		state: NewState(),
		httpc: &http.Client{Timeout: 10 * time.Second},
		done:  make(chan struct{}),
	}
}

func (c *Client) State() *State { return c.state }

func (c *Client) wsURL() string {
	base := strings.Replace(c.opts.BaseURL, "http", "ws", 1)
	query := url.Values{}
	query.Set("participant_id", c.opts.ParticipantID)
	query.Set("display_name", c.opts.DisplayName)
	if c.opts.IsModerator {
		query.Set("moderator", "1")
	}
	if c.opts.IsDisplay {
		query.Set("display", "1")
	}
	return fmt.Sprintf("%s/ws/events/%s?%s", base, c.opts.EventID, query.Encode())
}

// Connect resyncs from the durable store, dials the event channel and
// starts the read and heartbeat loops.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.Resync(ctx); err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL(), nil)
	if err != nil {
		return err
	}
	if !c.adopt(conn) {
		return errors.New("session closed")
	}
	c.state.SetEventContext(c.opts.EventID, "")
	c.announce()
	c.wg.Add(2)
	go c.readLoop()
	go c.heartbeatLoop()
	return nil
}

// Resync re-reads the authoritative program state and achievements. Called
// before the first connect and after every reconnect: broadcast state is
// only a hint, the durable rows win.
func (c *Client) Resync(ctx context.Context) error {
	var state struct {
		ProgramState string `json:"program_state"`
		ActiveBlock  *struct {
			ID        string          `json:"ID"`
			BlockType string          `json:"BlockType"`
			Title     string          `json:"Title"`
			Config    json.RawMessage `json:"Config"`
		} `json:"active_block"`
	}
	if err := c.getJSON(ctx, "/api/events/"+c.opts.EventID+"/program", &state); err != nil {
		return err
	}
	if state.ActiveBlock != nil {
		block := ActiveBlock{
			ID:    state.ActiveBlock.ID,
			Type:  state.ActiveBlock.BlockType,
			Title: state.ActiveBlock.Title,
		}
		if len(state.ActiveBlock.Config) > 0 {
			var config map[string]any
			if err := json.Unmarshal(state.ActiveBlock.Config, &config); err == nil {
				block.Config = config
			}
		}
		c.state.SetActiveBlock(block)
	} else {
		c.state.ClearActiveBlock()
	}

	var achievements struct {
		Achievements []Achievement `json:"achievements"`
		TotalScore   int           `json:"total_score"`
	}
	if err := c.getJSON(ctx, "/api/events/"+c.opts.EventID+"/achievements", &achievements); err != nil {
		return err
	}
	c.state.SetAchievements(achievements.Achievements, achievements.TotalScore)
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("resync %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("post %s: status %d", path, resp.StatusCode)
	}
	return nil
}

func (c *Client) presence() map[string]any {
	return map[string]any{
		"participant_id": c.opts.ParticipantID,
		"display_name":   c.opts.DisplayName,
		"is_moderator":   c.opts.IsModerator,
		"is_display":     c.opts.IsDisplay,
	}
}

// announce (re)tracks presence on the channel.
func (c *Client) announce() {
	_ = c.send(realtime.Command{Action: "track", Data: c.presence()})
}

// Resume must be called when the host UI regains foreground visibility; it
// re-announces presence immediately instead of waiting for the heartbeat.
func (c *Client) Resume() {
	c.announce()
}

func (c *Client) send(cmd realtime.Command) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("session not connected")
	}
	return conn.WriteJSON(cmd)
}

// SendCommand broadcasts a moderator command. The transport does not
// enforce the moderator role; durable mutations underneath do.
func (c *Client) SendCommand(action string, data map[string]any) error {
	return c.send(realtime.Command{Action: action, Data: data})
}

// SendVote broadcasts the low-latency vote tick. Durable recording goes
// through RecordVote separately.
func (c *Client) SendVote(votedFor string) error {
	c.state.CastVote(votedFor)
	return c.send(realtime.Command{Action: realtime.ActionVoteCast, Data: map[string]any{
		"voted_for": votedFor,
		"voter":     c.opts.ParticipantID,
	}})
}

// RecordVote persists the vote as a GameResponse row, the authoritative
// copy for final scoring.
func (c *Client) RecordVote(ctx context.Context, programID, votedFor string, round int) error {
	return c.postJSON(ctx, "/api/programs/"+programID+"/responses", map[string]any{
		"attendee_id":   c.opts.ParticipantID,
		"response_type": "vote",
		"round_number":  round,
		"payload":       map[string]any{"voted_for": votedFor},
	})
}

func (c *Client) SendSocialMessage(ctx context.Context, content string) error {
	return c.postJSON(ctx, "/api/events/"+c.opts.EventID+"/messages", map[string]any{
		"attendee_id": c.opts.ParticipantID,
		"content":     content,
	})
}

func (c *Client) SendSocialPhoto(ctx context.Context, photoURL string) error {
	return c.postJSON(ctx, "/api/events/"+c.opts.EventID+"/photos", map[string]any{
		"attendee_id": c.opts.ParticipantID,
		"url":         photoURL,
	})
}

func (c *Client) handle(cmd realtime.Command) {
	switch cmd.Action {
	case realtime.ActionPresenceSync:
		roster := make([]realtime.Presence, 0)
		if players, ok := cmd.Data["players"].([]any); ok {
			for _, player := range players {
				entry, ok := player.(map[string]any)
				if !ok {
					continue
				}
				id, _ := entry["participant_id"].(string)
				name, _ := entry["display_name"].(string)
				moderator, _ := entry["is_moderator"].(bool)
				display, _ := entry["is_display"].(bool)
				roster = append(roster, realtime.Presence{
					ParticipantID: id,
					DisplayName:   name,
					IsModerator:   moderator,
					IsDisplay:     display,
				})
			}
		}
		c.state.SetRoster(roster)
	case realtime.ActionVoteCast:
		// Only tally-consuming roles care about the live tick.
		if c.opts.IsModerator || c.opts.IsDisplay {
			if votedFor, ok := cmd.Data["voted_for"].(string); ok {
				c.state.TallyVote(votedFor)
			}
		}
	default:
		c.state.Apply(cmd)
	}
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}
		var cmd realtime.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			if !c.reconnect() {
				return
			}
			continue
		}
		c.handle(cmd)
	}
}

// reconnect redials with backoff, resyncing from durable state before
// applying further broadcasts on top.
func (c *Client) reconnect() bool {
	backoff := time.Second
	for {
		select {
		case <-c.done:
			return false
		case <-time.After(backoff):
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.Resync(ctx)
		if err == nil {
			var conn *websocket.Conn
			conn, _, err = websocket.DefaultDialer.DialContext(ctx, c.wsURL(), nil)
			if err == nil {
				cancel()
				if !c.adopt(conn) {
					return false
				}
				c.announce()
				log.Printf("session reconnected event_id=%s participant_id=%s", c.opts.EventID, c.opts.ParticipantID)
				return true
			}
		}
		cancel()
		log.Printf("session reconnect failed event_id=%s error=%v", c.opts.EventID, err)
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// adopt installs a freshly dialed conn unless Close already ran, in which
// case the conn is closed and discarded so nothing keeps reading from it.
func (c *Client) adopt(conn *websocket.Conn) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return false
	}
	c.conn = conn
	c.mu.Unlock()
	return true
}

// heartbeatLoop re-announces presence on a fixed interval regardless of
// visibility; mobile platforms drop idle sockets without any event the
// client could react to.
func (c *Client) heartbeatLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opts.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.announce()
		}
	}
}

// Close unsubscribes and stops all loops. Safe to call once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	close(c.done)
	if conn != nil {
		_ = conn.Close()
	}
	c.wg.Wait()
	return nil
}
