package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"party-pulse/internal/db"
	"party-pulse/internal/program"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Memory is an in-process Store. It backs tests and db-less development and
// mirrors the conditional-update semantics of the postgres store so
// transition races behave identically.
type Memory struct {
	mu           sync.Mutex
	events       map[string]db.Event
	blocks       map[string]db.ProgramBlock
	attendees    map[string]db.Attendee
	responses    []db.GameResponse
	achievements []db.Achievement
	messages     []db.SocialMessage
	photos       []db.SocialPhoto
	games        map[string]db.Game
}

func NewMemory() *Memory {
	return &Memory{
		events:    make(map[string]db.Event),
		blocks:    make(map[string]db.ProgramBlock),
		attendees: make(map[string]db.Attendee),
		games:     make(map[string]db.Game),
	}
}

// SeedGame registers a catalog entry, replacing the SQL seed migration.
func (m *Memory) SeedGame(slug, name string) db.Game {
	m.mu.Lock()
	defer m.mu.Unlock()
	game := db.Game{ID: uuid.NewString(), Slug: slug, Name: name, MinPlayers: 2, CreatedAt: time.Now().UTC()}
	m.games[game.ID] = game
	return game
}

func (m *Memory) CreateEvent(_ context.Context, event db.Event) (db.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	for _, existing := range m.events {
		if existing.Slug == event.Slug || existing.JoinCode == event.JoinCode {
			return db.Event{}, program.Conflict("slug or join code already taken")
		}
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	m.events[event.ID] = event
	return event, nil
}

func (m *Memory) EventByID(_ context.Context, id string) (db.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return db.Event{}, program.NotFound("event not found")
	}
	return event, nil
}

func (m *Memory) EventBySlug(_ context.Context, slug string) (db.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, event := range m.events {
		if event.Slug == slug {
			return event, nil
		}
	}
	return db.Event{}, program.NotFound("event not found")
}

func (m *Memory) EventByJoinCode(_ context.Context, code string) (db.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, event := range m.events {
		if event.JoinCode == code {
			return event, nil
		}
	}
	return db.Event{}, program.NotFound("event not found")
}

func (m *Memory) EventCreator(_ context.Context, eventID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok {
		return "", program.NotFound("event not found")
	}
	return event.CreatorID, nil
}

func (m *Memory) IsEventModerator(_ context.Context, eventID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, attendee := range m.attendees {
		if attendee.EventID == eventID && attendee.UserID != nil && *attendee.UserID == userID && attendee.IsModerator {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) eventBlocksLocked(eventID string) []db.ProgramBlock {
	blocks := make([]db.ProgramBlock, 0)
	for _, block := range m.blocks {
		if block.EventID == eventID {
			blocks = append(blocks, block)
		}
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].SortOrder < blocks[j].SortOrder
	})
	return blocks
}

func (m *Memory) ListBlocks(_ context.Context, eventID string) ([]db.ProgramBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventBlocksLocked(eventID), nil
}

func (m *Memory) ListActiveTimed(_ context.Context) ([]db.ProgramBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	blocks := make([]db.ProgramBlock, 0)
	for _, block := range m.blocks {
		if block.Status == db.BlockStatusActive && block.DurationMinutes > 0 && block.StartedAt != nil {
			blocks = append(blocks, block)
		}
	}
	return blocks, nil
}

func (m *Memory) GetBlock(_ context.Context, eventID, blockID string) (db.ProgramBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	block, ok := m.blocks[blockID]
	if !ok || block.EventID != eventID {
		return db.ProgramBlock{}, program.NotFound("block not found")
	}
	return block, nil
}

func (m *Memory) InsertBlock(_ context.Context, block db.ProgramBlock) (db.ProgramBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	block.CreatedAt = now
	block.UpdatedAt = now
	m.blocks[block.ID] = block
	return block, nil
}

func (m *Memory) DeleteBlock(_ context.Context, eventID, blockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	block, ok := m.blocks[blockID]
	if !ok || block.EventID != eventID {
		return program.NotFound("block not found")
	}
	delete(m.blocks, blockID)
	return nil
}

func (m *Memory) UpdateBlock(_ context.Context, eventID, blockID string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	block, ok := m.blocks[blockID]
	if !ok || block.EventID != eventID {
		return program.NotFound("block not found")
	}
	for key, value := range fields {
		switch key {
		case "title":
			if title, ok := value.(string); ok {
				block.Title = title
			}
		case "duration_minutes":
			if minutes, ok := value.(int); ok {
				block.DurationMinutes = minutes
			}
		case "config":
			if raw, ok := value.(datatypes.JSON); ok {
				block.Config = raw
			}
		case "game_state":
			if raw, ok := value.(datatypes.JSON); ok {
				block.GameState = raw
			}
		}
	}
	block.UpdatedAt = time.Now().UTC()
	m.blocks[blockID] = block
	return nil
}

func (m *Memory) ReorderBlocks(_ context.Context, eventID string, order map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range order {
		block, ok := m.blocks[id]
		if !ok || block.EventID != eventID {
			return program.Conflict("block set changed during reorder")
		}
	}
	for id, position := range order {
		block := m.blocks[id]
		block.SortOrder = position
		m.blocks[id] = block
	}
	return nil
}

func (m *Memory) ReplaceBlocks(_ context.Context, eventID string, blocks []db.ProgramBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, block := range m.blocks {
		if block.EventID == eventID {
			delete(m.blocks, id)
		}
	}
	for _, block := range blocks {
		if block.ID == "" {
			block.ID = uuid.NewString()
		}
		m.blocks[block.ID] = block
	}
	return nil
}

func (m *Memory) ResolveGameSlugs(_ context.Context, slugs []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resolved := make(map[string]string)
	for _, slug := range slugs {
		for _, game := range m.games {
			if game.Slug == slug {
				resolved[slug] = game.ID
			}
		}
	}
	return resolved, nil
}

func (m *Memory) GameByID(_ context.Context, gameID string) (db.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	game, ok := m.games[gameID]
	if !ok {
		return db.Game{}, program.NotFound("game not found")
	}
	return game, nil
}

func (m *Memory) ApplyTransition(_ context.Context, eventID string, plan program.Transition) (program.TransitionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result program.TransitionResult
	at := plan.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	for _, id := range plan.CompleteIDs {
		block, ok := m.blocks[id]
		if !ok || block.EventID != eventID || block.Status != db.BlockStatusActive {
			continue
		}
		completedAt := at
		block.Status = db.BlockStatusCompleted
		block.CompletedAt = &completedAt
		m.blocks[id] = block
		result.Completed++
	}
	if plan.ActivateID != "" {
		block, ok := m.blocks[plan.ActivateID]
		if ok && block.EventID == eventID && block.Status == db.BlockStatusPending {
			startedAt := at
			block.Status = db.BlockStatusActive
			block.StartedAt = &startedAt
			m.blocks[plan.ActivateID] = block
			result.Activated = true
		}
	}
	return result, nil
}

func (m *Memory) InviteAttendee(_ context.Context, attendee db.Attendee) (db.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if attendee.ID == "" {
		attendee.ID = uuid.NewString()
	}
	if attendee.InviteToken == "" {
		attendee.InviteToken = uuid.NewString()
	}
	for _, existing := range m.attendees {
		if existing.EventID == attendee.EventID && existing.Email != "" && existing.Email == attendee.Email {
			return db.Attendee{}, program.Conflict("attendee already invited")
		}
	}
	now := time.Now().UTC()
	attendee.CreatedAt = now
	attendee.UpdatedAt = now
	m.attendees[attendee.ID] = attendee
	return attendee, nil
}

func (m *Memory) SelfJoin(_ context.Context, attendee db.Attendee) (db.Attendee, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if attendee.UserID != nil {
		for _, existing := range m.attendees {
			if existing.EventID == attendee.EventID && existing.UserID != nil && *existing.UserID == *attendee.UserID {
				return existing, false, nil
			}
		}
	}
	if attendee.ID == "" {
		attendee.ID = uuid.NewString()
	}
	if attendee.InviteToken == "" {
		attendee.InviteToken = uuid.NewString()
	}
	attendee.Status = db.AttendeeStatusConfirmed
	now := time.Now().UTC()
	attendee.CreatedAt = now
	attendee.UpdatedAt = now
	m.attendees[attendee.ID] = attendee
	return attendee, true, nil
}

func (m *Memory) AcceptInvite(_ context.Context, token, userID string) (db.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, attendee := range m.attendees {
		if attendee.InviteToken == token {
			attendee.Status = db.AttendeeStatusConfirmed
			attendee.UserID = &userID
			attendee.UpdatedAt = time.Now().UTC()
			m.attendees[id] = attendee
			return attendee, nil
		}
	}
	return db.Attendee{}, program.NotFound("invite not found")
}

func (m *Memory) ListAttendees(_ context.Context, eventID string) ([]db.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attendees := make([]db.Attendee, 0)
	for _, attendee := range m.attendees {
		if attendee.EventID == eventID {
			attendees = append(attendees, attendee)
		}
	}
	sort.SliceStable(attendees, func(i, j int) bool {
		return attendees[i].CreatedAt.Before(attendees[j].CreatedAt)
	})
	return attendees, nil
}

func (m *Memory) AttendeeByID(_ context.Context, eventID, attendeeID string) (db.Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attendee, ok := m.attendees[attendeeID]
	if !ok || attendee.EventID != eventID {
		return db.Attendee{}, program.NotFound("attendee not found")
	}
	return attendee, nil
}

func (m *Memory) InsertResponse(_ context.Context, response db.GameResponse) (db.GameResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}
	m.responses = append(m.responses, response)
	return response, nil
}

func (m *Memory) ListResponses(_ context.Context, programID string, roundNumber int) ([]db.GameResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	responses := make([]db.GameResponse, 0)
	for _, response := range m.responses {
		if response.ProgramID != programID {
			continue
		}
		if roundNumber >= 0 && response.RoundNumber != roundNumber {
			continue
		}
		responses = append(responses, response)
	}
	return responses, nil
}

func (m *Memory) InsertAchievement(_ context.Context, achievement db.Achievement) (db.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if achievement.ID == "" {
		achievement.ID = uuid.NewString()
	}
	if achievement.AwardedAt.IsZero() {
		achievement.AwardedAt = time.Now().UTC()
	}
	m.achievements = append(m.achievements, achievement)
	return achievement, nil
}

func (m *Memory) ListAchievements(_ context.Context, eventID string) ([]db.Achievement, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	achievements := make([]db.Achievement, 0)
	total := 0
	for _, achievement := range m.achievements {
		if achievement.EventID == eventID {
			achievements = append(achievements, achievement)
			total += achievement.Points
		}
	}
	return achievements, total, nil
}

func (m *Memory) InsertMessage(_ context.Context, message db.SocialMessage) (db.SocialMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	m.messages = append(m.messages, message)
	return message, nil
}

func (m *Memory) ListMessages(_ context.Context, eventID string) ([]db.SocialMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	messages := make([]db.SocialMessage, 0)
	for _, message := range m.messages {
		if message.EventID == eventID {
			messages = append(messages, message)
		}
	}
	return messages, nil
}

func (m *Memory) InsertPhoto(_ context.Context, photo db.SocialPhoto) (db.SocialPhoto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	if photo.CreatedAt.IsZero() {
		photo.CreatedAt = time.Now().UTC()
	}
	m.photos = append(m.photos, photo)
	return photo, nil
}

func (m *Memory) ListPhotos(_ context.Context, eventID string) ([]db.SocialPhoto, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	photos := make([]db.SocialPhoto, 0)
	for _, photo := range m.photos {
		if photo.EventID == eventID {
			photos = append(photos, photo)
		}
	}
	return photos, nil
}
