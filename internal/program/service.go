package program

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"party-pulse/internal/db"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Actor identifies the caller of a mutation. Every mutation requires the
// actor to be the event's creator or a moderator attendee.
type Actor struct {
	UserID string
}

type BlockSpec struct {
	BlockType       string         `json:"block_type" validate:"required,oneof=game custom slideshow message_wall"`
	GameID          string         `json:"game_id,omitempty"`
	Title           string         `json:"title" validate:"required,max=160"`
	DurationMinutes int            `json:"duration_minutes" validate:"min=0,max=600"`
	Config          map[string]any `json:"config,omitempty"`
}

type BlockUpdate struct {
	Title           *string        `json:"title,omitempty" validate:"omitempty,max=160"`
	DurationMinutes *int           `json:"duration_minutes,omitempty" validate:"omitempty,min=0,max=600"`
	Config          map[string]any `json:"config,omitempty"`
	GameState       map[string]any `json:"game_state,omitempty"`
}

// State is the resync payload read by late joiners and reconnecting
// clients: derived program state plus the authoritative active block.
type State struct {
	EventID      string  `json:"event_id"`
	ProgramState string  `json:"program_state"`
	ActiveBlock  *Block  `json:"active_block,omitempty"`
	Blocks       []Block `json:"blocks"`
}

type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) authorize(ctx context.Context, eventID string, actor Actor) error {
	creator, err := s.repo.EventCreator(ctx, eventID)
	if err != nil {
		return err
	}
	if creator == actor.UserID {
		return nil
	}
	moderator, err := s.repo.IsEventModerator(ctx, eventID, actor.UserID)
	if err != nil {
		return err
	}
	if !moderator {
		return Unauthorized("not a moderator of this event")
	}
	return nil
}

// Authorize reports whether the actor may mutate the event: the creator or
// a moderator attendee.
func (s *Service) Authorize(ctx context.Context, actor Actor, eventID string) error {
	return s.authorize(ctx, eventID, actor)
}

func toJSON(value map[string]any) datatypes.JSON {
	if len(value) == 0 {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// ListBlocks returns the event's blocks ordered by sort order. Read access
// is broader than mutation access, so no actor check.
func (s *Service) ListBlocks(ctx context.Context, eventID string) ([]Block, error) {
	return s.repo.ListBlocks(ctx, eventID)
}

// CreateBlock appends a block at max(sort_order)+1.
func (s *Service) CreateBlock(ctx context.Context, actor Actor, eventID string, spec BlockSpec) (Block, error) {
	if err := s.authorize(ctx, eventID, actor); err != nil {
		return Block{}, err
	}
	if err := s.validate.Struct(spec); err != nil {
		return Block{}, Invalid("invalid block: " + err.Error())
	}
	if spec.BlockType == db.BlockTypeGame && spec.GameID == "" {
		return Block{}, Invalid("game blocks require a game_id")
	}
	blocks, err := s.repo.ListBlocks(ctx, eventID)
	if err != nil {
		return Block{}, err
	}
	nextOrder := 0
	for _, b := range blocks {
		if b.SortOrder >= nextOrder {
			nextOrder = b.SortOrder + 1
		}
	}
	block := Block{
		ID:              uuid.NewString(),
		EventID:         eventID,
		BlockType:       spec.BlockType,
		Title:           spec.Title,
		DurationMinutes: spec.DurationMinutes,
		SortOrder:       nextOrder,
		Status:          db.BlockStatusPending,
		Config:          toJSON(spec.Config),
	}
	if spec.GameID != "" {
		if _, err := s.repo.GameByID(ctx, spec.GameID); err != nil {
			return Block{}, err
		}
		gameID := spec.GameID
		block.GameID = &gameID
	}
	return s.repo.InsertBlock(ctx, block)
}

// DeleteBlock hard-deletes; remaining sort orders keep their gaps.
func (s *Service) DeleteBlock(ctx context.Context, actor Actor, eventID, blockID string) error {
	if err := s.authorize(ctx, eventID, actor); err != nil {
		return err
	}
	return s.repo.DeleteBlock(ctx, eventID, blockID)
}

// UpdateBlock applies a partial update of title/duration/config/game_state.
func (s *Service) UpdateBlock(ctx context.Context, actor Actor, eventID, blockID string, update BlockUpdate) (Block, error) {
	if err := s.authorize(ctx, eventID, actor); err != nil {
		return Block{}, err
	}
	if err := s.validate.Struct(update); err != nil {
		return Block{}, Invalid("invalid update: " + err.Error())
	}
	fields := map[string]any{}
	if update.Title != nil {
		if *update.Title == "" {
			return Block{}, Invalid("title must not be empty")
		}
		fields["title"] = *update.Title
	}
	if update.DurationMinutes != nil {
		fields["duration_minutes"] = *update.DurationMinutes
	}
	if update.Config != nil {
		fields["config"] = toJSON(update.Config)
	}
	if update.GameState != nil {
		fields["game_state"] = toJSON(update.GameState)
	}
	if len(fields) == 0 {
		return Block{}, Invalid("nothing to update")
	}
	if err := s.repo.UpdateBlock(ctx, eventID, blockID, fields); err != nil {
		return Block{}, err
	}
	return s.repo.GetBlock(ctx, eventID, blockID)
}

// ReorderBlocks reassigns sort_order = index for the given id order. The id
// set must be a bijection with the event's existing blocks.
func (s *Service) ReorderBlocks(ctx context.Context, actor Actor, eventID string, orderedIDs []string) error {
	if err := s.authorize(ctx, eventID, actor); err != nil {
		return err
	}
	blocks, err := s.repo.ListBlocks(ctx, eventID)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(blocks) {
		return Conflict("block id set does not match the program")
	}
	existing := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		existing[b.ID] = struct{}{}
	}
	order := make(map[string]int, len(orderedIDs))
	for index, id := range orderedIDs {
		if _, ok := existing[id]; !ok {
			return Conflict("block id set does not match the program")
		}
		if _, dup := order[id]; dup {
			return Conflict("duplicate block id in reorder")
		}
		order[id] = index
	}
	return s.repo.ReorderBlocks(ctx, eventID, order)
}

// MoveBlock swaps a block with its neighbor in the given direction.
func (s *Service) MoveBlock(ctx context.Context, actor Actor, eventID, blockID, direction string) error {
	if direction != "up" && direction != "down" {
		return Invalid("direction must be up or down")
	}
	if err := s.authorize(ctx, eventID, actor); err != nil {
		return err
	}
	blocks, err := s.repo.ListBlocks(ctx, eventID)
	if err != nil {
		return err
	}
	index := -1
	for i, b := range blocks {
		if b.ID == blockID {
			index = i
			break
		}
	}
	if index == -1 {
		return NotFound("block not found")
	}
	swap := index - 1
	if direction == "down" {
		swap = index + 1
	}
	if swap < 0 || swap >= len(blocks) {
		return Invalid("block is already at the edge")
	}
	order := map[string]int{
		blocks[index].ID: blocks[swap].SortOrder,
		blocks[swap].ID:  blocks[index].SortOrder,
	}
	return s.repo.ReorderBlocks(ctx, eventID, order)
}

// ApplyTemplate replaces the whole program with a template, all or nothing.
func (s *Service) ApplyTemplate(ctx context.Context, actor Actor, eventID, eventType string) ([]Block, error) {
	if err := s.authorize(ctx, eventID, actor); err != nil {
		return nil, err
	}
	template, ok := Templates[eventType]
	if !ok {
		return nil, Invalid("unknown event type: " + eventType)
	}
	// An empty template ("custom") clears the program.
	slugs := make([]string, 0)
	for _, t := range template {
		if t.GameSlug != "" {
			slugs = append(slugs, t.GameSlug)
		}
	}
	resolved, err := s.repo.ResolveGameSlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	now := s.now()
	blocks := make([]Block, 0, len(template))
	for i, t := range template {
		block := Block{
			ID:              uuid.NewString(),
			EventID:         eventID,
			BlockType:       t.BlockType,
			Title:           t.Title,
			DurationMinutes: t.DurationMinutes,
			SortOrder:       i,
			Status:          db.BlockStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if t.GameSlug != "" {
			gameID, ok := resolved[t.GameSlug]
			if !ok {
				// Fail loudly before anything is written.
				return nil, Invalid("unknown game slug in template: " + t.GameSlug)
			}
			block.GameID = &gameID
		}
		blocks = append(blocks, block)
	}
	if err := s.repo.ReplaceBlocks(ctx, eventID, blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// Start activates the first pending block. Valid only before the program
// has started.
func (s *Service) Start(ctx context.Context, actor Actor, eventID string) (*Block, error) {
	if err := s.authorize(ctx, eventID, actor); err != nil {
		return nil, err
	}
	blocks, err := s.repo.ListBlocks(ctx, eventID)
	if err != nil {
		return nil, err
	}
	plan, err := PlanStart(blocks, s.now())
	if err != nil {
		return nil, err
	}
	result, err := s.repo.ApplyTransition(ctx, eventID, plan)
	if err != nil {
		return nil, err
	}
	if !result.Activated {
		return nil, Conflict("program already started")
	}
	block, err := s.repo.GetBlock(ctx, eventID, plan.ActivateID)
	if err != nil {
		return nil, err
	}
	log.Printf("program started event_id=%s block_id=%s", eventID, block.ID)
	return &block, nil
}

// Advance completes the active block and activates the next pending one.
// Returns (nil, true, nil) when the program finished, and the current state
// as a benign no-op when a concurrent caller won the race.
func (s *Service) Advance(ctx context.Context, actor Actor, eventID string) (*Block, bool, error) {
	if err := s.authorize(ctx, eventID, actor); err != nil {
		return nil, false, err
	}
	blocks, err := s.repo.ListBlocks(ctx, eventID)
	if err != nil {
		return nil, false, err
	}
	plan, err := PlanAdvance(blocks, s.now())
	if err != nil {
		return nil, false, err
	}
	result, err := s.repo.ApplyTransition(ctx, eventID, plan)
	if err != nil {
		return nil, false, err
	}
	if result.Completed == 0 && !result.Activated {
		// Lost the race: someone else already advanced. Report current state.
		current, err := s.repo.ListBlocks(ctx, eventID)
		if err != nil {
			return nil, false, err
		}
		if active := ActiveBlocks(current); len(active) > 0 {
			return &active[0], false, nil
		}
		return nil, DeriveState(current) == StateFinished, nil
	}
	if plan.ActivateID == "" {
		log.Printf("program finished event_id=%s", eventID)
		return nil, true, nil
	}
	block, err := s.repo.GetBlock(ctx, eventID, plan.ActivateID)
	if err != nil {
		return nil, false, err
	}
	log.Printf("program advanced event_id=%s block_id=%s", eventID, block.ID)
	return &block, false, nil
}

// Activate is the out-of-band jump: complete everything active, then
// activate the target regardless of sort order.
func (s *Service) Activate(ctx context.Context, actor Actor, eventID, blockID string) (*Block, error) {
	if err := s.authorize(ctx, eventID, actor); err != nil {
		return nil, err
	}
	blocks, err := s.repo.ListBlocks(ctx, eventID)
	if err != nil {
		return nil, err
	}
	plan, err := PlanActivate(blocks, blockID, s.now())
	if err != nil {
		return nil, err
	}
	if !plan.empty() {
		result, err := s.repo.ApplyTransition(ctx, eventID, plan)
		if err != nil {
			return nil, err
		}
		if plan.ActivateID != "" && !result.Activated {
			return nil, Conflict("block is no longer pending")
		}
	}
	block, err := s.repo.GetBlock(ctx, eventID, blockID)
	if err != nil {
		return nil, err
	}
	log.Printf("block activated event_id=%s block_id=%s type=%s", eventID, block.ID, block.BlockType)
	return &block, nil
}

// Deactivate completes all active blocks without activating a successor.
func (s *Service) Deactivate(ctx context.Context, actor Actor, eventID string) error {
	if err := s.authorize(ctx, eventID, actor); err != nil {
		return err
	}
	blocks, err := s.repo.ListBlocks(ctx, eventID)
	if err != nil {
		return err
	}
	plan := PlanDeactivate(blocks, s.now())
	if len(plan.CompleteIDs) == 0 {
		return nil
	}
	if _, err := s.repo.ApplyTransition(ctx, eventID, plan); err != nil {
		return err
	}
	log.Printf("program deactivated event_id=%s", eventID)
	return nil
}

// StartGame appends an ad-hoc game block that is active immediately. The
// returned block's id doubles as the program id scoping GameResponse rows.
func (s *Service) StartGame(ctx context.Context, actor Actor, eventID, gameID string) (*Block, error) {
	if err := s.authorize(ctx, eventID, actor); err != nil {
		return nil, err
	}
	game, err := s.repo.GameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	blocks, err := s.repo.ListBlocks(ctx, eventID)
	if err != nil {
		return nil, err
	}
	// Complete whatever is running; the ad-hoc game takes over.
	if plan := PlanDeactivate(blocks, s.now()); len(plan.CompleteIDs) > 0 {
		if _, err := s.repo.ApplyTransition(ctx, eventID, plan); err != nil {
			return nil, err
		}
	}
	nextOrder := 0
	for _, b := range blocks {
		if b.SortOrder >= nextOrder {
			nextOrder = b.SortOrder + 1
		}
	}
	now := s.now()
	id := game.ID
	block := Block{
		ID:        uuid.NewString(),
		EventID:   eventID,
		BlockType: db.BlockTypeGame,
		GameID:    &id,
		Title:     game.Name,
		SortOrder: nextOrder,
		Status:    db.BlockStatusActive,
		StartedAt: &now,
	}
	inserted, err := s.repo.InsertBlock(ctx, block)
	if err != nil {
		return nil, err
	}
	log.Printf("ad-hoc game started event_id=%s program_id=%s game=%s", eventID, inserted.ID, game.Slug)
	return &inserted, nil
}

// CurrentState is the authoritative snapshot used for late-join resync.
func (s *Service) CurrentState(ctx context.Context, eventID string) (State, error) {
	blocks, err := s.repo.ListBlocks(ctx, eventID)
	if err != nil {
		return State{}, err
	}
	state := State{
		EventID:      eventID,
		ProgramState: DeriveState(blocks),
		Blocks:       blocks,
	}
	if active := ActiveBlocks(blocks); len(active) > 0 {
		state.ActiveBlock = &active[0]
	}
	return state, nil
}

// GameSlug resolves a block's catalog slug for broadcast payloads.
func (s *Service) GameSlug(ctx context.Context, block *Block) string {
	if block == nil || block.GameID == nil {
		return ""
	}
	game, err := s.repo.GameByID(ctx, *block.GameID)
	if err != nil {
		return ""
	}
	return game.Slug
}
