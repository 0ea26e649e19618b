package program

import (
	"context"

	"party-pulse/internal/db"
)

// TransitionResult reports how many rows each conditional step of a
// Transition actually touched.
type TransitionResult struct {
	Completed int
	Activated bool
}

// Repository is the durable program store. Implementations must make every
// multi-row operation atomic and must apply Transition steps conditionally
// (complete only rows still active, activate only a row still pending).
type Repository interface {
	EventCreator(ctx context.Context, eventID string) (string, error)
	IsEventModerator(ctx context.Context, eventID, userID string) (bool, error)

	ListBlocks(ctx context.Context, eventID string) ([]Block, error)
	// ListActiveTimed returns every active block with a planned duration,
	// across events. The auto-advance sweep uses it to find overdue blocks
	// whose timer died with a restarted process.
	ListActiveTimed(ctx context.Context) ([]Block, error)
	GetBlock(ctx context.Context, eventID, blockID string) (Block, error)
	InsertBlock(ctx context.Context, block Block) (Block, error)
	DeleteBlock(ctx context.Context, eventID, blockID string) error
	UpdateBlock(ctx context.Context, eventID, blockID string, fields map[string]any) error
	ReorderBlocks(ctx context.Context, eventID string, order map[string]int) error
	ReplaceBlocks(ctx context.Context, eventID string, blocks []Block) error

	ResolveGameSlugs(ctx context.Context, slugs []string) (map[string]string, error)
	GameByID(ctx context.Context, gameID string) (db.Game, error)

	ApplyTransition(ctx context.Context, eventID string, plan Transition) (TransitionResult, error)
}
