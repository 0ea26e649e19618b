package program

import (
	"context"
	"errors"
	"time"

	"party-pulse/internal/db"

	"gorm.io/gorm"
)

// GormRepository is the postgres-backed program store.
type GormRepository struct {
	conn *gorm.DB
}

func NewGormRepository(conn *gorm.DB) *GormRepository {
	return &GormRepository{conn: conn}
}

func (r *GormRepository) EventCreator(ctx context.Context, eventID string) (string, error) {
	var event db.Event
	err := r.conn.WithContext(ctx).Select("id", "creator_id").Where("id = ?", eventID).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", NotFound("event not found")
	}
	if err != nil {
		return "", err
	}
	return event.CreatorID, nil
}

func (r *GormRepository) IsEventModerator(ctx context.Context, eventID, userID string) (bool, error) {
	var count int64
	err := r.conn.WithContext(ctx).Model(&db.Attendee{}).
		Where("event_id = ? AND user_id = ? AND is_moderator", eventID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRepository) ListBlocks(ctx context.Context, eventID string) ([]Block, error) {
	var blocks []Block
	err := r.conn.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("sort_order asc").
		Find(&blocks).Error
	return blocks, err
}

func (r *GormRepository) ListActiveTimed(ctx context.Context) ([]Block, error) {
	var blocks []Block
	err := r.conn.WithContext(ctx).
		Where("status = ? AND duration_minutes > 0 AND started_at IS NOT NULL", db.BlockStatusActive).
		Find(&blocks).Error
	return blocks, err
}

func (r *GormRepository) GetBlock(ctx context.Context, eventID, blockID string) (Block, error) {
	var block Block
	err := r.conn.WithContext(ctx).
		Where("id = ? AND event_id = ?", blockID, eventID).
		First(&block).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Block{}, NotFound("block not found")
	}
	return block, err
}

func (r *GormRepository) InsertBlock(ctx context.Context, block Block) (Block, error) {
	err := r.conn.WithContext(ctx).Create(&block).Error
	return block, err
}

func (r *GormRepository) DeleteBlock(ctx context.Context, eventID, blockID string) error {
	result := r.conn.WithContext(ctx).
		Where("id = ? AND event_id = ?", blockID, eventID).
		Delete(&db.ProgramBlock{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NotFound("block not found")
	}
	return nil
}

func (r *GormRepository) UpdateBlock(ctx context.Context, eventID, blockID string, fields map[string]any) error {
	result := r.conn.WithContext(ctx).Model(&db.ProgramBlock{}).
		Where("id = ? AND event_id = ?", blockID, eventID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return NotFound("block not found")
	}
	return nil
}

// ReorderBlocks reassigns sort orders in one transaction. The unique
// (event_id, sort_order) index is checked per statement, so orders are first
// parked in negative space before the final values are written.
func (r *GormRepository) ReorderBlocks(ctx context.Context, eventID string, order map[string]int) error {
	return r.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, position := range order {
			result := tx.Model(&db.ProgramBlock{}).
				Where("id = ? AND event_id = ?", id, eventID).
				Update("sort_order", -(position + 1))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return Conflict("block set changed during reorder")
			}
		}
		for id, position := range order {
			if err := tx.Model(&db.ProgramBlock{}).
				Where("id = ? AND event_id = ?", id, eventID).
				Update("sort_order", position).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceBlocks swaps the whole program in a single transaction so viewers
// never observe an empty agenda mid-apply.
func (r *GormRepository) ReplaceBlocks(ctx context.Context, eventID string, blocks []Block) error {
	return r.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", eventID).Delete(&db.ProgramBlock{}).Error; err != nil {
			return err
		}
		if len(blocks) == 0 {
			return nil
		}
		return tx.Create(&blocks).Error
	})
}

func (r *GormRepository) ResolveGameSlugs(ctx context.Context, slugs []string) (map[string]string, error) {
	if len(slugs) == 0 {
		return map[string]string{}, nil
	}
	var games []db.Game
	if err := r.conn.WithContext(ctx).Where("slug IN ?", slugs).Find(&games).Error; err != nil {
		return nil, err
	}
	resolved := make(map[string]string, len(games))
	for _, game := range games {
		resolved[game.Slug] = game.ID
	}
	return resolved, nil
}

func (r *GormRepository) GameByID(ctx context.Context, gameID string) (db.Game, error) {
	var game db.Game
	err := r.conn.WithContext(ctx).Where("id = ?", gameID).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Game{}, NotFound("game not found")
	}
	return game, err
}

// ApplyTransition runs the planned status changes in one transaction with
// conditional updates. A concurrent transition makes the row conditions miss
// and the caller sees zero-effect counters instead of a double transition.
func (r *GormRepository) ApplyTransition(ctx context.Context, eventID string, plan Transition) (TransitionResult, error) {
	var result TransitionResult
	at := plan.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	err := r.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(plan.CompleteIDs) > 0 {
			complete := tx.Model(&db.ProgramBlock{}).
				Where("event_id = ? AND id IN ? AND status = ?", eventID, plan.CompleteIDs, db.BlockStatusActive).
				Updates(map[string]any{"status": db.BlockStatusCompleted, "completed_at": at})
			if complete.Error != nil {
				return complete.Error
			}
			result.Completed = int(complete.RowsAffected)
		}
		if plan.ActivateID != "" {
			activate := tx.Model(&db.ProgramBlock{}).
				Where("event_id = ? AND id = ? AND status = ?", eventID, plan.ActivateID, db.BlockStatusPending).
				Updates(map[string]any{"status": db.BlockStatusActive, "started_at": at})
			if activate.Error != nil {
				return activate.Error
			}
			result.Activated = activate.RowsAffected == 1
		}
		return nil
	})
	return result, err
}
