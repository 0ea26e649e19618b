package program

import (
	"sort"
	"time"

	"party-pulse/internal/db"
)

// Derived event-level states.
const (
	StateNotStarted = "not_started"
	StateRunning    = "running"
	StatePaused     = "paused"
	StateFinished   = "finished"
)

type Block = db.ProgramBlock

// Transition is a planned status change, applied atomically by a
// Repository. Complete steps only touch rows still active and the activate
// step only touches a row still pending, so a raced apply degrades to a
// zero-row no-op instead of a double transition.
type Transition struct {
	CompleteIDs []string
	ActivateID  string
	At          time.Time
}

func (t Transition) empty() bool {
	return len(t.CompleteIDs) == 0 && t.ActivateID == ""
}

func sortBlocks(blocks []Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].SortOrder < blocks[j].SortOrder
	})
}

// DeriveState computes the event-level program state from its blocks.
func DeriveState(blocks []Block) string {
	if len(blocks) == 0 {
		return StateNotStarted
	}
	anyCompleted := false
	allCompleted := true
	for _, b := range blocks {
		switch b.Status {
		case db.BlockStatusActive:
			return StateRunning
		case db.BlockStatusCompleted:
			anyCompleted = true
		default:
			allCompleted = false
		}
	}
	if anyCompleted && allCompleted {
		return StateFinished
	}
	if anyCompleted {
		// Completed blocks exist but nothing is active: a manual pause.
		return StatePaused
	}
	return StateNotStarted
}

// ActiveBlocks returns every active block. A healthy event has at most one,
// but transitions must defensively handle more.
func ActiveBlocks(blocks []Block) []Block {
	active := make([]Block, 0, 1)
	for _, b := range blocks {
		if b.Status == db.BlockStatusActive {
			active = append(active, b)
		}
	}
	return active
}

func activeIDs(blocks []Block) []string {
	ids := make([]string, 0, 1)
	for _, b := range blocks {
		if b.Status == db.BlockStatusActive {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// FirstPending returns the pending block with the lowest sort order.
func FirstPending(blocks []Block) *Block {
	sortBlocks(blocks)
	for i := range blocks {
		if blocks[i].Status == db.BlockStatusPending {
			return &blocks[i]
		}
	}
	return nil
}

// NextPendingAfter returns the first pending block strictly after the given
// sort order.
func NextPendingAfter(blocks []Block, sortOrder int) *Block {
	sortBlocks(blocks)
	for i := range blocks {
		if blocks[i].Status == db.BlockStatusPending && blocks[i].SortOrder > sortOrder {
			return &blocks[i]
		}
	}
	return nil
}

// PlanStart picks the first pending block. Valid only when nothing is
// active.
func PlanStart(blocks []Block, now time.Time) (Transition, error) {
	switch DeriveState(blocks) {
	case StateRunning:
		return Transition{}, Conflict("program already running")
	case StatePaused:
		return Transition{}, Conflict("program paused, activate a block instead")
	case StateFinished:
		return Transition{}, Conflict("program already finished")
	}
	first := FirstPending(blocks)
	if first == nil {
		return Transition{}, Invalid("no pending blocks to start")
	}
	return Transition{ActivateID: first.ID, At: now}, nil
}

// PlanAdvance completes the current active block(s) and activates the next
// pending block after the highest active sort order. A nil ActivateID with
// completions means the program just finished.
func PlanAdvance(blocks []Block, now time.Time) (Transition, error) {
	active := ActiveBlocks(blocks)
	if len(active) == 0 {
		return Transition{}, Conflict("no active block to advance")
	}
	highest := active[0].SortOrder
	for _, b := range active {
		if b.SortOrder > highest {
			highest = b.SortOrder
		}
	}
	plan := Transition{CompleteIDs: activeIDs(blocks), At: now}
	if next := NextPendingAfter(blocks, highest); next != nil {
		plan.ActivateID = next.ID
	}
	return plan, nil
}

// PlanActivate is the moderator override: complete whatever is active and
// jump to the target, regardless of sort order.
func PlanActivate(blocks []Block, blockID string, now time.Time) (Transition, error) {
	var target *Block
	for i := range blocks {
		if blocks[i].ID == blockID {
			target = &blocks[i]
			break
		}
	}
	if target == nil {
		return Transition{}, NotFound("block not found")
	}
	switch target.Status {
	case db.BlockStatusCompleted:
		return Transition{}, Conflict("block already completed")
	case db.BlockStatusActive:
		// Already where we want to be; just sweep up any stray extras.
		plan := Transition{At: now}
		for _, id := range activeIDs(blocks) {
			if id != target.ID {
				plan.CompleteIDs = append(plan.CompleteIDs, id)
			}
		}
		return plan, nil
	}
	return Transition{
		CompleteIDs: activeIDs(blocks),
		ActivateID:  target.ID,
		At:          now,
	}, nil
}

// PlanDeactivate completes all active blocks without activating anything.
// Pending blocks stay pending; this is a manual pause, not completion.
func PlanDeactivate(blocks []Block, now time.Time) Transition {
	return Transition{CompleteIDs: activeIDs(blocks), At: now}
}

// Deadline returns the auto-advance deadline for an active block with a
// planned duration. ok is false when no deadline applies.
func Deadline(b Block) (time.Time, bool) {
	if b.Status != db.BlockStatusActive || b.StartedAt == nil || b.DurationMinutes <= 0 {
		return time.Time{}, false
	}
	return b.StartedAt.Add(time.Duration(b.DurationMinutes) * time.Minute), true
}
