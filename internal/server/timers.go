package server

import (
	"context"
	"log"
	"time"

	"party-pulse/internal/program"
)

// scheduleBlockTimer arms the auto-advance deadline for an active block.
// One timer per event: a newly activated block replaces the previous one.
func (s *Server) scheduleBlockTimer(eventID string, block program.Block) {
	deadline, ok := program.Deadline(block)
	if !ok {
		s.cancelBlockTimer(eventID)
		return
	}
	wait := time.Until(deadline)
	if wait < 0 {
		wait = 0
	}
	s.timersMu.Lock()
	if existing, ok := s.timers[eventID]; ok {
		existing.Stop()
	}
	s.timers[eventID] = time.AfterFunc(wait, func() {
		s.autoAdvance(eventID, block.ID)
	})
	s.timersMu.Unlock()
}

func (s *Server) cancelBlockTimer(eventID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[eventID]; ok {
		timer.Stop()
		delete(s.timers, eventID)
	}
}

// autoAdvance fires the same transition the moderator UI fires manually.
// It runs as the event creator; losing the race to a manual advance is a
// benign no-op thanks to the conditional updates underneath.
func (s *Server) autoAdvance(eventID, expectedBlockID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	state, err := s.programs.CurrentState(ctx, eventID)
	if err != nil {
		log.Printf("auto-advance state load failed event_id=%s error=%v", eventID, err)
		return
	}
	if state.ActiveBlock == nil || state.ActiveBlock.ID != expectedBlockID {
		// The program moved on while the timer was armed.
		return
	}
	creator, err := s.store.EventCreator(ctx, eventID)
	if err != nil {
		log.Printf("auto-advance creator lookup failed event_id=%s error=%v", eventID, err)
		return
	}
	block, finished, err := s.programs.Advance(ctx, program.Actor{UserID: creator}, eventID)
	if err != nil {
		if program.IsConflict(err) {
			return
		}
		log.Printf("auto-advance failed event_id=%s error=%v", eventID, err)
		return
	}
	log.Printf("block auto-advanced event_id=%s from=%s finished=%t", eventID, expectedBlockID, finished)
	if finished || block == nil {
		s.broadcastDeactivate(eventID)
		return
	}
	s.broadcastActivate(ctx, eventID, block)
}

// sweepLoop rescues overdue active blocks whose in-process timer died with
// a restart, and re-arms timers for deadlines still in the future.
func (s *Server) sweepLoop() {
	interval := time.Duration(s.cfg.SweepSeconds) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopped:
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Server) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	blocks, err := s.store.ListActiveTimed(ctx)
	if err != nil {
		log.Printf("auto-advance sweep failed error=%v", err)
		return
	}
	now := time.Now().UTC()
	for _, block := range blocks {
		deadline, ok := program.Deadline(block)
		if !ok {
			continue
		}
		if now.After(deadline) {
			s.autoAdvance(block.EventID, block.ID)
			continue
		}
		s.timersMu.Lock()
		_, armed := s.timers[block.EventID]
		s.timersMu.Unlock()
		if !armed {
			s.scheduleBlockTimer(block.EventID, block)
		}
	}
}
