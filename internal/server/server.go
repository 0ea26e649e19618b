package server

import (
	"net/http"
	"sync"
	"time"

	"party-pulse/internal/config"
	"party-pulse/internal/games"
	"party-pulse/internal/program"
	"party-pulse/internal/realtime"
	"party-pulse/internal/store"
)

type Server struct {
	store    store.Store
	programs *program.Service
	hub      *realtime.Hub
	registry *games.Registry
	cfg      config.Config

	timersMu sync.Mutex
	timers   map[string]*time.Timer
	stopped  chan struct{}
	stopOnce sync.Once
}

func New(st store.Store, hub *realtime.Hub, cfg config.Config) *Server {
	return &Server{
		store:    st,
		programs: program.NewService(st),
		hub:      hub,
		registry: games.NewRegistry(),
		cfg:      cfg,
		timers:   make(map[string]*time.Timer),
		stopped:  make(chan struct{}),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	// Registered off the /api/events/ subtree: a literal segment after
	// /api/events/ would conflict with the {id}/... wildcard patterns.
	mux.HandleFunc("GET /api/slugs/{slug}", s.handleGetEventBySlug)
	mux.HandleFunc("GET /api/live/{code}", s.handleLiveLookup)

	mux.HandleFunc("GET /api/events/{id}/blocks", s.handleListBlocks)
	mux.HandleFunc("POST /api/events/{id}/blocks", s.handleCreateBlock)
	mux.HandleFunc("PATCH /api/events/{id}/blocks/{blockID}", s.handleUpdateBlock)
	mux.HandleFunc("DELETE /api/events/{id}/blocks/{blockID}", s.handleDeleteBlock)
	mux.HandleFunc("POST /api/events/{id}/blocks/reorder", s.handleReorderBlocks)
	mux.HandleFunc("POST /api/events/{id}/blocks/{blockID}/move", s.handleMoveBlock)
	mux.HandleFunc("POST /api/events/{id}/template", s.handleApplyTemplate)

	mux.HandleFunc("GET /api/events/{id}/program", s.handleProgramState)
	mux.HandleFunc("POST /api/events/{id}/program/start", s.handleStartProgram)
	mux.HandleFunc("POST /api/events/{id}/program/advance", s.handleAdvanceProgram)
	mux.HandleFunc("POST /api/events/{id}/program/deactivate", s.handleDeactivateProgram)
	mux.HandleFunc("POST /api/events/{id}/blocks/{blockID}/activate", s.handleActivateBlock)
	mux.HandleFunc("POST /api/events/{id}/program/games", s.handleStartGame)

	mux.HandleFunc("GET /api/events/{id}/attendees", s.handleListAttendees)
	mux.HandleFunc("POST /api/events/{id}/attendees", s.handleInviteAttendee)
	mux.HandleFunc("POST /api/events/{id}/attendees/join", s.handleSelfJoin)
	mux.HandleFunc("POST /api/invites/{token}/accept", s.handleAcceptInvite)

	mux.HandleFunc("GET /api/events/{id}/messages", s.handleListMessages)
	mux.HandleFunc("POST /api/events/{id}/messages", s.handlePostMessage)
	mux.HandleFunc("GET /api/events/{id}/photos", s.handleListPhotos)
	mux.HandleFunc("POST /api/events/{id}/photos", s.handlePostPhoto)

	mux.HandleFunc("GET /api/events/{id}/achievements", s.handleListAchievements)
	mux.HandleFunc("POST /api/events/{id}/achievements", s.handleAwardAchievement)

	mux.HandleFunc("POST /api/programs/{programID}/responses", s.handleInsertResponse)
	mux.HandleFunc("GET /api/programs/{programID}/responses", s.handleListResponses)

	mux.HandleFunc("GET /api/games/{slug}/manifest", s.handleGameManifest)

	mux.HandleFunc("GET /ws/events/{id}", s.handleWebsocket)

	return mux
}

// Start launches the background auto-advance sweep and re-arms timers for
// blocks that were active before a restart.
func (s *Server) Start() {
	go s.sweepLoop()
}

func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
