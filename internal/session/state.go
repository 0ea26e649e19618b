package session

import (
	"sync"

	"party-pulse/internal/realtime"
)

// Mini-game phases within an active block.
const (
	PhaseLobby      = "lobby"
	PhaseCollecting = "collecting"
	PhasePlaying    = "playing"
	PhaseVoting     = "voting"
	PhaseResults    = "results"
	PhaseFinished   = "finished"
)

type Achievement struct {
	ID              string `json:"id"`
	AchievementType string `json:"achievement_type"`
	Title           string `json:"title"`
	Points          int    `json:"points"`
	AwardedAt       string `json:"awarded_at"`
}

type ActiveBlock struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	GameSlug string         `json:"game_slug,omitempty"`
	Config   map[string]any `json:"config,omitempty"`
}

type FactOption struct {
	AttendeeID string `json:"attendee_id"`
	Name       string `json:"name"`
}

type RoundFact struct {
	Fact              string       `json:"fact"`
	CorrectAttendeeID string       `json:"correct_attendee_id"`
	Options           []FactOption `json:"options"`
}

// State mirrors the authoritative program state plus ephemeral per-round
// mini-game state. It is owned by one participant's connection, constructed
// at session start and torn down at session end; never process-wide.
//
// Invariant: legendaryScore always equals the sum of points of
// achievements. Both are mutated together under the lock, never separately.
type State struct {
	mu sync.Mutex

	eventID   string
	programID string

	phase        string
	currentRound int
	totalRounds  int
	currentFact  *RoundFact
	votes        map[string]int
	scores       map[string]int
	myVote       string
	mySubmitted  bool

	activeBlock *ActiveBlock

	achievements   []Achievement
	legendaryScore int

	roster []realtime.Presence
}

func NewState() *State {
	return &State{
		phase:  PhaseLobby,
		votes:  make(map[string]int),
		scores: make(map[string]int),
	}
}

func (s *State) SetEventContext(eventID, programID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventID = eventID
	s.programID = programID
}

func (s *State) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *State) setPhaseLocked(phase string) {
	s.phase = phase
	s.myVote = ""
}

func (s *State) SetPhase(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPhaseLocked(phase)
}

func (s *State) ActiveBlock() *ActiveBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeBlock == nil {
		return nil
	}
	block := *s.activeBlock
	return &block
}

// SetActiveBlock resets the mini-game flow to the lobby for the new block.
func (s *State) SetActiveBlock(block ActiveBlock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeBlock = &block
	s.resetRoundLocked()
	s.phase = PhaseLobby
}

func (s *State) ClearActiveBlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeBlock = nil
	s.resetRoundLocked()
	s.phase = PhaseLobby
}

func (s *State) resetRoundLocked() {
	s.currentRound = 0
	s.totalRounds = 0
	s.currentFact = nil
	s.votes = make(map[string]int)
	s.scores = make(map[string]int)
	s.myVote = ""
	s.mySubmitted = false
}

func (s *State) ShowFact(round, total int, fact RoundFact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseVoting
	s.currentRound = round
	s.totalRounds = total
	s.currentFact = &fact
	s.votes = make(map[string]int)
	s.myVote = ""
}

func (s *State) CurrentFact() (RoundFact, int, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentFact == nil {
		return RoundFact{}, 0, 0, false
	}
	return *s.currentFact, s.currentRound, s.totalRounds, true
}

func (s *State) CastVote(attendeeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.myVote = attendeeID
}

func (s *State) MyVote() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.myVote
}

func (s *State) SetMySubmitted(submitted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mySubmitted = submitted
}

// TallyVote bumps the live counter for one candidate. This counter is the
// low-latency display copy; the durable GameResponse rows stay
// authoritative for final scoring.
func (s *State) TallyVote(votedFor string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[votedFor]++
}

func (s *State) UpdateVotes(votes map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes = make(map[string]int, len(votes))
	for k, v := range votes {
		s.votes[k] = v
	}
}

func (s *State) Votes() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	votes := make(map[string]int, len(s.votes))
	for k, v := range s.votes {
		votes[k] = v
	}
	return votes
}

func (s *State) ShowResults(votes map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setPhaseLocked(PhaseResults)
	if votes != nil {
		s.votes = make(map[string]int, len(votes))
		for k, v := range votes {
			s.votes[k] = v
		}
	}
}

func (s *State) UpdateScores(scores map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = make(map[string]int, len(scores))
	for k, v := range scores {
		s.scores[k] = v
	}
}

func (s *State) Scores() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	scores := make(map[string]int, len(s.scores))
	for k, v := range s.scores {
		scores[k] = v
	}
	return scores
}

func (s *State) SetRoster(roster []realtime.Presence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = make([]realtime.Presence, len(roster))
	copy(s.roster, roster)
}

func (s *State) Roster() []realtime.Presence {
	s.mu.Lock()
	defer s.mu.Unlock()
	roster := make([]realtime.Presence, len(s.roster))
	copy(roster, s.roster)
	return roster
}

// AddAchievement appends and bumps the score in the same locked step so the
// list and the score can never disagree.
func (s *State) AddAchievement(achievement Achievement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.achievements = append(s.achievements, achievement)
	s.legendaryScore += achievement.Points
}

// SetAchievements bulk-hydrates the list and the score together.
func (s *State) SetAchievements(achievements []Achievement, score int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.achievements = make([]Achievement, len(achievements))
	copy(s.achievements, achievements)
	s.legendaryScore = score
}

func (s *State) Achievements() ([]Achievement, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	achievements := make([]Achievement, len(s.achievements))
	copy(achievements, s.achievements)
	return achievements, s.legendaryScore
}

func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeBlock = nil
	s.resetRoundLocked()
	s.phase = PhaseLobby
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func asIntMap(v any) map[string]int {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]int, len(raw))
	for k, val := range raw {
		out[k] = asInt(val)
	}
	return out
}

// Apply routes a broadcast command into the reducer by action tag. Unknown
// actions are ignored.
func (s *State) Apply(cmd realtime.Command) {
	switch cmd.Action {
	case realtime.ActionStartCollecting:
		s.SetPhase(PhaseCollecting)
	case realtime.ActionSetPhase:
		if phase := asString(cmd.Data["phase"]); phase != "" {
			s.SetPhase(phase)
		}
	case realtime.ActionShowFact:
		fact := RoundFact{
			Fact:              asString(cmd.Data["fact"]),
			CorrectAttendeeID: asString(cmd.Data["correct_attendee_id"]),
		}
		if options, ok := cmd.Data["options"].([]any); ok {
			for _, option := range options {
				if entry, ok := option.(map[string]any); ok {
					fact.Options = append(fact.Options, FactOption{
						AttendeeID: asString(entry["attendee_id"]),
						Name:       asString(entry["name"]),
					})
				}
			}
		}
		s.ShowFact(asInt(cmd.Data["round"]), asInt(cmd.Data["total"]), fact)
	case realtime.ActionShowResults:
		s.ShowResults(asIntMap(cmd.Data["votes"]))
	case realtime.ActionUpdateScores:
		s.UpdateScores(asIntMap(cmd.Data["scores"]))
	case realtime.ActionFinish:
		s.SetPhase(PhaseFinished)
	case realtime.ActionBlockActivate:
		block := ActiveBlock{
			ID:       asString(cmd.Data["id"]),
			Type:     asString(cmd.Data["type"]),
			Title:    asString(cmd.Data["title"]),
			GameSlug: asString(cmd.Data["game_slug"]),
		}
		if config, ok := cmd.Data["config"].(map[string]any); ok {
			block.Config = config
		}
		s.SetActiveBlock(block)
	case realtime.ActionBlockDeactivate:
		s.ClearActiveBlock()
	case realtime.ActionAchievement:
		s.AddAchievement(Achievement{
			ID:              asString(cmd.Data["id"]),
			AchievementType: asString(cmd.Data["achievement_type"]),
			Title:           asString(cmd.Data["title"]),
			Points:          asInt(cmd.Data["points"]),
			AwardedAt:       asString(cmd.Data["awarded_at"]),
		})
	}
}
