package realtime

// Command is the broadcast envelope shared by every role. The wire shape is
// stable: unknown actions must be ignored by receivers, never treated as an
// error.
type Command struct {
	Action string         `json:"action"`
	Data   map[string]any `json:"data,omitempty"`
}

// Actions consumed by the core. Game modules may broadcast their own on top
// of these.
const (
	ActionStartCollecting = "start_collecting"
	ActionShowFact        = "show_fact"
	ActionShowResults     = "show_results"
	ActionUpdateScores    = "update_scores"
	ActionFinish          = "finish"
	ActionSetPhase        = "set_phase"
	ActionBlockActivate   = "block_activate"
	ActionBlockDeactivate = "block_deactivate"
	ActionVoteCast        = "vote_cast"
	ActionWallMessage     = "wall_message"
	ActionWallPhoto       = "wall_photo"
	ActionAchievement     = "achievement_awarded"
	ActionPresenceSync    = "presence_sync"
)
