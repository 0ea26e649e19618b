package games

// whoAmI is the "guess whose fact this is" game: attendees submit facts
// about themselves, the moderator reveals them one by one and everyone
// votes on the author.
type whoAmI struct{}

func (g *whoAmI) Manifest() Manifest {
	return Manifest{
		Slug: "who-am-i",
		ConfigSchema: []ConfigField{
			{ID: "facts_per_player", Label: "Facts per player", Type: "number", DefaultValue: 1},
			{ID: "anonymous_voting", Label: "Anonymous voting", Type: "boolean", DefaultValue: true},
		},
		ModerationSteps: []ModerationStep{
			{ID: 1, Label: "Collect facts from attendees"},
			{ID: 2, Label: "Reveal facts one by one"},
			{ID: 3, Label: "Show results and award points"},
		},
	}
}

func (g *whoAmI) ModeratorControls(programID, eventID string, send CommandFunc, attendees []Attendee, config map[string]any) View {
	return View{
		"kind":       "moderator",
		"slug":       "who-am-i",
		"program_id": programID,
		"event_id":   eventID,
		"attendees":  attendees,
		"config":     config,
		"actions":    []string{"start_collecting", "show_fact", "show_results", "finish"},
	}
}

func (g *whoAmI) ProjectorScreen(eventSlug string, fullscreen bool) View {
	return View{"kind": "projector", "slug": "who-am-i", "event_slug": eventSlug, "fullscreen": fullscreen}
}

func (g *whoAmI) PlayerCollecting(programID, attendeeID string) View {
	return View{"kind": "collecting", "slug": "who-am-i", "program_id": programID, "attendee_id": attendeeID, "prompt": "Napis o sobe fakt, ktery o tobe ostatni nevedi"}
}

func (g *whoAmI) PlayerVoting() View {
	return View{"kind": "voting", "slug": "who-am-i"}
}

func (g *whoAmI) PlayerResults() View {
	return View{"kind": "results", "slug": "who-am-i"}
}

// twoTruths: each attendee submits two true statements and one lie, the
// room votes on the lie.
type twoTruths struct{}

func (g *twoTruths) Manifest() Manifest {
	return Manifest{
		Slug: "two-truths",
		ConfigSchema: []ConfigField{
			{ID: "statements_per_player", Label: "Statements per player", Type: "number", DefaultValue: 3},
		},
		ModerationSteps: []ModerationStep{
			{ID: 1, Label: "Collect statement sets"},
			{ID: 2, Label: "Reveal sets and vote on the lie"},
			{ID: 3, Label: "Show lie results"},
		},
	}
}

func (g *twoTruths) ModeratorControls(programID, eventID string, send CommandFunc, attendees []Attendee, config map[string]any) View {
	return View{
		"kind":       "moderator",
		"slug":       "two-truths",
		"program_id": programID,
		"event_id":   eventID,
		"attendees":  attendees,
		"config":     config,
		"actions":    []string{"start_collecting", "show_fact", "show_results", "finish"},
	}
}

func (g *twoTruths) ProjectorScreen(eventSlug string, fullscreen bool) View {
	return View{"kind": "projector", "slug": "two-truths", "event_slug": eventSlug, "fullscreen": fullscreen}
}

func (g *twoTruths) PlayerCollecting(programID, attendeeID string) View {
	return View{"kind": "collecting", "slug": "two-truths", "program_id": programID, "attendee_id": attendeeID, "prompt": "Dve pravdy a jedna lez"}
}

func (g *twoTruths) PlayerVoting() View {
	return View{"kind": "voting", "slug": "two-truths"}
}

func (g *twoTruths) PlayerResults() View {
	return View{"kind": "results", "slug": "two-truths"}
}
