package games

import "sync"

// CommandFunc broadcasts a command envelope on the event channel. Module
// moderator controls are the only game-side callers.
type CommandFunc func(action string, data map[string]any)

// Attendee is the slice of attendee data game modules are allowed to see.
type Attendee struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// View is an opaque render payload for the host UI. The core never
// interprets its contents.
type View map[string]any

type ConfigField struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Type         string   `json:"type"`
	DefaultValue any      `json:"default_value"`
	Options      []string `json:"options,omitempty"`
}

type ModerationStep struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

type Manifest struct {
	Slug            string           `json:"slug"`
	ConfigSchema    []ConfigField    `json:"config_schema"`
	ModerationSteps []ModerationStep `json:"moderation_steps"`
}

// Module is the stable contract every pluggable mini-game satisfies. The
// core depends on this shape only, never on a specific game's internals.
type Module interface {
	Manifest() Manifest
	ModeratorControls(programID, eventID string, send CommandFunc, attendees []Attendee, config map[string]any) View
	ProjectorScreen(eventSlug string, fullscreen bool) View
	PlayerCollecting(programID, attendeeID string) View
	PlayerVoting() View
	PlayerResults() View
}

type Registry struct {
	mu      sync.RWMutex
	modules map[string]func() Module
}

func NewRegistry() *Registry {
	r := &Registry{modules: make(map[string]func() Module)}
	r.Register("who-am-i", func() Module { return &whoAmI{} })
	r.Register("two-truths", func() Module { return &twoTruths{} })
	return r
}

func (r *Registry) Register(slug string, factory func() Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[slug] = factory
}

// Resolve returns the module for a slug. Unknown slugs resolve to a generic
// fallback so an unregistered game renders a placeholder instead of
// crashing the session.
func (r *Registry) Resolve(slug string) Module {
	r.mu.RLock()
	factory, ok := r.modules[slug]
	r.mu.RUnlock()
	if !ok {
		return &fallback{slug: slug}
	}
	return factory()
}

func (r *Registry) Has(slug string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[slug]
	return ok
}

type fallback struct {
	slug string
}

func (f *fallback) Manifest() Manifest {
	return Manifest{Slug: f.slug}
}

func (f *fallback) ModeratorControls(programID, eventID string, _ CommandFunc, _ []Attendee, _ map[string]any) View {
	return View{"kind": "unsupported", "slug": f.slug, "program_id": programID, "event_id": eventID}
}

func (f *fallback) ProjectorScreen(eventSlug string, fullscreen bool) View {
	return View{"kind": "unsupported", "slug": f.slug, "event_slug": eventSlug, "fullscreen": fullscreen}
}

func (f *fallback) PlayerCollecting(programID, attendeeID string) View {
	return View{"kind": "unsupported", "slug": f.slug, "program_id": programID, "attendee_id": attendeeID}
}

func (f *fallback) PlayerVoting() View {
	return View{"kind": "unsupported", "slug": f.slug}
}

func (f *fallback) PlayerResults() View {
	return View{"kind": "unsupported", "slug": f.slug}
}
