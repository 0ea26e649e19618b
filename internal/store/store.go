package store

import (
	"context"

	"party-pulse/internal/db"
	"party-pulse/internal/program"
)

// Store is everything the server persists: the program repository plus
// events, attendees, responses, achievements and the social wall.
type Store interface {
	program.Repository

	CreateEvent(ctx context.Context, event db.Event) (db.Event, error)
	EventByID(ctx context.Context, id string) (db.Event, error)
	EventBySlug(ctx context.Context, slug string) (db.Event, error)
	EventByJoinCode(ctx context.Context, code string) (db.Event, error)

	InviteAttendee(ctx context.Context, attendee db.Attendee) (db.Attendee, error)
	// SelfJoin is idempotent per (event, user): a second call returns the
	// existing row with created=false.
	SelfJoin(ctx context.Context, attendee db.Attendee) (db.Attendee, bool, error)
	AcceptInvite(ctx context.Context, token, userID string) (db.Attendee, error)
	ListAttendees(ctx context.Context, eventID string) ([]db.Attendee, error)
	AttendeeByID(ctx context.Context, eventID, attendeeID string) (db.Attendee, error)

	InsertResponse(ctx context.Context, response db.GameResponse) (db.GameResponse, error)
	ListResponses(ctx context.Context, programID string, roundNumber int) ([]db.GameResponse, error)

	InsertAchievement(ctx context.Context, achievement db.Achievement) (db.Achievement, error)
	ListAchievements(ctx context.Context, eventID string) ([]db.Achievement, int, error)

	InsertMessage(ctx context.Context, message db.SocialMessage) (db.SocialMessage, error)
	ListMessages(ctx context.Context, eventID string) ([]db.SocialMessage, error)
	InsertPhoto(ctx context.Context, photo db.SocialPhoto) (db.SocialPhoto, error)
	ListPhotos(ctx context.Context, eventID string) ([]db.SocialPhoto, error)
}
