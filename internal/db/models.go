package db

import (
	"time"

	"gorm.io/datatypes"
)

// Block lifecycle statuses. Forward-only: pending -> active -> completed.
const (
	BlockStatusPending   = "pending"
	BlockStatusActive    = "active"
	BlockStatusCompleted = "completed"
)

// Block types. Closed enum; anything else is rejected at validation time.
const (
	BlockTypeGame        = "game"
	BlockTypeCustom      = "custom"
	BlockTypeSlideshow   = "slideshow"
	BlockTypeMessageWall = "message_wall"
)

// Attendee RSVP statuses.
const (
	AttendeeStatusInvited   = "invited"
	AttendeeStatusConfirmed = "confirmed"
	AttendeeStatusDeclined  = "declined"
	AttendeeStatusMaybe     = "maybe"
)

type Event struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Slug        string `gorm:"size:80;uniqueIndex;not null"`
	Title       string `gorm:"size:160;not null"`
	Description string `gorm:"size:1000"`
	CreatorID   string `gorm:"type:uuid;index;not null"`
	JoinCode    string `gorm:"size:12;uniqueIndex;not null"`
	IsActive    bool   `gorm:"not null;default:true"`
	EventDate   *time.Time
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
	Blocks      []ProgramBlock `gorm:"foreignKey:EventID"`
	Attendees   []Attendee     `gorm:"foreignKey:EventID"`
}

// ProgramBlock is one timed unit of an event's agenda. SortOrder is unique
// per event so "first pending block" selection stays deterministic; gaps
// left by deletes are fine.
type ProgramBlock struct {
	ID              string         `gorm:"type:uuid;primaryKey"`
	EventID         string         `gorm:"type:uuid;not null;uniqueIndex:idx_program_event_sort;index:idx_program_event_status"`
	BlockType       string         `gorm:"size:32;not null"`
	GameID          *string        `gorm:"type:uuid;index"`
	Title           string         `gorm:"size:160;not null"`
	DurationMinutes int            `gorm:"not null;default:0"`
	SortOrder       int            `gorm:"not null;uniqueIndex:idx_program_event_sort"`
	Status          string         `gorm:"size:16;not null;default:pending;index:idx_program_event_status"`
	Config          datatypes.JSON `gorm:"type:jsonb"`
	GameState       datatypes.JSON `gorm:"type:jsonb"`
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (ProgramBlock) TableName() string { return "event_program" }

type Attendee struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	EventID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_attendees_event_user"`
	UserID      *string   `gorm:"type:uuid;uniqueIndex:idx_attendees_event_user"`
	DisplayName string    `gorm:"size:64;not null"`
	Email       string    `gorm:"size:160"`
	IsModerator bool      `gorm:"not null;default:false"`
	Status      string    `gorm:"size:16;not null;default:invited"`
	InviteToken string    `gorm:"type:uuid;uniqueIndex;not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (Attendee) TableName() string { return "event_attendees" }

// GameResponse is an attendee submission during a block's interactive phase.
// Append-only; the durable copy is authoritative for final scoring.
type GameResponse struct {
	ID           string         `gorm:"type:uuid;primaryKey"`
	ProgramID    string         `gorm:"type:uuid;index;not null"`
	AttendeeID   string         `gorm:"type:uuid;index;not null"`
	ResponseType string         `gorm:"size:32;not null"`
	RoundNumber  int            `gorm:"not null;default:0"`
	Payload      datatypes.JSON `gorm:"type:jsonb"`
	Score        int            `gorm:"not null;default:0"`
	CreatedAt    time.Time      `gorm:"not null"`
}

// Achievement rows feed the legendaryness index. Append-only; every insert
// is also published on the event's change-feed channel.
type Achievement struct {
	ID              string         `gorm:"type:uuid;primaryKey"`
	EventID         string         `gorm:"type:uuid;index;not null"`
	AchievementType string         `gorm:"size:64;not null"`
	Title           string         `gorm:"size:160;not null"`
	Points          int            `gorm:"not null"`
	Metadata        datatypes.JSON `gorm:"type:jsonb"`
	AwardedAt       time.Time      `gorm:"not null"`
}

func (Achievement) TableName() string { return "event_achievements" }

type SocialMessage struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	EventID     string    `gorm:"type:uuid;index;not null"`
	AttendeeID  string    `gorm:"type:uuid;not null"`
	DisplayName string    `gorm:"size:64;not null"`
	Content     string    `gorm:"size:280;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (SocialMessage) TableName() string { return "event_messages" }

type SocialPhoto struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	EventID     string    `gorm:"type:uuid;index;not null"`
	AttendeeID  string    `gorm:"type:uuid;not null"`
	DisplayName string    `gorm:"size:64;not null"`
	StoragePath string    `gorm:"size:300;not null"`
	URL         string    `gorm:"size:500;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (SocialPhoto) TableName() string { return "event_photos" }

// Game is a read-only catalog entry for a pluggable mini-game.
type Game struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	Slug       string    `gorm:"size:64;uniqueIndex;not null"`
	Name       string    `gorm:"size:120;not null"`
	MinPlayers int       `gorm:"not null;default:2"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (Game) TableName() string { return "games_library" }
