package store

import (
	"context"
	"errors"
	"time"

	"party-pulse/internal/db"
	"party-pulse/internal/program"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

// Gorm is the postgres-backed Store.
type Gorm struct {
	*program.GormRepository
	conn *gorm.DB
}

func NewGorm(conn *gorm.DB) *Gorm {
	return &Gorm{
		GormRepository: program.NewGormRepository(conn),
		conn:           conn,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func (s *Gorm) CreateEvent(ctx context.Context, event db.Event) (db.Event, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if err := s.conn.WithContext(ctx).Create(&event).Error; err != nil {
		if isUniqueViolation(err) {
			return db.Event{}, program.Conflict("slug or join code already taken")
		}
		return db.Event{}, err
	}
	return event, nil
}

func (s *Gorm) eventBy(ctx context.Context, query string, arg any) (db.Event, error) {
	var event db.Event
	err := s.conn.WithContext(ctx).Where(query, arg).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Event{}, program.NotFound("event not found")
	}
	return event, err
}

func (s *Gorm) EventByID(ctx context.Context, id string) (db.Event, error) {
	return s.eventBy(ctx, "id = ?", id)
}

func (s *Gorm) EventBySlug(ctx context.Context, slug string) (db.Event, error) {
	return s.eventBy(ctx, "slug = ?", slug)
}

func (s *Gorm) EventByJoinCode(ctx context.Context, code string) (db.Event, error) {
	return s.eventBy(ctx, "join_code = ?", code)
}

func (s *Gorm) InviteAttendee(ctx context.Context, attendee db.Attendee) (db.Attendee, error) {
	if attendee.ID == "" {
		attendee.ID = uuid.NewString()
	}
	if attendee.InviteToken == "" {
		attendee.InviteToken = uuid.NewString()
	}
	if err := s.conn.WithContext(ctx).Create(&attendee).Error; err != nil {
		if isUniqueViolation(err) {
			return db.Attendee{}, program.Conflict("attendee already invited")
		}
		return db.Attendee{}, err
	}
	return attendee, nil
}

func (s *Gorm) SelfJoin(ctx context.Context, attendee db.Attendee) (db.Attendee, bool, error) {
	if attendee.ID == "" {
		attendee.ID = uuid.NewString()
	}
	if attendee.InviteToken == "" {
		attendee.InviteToken = uuid.NewString()
	}
	attendee.Status = db.AttendeeStatusConfirmed
	err := s.conn.WithContext(ctx).Create(&attendee).Error
	if err == nil {
		return attendee, true, nil
	}
	if !isUniqueViolation(err) {
		return db.Attendee{}, false, err
	}
	// The (event_id, user_id) unique index doubles as idempotent self-join.
	var existing db.Attendee
	lookupErr := s.conn.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", attendee.EventID, attendee.UserID).
		First(&existing).Error
	if lookupErr != nil {
		return db.Attendee{}, false, err
	}
	return existing, false, nil
}

func (s *Gorm) AcceptInvite(ctx context.Context, token, userID string) (db.Attendee, error) {
	var attendee db.Attendee
	err := s.conn.WithContext(ctx).Where("invite_token = ?", token).First(&attendee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Attendee{}, program.NotFound("invite not found")
	}
	if err != nil {
		return db.Attendee{}, err
	}
	updates := map[string]any{"status": db.AttendeeStatusConfirmed, "user_id": userID}
	if err := s.conn.WithContext(ctx).Model(&attendee).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return db.Attendee{}, program.Conflict("user already joined this event")
		}
		return db.Attendee{}, err
	}
	attendee.Status = db.AttendeeStatusConfirmed
	attendee.UserID = &userID
	return attendee, nil
}

func (s *Gorm) ListAttendees(ctx context.Context, eventID string) ([]db.Attendee, error) {
	var attendees []db.Attendee
	err := s.conn.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at asc").
		Find(&attendees).Error
	return attendees, err
}

func (s *Gorm) AttendeeByID(ctx context.Context, eventID, attendeeID string) (db.Attendee, error) {
	var attendee db.Attendee
	err := s.conn.WithContext(ctx).
		Where("id = ? AND event_id = ?", attendeeID, eventID).
		First(&attendee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Attendee{}, program.NotFound("attendee not found")
	}
	return attendee, err
}

func (s *Gorm) InsertResponse(ctx context.Context, response db.GameResponse) (db.GameResponse, error) {
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}
	err := s.conn.WithContext(ctx).Create(&response).Error
	return response, err
}

func (s *Gorm) ListResponses(ctx context.Context, programID string, roundNumber int) ([]db.GameResponse, error) {
	var responses []db.GameResponse
	query := s.conn.WithContext(ctx).Where("program_id = ?", programID)
	if roundNumber >= 0 {
		query = query.Where("round_number = ?", roundNumber)
	}
	err := query.Order("created_at asc").Find(&responses).Error
	return responses, err
}

func (s *Gorm) InsertAchievement(ctx context.Context, achievement db.Achievement) (db.Achievement, error) {
	if achievement.ID == "" {
		achievement.ID = uuid.NewString()
	}
	if achievement.AwardedAt.IsZero() {
		achievement.AwardedAt = time.Now().UTC()
	}
	err := s.conn.WithContext(ctx).Create(&achievement).Error
	return achievement, err
}

func (s *Gorm) ListAchievements(ctx context.Context, eventID string) ([]db.Achievement, int, error) {
	var achievements []db.Achievement
	err := s.conn.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("awarded_at asc").
		Find(&achievements).Error
	if err != nil {
		return nil, 0, err
	}
	total := 0
	for _, a := range achievements {
		total += a.Points
	}
	return achievements, total, nil
}

func (s *Gorm) InsertMessage(ctx context.Context, message db.SocialMessage) (db.SocialMessage, error) {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	err := s.conn.WithContext(ctx).Create(&message).Error
	return message, err
}

func (s *Gorm) ListMessages(ctx context.Context, eventID string) ([]db.SocialMessage, error) {
	var messages []db.SocialMessage
	err := s.conn.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at asc").
		Find(&messages).Error
	return messages, err
}

func (s *Gorm) InsertPhoto(ctx context.Context, photo db.SocialPhoto) (db.SocialPhoto, error) {
	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	if photo.CreatedAt.IsZero() {
		photo.CreatedAt = time.Now().UTC()
	}
	err := s.conn.WithContext(ctx).Create(&photo).Error
	return photo, err
}

func (s *Gorm) ListPhotos(ctx context.Context, eventID string) ([]db.SocialPhoto, error) {
	var photos []db.SocialPhoto
	err := s.conn.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at asc").
		Find(&photos).Error
	return photos, err
}
