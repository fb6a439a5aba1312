package rate

import "time"

const (
	SessionVideo    = "video"
	SessionInPerson = "in_person"
	SessionChat     = "chat"
	SessionGroup    = "group"
)

type Rate struct {
	ID              int64     `db:"id" json:"id"`
	CoachID         int64     `db:"coach_id" json:"coach_id"`
	SessionType     string    `db:"session_type" json:"session_type"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	RateCents       int64     `db:"rate_cents" json:"rate_cents"`
	CatalogItemID   *string   `db:"catalog_item_id" json:"catalog_item_id,omitempty"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

type CreateRateRequest struct {
	SessionType     string `json:"session_type" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,gt=0"`
	RateCents       int64  `json:"rate_cents" binding:"required,gt=0"`
}

func ValidSessionType(s string) bool {
	switch s {
	case SessionVideo, SessionInPerson, SessionChat, SessionGroup:
		return true
	}
	return false
}
