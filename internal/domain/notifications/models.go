package notifications

import "time"

const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"

	RecipientAll        = "all"
	RecipientIndividual = "individual"
	RecipientGroup      = "group"
)

var Levels = []string{LevelInfo, LevelWarning, LevelError}

type Notification struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Level         string    `json:"level"`
	RecipientType string    `json:"recipient_type"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Delivery is one user's copy of a notification; read_at flips when
// the user opens it.
type Delivery struct {
	ID             string        `json:"id"`
	NotificationID string        `json:"notification_id"`
	UserID         string        `json:"user_id"`
	ReadAt         *time.Time    `json:"read_at"`
	CreatedAt      time.Time     `json:"created_at"`
	Notification   *Notification `json:"notification,omitempty"`
}

// Recipient is a resolved fan-out target.
type Recipient struct {
	UserID string
	Email  string
}
