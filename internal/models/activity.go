package models

import "time"

// ActivityLog records a single engagement event for a user. Rows are
// immutable once submitted, except for the pending->submitted transition
// which rewrites status and submission date in place.
type ActivityLog struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	ActivityType     string     `gorm:"size:32;not null" json:"activity_type"`
	SubmissionDate   time.Time  `gorm:"not null;index" json:"submission_date"`
	DueDate          *time.Time `json:"due_date"`
	Status           string     `gorm:"size:32;not null" json:"status"`
	ResponseTimeDays int        `gorm:"not null;default:0" json:"response_time_days"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

const (
	// ActivityTypeAssignment marks assignment submissions and placeholders.
	ActivityTypeAssignment = "assignment"
	// ActivityTypeQuiz marks quiz attempts.
	ActivityTypeQuiz = "quiz"
	// ActivityTypeLogin marks platform logins.
	ActivityTypeLogin = "login"

	// ActivityStatusSubmitted marks completed work.
	ActivityStatusSubmitted = "submitted"
	// ActivityStatusMissed marks work that was never turned in.
	ActivityStatusMissed = "missed"
	// ActivityStatusPending marks issued but unfinished work.
	ActivityStatusPending = "pending"
)

// IsGradedType reports whether the entry counts toward submission integrity
// scoring. Logins keep the activity window populated but carry no penalty.
func (a ActivityLog) IsGradedType() bool {
	return a.ActivityType == ActivityTypeAssignment || a.ActivityType == ActivityTypeQuiz
}
