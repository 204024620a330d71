package models

import "time"

// SubmissionStreak tracks consecutive submission days per user. Dates are
// stored normalized to local midnight; only the latest state is kept.
type SubmissionStreak struct {
	UserID             uint      `gorm:"primaryKey" json:"user_id"`
	CurrentStreak      int       `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak      int       `gorm:"not null;default:0" json:"longest_streak"`
	LastSubmissionDate time.Time `gorm:"not null" json:"last_submission_date"`
	UpdatedAt          time.Time `json:"updated_at"`
}
