package models

import "time"

// Submission is the per-student state of an issued assignment. Exactly one
// row exists per (assignment, student): created as a pending placeholder at
// issue time, flipped to submitted on grading or missed on close.
type Submission struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	AssignmentID     uint       `gorm:"not null;uniqueIndex:idx_assignment_student" json:"assignment_id"`
	StudentID        uint       `gorm:"not null;uniqueIndex:idx_assignment_student" json:"student_id"`
	Status           string     `gorm:"size:32;not null;default:pending" json:"status"`
	Score            *float64   `json:"score"`
	MaxScore         float64    `gorm:"not null;default:100" json:"max_score"`
	SubmittedAt      *time.Time `json:"submitted_at"`
	ResponseTimeDays int        `gorm:"not null;default:0" json:"response_time_days"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Assignment       Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
}

const (
	// SubmissionStatusPending marks a placeholder awaiting student work.
	SubmissionStatusPending = "pending"
	// SubmissionStatusSubmitted marks graded, turned-in work.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusMissed marks work still pending when the assignment closed.
	SubmissionStatusMissed = "missed"
)

// LostPoints returns the positive score deficit for a scored submission,
// or zero when no deficit applies.
func (s Submission) LostPoints() float64 {
	if s.Status != SubmissionStatusSubmitted || s.Score == nil {
		return 0
	}
	deficit := s.MaxScore - *s.Score
	if deficit <= 0 {
		return 0
	}
	return deficit
}
