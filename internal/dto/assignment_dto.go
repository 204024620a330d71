package dto

import (
	"time"

	"github.com/Jam232006/pulse-lms/internal/models"
)

// AssignmentIssueRequest creates an assignment and fans it out to a class.
type AssignmentIssueRequest struct {
	ClassID     uint      `json:"class_id" validate:"required"`
	Title       string    `json:"title" validate:"required,min=3,max=255"`
	Description string    `json:"description" validate:"max=4000"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	MaxScore    float64   `json:"max_score" validate:"omitempty,gt=0"`
}

// SubmissionRequest records a student's graded submission.
type SubmissionRequest struct {
	StudentID uint     `json:"student_id" validate:"required"`
	Score     *float64 `json:"score" validate:"omitempty,gte=0"`
}

// AssignmentIssueResponse summarises a class-wide fan-out.
type AssignmentIssueResponse struct {
	Assignment     AssignmentResponse `json:"assignment"`
	StudentsIssued int                `json:"students_issued"`
}

// AssignmentResponse is the serialized representation of an assignment.
type AssignmentResponse struct {
	ID          uint      `json:"id"`
	ClassID     uint      `json:"class_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	MaxScore    float64   `json:"max_score"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(assignment models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          assignment.ID,
		ClassID:     assignment.ClassID,
		Title:       assignment.Title,
		Description: assignment.Description,
		DueDate:     assignment.DueDate,
		MaxScore:    assignment.MaxScore,
		CreatedAt:   assignment.CreatedAt,
	}
}

// SubmissionResponse is the serialized representation of a submission.
type SubmissionResponse struct {
	ID               uint       `json:"id"`
	AssignmentID     uint       `json:"assignment_id"`
	StudentID        uint       `json:"student_id"`
	Status           string     `json:"status"`
	Score            *float64   `json:"score,omitempty"`
	MaxScore         float64    `json:"max_score"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	ResponseTimeDays int        `json:"response_time_days"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:               submission.ID,
		AssignmentID:     submission.AssignmentID,
		StudentID:        submission.StudentID,
		Status:           submission.Status,
		Score:            submission.Score,
		MaxScore:         submission.MaxScore,
		SubmittedAt:      submission.SubmittedAt,
		ResponseTimeDays: submission.ResponseTimeDays,
	}
}

// AssignmentCloseResponse summarises a close pass over pending submissions.
type AssignmentCloseResponse struct {
	AssignmentID uint `json:"assignment_id"`
	MarkedMissed int  `json:"marked_missed"`
}