package dto

import (
	"time"

	"github.com/Jam232006/pulse-lms/internal/models"
)

// ActivityLogRequest is the payload for logging an engagement event.
type ActivityLogRequest struct {
	UserID         uint       `json:"user_id" validate:"required"`
	ActivityType   string     `json:"activity_type" validate:"required,oneof=assignment quiz login"`
	Status         string     `json:"status" validate:"required,oneof=submitted missed pending"`
	SubmissionDate *time.Time `json:"submission_date"`
	DueDate        *time.Time `json:"due_date"`
}

// ActivityLogResponse is the serialized representation of an activity entry.
type ActivityLogResponse struct {
	ID               uint       `json:"id"`
	UserID           uint       `json:"user_id"`
	ActivityType     string     `json:"activity_type"`
	SubmissionDate   time.Time  `json:"submission_date"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	Status           string     `json:"status"`
	ResponseTimeDays int        `json:"response_time_days"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewActivityLogResponse converts a model into a DTO.
func NewActivityLogResponse(entry models.ActivityLog) ActivityLogResponse {
	return ActivityLogResponse{
		ID:               entry.ID,
		UserID:           entry.UserID,
		ActivityType:     entry.ActivityType,
		SubmissionDate:   entry.SubmissionDate,
		DueDate:          entry.DueDate,
		Status:           entry.Status,
		ResponseTimeDays: entry.ResponseTimeDays,
		CreatedAt:        entry.CreatedAt,
	}
}

// NewActivityLogResponseSlice converts a slice of models into DTOs.
func NewActivityLogResponseSlice(entries []models.ActivityLog) []ActivityLogResponse {
	out := make([]ActivityLogResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, NewActivityLogResponse(entry))
	}
	return out
}
