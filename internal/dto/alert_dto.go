package dto

import (
	"time"

	"github.com/Jam232006/pulse-lms/internal/models"
)

// AlertResponse is the serialized representation of an alert. Skipped is
// true when creation deduplicated against an existing open alert, in which
// case the remaining fields describe the original row.
type AlertResponse struct {
	ID            uint      `json:"id"`
	UserID        uint      `json:"user_id"`
	RecipientID   *uint     `json:"recipient_id,omitempty"`
	RecipientRole string    `json:"recipient_role"`
	AlertType     string    `json:"alert_type"`
	RiskLevel     *string   `json:"risk_level,omitempty"`
	Message       string    `json:"message"`
	AlertDate     time.Time `json:"alert_date"`
	Resolved      bool      `json:"resolved"`
	Skipped       bool      `json:"skipped,omitempty"`
}

// NewAlertResponse converts a model into a DTO.
func NewAlertResponse(alert models.Alert) AlertResponse {
	return AlertResponse{
		ID:            alert.ID,
		UserID:        alert.UserID,
		RecipientID:   alert.RecipientID,
		RecipientRole: alert.RecipientRole,
		AlertType:     alert.AlertType,
		RiskLevel:     alert.RiskLevel,
		Message:       alert.Message,
		AlertDate:     alert.AlertDate,
		Resolved:      alert.Resolved,
	}
}

// NewAlertResponseSlice converts a slice of models into DTOs.
func NewAlertResponseSlice(alerts []models.Alert) []AlertResponse {
	out := make([]AlertResponse, 0, len(alerts))
	for _, alert := range alerts {
		out = append(out, NewAlertResponse(alert))
	}
	return out
}
