package models

import (
	"time"

	"gorm.io/datatypes"
)

// Alert is a notification record about a subject user, targeted at a
// recipient. A nil RecipientID denotes a role-wide broadcast. At most one
// open alert may exist per (user, recipient, role, type) tuple; recipient
// is compared NULL-safely so broadcasts deduplicate against each other.
type Alert struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	UserID        uint              `gorm:"not null;index" json:"user_id"`
	RecipientID   *uint             `gorm:"index" json:"recipient_id"`
	RecipientRole string            `gorm:"size:32;not null" json:"recipient_role"`
	AlertType     string            `gorm:"size:32;not null" json:"alert_type"`
	RiskLevel     *string           `gorm:"size:16" json:"risk_level"`
	Message       string            `gorm:"type:text;not null" json:"message"`
	Context       datatypes.JSONMap `gorm:"type:json" json:"context"`
	AlertDate     time.Time         `gorm:"not null" json:"alert_date"`
	Resolved      bool              `gorm:"not null;default:false;index" json:"resolved"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

const (
	// AlertTypeRiskChange notifies students and mentors of a risk transition.
	AlertTypeRiskChange = "risk_change"
	// AlertTypeRiskAlert is the admin broadcast for high-risk students.
	AlertTypeRiskAlert = "risk_alert"
	// AlertTypeSubmitted confirms a submission to the student.
	AlertTypeSubmitted = "submitted"
	// AlertTypeReminder nudges the student about pending work.
	AlertTypeReminder = "reminder"
	// AlertTypeOverdue tells the student a deadline has passed.
	AlertTypeOverdue = "overdue"
	// AlertTypeDue reminds the mentor about a student's pending work.
	AlertTypeDue = "due"
	// AlertTypeDatePassed tells mentors/admins a deadline lapsed unmet.
	AlertTypeDatePassed = "date_passed"
	// AlertTypeAssigned is the admin broadcast for newly issued work.
	AlertTypeAssigned = "assigned"
)

// RiskAlertTypes are the alert types bulk-resolved when a user's risk level
// drops out of High.
func RiskAlertTypes() []string {
	return []string{AlertTypeRiskChange, AlertTypeRiskAlert}
}
