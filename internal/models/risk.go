package models

import "time"

// RiskScore is the current composite disengagement score for a user.
// Exactly one row per user, replaced atomically on every recalculation.
type RiskScore struct {
	UserID                uint      `gorm:"primaryKey" json:"user_id"`
	BaselineActivityScore float64   `gorm:"not null;default:0" json:"baseline_activity_score"`
	CurrentActivityScore  float64   `gorm:"not null;default:0" json:"current_activity_score"`
	RiskScore             float64   `gorm:"not null;default:0" json:"risk_score"`
	RiskLevel             string    `gorm:"size:16;not null;default:Low" json:"risk_level"`
	LastUpdated           time.Time `json:"last_updated"`
}

// RiskHistory is the append-only audit trail of scoring passes, one row per
// recalculation. Feeds the profile risk graph.
type RiskHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	RiskScore  float64   `gorm:"not null" json:"risk_score"`
	RiskLevel  string    `gorm:"size:16;not null" json:"risk_level"`
	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
}

const (
	// RiskLevelLow covers composite scores below 4.
	RiskLevelLow = "Low"
	// RiskLevelMedium covers composite scores in [4, 7).
	RiskLevelMedium = "Medium"
	// RiskLevelHigh covers composite scores of 7 and above.
	RiskLevelHigh = "High"
)

// RiskLevelFor bands a composite score into the three-tier level.
func RiskLevelFor(score float64) string {
	switch {
	case score >= 7:
		return RiskLevelHigh
	case score >= 4:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}
