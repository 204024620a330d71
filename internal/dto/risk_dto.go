package dto

import (
	"time"

	"github.com/Jam232006/pulse-lms/internal/models"
)

// RiskBreakdown exposes each metric's raw contribution to the composite
// score. Display and debugging only; the stored score is authoritative.
type RiskBreakdown struct {
	SubmissionIntegrity float64 `json:"submission_integrity"`
	ActivityDeviation   float64 `json:"activity_deviation"`
	TemporalInactivity  float64 `json:"temporal_inactivity"`
	ScorePenalty        float64 `json:"score_penalty"`
	ConsistencyBonus    float64 `json:"consistency_bonus"`
}

// RiskResponse is the result of a risk calculation.
type RiskResponse struct {
	UserID        uint          `json:"user_id"`
	Score         float64       `json:"score"`
	RiskLevel     string        `json:"risk_level"`
	Breakdown     RiskBreakdown `json:"breakdown"`
	CurrentWindow float64       `json:"current_activity_score"`
	Baseline      float64       `json:"baseline_activity_score"`
	CalculatedAt  time.Time     `json:"calculated_at"`
}

// RiskScoreResponse is the stored risk record for a user.
type RiskScoreResponse struct {
	UserID                uint      `json:"user_id"`
	BaselineActivityScore float64   `json:"baseline_activity_score"`
	CurrentActivityScore  float64   `json:"current_activity_score"`
	RiskScore             float64   `json:"risk_score"`
	RiskLevel             string    `json:"risk_level"`
	LastUpdated           time.Time `json:"last_updated"`
}

// NewRiskScoreResponse converts a model into a DTO.
func NewRiskScoreResponse(score models.RiskScore) RiskScoreResponse {
	return RiskScoreResponse{
		UserID:                score.UserID,
		BaselineActivityScore: score.BaselineActivityScore,
		CurrentActivityScore:  score.CurrentActivityScore,
		RiskScore:             score.RiskScore,
		RiskLevel:             score.RiskLevel,
		LastUpdated:           score.LastUpdated,
	}
}

// RiskHistoryPoint is one entry of the profile risk graph series.
type RiskHistoryPoint struct {
	RiskScore  float64   `json:"risk_score"`
	RiskLevel  string    `json:"risk_level"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewRiskHistoryPoints converts history models into the graph series.
func NewRiskHistoryPoints(entries []models.RiskHistory) []RiskHistoryPoint {
	out := make([]RiskHistoryPoint, 0, len(entries))
	for _, entry := range entries {
		out = append(out, RiskHistoryPoint{
			RiskScore:  entry.RiskScore,
			RiskLevel:  entry.RiskLevel,
			RecordedAt: entry.RecordedAt,
		})
	}
	return out
}
