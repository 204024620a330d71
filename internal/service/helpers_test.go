package service

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Jam232006/pulse-lms/internal/dto"
	"github.com/Jam232006/pulse-lms/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func ptrUint(v uint) *uint {
	return &v
}

// memoryAlertRepo is an in-memory AlertRepository with the same NULL-safe
// recipient matching as the SQL implementation.
type memoryAlertRepo struct {
	alerts []models.Alert
	nextID uint
}

func (m *memoryAlertRepo) Create(ctx context.Context, alert *models.Alert) error {
	m.nextID++
	alert.ID = m.nextID
	alert.CreatedAt = time.Now()
	m.alerts = append(m.alerts, *alert)
	return nil
}

func sameRecipient(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *memoryAlertRepo) FindOpen(ctx context.Context, userID uint, recipientID *uint, recipientRole, alertType string) (models.Alert, error) {
	for i := len(m.alerts) - 1; i >= 0; i-- {
		alert := m.alerts[i]
		if alert.UserID == userID &&
			alert.RecipientRole == recipientRole &&
			alert.AlertType == alertType &&
			!alert.Resolved &&
			sameRecipient(alert.RecipientID, recipientID) {
			return alert, nil
		}
	}
	return models.Alert{}, gorm.ErrRecordNotFound
}

func (m *memoryAlertRepo) GetByID(ctx context.Context, id uint) (models.Alert, error) {
	for _, alert := range m.alerts {
		if alert.ID == id {
			return alert, nil
		}
	}
	return models.Alert{}, gorm.ErrRecordNotFound
}

func (m *memoryAlertRepo) ListByRecipient(ctx context.Context, recipientID uint, role string, unresolvedOnly bool) ([]models.Alert, error) {
	var out []models.Alert
	for _, alert := range m.alerts {
		visible := (alert.RecipientID != nil && *alert.RecipientID == recipientID) ||
			(alert.RecipientID == nil && alert.RecipientRole == role)
		if !visible {
			continue
		}
		if unresolvedOnly && alert.Resolved {
			continue
		}
		out = append(out, alert)
	}
	return out, nil
}

func (m *memoryAlertRepo) Resolve(ctx context.Context, id uint) error {
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].Resolved = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryAlertRepo) ResolveOpen(ctx context.Context, userID uint, recipientID *uint, recipientRole string, alertTypes []string) (int64, error) {
	var resolved int64
	for i := range m.alerts {
		alert := &m.alerts[i]
		if alert.UserID != userID || alert.RecipientRole != recipientRole || alert.Resolved {
			continue
		}
		if !sameRecipient(alert.RecipientID, recipientID) {
			continue
		}
		for _, alertType := range alertTypes {
			if alert.AlertType == alertType {
				alert.Resolved = true
				resolved++
				break
			}
		}
	}
	return resolved, nil
}

func (m *memoryAlertRepo) ResolveByTypes(ctx context.Context, userID uint, alertTypes []string) (int64, error) {
	var resolved int64
	for i := range m.alerts {
		alert := &m.alerts[i]
		if alert.UserID != userID || alert.Resolved {
			continue
		}
		for _, alertType := range alertTypes {
			if alert.AlertType == alertType {
				alert.Resolved = true
				resolved++
				break
			}
		}
	}
	return resolved, nil
}

func (m *memoryAlertRepo) open() []models.Alert {
	var out []models.Alert
	for _, alert := range m.alerts {
		if !alert.Resolved {
			out = append(out, alert)
		}
	}
	return out
}

func (m *memoryAlertRepo) openOfType(alertType string) []models.Alert {
	var out []models.Alert
	for _, alert := range m.open() {
		if alert.AlertType == alertType {
			out = append(out, alert)
		}
	}
	return out
}

// memoryStreakRepo is an in-memory StreakRepository.
type memoryStreakRepo struct {
	streaks map[uint]models.SubmissionStreak
}

func newMemoryStreakRepo() *memoryStreakRepo {
	return &memoryStreakRepo{streaks: make(map[uint]models.SubmissionStreak)}
}

func (m *memoryStreakRepo) Get(ctx context.Context, userID uint) (models.SubmissionStreak, error) {
	streak, ok := m.streaks[userID]
	if !ok {
		return models.SubmissionStreak{}, gorm.ErrRecordNotFound
	}
	return streak, nil
}

func (m *memoryStreakRepo) Save(ctx context.Context, streak *models.SubmissionStreak) error {
	m.streaks[streak.UserID] = *streak
	return nil
}

// stubRiskService records calculation requests.
type stubRiskService struct {
	calculated []uint
	result     dto.RiskResponse
	err        error
}

func (s *stubRiskService) Calculate(ctx context.Context, userID uint) (dto.RiskResponse, error) {
	s.calculated = append(s.calculated, userID)
	return s.result, s.err
}

func (s *stubRiskService) Get(ctx context.Context, userID uint) (dto.RiskScoreResponse, error) {
	return dto.RiskScoreResponse{}, ErrRiskNotFound
}

func (s *stubRiskService) History(ctx context.Context, userID uint, limit int) ([]dto.RiskHistoryPoint, error) {
	return nil, nil
}

// stubAlertService records fan-out events.
type stubAlertService struct {
	created    []CreateAlertInput
	assignment []AssignmentEvent
	risk       []RiskEvent
	resolved   []uint
}

func (s *stubAlertService) Create(ctx context.Context, input CreateAlertInput) (dto.AlertResponse, error) {
	s.created = append(s.created, input)
	return dto.AlertResponse{ID: uint(len(s.created))}, nil
}

func (s *stubAlertService) AssignmentLogged(ctx context.Context, event AssignmentEvent) {
	s.assignment = append(s.assignment, event)
}

func (s *stubAlertService) RiskLevelChanged(ctx context.Context, event RiskEvent) {
	s.risk = append(s.risk, event)
}

func (s *stubAlertService) ResolveRiskAlerts(ctx context.Context, userID uint) (int64, error) {
	s.resolved = append(s.resolved, userID)
	return 0, nil
}

func (s *stubAlertService) ListForRecipient(ctx context.Context, recipientID uint, role string, unresolvedOnly bool) ([]dto.AlertResponse, error) {
	return nil, nil
}

func (s *stubAlertService) Resolve(ctx context.Context, id, recipientID uint, role string) (dto.AlertResponse, error) {
	return dto.AlertResponse{}, ErrAlertNotFound
}

func (s *stubAlertService) Subscribe(recipientID uint, role string) (<-chan dto.AlertResponse, func()) {
	ch := make(chan dto.AlertResponse)
	return ch, func() { close(ch) }
}

func (s *stubAlertService) Start(ctx context.Context) {}
