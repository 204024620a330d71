package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Jam232006/pulse-lms/internal/dto"
	"github.com/Jam232006/pulse-lms/internal/models"
	"github.com/Jam232006/pulse-lms/internal/observability"
	"github.com/Jam232006/pulse-lms/internal/repository"
)

const alertStreamBufferSize = 16

// ErrAlertNotFound indicates the alert does not exist or is not visible to
// the requesting recipient.
var ErrAlertNotFound = errors.New("alert not found")

// ErrAlertMessageEmpty indicates the message was blank after sanitization.
var ErrAlertMessageEmpty = errors.New("alert message empty after sanitization")

// CreateAlertInput describes a single alert to create. A nil RecipientID
// denotes a role-wide broadcast.
type CreateAlertInput struct {
	UserID        uint
	RecipientID   *uint
	RecipientRole string
	AlertType     string
	RiskLevel     *string
	Message       string
	Context       map[string]interface{}
}

// AssignmentEvent carries the context for assignment lifecycle fan-out.
type AssignmentEvent struct {
	StudentID    uint
	StudentName  string
	MentorID     *uint
	ActivityType string
	Title        string
	DueDate      time.Time
	Status       string
}

// RiskEvent carries the context for a risk-level transition fan-out.
type RiskEvent struct {
	StudentID   uint
	StudentName string
	MentorID    *uint
	Score       float64
	RiskLevel   string
}

// AlertService creates deduplicated notification records and fans out
// rule-driven alerts for assignment lifecycle and risk transitions. The
// fan-out entry points are best-effort: failures are logged and swallowed so
// alerting never blocks the primary operation.
type AlertService interface {
	Create(ctx context.Context, input CreateAlertInput) (dto.AlertResponse, error)
	AssignmentLogged(ctx context.Context, event AssignmentEvent)
	RiskLevelChanged(ctx context.Context, event RiskEvent)
	ResolveRiskAlerts(ctx context.Context, userID uint) (int64, error)
	ListForRecipient(ctx context.Context, recipientID uint, role string, unresolvedOnly bool) ([]dto.AlertResponse, error)
	Resolve(ctx context.Context, id, recipientID uint, role string) (dto.AlertResponse, error)
	Subscribe(recipientID uint, role string) (<-chan dto.AlertResponse, func())
	Start(ctx context.Context)
}

type alertService struct {
	repo         repository.AlertRepository
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	tracer       trace.Tracer
	sanitizer    *bluemonday.Policy
	broker       *alertBroker
	nodeID       string
	now          func() time.Time
}

type alertEvent struct {
	Source string            `json:"source"`
	Alert  dto.AlertResponse `json:"alert"`
	SentAt time.Time         `json:"sent_at"`
}

type alertBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.AlertResponse]struct{}
}

// NewAlertService constructs an alert service. Redis and NATS connections
// are optional; when absent, alerts are only broadcast in-process.
func NewAlertService(repo repository.AlertRepository, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) AlertService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":alerts"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".alerts"
	}

	return &alertService{
		repo:         repo,
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "alert_service").Logger(),
		tracer:       otel.Tracer("github.com/Jam232006/pulse-lms/internal/service/alert"),
		sanitizer:    bluemonday.StrictPolicy(),
		broker: &alertBroker{
			subscribers: make(map[string]map[chan dto.AlertResponse]struct{}),
		},
		nodeID: uuid.NewString(),
		now:    time.Now,
	}
}

func (s *alertService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// Create inserts an alert unless an identical open alert already exists for
// the same (subject, recipient, role, type) tuple; in that case the existing
// alert is returned with Skipped set. The check-then-insert is not wrapped
// in a transaction; concurrent duplicate triggers can race.
func (s *alertService) Create(ctx context.Context, input CreateAlertInput) (dto.AlertResponse, error) {
	attrs := []attribute.KeyValue{
		attribute.Int64("alert.user_id", int64(input.UserID)),
		attribute.String("alert.type", input.AlertType),
		attribute.String("alert.recipient_role", input.RecipientRole),
	}
	spanCtx, span := s.tracer.Start(ctx, "alerts.create", trace.WithAttributes(attrs...))
	defer span.End()

	message := strings.TrimSpace(s.sanitizer.Sanitize(input.Message))
	if message == "" {
		return dto.AlertResponse{}, ErrAlertMessageEmpty
	}

	existing, err := s.repo.FindOpen(spanCtx, input.UserID, input.RecipientID, input.RecipientRole, input.AlertType)
	if err == nil {
		observability.AlertsDeduplicated().WithLabelValues(input.AlertType).Inc()
		response := dto.NewAlertResponse(existing)
		response.Skipped = true
		return response, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.AlertResponse{}, err
	}

	alert := models.Alert{
		UserID:        input.UserID,
		RecipientID:   input.RecipientID,
		RecipientRole: input.RecipientRole,
		AlertType:     input.AlertType,
		RiskLevel:     input.RiskLevel,
		Message:       message,
		Context:       toJSONMap(input.Context),
		AlertDate:     s.now(),
	}

	if err := s.repo.Create(spanCtx, &alert); err != nil {
		span.RecordError(err)
		return dto.AlertResponse{}, err
	}

	observability.AlertsCreated().WithLabelValues(input.AlertType).Inc()

	response := dto.NewAlertResponse(alert)
	s.broker.broadcast(streamKey(alert.RecipientID, alert.RecipientRole), response)
	if err := s.publish(spanCtx, response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish alert event")
	}

	return response, nil
}

// AssignmentLogged fans out alerts for an assignment/quiz lifecycle event.
// Each audience is informed at most once per state because creation dedups
// on alert type, recipient and subject.
func (s *alertService) AssignmentLogged(ctx context.Context, event AssignmentEvent) {
	isOverdue := event.DueDate.Before(s.now()) || event.Status == models.ActivityStatusMissed
	due := event.DueDate.Format("2006-01-02")
	studentID := event.StudentID

	switch {
	case event.Status == models.ActivityStatusSubmitted:
		s.dispatch(ctx, CreateAlertInput{
			UserID:        studentID,
			RecipientID:   &studentID,
			RecipientRole: models.RoleStudent,
			AlertType:     models.AlertTypeSubmitted,
			Message:       fmt.Sprintf("Your %s %q was submitted.", event.ActivityType, event.Title),
		})
	case isOverdue:
		s.resolveQuietly(ctx, studentID, &studentID, models.RoleStudent, models.AlertTypeReminder)
		s.dispatch(ctx, CreateAlertInput{
			UserID:        studentID,
			RecipientID:   &studentID,
			RecipientRole: models.RoleStudent,
			AlertType:     models.AlertTypeOverdue,
			Message:       fmt.Sprintf("%s %q was due on %s and is now overdue.", capitalize(event.ActivityType), event.Title, due),
		})
	case event.Status == models.ActivityStatusPending:
		s.dispatch(ctx, CreateAlertInput{
			UserID:        studentID,
			RecipientID:   &studentID,
			RecipientRole: models.RoleStudent,
			AlertType:     models.AlertTypeReminder,
			Message:       fmt.Sprintf("%s %q is due on %s.", capitalize(event.ActivityType), event.Title, due),
		})
	}

	if event.MentorID != nil {
		if isOverdue {
			s.resolveQuietly(ctx, studentID, event.MentorID, models.RoleMentor, models.AlertTypeDue)
			s.dispatch(ctx, CreateAlertInput{
				UserID:        studentID,
				RecipientID:   event.MentorID,
				RecipientRole: models.RoleMentor,
				AlertType:     models.AlertTypeDatePassed,
				Message:       fmt.Sprintf("%s has not completed %q (due %s).", event.StudentName, event.Title, due),
			})
		} else if event.Status == models.ActivityStatusPending {
			s.dispatch(ctx, CreateAlertInput{
				UserID:        studentID,
				RecipientID:   event.MentorID,
				RecipientRole: models.RoleMentor,
				AlertType:     models.AlertTypeDue,
				Message:       fmt.Sprintf("%s has %q pending, due %s.", event.StudentName, event.Title, due),
			})
		}
	}

	if isOverdue {
		s.dispatch(ctx, CreateAlertInput{
			UserID:        studentID,
			RecipientRole: models.RoleAdmin,
			AlertType:     models.AlertTypeDatePassed,
			Message:       fmt.Sprintf("Deadline passed for %s on %q (due %s).", event.StudentName, event.Title, due),
		})
	} else {
		s.dispatch(ctx, CreateAlertInput{
			UserID:        studentID,
			RecipientRole: models.RoleAdmin,
			AlertType:     models.AlertTypeAssigned,
			Message:       fmt.Sprintf("%s %q assigned to %s, due %s.", capitalize(event.ActivityType), event.Title, event.StudentName, due),
		})
	}
}

// RiskLevelChanged emits the mentor alert on every transition and the admin
// broadcast only when the level is High.
func (s *alertService) RiskLevelChanged(ctx context.Context, event RiskEvent) {
	level := event.RiskLevel

	if event.MentorID != nil {
		s.dispatch(ctx, CreateAlertInput{
			UserID:        event.StudentID,
			RecipientID:   event.MentorID,
			RecipientRole: models.RoleMentor,
			AlertType:     models.AlertTypeRiskChange,
			RiskLevel:     &level,
			Message:       fmt.Sprintf("%s is now at %s risk (score %.2f).", event.StudentName, level, event.Score),
		})
	}

	if level == models.RiskLevelHigh {
		s.dispatch(ctx, CreateAlertInput{
			UserID:        event.StudentID,
			RecipientRole: models.RoleAdmin,
			AlertType:     models.AlertTypeRiskAlert,
			RiskLevel:     &level,
			Message:       fmt.Sprintf("%s flagged as high risk (score %.2f).", event.StudentName, event.Score),
		})
	}
}

// ResolveRiskAlerts bulk-closes all open risk alerts for the subject,
// called when a recalculation yields a non-High level.
func (s *alertService) ResolveRiskAlerts(ctx context.Context, userID uint) (int64, error) {
	resolved, err := s.repo.ResolveByTypes(ctx, userID, models.RiskAlertTypes())
	if err != nil {
		return 0, err
	}

	if resolved > 0 {
		observability.AlertsResolved().Add(float64(resolved))
		s.logger.Info().
			Uint("user_id", userID).
			Int64("resolved", resolved).
			Msg("auto-resolved risk alerts")
	}

	return resolved, nil
}

func (s *alertService) ListForRecipient(ctx context.Context, recipientID uint, role string, unresolvedOnly bool) ([]dto.AlertResponse, error) {
	alerts, err := s.repo.ListByRecipient(ctx, recipientID, role, unresolvedOnly)
	if err != nil {
		return nil, err
	}

	return dto.NewAlertResponseSlice(alerts), nil
}

func (s *alertService) Resolve(ctx context.Context, id, recipientID uint, role string) (dto.AlertResponse, error) {
	alert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AlertResponse{}, ErrAlertNotFound
		}
		return dto.AlertResponse{}, err
	}

	visible := (alert.RecipientID != nil && *alert.RecipientID == recipientID) ||
		(alert.RecipientID == nil && alert.RecipientRole == role)
	if !visible {
		return dto.AlertResponse{}, ErrAlertNotFound
	}

	if alert.Resolved {
		return dto.NewAlertResponse(alert), nil
	}

	if err := s.repo.Resolve(ctx, id); err != nil {
		return dto.AlertResponse{}, err
	}

	observability.AlertsResolved().Inc()
	alert.Resolved = true
	return dto.NewAlertResponse(alert), nil
}

// Subscribe registers a live alert stream for the recipient. The returned
// cleanup must be called when the consumer disconnects.
func (s *alertService) Subscribe(recipientID uint, role string) (<-chan dto.AlertResponse, func()) {
	channel := make(chan dto.AlertResponse, alertStreamBufferSize)
	key := streamKey(&recipientID, role)
	roleKey := streamKey(nil, role)

	s.broker.subscribe(key, channel)
	s.broker.subscribe(roleKey, channel)
	observability.AlertStreamSubscribers().Inc()

	cleanup := func() {
		s.broker.unsubscribe(roleKey, channel, false)
		s.broker.unsubscribe(key, channel, true)
		observability.AlertStreamSubscribers().Dec()
	}

	return channel, cleanup
}

// dispatch creates an alert and swallows the error: alerting never fails
// the primary operation.
func (s *alertService) dispatch(ctx context.Context, input CreateAlertInput) {
	if _, err := s.Create(ctx, input); err != nil {
		s.logger.Warn().
			Err(err).
			Uint("user_id", input.UserID).
			Str("alert_type", input.AlertType).
			Msg("alert dispatch failed")
	}
}

func (s *alertService) resolveQuietly(ctx context.Context, userID uint, recipientID *uint, role, alertType string) {
	resolved, err := s.repo.ResolveOpen(ctx, userID, recipientID, role, []string{alertType})
	if err != nil {
		s.logger.Warn().Err(err).Str("alert_type", alertType).Msg("failed to resolve superseded alert")
		return
	}
	if resolved > 0 {
		observability.AlertsResolved().Add(float64(resolved))
	}
}

func (s *alertService) publish(ctx context.Context, alert dto.AlertResponse) error {
	event := alertEvent{
		Source: s.nodeID,
		Alert:  alert,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *alertService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("alert redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *alertService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "pulse-alerts", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats alerts subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain alert nats subscription")
		}
	}()
}

func (s *alertService) handleEvent(payload []byte) {
	var event alertEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid alert event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	alert := event.Alert
	s.broker.broadcast(streamKey(alert.RecipientID, alert.RecipientRole), alert)
}

func (b *alertBroker) subscribe(key string, ch chan dto.AlertResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[key]; !exists {
		b.subscribers[key] = make(map[chan dto.AlertResponse]struct{})
	}
	b.subscribers[key][ch] = struct{}{}
}

func (b *alertBroker) unsubscribe(key string, ch chan dto.AlertResponse, closeChan bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[key]; ok {
		delete(subscribers, ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, key)
		}
	}
	if closeChan {
		close(ch)
	}
}

func (b *alertBroker) broadcast(key string, alert dto.AlertResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[key] {
		select {
		case ch <- alert:
		default:
		}
	}
}

// streamKey scopes broker subscriptions: direct alerts key on the recipient
// id, broadcasts key on the role.
func streamKey(recipientID *uint, role string) string {
	if recipientID == nil {
		return "role:" + role
	}
	return "user:" + strconv.FormatUint(uint64(*recipientID), 10)
}

func toJSONMap(m map[string]interface{}) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	out := datatypes.JSONMap{}
	for k, v := range m {
		out[k] = v
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
