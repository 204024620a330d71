package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Jam232006/pulse-lms/internal/dto"
	"github.com/Jam232006/pulse-lms/internal/models"
	"github.com/Jam232006/pulse-lms/internal/repository"
)

// ErrClassNotFound indicates the target class does not exist.
var ErrClassNotFound = errors.New("class not found")

// ErrAssignmentNotFound indicates the assignment was not located.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrSubmissionNotFound indicates no submission row exists for the student.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrAlreadySubmitted indicates the submission was already turned in.
var ErrAlreadySubmitted = errors.New("assignment already submitted")

// ErrScoreExceedsMax indicates a score above the assignment maximum.
var ErrScoreExceedsMax = errors.New("score exceeds assignment max")

// AssignmentService issues assignments to classes and records submissions
// and closes, driving the streak/risk/alert side-effect chain.
type AssignmentService interface {
	Issue(ctx context.Context, req dto.AssignmentIssueRequest) (dto.AssignmentIssueResponse, error)
	Submit(ctx context.Context, assignmentID uint, req dto.SubmissionRequest) (dto.SubmissionResponse, error)
	Close(ctx context.Context, assignmentID uint) (dto.AssignmentCloseResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	classes     repository.ClassRepository
	users       repository.UserRepository
	activities  repository.ActivityLogRepository
	streaks     StreakService
	risks       RiskService
	alerts      AlertService
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	submissions repository.SubmissionRepository,
	classes repository.ClassRepository,
	users repository.UserRepository,
	activities repository.ActivityLogRepository,
	streaks StreakService,
	risks RiskService,
	alerts AlertService,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		submissions: submissions,
		classes:     classes,
		users:       users,
		activities:  activities,
		streaks:     streaks,
		risks:       risks,
		alerts:      alerts,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

// Issue creates the assignment and fans it out to every class member, one
// student at a time: pending submission placeholder, pending activity log,
// alert fan-out. Fan-out is strictly sequential; a failure partway through
// leaves a prefix of the class issued with no rollback.
func (s *assignmentService) Issue(ctx context.Context, req dto.AssignmentIssueRequest) (dto.AssignmentIssueResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssignmentIssueResponse{}, err
	}

	if _, err := s.classes.GetByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentIssueResponse{}, ErrClassNotFound
		}
		return dto.AssignmentIssueResponse{}, err
	}

	maxScore := req.MaxScore
	if maxScore <= 0 {
		maxScore = 100
	}

	assignment := models.Assignment{
		ClassID:     req.ClassID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		MaxScore:    maxScore,
	}
	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentIssueResponse{}, err
	}

	students, err := s.classes.ListStudents(ctx, req.ClassID)
	if err != nil {
		return dto.AssignmentIssueResponse{}, err
	}

	issued := 0
	for _, student := range students {
		if err := s.issueToStudent(ctx, assignment, student); err != nil {
			s.logger.Error().Err(err).
				Uint("assignment_id", assignment.ID).
				Uint("student_id", student.ID).
				Int("issued", issued).
				Msg("fan-out aborted mid-class")
			return dto.AssignmentIssueResponse{}, err
		}
		issued++
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Int("students_issued", issued).
		Msg("assignment issued to class")

	return dto.AssignmentIssueResponse{
		Assignment:     dto.NewAssignmentResponse(assignment),
		StudentsIssued: issued,
	}, nil
}

func (s *assignmentService) issueToStudent(ctx context.Context, assignment models.Assignment, student models.User) error {
	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		Status:       models.SubmissionStatusPending,
		MaxScore:     assignment.MaxScore,
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		return err
	}

	dueDate := assignment.DueDate
	entry := models.ActivityLog{
		UserID:         student.ID,
		ActivityType:   models.ActivityTypeAssignment,
		SubmissionDate: s.now(),
		DueDate:        &dueDate,
		Status:         models.ActivityStatusPending,
	}
	if err := s.activities.Create(ctx, &entry); err != nil {
		return err
	}

	s.alerts.AssignmentLogged(ctx, AssignmentEvent{
		StudentID:    student.ID,
		StudentName:  student.Name,
		MentorID:     student.MentorID,
		ActivityType: models.ActivityTypeAssignment,
		Title:        assignment.Title,
		DueDate:      assignment.DueDate,
		Status:       models.ActivityStatusPending,
	})

	return nil
}

// Submit marks the student's placeholder as submitted with the graded
// score, mutates the pending activity log, then runs the best-effort
// streak/alert/risk chain. Duplicate submissions are rejected.
func (s *assignmentService) Submit(ctx context.Context, assignmentID uint, req dto.SubmissionRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.Status == models.SubmissionStatusSubmitted {
		return dto.SubmissionResponse{}, ErrAlreadySubmitted
	}

	if req.Score != nil && *req.Score > assignment.MaxScore+1e-9 {
		return dto.SubmissionResponse{}, ErrScoreExceedsMax
	}

	now := s.now()
	submission.Status = models.SubmissionStatusSubmitted
	submission.Score = req.Score
	submission.SubmittedAt = &now
	submission.ResponseTimeDays = lateness(assignment.DueDate, now)

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.settleActivityLog(ctx, submission, assignment, now)

	if _, err := s.streaks.Update(ctx, req.StudentID, now); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", req.StudentID).Msg("streak update failed")
	}

	if user, err := s.users.GetWithMentor(ctx, req.StudentID); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", req.StudentID).Msg("skipping alert fan-out, user lookup failed")
	} else {
		s.alerts.AssignmentLogged(ctx, AssignmentEvent{
			StudentID:    user.ID,
			StudentName:  user.Name,
			MentorID:     user.MentorID,
			ActivityType: models.ActivityTypeAssignment,
			Title:        assignment.Title,
			DueDate:      assignment.DueDate,
			Status:       models.ActivityStatusSubmitted,
		})
	}

	if _, err := s.risks.Calculate(ctx, req.StudentID); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", req.StudentID).Msg("risk recalculation failed after submission")
	}

	return dto.NewSubmissionResponse(submission), nil
}

// Close marks all still-pending submissions missed, settles their activity
// logs, and fans out overdue alerts plus a risk recalculation per student,
// sequentially.
func (s *assignmentService) Close(ctx context.Context, assignmentID uint) (dto.AssignmentCloseResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentCloseResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentCloseResponse{}, err
	}

	pending, err := s.submissions.ListPendingByAssignment(ctx, assignmentID)
	if err != nil {
		return dto.AssignmentCloseResponse{}, err
	}

	marked := 0
	for _, submission := range pending {
		submission.Status = models.SubmissionStatusMissed
		if err := s.submissions.Update(ctx, &submission); err != nil {
			return dto.AssignmentCloseResponse{}, err
		}
		marked++

		s.settleActivityLog(ctx, submission, assignment, s.now())

		if user, err := s.users.GetWithMentor(ctx, submission.StudentID); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", submission.StudentID).Msg("skipping alert fan-out, user lookup failed")
		} else {
			s.alerts.AssignmentLogged(ctx, AssignmentEvent{
				StudentID:    user.ID,
				StudentName:  user.Name,
				MentorID:     user.MentorID,
				ActivityType: models.ActivityTypeAssignment,
				Title:        assignment.Title,
				DueDate:      assignment.DueDate,
				Status:       models.ActivityStatusMissed,
			})
		}

		if _, err := s.risks.Calculate(ctx, submission.StudentID); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", submission.StudentID).Msg("risk recalculation failed after close")
		}
	}

	return dto.AssignmentCloseResponse{
		AssignmentID: assignmentID,
		MarkedMissed: marked,
	}, nil
}

// settleActivityLog rewrites the pending activity log entry for the
// assignment to match the submission's final state. A missing pending entry
// is backfilled rather than treated as an error.
func (s *assignmentService) settleActivityLog(ctx context.Context, submission models.Submission, assignment models.Assignment, at time.Time) {
	status := models.ActivityStatusSubmitted
	if submission.Status == models.SubmissionStatusMissed {
		status = models.ActivityStatusMissed
	}

	entry, err := s.activities.FindPending(ctx, submission.StudentID, models.ActivityTypeAssignment, assignment.DueDate)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Uint("student_id", submission.StudentID).Msg("failed to look up pending activity log")
			return
		}

		dueDate := assignment.DueDate
		backfill := models.ActivityLog{
			UserID:           submission.StudentID,
			ActivityType:     models.ActivityTypeAssignment,
			SubmissionDate:   at,
			DueDate:          &dueDate,
			Status:           status,
			ResponseTimeDays: submission.ResponseTimeDays,
		}
		if err := s.activities.Create(ctx, &backfill); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", submission.StudentID).Msg("failed to backfill activity log")
		}
		return
	}

	entry.Status = status
	entry.SubmissionDate = at
	entry.ResponseTimeDays = submission.ResponseTimeDays
	if err := s.activities.Update(ctx, &entry); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", submission.StudentID).Msg("failed to settle activity log")
	}
}
