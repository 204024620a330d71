package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Jam232006/pulse-lms/internal/dto"
	"github.com/Jam232006/pulse-lms/internal/models"
)

type fakeClassRepo struct {
	classes  map[uint]models.Class
	students map[uint][]models.User
}

func (f *fakeClassRepo) GetByID(ctx context.Context, id uint) (models.Class, error) {
	class, ok := f.classes[id]
	if !ok {
		return models.Class{}, gorm.ErrRecordNotFound
	}
	return class, nil
}

func (f *fakeClassRepo) ListStudents(ctx context.Context, classID uint) ([]models.User, error) {
	return f.students[classID], nil
}

type fakeAssignmentRepo struct {
	assignments map[uint]models.Assignment
	nextID      uint
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[uint]models.Assignment)}
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	f.nextID++
	assignment.ID = f.nextID
	f.assignments[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, ok := f.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (f *fakeAssignmentRepo) ListByClass(ctx context.Context, classID uint) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, assignment := range f.assignments {
		if assignment.ClassID == classID {
			out = append(out, assignment)
		}
	}
	return out, nil
}

type assignmentFixture struct {
	svc         AssignmentService
	assignments *fakeAssignmentRepo
	submissions *fakeSubmissionRepo
	activities  *fakeActivityRepo
	streaks     *memoryStreakRepo
	risks       *stubRiskService
	alerts      *stubAlertService
	now         time.Time
	due         time.Time
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()

	f := &assignmentFixture{
		assignments: newFakeAssignmentRepo(),
		submissions: &fakeSubmissionRepo{},
		activities:  &fakeActivityRepo{},
		streaks:     newMemoryStreakRepo(),
		risks:       &stubRiskService{},
		alerts:      &stubAlertService{},
		now:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.due = f.now.AddDate(0, 0, 7)

	students := []models.User{
		{ID: 1, Name: "Ana", Role: models.RoleStudent, MentorID: ptrUint(3)},
		{ID: 2, Name: "Ben", Role: models.RoleStudent, MentorID: ptrUint(3)},
	}
	classes := &fakeClassRepo{
		classes:  map[uint]models.Class{5: {ID: 5, Name: "Cohort A", MentorID: ptrUint(3)}},
		students: map[uint][]models.User{5: students},
	}
	users := &fakeUserRepo{users: map[uint]models.User{
		1: students[0],
		2: students[1],
	}}

	streakSvc := NewStreakService(f.streaks, testLogger())
	svc := NewAssignmentService(f.assignments, f.submissions, classes, users, f.activities, streakSvc, f.risks, f.alerts,
		validator.New(validator.WithRequiredStructEnabled()), testLogger())
	svc.(*assignmentService).now = func() time.Time { return f.now }

	f.svc = svc
	return f
}

func (f *assignmentFixture) issue(t *testing.T) dto.AssignmentIssueResponse {
	t.Helper()

	resp, err := f.svc.Issue(context.Background(), dto.AssignmentIssueRequest{
		ClassID:  5,
		Title:    "Essay",
		DueDate:  f.due,
		MaxScore: 100,
	})
	require.NoError(t, err)
	return resp
}

func TestAssignmentIssueUnknownClass(t *testing.T) {
	f := newAssignmentFixture(t)

	_, err := f.svc.Issue(context.Background(), dto.AssignmentIssueRequest{
		ClassID: 99,
		Title:   "Essay",
		DueDate: f.due,
	})
	require.ErrorIs(t, err, ErrClassNotFound)
}

func TestAssignmentIssueFansOutToClass(t *testing.T) {
	f := newAssignmentFixture(t)

	resp := f.issue(t)
	require.Equal(t, 2, resp.StudentsIssued)
	require.NotZero(t, resp.Assignment.ID)

	require.Len(t, f.submissions.submissions, 2)
	for _, submission := range f.submissions.submissions {
		require.Equal(t, models.SubmissionStatusPending, submission.Status)
		require.InDelta(t, 100, submission.MaxScore, 1e-9)
	}

	require.Len(t, f.activities.entries, 2)
	for _, entry := range f.activities.entries {
		require.Equal(t, models.ActivityStatusPending, entry.Status)
		require.Equal(t, models.ActivityTypeAssignment, entry.ActivityType)
		require.Equal(t, f.due, *entry.DueDate)
	}

	require.Len(t, f.alerts.assignment, 2)
	require.Equal(t, uint(1), f.alerts.assignment[0].StudentID)
	require.Equal(t, uint(2), f.alerts.assignment[1].StudentID)
}

func TestAssignmentIssueDefaultsMaxScore(t *testing.T) {
	f := newAssignmentFixture(t)

	resp, err := f.svc.Issue(context.Background(), dto.AssignmentIssueRequest{
		ClassID: 5,
		Title:   "Essay",
		DueDate: f.due,
	})
	require.NoError(t, err)
	require.InDelta(t, 100, resp.Assignment.MaxScore, 1e-9)
}

func TestAssignmentIssueAbortsMidClass(t *testing.T) {
	f := newAssignmentFixture(t)
	f.submissions.failAfter = 1

	_, err := f.svc.Issue(context.Background(), dto.AssignmentIssueRequest{
		ClassID: 5,
		Title:   "Essay",
		DueDate: f.due,
	})
	require.Error(t, err)

	// The first student stays issued; there is no rollback.
	require.Len(t, f.submissions.submissions, 1)
	require.Len(t, f.activities.entries, 1)
	require.Len(t, f.alerts.assignment, 1)
	require.Equal(t, uint(1), f.alerts.assignment[0].StudentID)
}

func TestAssignmentSubmitMarksSubmission(t *testing.T) {
	f := newAssignmentFixture(t)
	resp := f.issue(t)
	f.now = f.due.AddDate(0, 0, 2)

	score := 80.0
	submitted, err := f.svc.Submit(context.Background(), resp.Assignment.ID, dto.SubmissionRequest{
		StudentID: 1,
		Score:     &score,
	})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, submitted.Status)
	require.InDelta(t, 80, *submitted.Score, 1e-9)
	require.Equal(t, 2, submitted.ResponseTimeDays)

	entry, err := f.activities.LatestByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusSubmitted, entry.Status)
	require.Equal(t, 2, entry.ResponseTimeDays)

	require.Equal(t, 1, f.streaks.streaks[1].CurrentStreak)
	require.Equal(t, []uint{1}, f.risks.calculated)

	require.Len(t, f.alerts.assignment, 3)
	require.Equal(t, models.ActivityStatusSubmitted, f.alerts.assignment[2].Status)
}

func TestAssignmentSubmitRejectsDuplicate(t *testing.T) {
	f := newAssignmentFixture(t)
	resp := f.issue(t)
	ctx := context.Background()

	score := 90.0
	_, err := f.svc.Submit(ctx, resp.Assignment.ID, dto.SubmissionRequest{StudentID: 1, Score: &score})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, resp.Assignment.ID, dto.SubmissionRequest{StudentID: 1, Score: &score})
	require.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestAssignmentSubmitRejectsScoreAboveMax(t *testing.T) {
	f := newAssignmentFixture(t)
	resp := f.issue(t)

	score := 101.0
	_, err := f.svc.Submit(context.Background(), resp.Assignment.ID, dto.SubmissionRequest{StudentID: 1, Score: &score})
	require.ErrorIs(t, err, ErrScoreExceedsMax)
}

func TestAssignmentSubmitUnknownTargets(t *testing.T) {
	f := newAssignmentFixture(t)
	resp := f.issue(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, 99, dto.SubmissionRequest{StudentID: 1})
	require.ErrorIs(t, err, ErrAssignmentNotFound)

	_, err = f.svc.Submit(ctx, resp.Assignment.ID, dto.SubmissionRequest{StudentID: 42})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestAssignmentSubmitBackfillsMissingActivityLog(t *testing.T) {
	f := newAssignmentFixture(t)
	resp := f.issue(t)
	f.activities.entries = nil

	score := 70.0
	_, err := f.svc.Submit(context.Background(), resp.Assignment.ID, dto.SubmissionRequest{StudentID: 1, Score: &score})
	require.NoError(t, err)

	entry, err := f.activities.LatestByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusSubmitted, entry.Status)
}

func TestAssignmentCloseMarksPendingMissed(t *testing.T) {
	f := newAssignmentFixture(t)
	resp := f.issue(t)
	ctx := context.Background()

	score := 95.0
	_, err := f.svc.Submit(ctx, resp.Assignment.ID, dto.SubmissionRequest{StudentID: 1, Score: &score})
	require.NoError(t, err)
	f.alerts.assignment = nil
	f.risks.calculated = nil

	closed, err := f.svc.Close(ctx, resp.Assignment.ID)
	require.NoError(t, err)
	require.Equal(t, resp.Assignment.ID, closed.AssignmentID)
	require.Equal(t, 1, closed.MarkedMissed)

	remaining, err := f.submissions.GetByAssignmentAndStudent(ctx, resp.Assignment.ID, 2)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusMissed, remaining.Status)

	entry, err := f.activities.LatestByUser(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusMissed, entry.Status)

	require.Len(t, f.alerts.assignment, 1)
	require.Equal(t, models.ActivityStatusMissed, f.alerts.assignment[0].Status)
	require.Equal(t, []uint{2}, f.risks.calculated)
}

func TestAssignmentCloseUnknownAssignment(t *testing.T) {
	f := newAssignmentFixture(t)

	_, err := f.svc.Close(context.Background(), 99)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
