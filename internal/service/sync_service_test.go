package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/spms-go-api/internal/models"
	"github.com/noah-isme/spms-go-api/internal/repository"
	"github.com/noah-isme/spms-go-api/pkg/codeforces"
)

type fakeUpstream struct {
	ratingFn      func(handle string) (codeforces.Rating, error)
	contestsFn    func(handle string) ([]codeforces.ContestResult, error)
	submissionsFn func(handle string) ([]codeforces.Submission, error)
}

func (f *fakeUpstream) FetchRating(_ context.Context, handle string) (codeforces.Rating, error) {
	if f.ratingFn == nil {
		return codeforces.Rating{}, errors.New("unavailable")
	}
	return f.ratingFn(handle)
}

func (f *fakeUpstream) FetchContestHistory(_ context.Context, handle string) ([]codeforces.ContestResult, error) {
	if f.contestsFn == nil {
		return nil, nil
	}
	return f.contestsFn(handle)
}

func (f *fakeUpstream) FetchSubmissions(_ context.Context, handle string) ([]codeforces.Submission, error) {
	if f.submissionsFn == nil {
		return nil, nil
	}
	return f.submissionsFn(handle)
}

type fakeNotifier struct {
	calls int
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, _, _ string) error {
	f.calls++
	return f.err
}

func newSyncTestHarness(t *testing.T, db *gorm.DB, upstream *fakeUpstream, notifier *fakeNotifier) SyncService {
	t.Helper()

	students := repository.NewStudentRepository(db)
	contests := repository.NewContestRecordRepository(db)
	problems := repository.NewProblemRecordRepository(db)
	stats := NewStatsService(students, contests, problems, nil, time.Minute, zerolog.Nop())

	return NewSyncService(students, contests, problems, upstream, notifier, stats, nil, SyncConfig{
		Concurrency:             2,
		InactivityThresholdDays: 7,
	}, zerolog.Nop())
}

func upstreamWithProfile(rating codeforces.Rating, contests []codeforces.ContestResult, submissions []codeforces.Submission) *fakeUpstream {
	return &fakeUpstream{
		ratingFn:      func(string) (codeforces.Rating, error) { return rating, nil },
		contestsFn:    func(string) ([]codeforces.ContestResult, error) { return contests, nil },
		submissionsFn: func(string) ([]codeforces.Submission, error) { return submissions, nil },
	}
}

func TestSyncOneReconcilesProfile(t *testing.T) {
	db := newServiceTestDB(t)
	student := newTestStudent(t, db, "tourist_jr")

	now := time.Now().UTC()
	upstream := upstreamWithProfile(
		codeforces.Rating{Current: intPointer(1520), Max: intPointer(1640)},
		[]codeforces.ContestResult{
			{ContestID: 900, ContestName: "Round 900", Rank: 120, RatingChange: 35, NewRating: 1520, Date: now.Add(-48 * time.Hour)},
			{ContestID: 899, ContestName: "Round 899", Rank: 300, RatingChange: -12, NewRating: 1485, Date: now.Add(-9 * 24 * time.Hour)},
		},
		[]codeforces.Submission{
			acceptedAt(11, 1500, "A", now.Add(-24*time.Hour)),
			{ID: 12, ContestID: 1500, Index: "B", Verdict: "WRONG_ANSWER", CreatedAt: now.Add(-23 * time.Hour)},
		},
	)
	notifier := &fakeNotifier{}

	svc := newSyncTestHarness(t, db, upstream, notifier)

	outcome, err := svc.SyncOne(context.Background(), student.ID)
	require.NoError(t, err)
	require.True(t, outcome.RatingChanged)
	require.True(t, outcome.ContestsReplaced)
	require.True(t, outcome.ProblemsReplaced)
	require.False(t, outcome.Notified, "student solved yesterday, no reminder expected")
	require.Empty(t, outcome.Error)
	require.Zero(t, notifier.calls)

	var updated models.Student
	require.NoError(t, db.First(&updated, student.ID).Error)
	require.NotNil(t, updated.CurrentRating)
	require.Equal(t, 1520, *updated.CurrentRating)
	require.NotNil(t, updated.MaxRating)
	require.Equal(t, 1640, *updated.MaxRating)
	require.NotNil(t, updated.LastSyncedAt)

	var contestCount, problemCount int64
	require.NoError(t, db.Model(&models.ContestRecord{}).Where("student_id = ?", student.ID).Count(&contestCount).Error)
	require.NoError(t, db.Model(&models.ProblemRecord{}).Where("student_id = ?", student.ID).Count(&problemCount).Error)
	require.Equal(t, int64(2), contestCount)
	require.Equal(t, int64(1), problemCount, "only accepted submissions become problem records")
}

func TestSyncOneUpstreamFailureLeavesRecordsUntouched(t *testing.T) {
	db := newServiceTestDB(t)
	student := newTestStudent(t, db, "flaky_upstream")

	existing := models.ContestRecord{
		StudentID:   student.ID,
		ContestID:   777,
		ContestName: "Kept Round",
		NewRating:   1400,
		Date:        time.Now().UTC().Add(-10 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(&existing).Error)

	rated := intPointer(1400)
	student.CurrentRating = rated
	require.NoError(t, db.Save(&student).Error)

	upstream := &fakeUpstream{
		ratingFn:      func(string) (codeforces.Rating, error) { return codeforces.Rating{}, errors.New("timeout") },
		contestsFn:    func(string) ([]codeforces.ContestResult, error) { return nil, errors.New("timeout") },
		submissionsFn: func(string) ([]codeforces.Submission, error) { return nil, errors.New("timeout") },
	}
	notifier := &fakeNotifier{err: errors.New("smtp down")}

	svc := newSyncTestHarness(t, db, upstream, notifier)

	outcome, err := svc.SyncOne(context.Background(), student.ID)
	require.NoError(t, err)
	require.False(t, outcome.RatingChanged)
	require.False(t, outcome.ContestsReplaced)
	require.False(t, outcome.ProblemsReplaced)
	require.Empty(t, outcome.Error, "upstream failure degrades, it is not a sync failure")

	var kept models.ContestRecord
	require.NoError(t, db.Where("student_id = ?", student.ID).First(&kept).Error)
	require.Equal(t, "Kept Round", kept.ContestName)

	var updated models.Student
	require.NoError(t, db.First(&updated, student.ID).Error)
	require.NotNil(t, updated.CurrentRating, "known rating must not be nulled by a failed fetch")
	require.Equal(t, 1400, *updated.CurrentRating)
}

func TestSyncOneIdempotentForIdenticalUpstreamData(t *testing.T) {
	db := newServiceTestDB(t)
	student := newTestStudent(t, db, "repeat_sync")

	now := time.Now().UTC()
	upstream := upstreamWithProfile(
		codeforces.Rating{Current: intPointer(1300), Max: intPointer(1300)},
		[]codeforces.ContestResult{
			{ContestID: 500, ContestName: "Round 500", Rank: 40, RatingChange: 20, NewRating: 1300, Date: now.Add(-72 * time.Hour)},
		},
		[]codeforces.Submission{
			acceptedAt(21, 1400, "A", now.Add(-48*time.Hour)),
			acceptedAt(22, 1400, "B", now.Add(-47*time.Hour)),
		},
	)

	svc := newSyncTestHarness(t, db, upstream, &fakeNotifier{})
	ctx := context.Background()

	_, err := svc.SyncOne(ctx, student.ID)
	require.NoError(t, err)

	var firstProblems []models.ProblemRecord
	require.NoError(t, db.Where("student_id = ?", student.ID).Order("problem_id").Find(&firstProblems).Error)

	outcome, err := svc.SyncOne(ctx, student.ID)
	require.NoError(t, err)
	require.False(t, outcome.RatingChanged, "identical rating is not a change")

	var contestCount, problemCount int64
	require.NoError(t, db.Model(&models.ContestRecord{}).Where("student_id = ?", student.ID).Count(&contestCount).Error)
	require.NoError(t, db.Model(&models.ProblemRecord{}).Where("student_id = ?", student.ID).Count(&problemCount).Error)
	require.Equal(t, int64(1), contestCount)
	require.Equal(t, int64(2), problemCount)

	var secondProblems []models.ProblemRecord
	require.NoError(t, db.Where("student_id = ?", student.ID).Order("problem_id").Find(&secondProblems).Error)
	require.Len(t, secondProblems, len(firstProblems))
	for i := range firstProblems {
		require.Equal(t, firstProblems[i].ProblemID, secondProblems[i].ProblemID)
		require.True(t, firstProblems[i].DateSolved.Equal(secondProblems[i].DateSolved))
	}
}

func TestSyncOneNotifiesInactiveStudent(t *testing.T) {
	db := newServiceTestDB(t)
	student := newTestStudent(t, db, "gone_quiet")

	eightDaysAgo := time.Now().UTC().Add(-8 * 24 * time.Hour)
	upstream := upstreamWithProfile(
		codeforces.Rating{Current: intPointer(1100), Max: intPointer(1200)},
		nil,
		[]codeforces.Submission{acceptedAt(31, 1000, "A", eightDaysAgo)},
	)
	notifier := &fakeNotifier{}

	svc := newSyncTestHarness(t, db, upstream, notifier)
	ctx := context.Background()

	outcome, err := svc.SyncOne(ctx, student.ID)
	require.NoError(t, err)
	require.True(t, outcome.Notified)
	require.Equal(t, 1, notifier.calls)

	var updated models.Student
	require.NoError(t, db.First(&updated, student.ID).Error)
	require.Equal(t, 1, updated.ReminderCount)

	// No debounce: an immediate re-run with no new solves reminds again.
	outcome, err = svc.SyncOne(ctx, student.ID)
	require.NoError(t, err)
	require.True(t, outcome.Notified)
	require.Equal(t, 2, notifier.calls)

	require.NoError(t, db.First(&updated, student.ID).Error)
	require.Equal(t, 2, updated.ReminderCount)
}

func TestSyncOneRespectsOptOut(t *testing.T) {
	db := newServiceTestDB(t)
	student := newTestStudent(t, db, "opted_out")
	student.EmailOptOut = true
	require.NoError(t, db.Save(&student).Error)

	upstream := upstreamWithProfile(codeforces.Rating{}, nil, nil)
	notifier := &fakeNotifier{}

	svc := newSyncTestHarness(t, db, upstream, notifier)

	outcome, err := svc.SyncOne(context.Background(), student.ID)
	require.NoError(t, err)
	require.False(t, outcome.Notified)
	require.Zero(t, notifier.calls)
}

func TestSyncOneNotificationFailureLeavesCounter(t *testing.T) {
	db := newServiceTestDB(t)
	student := newTestStudent(t, db, "smtp_down")

	upstream := upstreamWithProfile(codeforces.Rating{}, nil, nil)
	notifier := &fakeNotifier{err: errors.New("connection refused")}

	svc := newSyncTestHarness(t, db, upstream, notifier)

	outcome, err := svc.SyncOne(context.Background(), student.ID)
	require.NoError(t, err)
	require.False(t, outcome.Notified)
	require.Equal(t, 1, notifier.calls)
	require.Empty(t, outcome.Error, "delivery failure is not a sync failure")

	var updated models.Student
	require.NoError(t, db.First(&updated, student.ID).Error)
	require.Zero(t, updated.ReminderCount)
}

func TestSyncOneRatingWritePreservesReminderCount(t *testing.T) {
	db := newServiceTestDB(t)
	student := newTestStudent(t, db, "counter_kept")

	require.NoError(t, db.Model(&models.Student{}).
		Where("id = ?", student.ID).
		UpdateColumn("reminder_count", 3).Error)

	now := time.Now().UTC()
	upstream := upstreamWithProfile(
		codeforces.Rating{Current: intPointer(1450), Max: intPointer(1450)},
		nil,
		[]codeforces.Submission{acceptedAt(51, 700, "A", now.Add(-24*time.Hour))},
	)

	svc := newSyncTestHarness(t, db, upstream, &fakeNotifier{})

	outcome, err := svc.SyncOne(context.Background(), student.ID)
	require.NoError(t, err)
	require.True(t, outcome.RatingChanged)
	require.False(t, outcome.Notified)

	var updated models.Student
	require.NoError(t, db.First(&updated, student.ID).Error)
	require.Equal(t, 3, updated.ReminderCount, "rating reconciliation must not touch the counter")
	require.NotNil(t, updated.CurrentRating)
	require.Equal(t, 1450, *updated.CurrentRating)
}

func TestSyncOneUnknownStudent(t *testing.T) {
	db := newServiceTestDB(t)
	svc := newSyncTestHarness(t, db, &fakeUpstream{}, &fakeNotifier{})

	_, err := svc.SyncOne(context.Background(), 4242)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestSyncAllProcessesEveryStudentDespiteFailures(t *testing.T) {
	db := newServiceTestDB(t)

	healthy := newTestStudent(t, db, "healthy_one")
	broken := newTestStudent(t, db, "broken_handle")
	other := newTestStudent(t, db, "healthy_two")

	now := time.Now().UTC()
	upstream := &fakeUpstream{
		ratingFn: func(handle string) (codeforces.Rating, error) {
			if handle == broken.Handle {
				return codeforces.Rating{}, errors.New("handle not found")
			}
			return codeforces.Rating{Current: intPointer(1250), Max: intPointer(1250)}, nil
		},
		contestsFn: func(handle string) ([]codeforces.ContestResult, error) {
			if handle == broken.Handle {
				return nil, errors.New("handle not found")
			}
			return []codeforces.ContestResult{
				{ContestID: 600, ContestName: "Round 600", Rank: 15, RatingChange: 50, NewRating: 1250, Date: now.Add(-24 * time.Hour)},
			}, nil
		},
		submissionsFn: func(handle string) ([]codeforces.Submission, error) {
			if handle == broken.Handle {
				return nil, errors.New("handle not found")
			}
			return []codeforces.Submission{acceptedAt(41, 600, "A", now.Add(-24*time.Hour))}, nil
		},
	}

	svc := newSyncTestHarness(t, db, upstream, &fakeNotifier{})

	result, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Len(t, result.Outcomes, 3)
	require.NotEmpty(t, result.RunID)

	byHandle := map[string]bool{}
	for _, outcome := range result.Outcomes {
		byHandle[outcome.Handle] = outcome.ContestsReplaced
	}
	require.True(t, byHandle[healthy.Handle])
	require.True(t, byHandle[other.Handle])
	require.False(t, byHandle[broken.Handle])

	var brokenCount int64
	require.NoError(t, db.Model(&models.ContestRecord{}).Where("student_id = ?", broken.ID).Count(&brokenCount).Error)
	require.Zero(t, brokenCount)
}
