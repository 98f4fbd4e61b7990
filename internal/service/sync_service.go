package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/spms-go-api/internal/dto"
	"github.com/noah-isme/spms-go-api/internal/models"
	"github.com/noah-isme/spms-go-api/internal/observability"
	"github.com/noah-isme/spms-go-api/internal/repository"
	"github.com/noah-isme/spms-go-api/pkg/codeforces"
)

// syncOutcomeSubject is the NATS subject sync outcome events are published on.
const syncOutcomeSubject = "spms.sync.outcome"

// UpstreamClient is the slice of the Codeforces client the orchestrator
// depends on. Every fetcher fails softly: an error degrades to "leave stored
// data untouched" for that category and never aborts the student's sync.
type UpstreamClient interface {
	FetchRating(ctx context.Context, handle string) (codeforces.Rating, error)
	FetchContestHistory(ctx context.Context, handle string) ([]codeforces.ContestResult, error)
	FetchSubmissions(ctx context.Context, handle string) ([]codeforces.Submission, error)
}

// Notifier delivers the inactivity reminder. A nil return means delivered.
type Notifier interface {
	Notify(ctx context.Context, name, email string) error
}

// SyncService reconciles students with their upstream Codeforces profiles.
type SyncService interface {
	SyncOne(ctx context.Context, studentID uint) (dto.SyncOutcome, error)
	SyncByHandle(ctx context.Context, handle string) (dto.SyncOutcome, error)
	SyncAll(ctx context.Context) (dto.SweepResult, error)
}

// SyncConfig tunes the orchestrator.
type SyncConfig struct {
	// Concurrency bounds the worker pool used by SyncAll.
	Concurrency int

	// InactivityThresholdDays is the verdict threshold applied after each sync.
	InactivityThresholdDays int
}

type syncService struct {
	students repository.StudentRepository
	contests repository.ContestRecordRepository
	problems repository.ProblemRecordRepository
	client   UpstreamClient
	notifier Notifier
	stats    StatsService
	events   *nats.Conn
	config   SyncConfig
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewSyncService builds the sync orchestrator. The NATS connection is
// optional; a nil conn disables outcome event publishing.
func NewSyncService(students repository.StudentRepository, contests repository.ContestRecordRepository, problems repository.ProblemRecordRepository, client UpstreamClient, notifier Notifier, stats StatsService, events *nats.Conn, cfg SyncConfig, logger zerolog.Logger) SyncService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.InactivityThresholdDays <= 0 {
		cfg.InactivityThresholdDays = 7
	}

	return &syncService{
		students: students,
		contests: contests,
		problems: problems,
		client:   client,
		notifier: notifier,
		stats:    stats,
		events:   events,
		config:   cfg,
		logger:   logger.With().Str("component", "sync_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/spms-go-api/internal/service/sync"),
		now:      time.Now,
	}
}

func (s *syncService) SyncOne(ctx context.Context, studentID uint) (dto.SyncOutcome, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SyncOutcome{}, ErrStudentNotFound
		}
		return dto.SyncOutcome{}, err
	}

	return s.syncStudent(ctx, student), nil
}

func (s *syncService) SyncByHandle(ctx context.Context, handle string) (dto.SyncOutcome, error) {
	student, err := s.students.GetByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SyncOutcome{}, ErrStudentNotFound
		}
		return dto.SyncOutcome{}, err
	}

	return s.syncStudent(ctx, student), nil
}

// SyncAll sweeps every student with a bounded worker pool. A failing student
// is reported in its outcome and never stops the remaining workers.
func (s *syncService) SyncAll(ctx context.Context) (dto.SweepResult, error) {
	spanCtx, span := s.tracer.Start(ctx, "sync.all")
	defer span.End()

	students, err := s.students.ListAll(spanCtx)
	if err != nil {
		span.RecordError(err)
		return dto.SweepResult{}, err
	}

	result := dto.SweepResult{
		RunID:    uuid.NewString(),
		Total:    len(students),
		Outcomes: make([]dto.SyncOutcome, len(students)),
	}

	started := s.now()
	semaphore := make(chan struct{}, s.config.Concurrency)
	var wg sync.WaitGroup

	for i := range students {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(idx int, student models.Student) {
			defer wg.Done()
			defer func() { <-semaphore }()
			result.Outcomes[idx] = s.syncStudent(spanCtx, student)
		}(i, students[i])
	}

	wg.Wait()

	for _, outcome := range result.Outcomes {
		if outcome.Error != "" {
			result.Failed++
		}
		if outcome.Notified {
			result.Notified++
		}
	}

	duration := s.now().Sub(started)
	observability.SweepDuration().Observe(duration.Seconds())
	s.logger.Info().
		Str("run_id", result.RunID).
		Int("total", result.Total).
		Int("failed", result.Failed).
		Int("notified", result.Notified).
		Dur("duration", duration).
		Msg("sweep completed")

	return result, nil
}

// syncStudent runs one student's full unit of work: fetch, reduce, reconcile,
// then the inactivity check against the post-reconciliation records. Contest
// and problem categories are reconciled independently so a failure in one
// never corrupts the other.
func (s *syncService) syncStudent(ctx context.Context, student models.Student) dto.SyncOutcome {
	spanCtx, span := s.tracer.Start(ctx, "sync.one", trace.WithAttributes(
		attribute.Int64("student.id", int64(student.ID)),
		attribute.String("student.handle", student.Handle),
	))
	defer span.End()

	logger := s.logger.With().Uint("student_id", student.ID).Str("cf_handle", student.Handle).Logger()
	outcome := dto.SyncOutcome{StudentID: student.ID, Handle: student.Handle}
	var failures []string

	rating, err := s.client.FetchRating(spanCtx, student.Handle)
	recordUpstreamCall("rating", err)
	if err != nil {
		logger.Warn().Err(err).Msg("rating fetch degraded to absent")
	} else {
		outcome.RatingChanged = !intPointersEqual(student.CurrentRating, rating.Current) ||
			!intPointersEqual(student.MaxRating, rating.Max)
		student.CurrentRating = rating.Current
		student.MaxRating = rating.Max
		syncedAt := s.now().UTC()
		student.LastSyncedAt = &syncedAt

		if err := s.students.UpdateSyncedRating(spanCtx, &student); err != nil {
			span.RecordError(err)
			failures = append(failures, fmt.Sprintf("rating update: %v", err))
		}
	}

	replaced := false

	contests, err := s.client.FetchContestHistory(spanCtx, student.Handle)
	recordUpstreamCall("contests", err)
	if err != nil {
		logger.Warn().Err(err).Msg("contest history fetch degraded to empty")
	} else if len(contests) > 0 {
		records := contestRecords(student.ID, contests)
		if err := s.contests.ReplaceForStudent(spanCtx, student.ID, records); err != nil {
			span.RecordError(err)
			failures = append(failures, fmt.Sprintf("contest replace: %v", err))
		} else {
			outcome.ContestsReplaced = true
			replaced = true
		}
	}

	submissions, err := s.client.FetchSubmissions(spanCtx, student.Handle)
	recordUpstreamCall("submissions", err)
	if err != nil {
		logger.Warn().Err(err).Msg("submission fetch degraded to empty")
	} else if solved := ReduceSubmissions(submissions); len(solved) > 0 {
		if err := s.problems.ReplaceForStudent(spanCtx, student.ID, solved); err != nil {
			span.RecordError(err)
			failures = append(failures, fmt.Sprintf("problem replace: %v", err))
		} else {
			outcome.ProblemsReplaced = true
			replaced = true
		}
	}

	if replaced && s.stats != nil {
		s.stats.InvalidateCache(spanCtx, student.ID)
	}

	if !student.EmailOptOut {
		outcome.Notified = s.maybeNotify(spanCtx, student, logger, &failures)
	}

	outcome.Error = strings.Join(failures, "; ")

	status := "success"
	if outcome.Error != "" {
		status = "error"
	}
	observability.StudentSyncs().WithLabelValues(status).Inc()

	s.publishOutcome(outcome)

	return outcome
}

// maybeNotify runs the inactivity verdict against the freshly reconciled data
// and sends at most one reminder. The counter moves only on delivery; a
// delivery failure is logged and swallowed.
func (s *syncService) maybeNotify(ctx context.Context, student models.Student, logger zerolog.Logger, failures *[]string) bool {
	inactive, err := s.stats.CheckInactivity(ctx, student.ID, s.config.InactivityThresholdDays)
	if err != nil {
		*failures = append(*failures, fmt.Sprintf("inactivity check: %v", err))
		return false
	}

	if !inactive {
		return false
	}

	if err := s.notifier.Notify(ctx, student.Name, student.Email); err != nil {
		logger.Warn().Err(err).Msg("inactivity reminder not delivered")
		return false
	}

	if err := s.students.IncrementReminderCount(ctx, student.ID); err != nil {
		*failures = append(*failures, fmt.Sprintf("reminder counter: %v", err))
		return true
	}

	observability.RemindersSent().Inc()
	logger.Info().Msg("inactivity reminder delivered")

	return true
}

func (s *syncService) publishOutcome(outcome dto.SyncOutcome) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(outcome)
	if err != nil {
		return
	}

	if err := s.events.Publish(syncOutcomeSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish sync outcome event")
	}
}

func contestRecords(studentID uint, contests []codeforces.ContestResult) []models.ContestRecord {
	records := make([]models.ContestRecord, 0, len(contests))
	for _, contest := range contests {
		records = append(records, models.ContestRecord{
			StudentID:    studentID,
			ContestID:    contest.ContestID,
			ContestName:  contest.ContestName,
			Rank:         contest.Rank,
			RatingChange: contest.RatingChange,
			NewRating:    contest.NewRating,
			Date:         contest.Date,
		})
	}
	return records
}

func recordUpstreamCall(category string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	observability.UpstreamCalls().WithLabelValues(category, result).Inc()
}

func intPointersEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
