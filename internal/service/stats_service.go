package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/spms-go-api/internal/dto"
	"github.com/noah-isme/spms-go-api/internal/repository"
)

// ErrInvalidWindow is returned when a stats window is zero or negative.
var ErrInvalidWindow = errors.New("stats window must be positive")

// StatsService computes windowed solving statistics and the inactivity
// verdict for a student.
type StatsService interface {
	ComputeStats(ctx context.Context, studentID uint, windowDays int) (dto.ProblemStatsResponse, error)
	CheckInactivity(ctx context.Context, studentID uint, thresholdDays int) (bool, error)
	ContestHistory(ctx context.Context, studentID uint, days int) ([]dto.ContestRecordResponse, error)
	InvalidateCache(ctx context.Context, studentID uint)
}

type statsService struct {
	students repository.StudentRepository
	contests repository.ContestRecordRepository
	problems repository.ProblemRecordRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewStatsService builds the stats aggregator.
func NewStatsService(students repository.StudentRepository, contests repository.ContestRecordRepository, problems repository.ProblemRecordRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StatsService {
	return &statsService{
		students: students,
		contests: contests,
		problems: problems,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "stats_service").Logger(),
		now:      time.Now,
	}
}

func (s *statsService) ComputeStats(ctx context.Context, studentID uint, windowDays int) (dto.ProblemStatsResponse, error) {
	if windowDays <= 0 {
		return dto.ProblemStatsResponse{}, ErrInvalidWindow
	}

	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemStatsResponse{}, ErrStudentNotFound
		}
		return dto.ProblemStatsResponse{}, err
	}

	cacheKey := s.statsCacheKey(ctx, studentID, windowDays)
	if s.cache != nil && cacheKey != "" {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ProblemStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("stats cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
		}
	}

	now := s.now().UTC()
	since := now.AddDate(0, 0, -windowDays)
	records, err := s.problems.ListByStudent(ctx, studentID, &since)
	if err != nil {
		return dto.ProblemStatsResponse{}, err
	}

	response := dto.ProblemStatsResponse{
		TotalSolved:       len(records),
		ProblemsPerDay:    float64(len(records)) / float64(windowDays),
		SolvedByRating:    map[int]int{},
		DailySolvedCounts: map[string]int{},
	}

	var ratingSum int
	var ratedCount int
	for i, record := range records {
		if record.Rating != nil {
			ratingSum += *record.Rating
			ratedCount++
			response.SolvedByRating[*record.Rating]++
		}

		day := record.DateSolved.UTC().Format("2006-01-02")
		response.DailySolvedCounts[day]++

		// Nil ratings compare as zero, so an all-null window still yields
		// a hardest entry: the earliest solve, with Rating left nil.
		if response.HardestSolved == nil || ratingOrZero(record.Rating) > ratingOrZero(response.HardestSolved.Rating) {
			response.HardestSolved = &dto.HardestProblem{
				ProblemID:   records[i].ProblemID,
				ProblemName: records[i].ProblemName,
				Rating:      records[i].Rating,
			}
		}
	}

	if ratedCount > 0 {
		response.AverageRating = float64(ratingSum) / float64(ratedCount)
	}

	if s.cache != nil && cacheKey != "" {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store stats cache")
			}
		}
	}

	return response, nil
}

// CheckInactivity applies the verdict over the student's FULL solve history,
// never the windowed subset: inactive when no solve exists or the newest one
// is older than the threshold.
func (s *statsService) CheckInactivity(ctx context.Context, studentID uint, thresholdDays int) (bool, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrStudentNotFound
		}
		return false, err
	}

	latest, err := s.problems.LatestForStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return true, nil
		}
		return false, err
	}

	threshold := time.Duration(thresholdDays) * 24 * time.Hour
	return s.now().UTC().Sub(latest.DateSolved) > threshold, nil
}

func (s *statsService) ContestHistory(ctx context.Context, studentID uint, days int) ([]dto.ContestRecordResponse, error) {
	if _, err := s.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	var since *time.Time
	if days > 0 {
		cutoff := s.now().UTC().AddDate(0, 0, -days)
		since = &cutoff
	}

	records, err := s.contests.ListByStudent(ctx, studentID, since)
	if err != nil {
		return nil, err
	}

	return dto.NewContestRecordResponseSlice(records), nil
}

// InvalidateCache bumps the per-student cache generation so every cached
// window is orphaned after a sync rewrites the underlying collections.
func (s *statsService) InvalidateCache(ctx context.Context, studentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Incr(ctx, statsGenerationKey(studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate stats cache")
	}
}

func (s *statsService) statsCacheKey(ctx context.Context, studentID uint, windowDays int) string {
	if s.cache == nil {
		return ""
	}

	generation := int64(0)
	if raw, err := s.cache.Get(ctx, statsGenerationKey(studentID)).Result(); err == nil {
		if parsed, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil {
			generation = parsed
		}
	} else if err != redis.Nil {
		s.logger.Warn().Err(err).Msg("failed to read stats cache generation")
		return ""
	}

	return fmt.Sprintf("stats:student:%d:gen:%d:window:%d", studentID, generation, windowDays)
}

func statsGenerationKey(studentID uint) string {
	return fmt.Sprintf("stats:student:%d:generation", studentID)
}

func ratingOrZero(rating *int) int {
	if rating == nil {
		return 0
	}
	return *rating
}
