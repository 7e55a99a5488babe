package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/evalhub/gradehub-api/internal/dto"
	"github.com/evalhub/gradehub-api/internal/grader"
	"github.com/evalhub/gradehub-api/internal/models"
	"github.com/evalhub/gradehub-api/internal/repository"
)

// noSubmissionsMessage is the explicit empty state returned before anyone has
// been graded.
const noSubmissionsMessage = "no submissions yet"

func statsCacheKey(homeworkName string) string {
	return fmt.Sprintf("stats:homework:%s", homeworkName)
}

// StatsService computes best-score statistics across a homework's learners.
// Results are cached until the next graded submission invalidates them.
type StatsService interface {
	GetStats(ctx context.Context, homeworkName string) (dto.StatsResponse, error)
}

type statsService struct {
	homeworks repository.HomeworkRepository
	ledger    repository.LedgerRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// NewStatsService constructs the statistics service. The Redis client is
// optional; without it every call recomputes.
func NewStatsService(
	homeworks repository.HomeworkRepository,
	ledger repository.LedgerRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) StatsService {
	return &statsService{
		homeworks: homeworks,
		ledger:    ledger,
		cache:     cache,
		cacheTTL:  ttl,
		logger:    logger.With().Str("component", "stats_service").Logger(),
	}
}

func (s *statsService) GetStats(ctx context.Context, homeworkName string) (dto.StatsResponse, error) {
	homework, err := s.homeworks.GetByName(ctx, homeworkName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StatsResponse{}, ErrHomeworkNotFound
		}
		return dto.StatsResponse{}, err
	}

	cacheKey := statsCacheKey(homework.Name)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("homework", homework.Name).Msg("stats cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
		}
	}

	entries, err := s.ledger.ListByHomework(ctx, homework.ID)
	if err != nil {
		return dto.StatsResponse{}, err
	}

	response := s.buildResponse(homework, entries)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store stats cache")
			}
		}
	}

	return response, nil
}

func (s *statsService) buildResponse(homework models.Homework, entries []models.LedgerEntry) dto.StatsResponse {
	graderEntries := make([]grader.LearnerGradeEntry, 0, len(entries))
	for _, entry := range entries {
		graderEntries = append(graderEntries, grader.LearnerGradeEntry{
			LearnerID:   entry.LearnerID,
			BestScore:   entry.BestScore,
			Submissions: make([]grader.SubmissionRecord, entry.SubmissionCount),
		})
	}

	stats, ok := grader.Summarize(graderEntries, homework.MaxScore)
	if !ok {
		return dto.StatsResponse{
			HomeworkName: homework.Name,
			Message:      noSubmissionsMessage,
		}
	}

	response := dto.StatsResponse{
		HomeworkName:     homework.Name,
		TotalLearners:    stats.TotalLearners,
		TotalSubmissions: stats.TotalSubmissions,
		Score:            dto.NewDistributionResponse(stats.Score),
	}
	if homework.MaxScore > 0 {
		response.Percentage = dto.NewDistributionResponse(stats.Percentage)
	}

	return response
}
