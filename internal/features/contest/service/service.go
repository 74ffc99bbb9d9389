package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"contest-tool-backend/internal/common/config"
	"contest-tool-backend/internal/common/logger"
	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/models/dto"
	"contest-tool-backend/internal/features/contest/repository"
)

// Options параметры движка. Нулевые значения заменяются константами по умолчанию.
type Options struct {
	Location                *time.Location
	DeliveryTimeout         time.Duration
	DeliveryLockTTL         time.Duration
	MaxConcurrentDeliveries int
	CheckInterval           time.Duration
	CleanupInterval         time.Duration
	StaleEvaluationAfter    time.Duration
	StalePendingAfter       time.Duration
	NoEligibleRetryAfter    time.Duration

	// Для тестов
	Now     func() time.Time
	Shuffle Shuffler
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Location:                cfg.Location(),
		DeliveryTimeout:         cfg.Engine.DeliveryTimeout,
		MaxConcurrentDeliveries: cfg.Engine.MaxConcurrentDeliveries,
		CheckInterval:           cfg.Engine.CheckInterval,
		CleanupInterval:         cfg.Engine.CleanupInterval,
		StaleEvaluationAfter:    cfg.Engine.StaleEvaluationAfter,
		StalePendingAfter:       cfg.Engine.StalePendingAfter,
		NoEligibleRetryAfter:    cfg.Engine.NoEligibleRetryAfter,
	}
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.DeliveryTimeout <= 0 {
		o.DeliveryTimeout = DeliveryTimeout
	}
	if o.DeliveryLockTTL <= 0 {
		o.DeliveryLockTTL = DeliveryLockTTL
	}
	if o.MaxConcurrentDeliveries <= 0 {
		o.MaxConcurrentDeliveries = MaxConcurrentDeliveries
	}
	if o.CheckInterval <= 0 {
		o.CheckInterval = CheckInterval
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = CleanupInterval
	}
	if o.StaleEvaluationAfter <= 0 {
		o.StaleEvaluationAfter = StaleEvaluationAfter
	}
	if o.StalePendingAfter <= 0 {
		o.StalePendingAfter = StalePendingAfter
	}
	if o.NoEligibleRetryAfter <= 0 {
		o.NoEligibleRetryAfter = NoEligibleRetryAfter
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Service struct {
	repo       repository.Repository
	cache      repository.GlobalsCache
	messenger  Messenger
	events     EventPublisher
	selector   *WinnerSelector
	dispatcher *DeliveryDispatcher
	opts       Options
	log        zerolog.Logger
}

var _ ContestService = (*Service)(nil)

// NewService собирает движок. cache может быть nil, тогда переменные проекта читаются из БД.
func NewService(
	repo repository.Repository,
	locker repository.DeliveryLocker,
	cache repository.GlobalsCache,
	messenger Messenger,
	events EventPublisher,
	opts Options,
) *Service {
	opts = opts.withDefaults()
	return &Service{
		repo:       repo,
		cache:      cache,
		messenger:  messenger,
		events:     events,
		selector:   NewWinnerSelector(opts.Shuffle),
		dispatcher: NewDeliveryDispatcher(repo, locker, messenger, events, opts),
		opts:       opts,
		log:        logger.Component("contest_service"),
	}
}

func (s *Service) now() time.Time {
	return s.opts.Now().UTC()
}

func (s *Service) CreateContest(ctx context.Context, req *dto.ContestCreateRequest) (*models.Contest, error) {
	now := s.now()

	contest := req.ToModel()
	contest.ID = uuid.New().String()
	contest.CreatedAt = now
	contest.UpdatedAt = now

	if err := models.ValidateContest(contest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContest, err)
	}

	cycle, err := s.newCycle(contest, now, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContest, err)
	}

	if err := s.repo.CreateContest(ctx, contest, cycle); err != nil {
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}

	s.log.Info().
		Str("contest_id", contest.ID).
		Str("project_id", contest.ProjectID).
		Str("finish", string(contest.Finish.Condition)).
		Msg("Contest created")

	return contest, nil
}

func (s *Service) GetContest(ctx context.Context, id string) (*models.Contest, error) {
	return s.repo.GetContest(ctx, id)
}

func (s *Service) ListContests(ctx context.Context, projectID string) ([]*models.Contest, error) {
	return s.repo.ListContests(ctx, projectID)
}

// SetActive ставит конкурс на паузу или возобновляет его.
// Пауза архивирует еще не начавшийся цикл, возобновление открывает новый, если открытого нет.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*models.Contest, error) {
	contest, err := s.repo.GetContest(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetContestActive(ctx, id, active); err != nil {
		return nil, err
	}

	if !active {
		if err := s.repo.SetContestStatus(ctx, id, models.ContestStatusPaused); err != nil {
			return nil, err
		}
		archived, err := s.repo.ArchiveCreatedCycles(ctx, id)
		if err != nil {
			return nil, err
		}
		s.log.Info().Str("contest_id", id).Int64("archived_cycles", archived).Msg("Contest paused")
		return s.repo.GetContest(ctx, id)
	}

	if err := s.repo.SetContestStatus(ctx, id, models.ContestStatusActive); err != nil {
		return nil, err
	}

	_, err = s.repo.GetOpenCycle(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNoOpenCycle):
		now := s.now()
		cycle, err := s.newCycle(contest, now, now)
		if err != nil {
			return nil, err
		}
		if err := s.repo.CreateCycle(ctx, cycle); err != nil && !errors.Is(err, repository.ErrOpenCycleExists) {
			return nil, err
		}
	default:
		return nil, err
	}

	s.log.Info().Str("contest_id", id).Msg("Contest resumed")
	return s.repo.GetContest(ctx, id)
}

func (s *Service) ListCycles(ctx context.Context, contestID string) ([]*models.Cycle, error) {
	if _, err := s.repo.GetContest(ctx, contestID); err != nil {
		return nil, err
	}
	return s.repo.ListCycles(ctx, contestID)
}

// newCycle цикл, начинающийся в startAt. Цикл из будущего создается в статусе created
// и активируется планировщиком, срок завершения вычисляется при активации.
func (s *Service) newCycle(contest *models.Contest, startAt, now time.Time) (*models.Cycle, error) {
	cycle := &models.Cycle{
		ID:        uuid.New().String(),
		ContestID: contest.ID,
		Status:    models.CycleStatusCreated,
		StartedAt: startAt,
		CreatedAt: now,
	}

	if startAt.After(now) {
		return cycle, nil
	}

	deadline, err := NextDeadline(contest.Finish, startAt, s.opts.Location)
	if err != nil {
		return nil, err
	}
	cycle.Status = models.CycleStatusActive
	cycle.DeadlineAt = deadline
	return cycle, nil
}

// globals переменные проекта для шаблонов, через кэш, если он есть
func (s *Service) globals(ctx context.Context, projectID string) map[string]string {
	load := func() (map[string]string, error) {
		return s.repo.GetGlobals(ctx, projectID)
	}

	var (
		values map[string]string
		err    error
	)
	if s.cache != nil {
		values, err = s.cache.GetGlobals(ctx, projectID, load)
	} else {
		values, err = load()
	}
	if err != nil {
		// Без переменных {global_*} подставятся пустыми строками
		s.log.Warn().Err(err).Str("project_id", projectID).Msg("Failed to load project globals")
		return map[string]string{}
	}
	return values
}

func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), eventType, payload); err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}
