package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"contest-tool-backend/internal/common/logger"
	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/repository"
)

const interruptedDelivery = "delivery interrupted, retry required"

// stalledCycle цикл, в котором условие выполнено, но выбрать некого
type stalledCycle struct {
	participants int
	retryAt      time.Time
}

// Scheduler фоновые циклы движка: запуск отложенных циклов,
// подведение итогов по условию завершения и сброс зависших оценок
type Scheduler struct {
	ctx        context.Context
	cancel     context.CancelFunc
	service    *Service
	repo       repository.Repository
	log        zerolog.Logger
	processing sync.Map
	stalled    sync.Map // cycleID -> stalledCycle
	semaphore  chan struct{}
	wg         sync.WaitGroup
}

func NewScheduler(service *Service) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:       ctx,
		cancel:    cancel,
		service:   service,
		repo:      service.repo,
		log:       logger.Component("scheduler"),
		semaphore: make(chan struct{}, MaxConcurrentFinalize),
	}
}

func (s *Scheduler) Start() {
	s.log.Info().
		Dur("check_interval", s.service.opts.CheckInterval).
		Dur("cleanup_interval", s.service.opts.CleanupInterval).
		Msg("Starting contest scheduler")

	s.wg.Add(2)

	go s.loop(s.service.opts.CheckInterval, func() {
		if err := s.activateDueCycles(); err != nil {
			s.log.Error().Err(err).Msg("Error activating cycles")
		}
		if err := s.processDueContests(); err != nil {
			s.log.Error().Err(err).Msg("Error processing contests")
		}
	})

	go s.loop(s.service.opts.CleanupInterval, func() {
		if err := s.cleanup(); err != nil {
			s.log.Error().Err(err).Msg("Error cleaning up stale state")
		}
	})
}

func (s *Scheduler) Stop() {
	s.log.Info().Msg("Stopping contest scheduler")
	s.cancel()
	s.wg.Wait()
	s.log.Info().Msg("Contest scheduler stopped")
}

func (s *Scheduler) loop(interval time.Duration, tick func()) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tick()
		case <-s.ctx.Done():
			return
		}
	}
}

// activateDueCycles запускает циклы, у которых наступило время старта
func (s *Scheduler) activateDueCycles() error {
	now := s.service.now()
	cycles, err := s.repo.ListDueCreatedCycles(s.ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list due cycles: %w", err)
	}

	for _, cycle := range cycles {
		contest, err := s.repo.GetContest(s.ctx, cycle.ContestID)
		if err != nil {
			s.log.Error().Err(err).Str("cycle_id", cycle.ID).Msg("Failed to load contest of cycle")
			continue
		}

		deadline, err := NextDeadline(contest.Finish, cycle.StartedAt, s.service.opts.Location)
		if err != nil {
			s.log.Error().Err(err).Str("cycle_id", cycle.ID).Msg("Failed to compute cycle deadline")
			continue
		}

		activated, err := s.repo.ActivateCycle(s.ctx, cycle.ID, cycle.StartedAt, deadline)
		if err != nil {
			s.log.Error().Err(err).Str("cycle_id", cycle.ID).Msg("Failed to activate cycle")
			continue
		}
		if activated {
			s.log.Info().Str("contest_id", contest.ID).Str("cycle_id", cycle.ID).Msg("Cycle activated")
		}
	}

	return nil
}

// processDueContests подводит итоги там, где условие завершения уже не not_yet
func (s *Scheduler) processDueContests() error {
	contests, err := s.repo.ListFinalizable(s.ctx)
	if err != nil {
		return fmt.Errorf("failed to list contests: %w", err)
	}

	for _, contest := range contests {
		due, err := s.isDue(contest)
		if err != nil {
			s.log.Error().Err(err).Str("contest_id", contest.ID).Msg("Failed to evaluate contest")
			continue
		}
		if due == nil || s.isStalled(due) {
			continue
		}

		if _, exists := s.processing.LoadOrStore(contest.ID, true); exists {
			continue
		}

		s.wg.Add(1)
		go func(id string, due *dueCycle) {
			defer s.wg.Done()
			defer s.processing.Delete(id)

			select {
			case s.semaphore <- struct{}{}:
				defer func() { <-s.semaphore }()
			case <-s.ctx.Done():
				return
			}

			result, err := s.service.finalize(s.ctx, id, finalizeRequest{})
			switch {
			case errors.Is(err, ErrFinalizeInProgress), errors.Is(err, ErrNoActiveCycle):
				s.log.Debug().Err(err).Str("contest_id", id).Msg("Contest skipped by scheduler")
			case err != nil:
				s.log.Error().Err(err).Str("contest_id", id).Msg("Failed to finalize contest")
			default:
				s.trackStalled(due, result)
				s.log.Info().
					Str("contest_id", id).
					Bool("success", result.Success).
					Str("reason", result.ErrorReason).
					Msg("Scheduled finalize finished")
			}
		}(contest.ID, due)
	}

	return nil
}

type dueCycle struct {
	cycleID      string
	participants int
}

// isDue дешевая проверка без захвата цикла. nil, если подводить итоги рано.
func (s *Scheduler) isDue(contest *models.Contest) (*dueCycle, error) {
	cycle, err := s.repo.GetOpenCycle(s.ctx, contest.ID)
	if errors.Is(err, repository.ErrNoOpenCycle) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cycle.Status != models.CycleStatusActive {
		return nil, nil
	}

	participants, err := s.repo.CountParticipants(s.ctx, cycle.ID)
	if err != nil {
		return nil, err
	}

	eval, err := EvaluateFinish(contest.Finish, cycle, participants, s.service.now(), s.service.opts.Location)
	if err != nil {
		return nil, err
	}
	if eval.Decision == models.DecisionNotYet {
		return nil, nil
	}
	return &dueCycle{cycleID: cycle.ID, participants: participants}, nil
}

// isStalled цикл без допустимых участников не перепроверяется, пока не
// появятся новые заявки или не выйдет пауза
func (s *Scheduler) isStalled(due *dueCycle) bool {
	v, ok := s.stalled.Load(due.cycleID)
	if !ok {
		return false
	}
	st := v.(stalledCycle)
	if st.participants == due.participants && s.service.now().Before(st.retryAt) {
		return true
	}
	s.stalled.Delete(due.cycleID)
	return false
}

func (s *Scheduler) trackStalled(due *dueCycle, result *models.FinalizeResult) {
	if result.Skipped && result.ErrorReason == models.ReasonNoEligibleParticipants {
		s.stalled.Store(due.cycleID, stalledCycle{
			participants: due.participants,
			retryAt:      s.service.now().Add(s.service.opts.NoEligibleRetryAfter),
		})
		return
	}
	s.stalled.Delete(due.cycleID)
}

// cleanup возвращает в active циклы, зависшие в evaluating после сбоя,
// и переводит в error отправки, прерванные на середине
func (s *Scheduler) cleanup() error {
	now := s.service.now()

	reset, err := s.repo.ResetStaleEvaluations(s.ctx, now.Add(-s.service.opts.StaleEvaluationAfter))
	if err != nil {
		return err
	}
	if reset > 0 {
		s.log.Warn().Int64("cycles", reset).Msg("Stale evaluations reset")
	}

	failed, err := s.repo.FailStalePending(s.ctx, now.Add(-s.service.opts.StalePendingAfter), interruptedDelivery)
	if err != nil {
		return err
	}
	if failed > 0 {
		s.log.Warn().Int64("deliveries", failed).Msg("Interrupted deliveries marked as failed")
	}

	return nil
}
