package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/repository"
)

type finalizeRequest struct {
	// Подвести итоги, не дожидаясь условия завершения
	force bool
	// Ручной запуск разрешен и для конкурса, остановленного из-за нехватки кодов
	manual bool
}

// Finalize подводит итоги текущего цикла по запросу оператора
func (s *Service) Finalize(ctx context.Context, contestID string, force bool) (*models.FinalizeResult, error) {
	return s.finalize(ctx, contestID, finalizeRequest{force: force, manual: true})
}

func (s *Service) finalize(ctx context.Context, contestID string, req finalizeRequest) (*models.FinalizeResult, error) {
	contest, err := s.repo.GetContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	if !canRun(contest, req.manual) {
		return &models.FinalizeResult{
			Success:     false,
			Message:     "contest is paused",
			ErrorReason: models.ReasonContestInactive,
		}, nil
	}

	cycle, err := s.repo.GetOpenCycle(ctx, contestID)
	if errors.Is(err, repository.ErrNoOpenCycle) {
		return nil, ErrNoActiveCycle
	}
	if err != nil {
		return nil, err
	}
	if cycle.Status == models.CycleStatusEvaluating {
		return nil, ErrFinalizeInProgress
	}

	now := s.now()
	acquired, err := s.repo.TryStartEvaluation(ctx, cycle.ID, now)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrFinalizeInProgress
	}

	log := s.log.With().Str("contest_id", contestID).Str("cycle_id", cycle.ID).Logger()

	// До фиксации итогов цикл возвращается в active при любом исходе
	committed := false
	defer func() {
		if committed {
			return
		}
		if releaseErr := s.repo.ReleaseEvaluation(context.WithoutCancel(ctx), cycle.ID); releaseErr != nil {
			log.Error().Err(releaseErr).Msg("Failed to release cycle evaluation")
		}
	}()

	participants, err := s.repo.CountParticipants(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}

	eval, err := EvaluateFinish(contest.Finish, cycle, participants, now, s.opts.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate finish condition: %w", err)
	}
	deadlineReached := eval.Decision == models.DecisionFinalizeNow && contest.Finish.IsHardDeadline()

	if !req.force {
		switch eval.Decision {
		case models.DecisionNotYet:
			return &models.FinalizeResult{
				Success:     false,
				Message:     "finish conditions are not met yet",
				ErrorReason: models.ReasonConditionsNotMet,
				CycleID:     cycle.ID,
			}, nil

		case models.DecisionSkip:
			if eval.NextDeadline != nil {
				if err := s.repo.UpdateDeadline(ctx, cycle.ID, *eval.NextDeadline); err != nil {
					return nil, err
				}
			}
			log.Info().Int("participants", participants).Msg("Contest postponed, conditions not met")
			s.publish(ctx, EventContestSkipped, ContestSkippedEvent{
				ContestID:    contestID,
				CycleID:      cycle.ID,
				Reason:       models.ReasonConditionsNotMet,
				Participants: participants,
				NextDeadline: eval.NextDeadline,
			})
			return &models.FinalizeResult{
				Success:     false,
				Skipped:     true,
				Message:     "contest postponed to the next window, conditions not met",
				ErrorReason: models.ReasonConditionsNotMet,
				CycleID:     cycle.ID,
			}, nil
		}
	}

	winners, err := s.pickWinners(ctx, contest, cycle, now)
	if err != nil {
		return nil, err
	}

	if len(winners) == 0 && !deadlineReached {
		log.Info().Int("participants", participants).Msg("No eligible participants")
		s.publish(ctx, EventContestSkipped, ContestSkippedEvent{
			ContestID:    contestID,
			CycleID:      cycle.ID,
			Reason:       models.ReasonNoEligibleParticipants,
			Participants: participants,
		})
		return &models.FinalizeResult{
			Success:     false,
			Skipped:     true,
			Message:     "no eligible participants",
			ErrorReason: models.ReasonNoEligibleParticipants,
			CycleID:     cycle.ID,
		}, nil
	}

	commit := &repository.FinalizeCommit{
		ContestID:         contestID,
		CycleID:           cycle.ID,
		Winners:           winners,
		ParticipantsCount: participants,
		FinishedAt:        now,
		WinnerPostLinks:   make(map[string]string, len(winners)),
	}
	for _, w := range winners {
		commit.WinnerPostLinks[w.ID] = w.Post.URL()
	}
	if contest.IsCyclic {
		next, err := s.newCycle(contest, now.Add(contest.RestartDelay()), now)
		if err != nil {
			return nil, err
		}
		commit.NextCycle = next
	}

	logs, err := s.repo.CommitFinalize(ctx, commit)
	switch {
	case errors.Is(err, repository.ErrInsufficientCodes):
		return s.pauseNoCodes(ctx, contest, cycle, len(winners))
	case errors.Is(err, repository.ErrCycleNotEvaluating):
		// Цикл сброшен очисткой зависших оценок, пока шел выбор
		return nil, ErrFinalizeInProgress
	case err != nil:
		return nil, fmt.Errorf("failed to commit finalize: %w", err)
	}
	committed = true

	log.Info().Int("winners", len(winners)).Int("participants", participants).Msg("Cycle finalized")

	// Доставка не прерывается отменой запроса: коды уже выданы
	detached := context.WithoutCancel(ctx)
	globals := s.globals(detached, contest.ProjectID)

	delivered := s.dispatcher.DispatchAll(detached, contest, logs, globals)
	postLink := s.publishResults(detached, contest, cycle.ID, winners, globals)

	s.publish(ctx, EventContestFinalized, ContestFinalizedEvent{
		ContestID:      contestID,
		CycleID:        cycle.ID,
		WinnersCount:   len(winners),
		Participants:   participants,
		ResultPostLink: postLink,
		FinishedAt:     now,
	})

	return buildResult(cycle.ID, winners, delivered, postLink), nil
}

// canRun планировщик обрабатывает только активные конкурсы,
// оператор может перезапустить и остановленный из-за нехватки кодов
func canRun(contest *models.Contest, manual bool) bool {
	if contest.CanFinalize() {
		return true
	}
	return manual && contest.IsActive && contest.Status == models.ContestStatusPausedNoCodes
}

func (s *Service) pickWinners(ctx context.Context, contest *models.Contest, cycle *models.Cycle, now time.Time) ([]*models.Entry, error) {
	candidates, err := s.repo.ListCandidates(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	blacklist, err := s.repo.ListBlacklist(ctx, contest.ID)
	if err != nil {
		return nil, err
	}

	var priorWinners []int64
	if contest.UniqueWinner {
		priorWinners, err = s.repo.ListWinnerUserIDs(ctx, contest.ID)
		if err != nil {
			return nil, err
		}
	}

	eligible := FilterEligible(candidates, blacklist, priorWinners, contest.UniqueWinner, now)
	return s.selector.Select(eligible, contest.WinnersCount)
}

func (s *Service) pauseNoCodes(ctx context.Context, contest *models.Contest, cycle *models.Cycle, winners int) (*models.FinalizeResult, error) {
	if err := s.repo.PauseNoCodes(ctx, contest.ID, cycle.ID); err != nil {
		return nil, fmt.Errorf("failed to pause contest: %w", err)
	}

	stats, err := s.repo.GetPromoCodeStats(ctx, contest.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("contest_id", contest.ID).Msg("Failed to load promo code stats")
	}

	s.log.Warn().
		Str("contest_id", contest.ID).
		Int("winners", winners).
		Int("unissued", stats.Unissued).
		Msg("Not enough promo codes, contest paused")

	s.publish(ctx, EventContestPausedNoCodes, ContestPausedEvent{
		ContestID: contest.ID,
		CycleID:   cycle.ID,
		Winners:   winners,
		Unissued:  stats.Unissued,
	})

	return &models.FinalizeResult{
		Success:     false,
		Message:     fmt.Sprintf("not enough promo codes: %d winners, %d unissued codes; add codes and finalize again", winners, stats.Unissued),
		ErrorReason: models.ReasonPausedNoCodes,
		CycleID:     cycle.ID,
	}, nil
}

// publishResults публикует пост с итогами. Ошибка публикации не отменяет итоги.
func (s *Service) publishResults(ctx context.Context, contest *models.Contest, cycleID string, winners []*models.Entry, globals map[string]string) string {
	if contest.Templates.ResultPost == "" || len(winners) == 0 {
		return ""
	}

	snapshot := make([]models.WinnerSnapshot, 0, len(winners))
	for _, w := range winners {
		snapshot = append(snapshot, models.WinnerSnapshot{
			EntryID:     w.ID,
			UserVkID:    w.UserVkID,
			UserName:    w.UserName,
			EntryNumber: w.EntryNumber,
		})
	}

	text := RenderTemplate(contest.Templates.ResultPost, map[string]string{
		"winners_list": RenderWinnersList(snapshot),
	}, globals)

	postCtx, cancel := context.WithTimeout(ctx, ResultPostTimeout)
	defer cancel()

	link, err := s.messenger.PublishPost(postCtx, contest.GroupID, text)
	if err != nil {
		s.log.Error().Err(err).Str("contest_id", contest.ID).Str("cycle_id", cycleID).Msg("Failed to publish results post")
		return ""
	}

	if err := s.repo.SetResultPostLink(ctx, cycleID, link); err != nil {
		s.log.Warn().Err(err).Str("cycle_id", cycleID).Msg("Failed to save results post link")
	}
	return link
}

func buildResult(cycleID string, winners []*models.Entry, delivered []*models.DeliveryLog, postLink string) *models.FinalizeResult {
	result := &models.FinalizeResult{
		Success:  true,
		CycleID:  cycleID,
		PostLink: postLink,
	}

	if len(winners) == 0 {
		result.Message = "cycle finished without winners"
		result.ErrorReason = models.ReasonNoEligibleParticipants
		return result
	}

	byEntry := make(map[string]*models.DeliveryLog, len(delivered))
	for _, l := range delivered {
		if l != nil {
			byEntry[l.EntryID] = l
		}
	}

	names := make([]string, 0, len(winners))
	failed := 0
	for _, w := range winners {
		names = append(names, w.UserName)

		summary := models.WinnerSummary{
			UserVkID:       w.UserVkID,
			UserName:       w.UserName,
			EntryNumber:    w.EntryNumber,
			DeliveryStatus: models.DeliveryStatusPending,
		}
		if l, ok := byEntry[w.ID]; ok {
			summary.DeliveryStatus = l.Status
			summary.Channel = l.Channel
		}
		if summary.DeliveryStatus != models.DeliveryStatusSent {
			failed++
		}
		result.Winners = append(result.Winners, summary)
	}

	result.WinnerName = strings.Join(names, ", ")
	if result.PostLink == "" {
		result.PostLink = winners[0].Post.URL()
	}

	result.Message = fmt.Sprintf("%d winner(s) selected", len(winners))
	if failed > 0 {
		result.Message += fmt.Sprintf(", %d delivery(ies) failed, see delivery logs", failed)
	}
	return result
}
