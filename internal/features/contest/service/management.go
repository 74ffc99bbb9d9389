package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"contest-tool-backend/internal/common/validation"
	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/models/dto"
	"contest-tool-backend/internal/features/contest/repository"
)

// RegisterEntry регистрирует заявку в открытом цикле и возвращает текст комментария с номером
func (s *Service) RegisterEntry(ctx context.Context, contestID string, req *dto.RegisterEntryRequest) (*dto.RegisterEntryResponse, error) {
	contest, err := s.repo.GetContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateVkID(req.UserVkID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	cycle, err := s.repo.GetOpenCycle(ctx, contestID)
	if errors.Is(err, repository.ErrNoOpenCycle) {
		return nil, ErrNoActiveCycle
	}
	if err != nil {
		return nil, err
	}

	status := models.EntryStatusNew
	if req.Status != "" {
		status = models.EntryStatus(req.Status)
	}

	entry := &models.Entry{
		ID:        uuid.New().String(),
		ContestID: contestID,
		CycleID:   cycle.ID,
		UserVkID:  req.UserVkID,
		UserName:  strings.TrimSpace(req.UserName),
		Post:      req.Post,
		Status:    status,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	comment := RenderTemplate(registrationTemplate(contest.Templates), map[string]string{
		"number":    strconv.FormatInt(entry.EntryNumber, 10),
		"user_name": entry.UserName,
	}, s.globals(ctx, contest.ProjectID))

	return &dto.RegisterEntryResponse{Entry: entry, Comment: comment}, nil
}

func (s *Service) ListParticipants(ctx context.Context, contestID string) ([]*models.Entry, error) {
	if _, err := s.repo.GetContest(ctx, contestID); err != nil {
		return nil, err
	}
	return s.repo.ListEntries(ctx, contestID)
}

// ClearParticipants удаляет заявки, кроме победных. Нумерация продолжается с прежнего значения.
func (s *Service) ClearParticipants(ctx context.Context, contestID string) (int64, error) {
	if _, err := s.repo.GetContest(ctx, contestID); err != nil {
		return 0, err
	}
	return s.repo.ClearEntries(ctx, contestID)
}

// AddPromoCodes добавляет коды в пул. Повторы внутри запроса и уже существующие коды пропускаются.
func (s *Service) AddPromoCodes(ctx context.Context, contestID string, codes []models.PromoCodeInput) (*dto.AddPromoCodesResponse, error) {
	if _, err := s.repo.GetContest(ctx, contestID); err != nil {
		return nil, err
	}

	unique := make([]models.PromoCodeInput, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	var skipped []string

	for _, c := range codes {
		c.Code = strings.TrimSpace(c.Code)
		c.Description = strings.TrimSpace(c.Description)

		if err := validation.ValidatePromoCode(c.Code); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPromoCode, err)
		}
		if err := validation.ValidateDescription(c.Description); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPromoCode, err)
		}

		if _, ok := seen[c.Code]; ok {
			skipped = append(skipped, c.Code)
			continue
		}
		seen[c.Code] = struct{}{}
		unique = append(unique, c)
	}

	added, existing, err := s.repo.AddPromoCodes(ctx, contestID, unique)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("contest_id", contestID).Int("added", added).Msg("Promo codes added")

	return &dto.AddPromoCodesResponse{Added: added, Skipped: append(skipped, existing...)}, nil
}

func (s *Service) ListPromoCodes(ctx context.Context, contestID string) (*dto.PromoCodesResponse, error) {
	if _, err := s.repo.GetContest(ctx, contestID); err != nil {
		return nil, err
	}

	codes, err := s.repo.ListPromoCodes(ctx, contestID)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.GetPromoCodeStats(ctx, contestID)
	if err != nil {
		return nil, err
	}

	return &dto.PromoCodesResponse{Codes: codes, Stats: stats}, nil
}

// DeletePromoCodes удаляет невыданные коды, выданные остаются навсегда
func (s *Service) DeletePromoCodes(ctx context.Context, ids []string) (*dto.DeleteBulkResponse, error) {
	deleted, kept, err := s.repo.DeletePromoCodes(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &dto.DeleteBulkResponse{Deleted: deleted, KeptIssued: kept}, nil
}

func (s *Service) ClearPromoCodes(ctx context.Context, contestID string) (int64, error) {
	if _, err := s.repo.GetContest(ctx, contestID); err != nil {
		return 0, err
	}
	return s.repo.ClearPromoCodes(ctx, contestID)
}

func (s *Service) ListBlacklist(ctx context.Context, contestID string) ([]*models.BlacklistEntry, error) {
	if _, err := s.repo.GetContest(ctx, contestID); err != nil {
		return nil, err
	}
	return s.repo.ListBlacklist(ctx, contestID)
}

func (s *Service) AddToBlacklist(ctx context.Context, contestID string, req *dto.AddBlacklistRequest) (*models.BlacklistEntry, error) {
	if _, err := s.repo.GetContest(ctx, contestID); err != nil {
		return nil, err
	}

	if err := validation.ValidateVkID(req.UserVkID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlacklist, err)
	}

	now := s.now()
	if req.UntilDate != nil && !req.UntilDate.After(now) {
		return nil, fmt.Errorf("%w: until_date must be in the future", ErrInvalidBlacklist)
	}

	entry := &models.BlacklistEntry{
		ID:        uuid.New().String(),
		ContestID: contestID,
		UserVkID:  req.UserVkID,
		UntilDate: req.UntilDate,
		CreatedAt: now,
	}
	if err := s.repo.AddToBlacklist(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) RemoveFromBlacklist(ctx context.Context, id string) error {
	return s.repo.RemoveFromBlacklist(ctx, id)
}

func (s *Service) ListDeliveryLogs(ctx context.Context, contestID string) ([]*models.DeliveryLog, error) {
	if _, err := s.repo.GetContest(ctx, contestID); err != nil {
		return nil, err
	}
	return s.repo.ListDeliveryLogs(ctx, contestID)
}

// RetryDelivery повторяет отправку одной записи. Для отправленной записи ничего не делает.
func (s *Service) RetryDelivery(ctx context.Context, logID string) (*models.DeliveryLog, error) {
	entry, err := s.repo.GetDeliveryLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if entry.Status == models.DeliveryStatusSent {
		return entry, nil
	}

	contest, err := s.repo.GetContest(ctx, entry.ContestID)
	if err != nil {
		return nil, err
	}

	return s.dispatcher.Deliver(ctx, contest, logID, s.globals(ctx, contest.ProjectID))
}

// RetryDeliveryAll повторяет отправку всех записей конкурса в статусе error
func (s *Service) RetryDeliveryAll(ctx context.Context, contestID string) (*dto.RetryAllResponse, error) {
	contest, err := s.repo.GetContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	failed, err := s.repo.ListFailedDeliveries(ctx, contestID)
	if err != nil {
		return nil, err
	}

	resp := &dto.RetryAllResponse{Retried: len(failed)}
	if len(failed) == 0 {
		return resp, nil
	}

	results := s.dispatcher.DispatchAll(ctx, contest, failed, s.globals(ctx, contest.ProjectID))
	for _, l := range results {
		if l.Status == models.DeliveryStatusSent {
			resp.Sent++
		} else {
			resp.Failed++
		}
	}

	s.log.Info().
		Str("contest_id", contestID).
		Int("retried", resp.Retried).
		Int("sent", resp.Sent).
		Msg("Failed deliveries retried")

	return resp, nil
}

// ClearDeliveryLogs удаляет завершенные записи журнала
func (s *Service) ClearDeliveryLogs(ctx context.Context, contestID string) (int64, error) {
	if _, err := s.repo.GetContest(ctx, contestID); err != nil {
		return 0, err
	}
	return s.repo.ClearDeliveryLogs(ctx, contestID)
}

func (s *Service) GetGlobals(ctx context.Context, projectID string) (map[string]string, error) {
	if s.cache != nil {
		return s.cache.GetGlobals(ctx, projectID, func() (map[string]string, error) {
			return s.repo.GetGlobals(ctx, projectID)
		})
	}
	return s.repo.GetGlobals(ctx, projectID)
}

// SetGlobals заменяет переменные проекта и сбрасывает их кэш
func (s *Service) SetGlobals(ctx context.Context, projectID string, values map[string]string) error {
	for key, value := range values {
		if err := validation.ValidateGlobalKey(key); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidGlobals, err)
		}
		if err := validation.ValidateGlobalValue(value); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidGlobals, err)
		}
	}

	if err := s.repo.ReplaceGlobals(ctx, projectID, values); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateGlobals(ctx, projectID); err != nil {
			s.log.Warn().Err(err).Str("project_id", projectID).Msg("Failed to invalidate globals cache")
		}
	}
	return nil
}
