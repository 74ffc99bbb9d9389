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
	"contest-tool-backend/internal/platform/vk"
)

// DeliveryDispatcher доставляет промокоды победителям.
// Сначала личное сообщение, при закрытых сообщениях комментарий под записью победителя.
type DeliveryDispatcher struct {
	logs          repository.DeliveryLogRepository
	entries       repository.EntryRepository
	locker        repository.DeliveryLocker
	messenger     Messenger
	events        EventPublisher
	timeout       time.Duration
	lockTTL       time.Duration
	maxConcurrent int
	log           zerolog.Logger
}

type dispatcherStore interface {
	repository.DeliveryLogRepository
	repository.EntryRepository
}

func NewDeliveryDispatcher(store dispatcherStore, locker repository.DeliveryLocker, messenger Messenger, events EventPublisher, opts Options) *DeliveryDispatcher {
	opts = opts.withDefaults()
	return &DeliveryDispatcher{
		logs:          store,
		entries:       store,
		locker:        locker,
		messenger:     messenger,
		events:        events,
		timeout:       opts.DeliveryTimeout,
		lockTTL:       opts.DeliveryLockTTL,
		maxConcurrent: opts.MaxConcurrentDeliveries,
		log:           logger.Component("delivery_dispatcher"),
	}
}

// Deliver прогоняет одну запись журнала через отправку.
// Отправленная запись возвращается без изменений, ошибочная отправляется заново.
func (d *DeliveryDispatcher) Deliver(ctx context.Context, contest *models.Contest, logID string, globals map[string]string) (*models.DeliveryLog, error) {
	release, err := d.locker.AcquireDeliveryLock(ctx, logID, d.lockTTL)
	if errors.Is(err, repository.ErrAlreadyLocked) {
		return nil, ErrDeliveryInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire delivery lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			d.log.Warn().Err(err).Str("log_id", logID).Msg("Failed to release delivery lock")
		}
	}()

	entry, err := d.logs.GetDeliveryLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if entry.Status == models.DeliveryStatusSent {
		return entry, nil
	}

	ok, err := d.logs.MarkPending(ctx, logID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return d.logs.GetDeliveryLog(ctx, logID)
	}

	outcome := d.attempt(ctx, contest, entry, globals)
	if err := d.logs.SaveOutcome(ctx, logID, outcome); err != nil {
		return nil, fmt.Errorf("failed to save delivery outcome: %w", err)
	}

	entry.Status = outcome.Status
	entry.Channel = outcome.Channel
	entry.ErrorDetails = outcome.ErrorDetails
	entry.Attempts++

	if outcome.Status == models.DeliveryStatusError {
		d.log.Warn().
			Str("log_id", entry.ID).
			Int64("user_vk_id", entry.UserVkID).
			Int("attempts", entry.Attempts).
			Str("error", entry.ErrorDetails).
			Msg("Promo code delivery failed")
		d.publishFailed(ctx, entry)
	} else {
		d.log.Info().
			Str("log_id", entry.ID).
			Int64("user_vk_id", entry.UserVkID).
			Str("channel", string(entry.Channel)).
			Msg("Promo code delivered")
	}

	return entry, nil
}

// DispatchAll доставляет записи параллельно, не больше maxConcurrent одновременно.
// Результаты возвращаются в исходном порядке. Ошибка одной записи не мешает остальным.
func (d *DeliveryDispatcher) DispatchAll(ctx context.Context, contest *models.Contest, logs []*models.DeliveryLog, globals map[string]string) []*models.DeliveryLog {
	results := make([]*models.DeliveryLog, len(logs))
	semaphore := make(chan struct{}, d.maxConcurrent)
	var wg sync.WaitGroup

	for i, l := range logs {
		wg.Add(1)
		go func(i int, l *models.DeliveryLog) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			delivered, err := d.Deliver(ctx, contest, l.ID, globals)
			if err != nil {
				d.log.Error().Err(err).Str("log_id", l.ID).Msg("Failed to deliver promo code")
				results[i] = l
				return
			}
			results[i] = delivered
		}(i, l)
	}

	wg.Wait()
	return results
}

func (d *DeliveryDispatcher) attempt(ctx context.Context, contest *models.Contest, entry *models.DeliveryLog, globals map[string]string) models.DeliveryOutcome {
	text := RenderTemplate(contest.Templates.DirectMessage, directMessageVars(entry), globals)

	err := d.send(ctx, func(ctx context.Context) error {
		_, err := d.messenger.SendMessage(ctx, entry.UserVkID, text)
		return err
	})
	if err == nil {
		return models.DeliveryOutcome{Status: models.DeliveryStatusSent, Channel: models.DeliveryChannelDM}
	}
	if !vk.IsInboxClosed(err) {
		return failedOutcome("dm: " + describeSendError(err, d.timeout))
	}

	post, err := d.fallbackTarget(ctx, entry)
	if err != nil {
		return failedOutcome("dm: inbox closed; comment: " + err.Error())
	}

	comment := RenderTemplate(commentFallbackTemplate(contest.Templates), map[string]string{
		"user_name": entry.UserName,
	}, globals)

	err = d.send(ctx, func(ctx context.Context) error {
		_, err := d.messenger.CreateComment(ctx, post.OwnerID, post.PostID, post.CommentID, comment)
		return err
	})
	if err != nil {
		return failedOutcome("dm: inbox closed; comment: " + describeSendError(err, d.timeout))
	}

	return models.DeliveryOutcome{Status: models.DeliveryStatusSent, Channel: models.DeliveryChannelComment}
}

// send ограничивает внешний вызов таймаутом
func (d *DeliveryDispatcher) send(ctx context.Context, fn func(context.Context) error) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	return fn(sendCtx)
}

func (d *DeliveryDispatcher) fallbackTarget(ctx context.Context, l *models.DeliveryLog) (models.PostRef, error) {
	entry, err := d.entries.GetEntry(ctx, l.EntryID)
	if err != nil {
		return models.PostRef{}, fmt.Errorf("failed to load winner entry: %w", err)
	}
	if entry.Post.PostID == 0 {
		return models.PostRef{}, ErrNoPostForFallback
	}
	return entry.Post, nil
}

func (d *DeliveryDispatcher) publishFailed(ctx context.Context, l *models.DeliveryLog) {
	if d.events == nil {
		return
	}
	err := d.events.Publish(context.WithoutCancel(ctx), EventDeliveryFailed, DeliveryFailedEvent{
		LogID:        l.ID,
		ContestID:    l.ContestID,
		CycleID:      l.CycleID,
		UserVkID:     l.UserVkID,
		ErrorDetails: l.ErrorDetails,
		Attempts:     l.Attempts,
	})
	if err != nil {
		d.log.Warn().Err(err).Str("log_id", l.ID).Msg("Failed to publish delivery event")
	}
}

func failedOutcome(details string) models.DeliveryOutcome {
	return models.DeliveryOutcome{Status: models.DeliveryStatusError, ErrorDetails: details}
}

func describeSendError(err error, timeout time.Duration) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("timeout after %s", timeout)
	case vk.IsRateLimit(err):
		return "rate limited: " + err.Error()
	default:
		return err.Error()
	}
}
