package workers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"contest-tool-backend/internal/common/logger"
	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/models/dto"
)

const (
	consumerGroup = "contest_backend_consumers"

	eventFinalize        = "finalize"
	eventRetryDeliveries = "retry_deliveries"
)

// ContestEngine операции, которые можно заказать через поток
type ContestEngine interface {
	Finalize(ctx context.Context, contestID string, force bool) (*models.FinalizeResult, error)
	RetryDeliveryAll(ctx context.Context, contestID string) (*dto.RetryAllResponse, error)
}

// RedisStreamWorker читает заявки на подведение итогов из Redis Stream.
// Сообщение: type=finalize, contest_id, force=true|false либо type=retry_deliveries, contest_id.
type RedisStreamWorker struct {
	rdb      redis.Cmdable
	engine   ContestEngine
	stream   string
	consumer string
	log      zerolog.Logger
}

func NewRedisStreamWorker(rdb redis.Cmdable, engine ContestEngine, stream, consumer string) *RedisStreamWorker {
	return &RedisStreamWorker{
		rdb:      rdb,
		engine:   engine,
		stream:   stream,
		consumer: consumer,
		log:      logger.Component("redis_stream_worker"),
	}
}

// Start слушает поток до отмены ctx
func (w *RedisStreamWorker) Start(ctx context.Context) {
	err := w.rdb.XGroupCreateMkStream(ctx, w.stream, consumerGroup, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		w.log.Error().Err(err).Msg("Error creating consumer group")
	}

	w.log.Info().Str("stream", w.stream).Msg("Starting Redis stream worker")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping Redis stream worker")
			return
		default:
			entries, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    consumerGroup,
				Consumer: w.consumer,
				Streams:  []string{w.stream, ">"},
				Count:    1,
				Block:    5 * time.Second,
			}).Result()

			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Error reading from stream")
					time.Sleep(time.Second)
				}
				continue
			}

			for _, stream := range entries {
				for _, msg := range stream.Messages {
					w.processMessage(ctx, msg.Values)
					if err := w.rdb.XAck(ctx, w.stream, consumerGroup, msg.ID).Err(); err != nil {
						w.log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to ack message")
					}
				}
			}
		}
	}
}

func (w *RedisStreamWorker) processMessage(ctx context.Context, values map[string]interface{}) {
	eventType, _ := values["type"].(string)
	contestID, _ := values["contest_id"].(string)
	if contestID == "" {
		w.log.Warn().Interface("values", values).Msg("Stream message without contest_id")
		return
	}

	switch eventType {
	case eventFinalize:
		force := false
		if raw, ok := values["force"].(string); ok {
			force, _ = strconv.ParseBool(raw)
		}

		result, err := w.engine.Finalize(ctx, contestID, force)
		if err != nil {
			w.log.Error().Err(err).Str("contest_id", contestID).Msg("Requested finalize failed")
			return
		}
		w.log.Info().
			Str("contest_id", contestID).
			Bool("success", result.Success).
			Str("reason", result.ErrorReason).
			Msg("Requested finalize processed")

	case eventRetryDeliveries:
		resp, err := w.engine.RetryDeliveryAll(ctx, contestID)
		if err != nil {
			w.log.Error().Err(err).Str("contest_id", contestID).Msg("Requested delivery retry failed")
			return
		}
		w.log.Info().
			Str("contest_id", contestID).
			Int("retried", resp.Retried).
			Int("sent", resp.Sent).
			Msg("Requested delivery retry processed")

	default:
		w.log.Warn().Str("type", eventType).Msg("Unknown stream message type")
	}
}
