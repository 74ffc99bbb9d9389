package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"contest-tool-backend/internal/common/logger"
)

// Publisher публикует события конкурсов в NATS.
// Тема события: <prefix>.<type>, например contests.contest.finalized.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	log    zerolog.Logger
}

// Connect подключается к NATS с переподключением
func Connect(url, prefix string) (*Publisher, error) {
	log := logger.Component("nats")

	nc, err := nats.Connect(url,
		nats.Name("contest-tool-backend"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Error().Err(err).Msg("NATS disconnected with error")
				return
			}
			log.Warn().Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info().Str("url", url).Msg("Connected to NATS")

	return &Publisher{nc: nc, prefix: prefix, log: log}, nil
}

// Publish сериализует событие в JSON и отправляет его
func (p *Publisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", eventType, err)
	}

	subject := Subject(p.prefix, eventType)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.log.Debug().Str("subject", subject).Msg("Event published")
	return nil
}

// Close дожидается отправки буфера и закрывает соединение
func (p *Publisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.log.Warn().Err(err).Msg("Failed to drain NATS connection")
		p.nc.Close()
	}
}

func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// NoopPublisher используется, когда NATS не настроен
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (NoopPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}
