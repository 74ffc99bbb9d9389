package service

import "time"

const (
	// Общие константы движка подведения итогов
	MaxConcurrentDeliveries = 5                // Одновременные отправки промокодов в рамках одного цикла
	DeliveryTimeout         = 15 * time.Second // Таймаут одной отправки во внешний сервис
	DeliveryLockTTL         = 2 * time.Minute  // Время жизни маркера "отправка в процессе"
	ResultPostTimeout       = 30 * time.Second // Таймаут публикации поста с итогами
	CheckInterval           = 30 * time.Second // Интервал проверки условий завершения
	CleanupInterval         = 5 * time.Minute  // Интервал сброса зависших оценок
	StaleEvaluationAfter    = 10 * time.Minute // Цикл в evaluating дольше этого считается зависшим
	StalePendingAfter       = 5 * time.Minute  // pending дольше этого можно отправлять повторно
	MaxConcurrentFinalize   = 4                // Конкурсы, обрабатываемые планировщиком одновременно
	NoEligibleRetryAfter    = 15 * time.Minute // Пауза планировщика для цикла без допустимых участников
)

// Типы событий, публикуемых в шину
const (
	EventContestFinalized     = "contest.finalized"
	EventContestSkipped       = "contest.skipped"
	EventContestPausedNoCodes = "contest.paused_no_codes"
	EventDeliveryFailed       = "delivery.failed"
)

// Шаблоны по умолчанию, если в конкурсе они не заданы
const (
	DefaultCommentFallbackTemplate = "{user_name}, поздравляем с победой! Напишите нам в личные сообщения, чтобы получить приз."
	DefaultRegistrationTemplate    = "Ваш номер участника: {number}"
)
