package models

import "time"

// DeliveryStatus статус доставки промокода победителю
type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusError   DeliveryStatus = "error"
)

// DeliveryChannel канал, через который сообщение дошло до победителя
type DeliveryChannel string

const (
	DeliveryChannelDM      DeliveryChannel = "dm"
	DeliveryChannelComment DeliveryChannel = "comment"
)

// DeliveryLog одна запись на пару (цикл, победитель).
// Повторная отправка обновляет запись, а не создает новую.
type DeliveryLog struct {
	ID              string          `json:"id"`
	ContestID       string          `json:"contest_id"`
	CycleID         string          `json:"cycle_id"`
	EntryID         string          `json:"entry_id"`
	UserVkID        int64           `json:"user_vk_id"`
	UserName        string          `json:"user_name"`
	PromoCode       string          `json:"promo_code"`
	Description     string          `json:"description,omitempty"`
	Status          DeliveryStatus  `json:"status"`
	Channel         DeliveryChannel `json:"channel,omitempty"`
	ErrorDetails    string          `json:"error_details,omitempty"`
	Attempts        int             `json:"attempts"`
	WinnerPostLink  string          `json:"winner_post_link,omitempty"`
	ResultsPostLink string          `json:"results_post_link,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsRetryable повторная отправка возможна только для ошибочных записей
func (l *DeliveryLog) IsRetryable() bool {
	return l.Status == DeliveryStatusError
}

// IsStalePending запись осталась в pending дольше staleAfter, отправка прервана
func (l *DeliveryLog) IsStalePending(now time.Time, staleAfter time.Duration) bool {
	return l.Status == DeliveryStatusPending && now.Sub(l.UpdatedAt) >= staleAfter
}

// DeliveryOutcome результат одной попытки доставки
type DeliveryOutcome struct {
	Status       DeliveryStatus
	Channel      DeliveryChannel
	ErrorDetails string
}
