package models

import "time"

// BlacklistEntry исключение пользователя из числа победителей.
// UntilDate == nil означает бессрочную блокировку.
type BlacklistEntry struct {
	ID        string     `json:"id"`
	ContestID string     `json:"contest_id"`
	UserVkID  int64      `json:"user_vk_id"`
	UntilDate *time.Time `json:"until_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (b *BlacklistEntry) IsActive(now time.Time) bool {
	return b.UntilDate == nil || now.Before(*b.UntilDate)
}
