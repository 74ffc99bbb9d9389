package models

import "time"

// PromoCode код из пула конкурса.
// После выдачи пара (Code, IssuedToUserID) больше не меняется.
type PromoCode struct {
	ID             string     `json:"id"`
	ContestID      string     `json:"contest_id"`
	Code           string     `json:"code"`
	Description    string     `json:"description"`
	IsIssued       bool       `json:"is_issued"`
	IssuedToUserID *int64     `json:"issued_to_user_id,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	CycleID        *string    `json:"cycle_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type PromoCodeInput struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
}

// PromoCodeStats сводка по пулу кодов
type PromoCodeStats struct {
	Total    int `json:"total"`
	Issued   int `json:"issued"`
	Unissued int `json:"unissued"`
}
