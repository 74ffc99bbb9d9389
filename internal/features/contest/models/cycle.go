package models

import "time"

// CycleStatus статус цикла.
// created -> active -> evaluating -> finished | archived
type CycleStatus string

const (
	CycleStatusCreated    CycleStatus = "created"
	CycleStatusActive     CycleStatus = "active"
	CycleStatusEvaluating CycleStatus = "evaluating"
	CycleStatusFinished   CycleStatus = "finished"
	CycleStatusArchived   CycleStatus = "archived"
)

// Cycle один прогон механики конкурса
type Cycle struct {
	ID                  string           `json:"id"`
	ContestID           string           `json:"contest_id"`
	Status              CycleStatus      `json:"status"`
	StartedAt           time.Time        `json:"started_at"`
	DeadlineAt          *time.Time       `json:"deadline_at,omitempty"`
	EvaluationStartedAt *time.Time       `json:"evaluation_started_at,omitempty"`
	FinishedAt          *time.Time       `json:"finished_at,omitempty"`
	ParticipantsCount   int              `json:"participants_count"`
	WinnersSnapshot     []WinnerSnapshot `json:"winners_snapshot,omitempty"`
	ResultPostLink      string           `json:"result_post_link,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// WinnerSnapshot зафиксированный победитель цикла вместе с выданным кодом
type WinnerSnapshot struct {
	EntryID     string `json:"entry_id"`
	UserVkID    int64  `json:"user_vk_id"`
	UserName    string `json:"user_name"`
	EntryNumber int64  `json:"entry_number"`
	PromoCode   string `json:"promo_code"`
	Description string `json:"description,omitempty"`
}

// IsOpen цикл занимает слот единственного активного цикла конкурса
func (c *Cycle) IsOpen() bool {
	return c.Status == CycleStatusActive || c.Status == CycleStatusEvaluating
}
