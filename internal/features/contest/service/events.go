package service

import "time"

// ContestFinalizedEvent итоги цикла подведены
type ContestFinalizedEvent struct {
	ContestID      string    `json:"contest_id"`
	CycleID        string    `json:"cycle_id"`
	WinnersCount   int       `json:"winners_count"`
	Participants   int       `json:"participants"`
	ResultPostLink string    `json:"result_post_link,omitempty"`
	FinishedAt     time.Time `json:"finished_at"`
}

// ContestSkippedEvent подведение итогов отложено
type ContestSkippedEvent struct {
	ContestID    string     `json:"contest_id"`
	CycleID      string     `json:"cycle_id"`
	Reason       string     `json:"reason"`
	Participants int        `json:"participants"`
	NextDeadline *time.Time `json:"next_deadline,omitempty"`
}

// ContestPausedEvent конкурс остановлен до пополнения пула кодов
type ContestPausedEvent struct {
	ContestID string `json:"contest_id"`
	CycleID   string `json:"cycle_id"`
	Winners   int    `json:"winners"`
	Unissued  int    `json:"unissued"`
}

// DeliveryFailedEvent промокод не доставлен победителю
type DeliveryFailedEvent struct {
	LogID        string `json:"log_id"`
	ContestID    string `json:"contest_id"`
	CycleID      string `json:"cycle_id"`
	UserVkID     int64  `json:"user_vk_id"`
	ErrorDetails string `json:"error_details"`
	Attempts     int    `json:"attempts"`
}
