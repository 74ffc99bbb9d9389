package models

import (
	"errors"
	"time"
)

var (
	ErrInvalidWinnersCount = errors.New("winners count must be at least 1")
	ErrInvalidKind         = errors.New("unknown contest kind")
	ErrInvalidStart        = errors.New("existing_post start requires a post link")
)

// ContestKind тип механики
type ContestKind string

const (
	ContestKindReviews ContestKind = "reviews"
	ContestKindGeneral ContestKind = "general"
)

// ContestStatus статус конкурса на уровне всей механики
type ContestStatus string

const (
	ContestStatusActive ContestStatus = "active"
	ContestStatusPaused ContestStatus = "paused"
	// Подведение итогов остановлено: промокодов меньше, чем победителей
	ContestStatusPausedNoCodes ContestStatus = "paused_no_codes"
)

// StartType откуда берутся участники
type StartType string

const (
	StartTypeNewPost      StartType = "new_post"
	StartTypeExistingPost StartType = "existing_post"
)

type StartSpec struct {
	Type     StartType `json:"type"`
	PostLink string    `json:"post_link,omitempty"`
}

// Templates шаблоны сообщений конкурса.
// Плейсхолдеры имеют вид {name}, см. service.RenderTemplate.
type Templates struct {
	ResultPost      string `json:"result_post"`
	DirectMessage   string `json:"direct_message"`
	CommentFallback string `json:"comment_fallback"`
	Registration    string `json:"registration,omitempty"`
}

// Contest настроенная механика конкурса
type Contest struct {
	ID                string           `json:"id"`
	ProjectID         string           `json:"project_id"`
	GroupID           int64            `json:"group_id"` // VK сообщество, от имени которого идут публикации
	Title             string           `json:"title"`
	Kind              ContestKind      `json:"kind"`
	IsActive          bool             `json:"is_active"`
	Status            ContestStatus    `json:"status"`
	Start             StartSpec        `json:"start"`
	Conditions        []ConditionGroup `json:"conditions"`
	Finish            FinishPolicy     `json:"finish"`
	WinnersCount      int              `json:"winners_count"`
	UniqueWinner      bool             `json:"unique_winner"`
	IsCyclic          bool             `json:"is_cyclic"`
	RestartDelayHours int              `json:"restart_delay_hours"`
	Templates         Templates        `json:"templates"`
	ActiveCycleID     *string          `json:"active_cycle_id,omitempty"`
	EntrySeq          int64            `json:"entry_seq"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// CanFinalize конкурс включен и не остановлен из-за нехватки кодов
func (c *Contest) CanFinalize() bool {
	return c.IsActive && c.Status == ContestStatusActive
}

// RestartDelay задержка перед запуском следующего цикла
func (c *Contest) RestartDelay() time.Duration {
	if c.RestartDelayHours <= 0 {
		return 0
	}
	return time.Duration(c.RestartDelayHours) * time.Hour
}
