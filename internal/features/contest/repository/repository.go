package repository

import (
	"context"
	"errors"
	"time"

	"contest-tool-backend/internal/features/contest/models"
)

var (
	ErrContestNotFound        = errors.New("contest not found")
	ErrCycleNotFound          = errors.New("cycle not found")
	ErrEntryNotFound          = errors.New("entry not found")
	ErrNoOpenCycle            = errors.New("contest has no open cycle")
	ErrOpenCycleExists        = errors.New("contest already has an open cycle")
	ErrCycleNotEvaluating     = errors.New("cycle is not in evaluating state")
	ErrInsufficientCodes      = errors.New("not enough unissued promo codes")
	ErrDeliveryLogNotFound    = errors.New("delivery log not found")
	ErrBlacklistEntryNotFound = errors.New("blacklist entry not found")
	ErrAlreadyLocked          = errors.New("resource is already locked")
)

type ContestRepository interface {
	// CreateContest сохраняет конкурс вместе с первым циклом
	CreateContest(ctx context.Context, contest *models.Contest, cycle *models.Cycle) error
	GetContest(ctx context.Context, id string) (*models.Contest, error)
	ListContests(ctx context.Context, projectID string) ([]*models.Contest, error)
	// ListFinalizable конкурсы, включенные и не остановленные
	ListFinalizable(ctx context.Context) ([]*models.Contest, error)
	SetContestActive(ctx context.Context, id string, active bool) error
	SetContestStatus(ctx context.Context, id string, status models.ContestStatus) error
}

type CycleRepository interface {
	GetCycle(ctx context.Context, id string) (*models.Cycle, error)
	GetOpenCycle(ctx context.Context, contestID string) (*models.Cycle, error)
	ListCycles(ctx context.Context, contestID string) ([]*models.Cycle, error)
	// CreateCycle создает цикл и делает его текущим для конкурса
	CreateCycle(ctx context.Context, cycle *models.Cycle) error

	// TryStartEvaluation переводит цикл active -> evaluating.
	// false означает, что цикл уже оценивается или закрыт.
	TryStartEvaluation(ctx context.Context, cycleID string, now time.Time) (bool, error)
	// ReleaseEvaluation возвращает цикл evaluating -> active
	ReleaseEvaluation(ctx context.Context, cycleID string) error
	UpdateDeadline(ctx context.Context, cycleID string, deadline time.Time) error
	// ActivateCycle переводит created -> active
	ActivateCycle(ctx context.Context, cycleID string, startedAt time.Time, deadline *time.Time) (bool, error)
	ListDueCreatedCycles(ctx context.Context, now time.Time) ([]*models.Cycle, error)
	// ResetStaleEvaluations возвращает в active циклы, зависшие в evaluating
	ResetStaleEvaluations(ctx context.Context, startedBefore time.Time) (int64, error)
	// ArchiveCreatedCycles архивирует еще не запущенные циклы конкурса
	ArchiveCreatedCycles(ctx context.Context, contestID string) (int64, error)
	// SetResultPostLink сохраняет ссылку на пост с итогами в цикле и журнале доставки
	SetResultPostLink(ctx context.Context, cycleID, link string) error
}

type EntryRepository interface {
	// CreateEntry присваивает заявке следующий номер конкурса
	CreateEntry(ctx context.Context, entry *models.Entry) error
	GetEntry(ctx context.Context, id string) (*models.Entry, error)
	ListEntries(ctx context.Context, contestID string) ([]*models.Entry, error)
	ListCandidates(ctx context.Context, cycleID string) ([]*models.Entry, error)
	CountParticipants(ctx context.Context, cycleID string) (int, error)
	// ClearEntries удаляет заявки, не ставшие победными
	ClearEntries(ctx context.Context, contestID string) (int64, error)
	// ListWinnerUserIDs пользователи, уже побеждавшие в конкурсе
	ListWinnerUserIDs(ctx context.Context, contestID string) ([]int64, error)
}

type PromoCodeRepository interface {
	// AddPromoCodes возвращает коды, которые уже были в пуле
	AddPromoCodes(ctx context.Context, contestID string, codes []models.PromoCodeInput) (int, []string, error)
	ListPromoCodes(ctx context.Context, contestID string) ([]*models.PromoCode, error)
	GetPromoCodeStats(ctx context.Context, contestID string) (models.PromoCodeStats, error)
	// DeletePromoCodes удаляет только невыданные коды, возвращает число удаленных и пропущенных выданных
	DeletePromoCodes(ctx context.Context, ids []string) (int, int, error)
	ClearPromoCodes(ctx context.Context, contestID string) (int64, error)
}

type BlacklistRepository interface {
	ListBlacklist(ctx context.Context, contestID string) ([]*models.BlacklistEntry, error)
	AddToBlacklist(ctx context.Context, entry *models.BlacklistEntry) error
	RemoveFromBlacklist(ctx context.Context, id string) error
}

type DeliveryLogRepository interface {
	GetDeliveryLog(ctx context.Context, id string) (*models.DeliveryLog, error)
	ListDeliveryLogs(ctx context.Context, contestID string) ([]*models.DeliveryLog, error)
	ListCycleDeliveryLogs(ctx context.Context, cycleID string) ([]*models.DeliveryLog, error)
	ListFailedDeliveries(ctx context.Context, contestID string) ([]*models.DeliveryLog, error)
	// FailStalePending переводит в error записи, не обновлявшиеся в pending с staleBefore
	FailStalePending(ctx context.Context, staleBefore time.Time, details string) (int64, error)
	// MarkPending переводит запись в pending перед новой попыткой, sent не трогает
	MarkPending(ctx context.Context, id string) (bool, error)
	// SaveOutcome меняет только статус, канал и детали ошибки, код и получатель неизменны
	SaveOutcome(ctx context.Context, id string, outcome models.DeliveryOutcome) error
	ClearDeliveryLogs(ctx context.Context, contestID string) (int64, error)
}

// FinalizeCommit данные для фиксации итогов цикла одной транзакцией
type FinalizeCommit struct {
	ContestID         string
	CycleID           string
	Winners           []*models.Entry // в порядке выбора
	ParticipantsCount int
	FinishedAt        time.Time
	WinnerPostLinks   map[string]string // entry id -> ссылка на пост победителя
	// NextCycle следующий цикл для циклических конкурсов
	NextCycle *models.Cycle
}

type FinalizeRepository interface {
	// CommitFinalize выдает коды победителям, фиксирует снимок победителей,
	// создает записи журнала доставки и закрывает цикл. Все или ничего:
	// при нехватке кодов возвращает ErrInsufficientCodes и ничего не меняет.
	CommitFinalize(ctx context.Context, commit *FinalizeCommit) ([]*models.DeliveryLog, error)
	// PauseNoCodes переводит конкурс в paused_no_codes и возвращает цикл в active
	PauseNoCodes(ctx context.Context, contestID, cycleID string) error
}

type GlobalsRepository interface {
	GetGlobals(ctx context.Context, projectID string) (map[string]string, error)
	// ReplaceGlobals заменяет все переменные проекта
	ReplaceGlobals(ctx context.Context, projectID string, values map[string]string) error
}

// Repository полный набор операций хранилища конкурсов
type Repository interface {
	ContestRepository
	CycleRepository
	EntryRepository
	PromoCodeRepository
	BlacklistRepository
	DeliveryLogRepository
	FinalizeRepository
	GlobalsRepository
}

// DeliveryLocker маркер "отправка в процессе" для одной записи журнала
type DeliveryLocker interface {
	// AcquireDeliveryLock возвращает ErrAlreadyLocked, если запись уже обрабатывается
	AcquireDeliveryLock(ctx context.Context, logID string, ttl time.Duration) (release func(context.Context) error, err error)
}

// GlobalsCache кэш глобальных переменных проекта
type GlobalsCache interface {
	GetGlobals(ctx context.Context, projectID string, load func() (map[string]string, error)) (map[string]string, error)
	InvalidateGlobals(ctx context.Context, projectID string) error
}
