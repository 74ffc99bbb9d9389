package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/features/contest/repository"
)

// memStore хранилище в памяти с теми же гарантиями, что и Postgres:
// CAS на статусе цикла и атомарная фиксация итогов под одной блокировкой
type memStore struct {
	mu        sync.Mutex
	contests  map[string]*models.Contest
	cycles    map[string]*models.Cycle
	entries   map[string]*models.Entry
	codes     []*models.PromoCode
	blacklist map[string]*models.BlacklistEntry
	winners   []models.WinnerRecord
	logs      map[string]*models.DeliveryLog
	logOrder  []string
	globals   map[string]map[string]string

	commits int
}

var _ repository.Repository = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		contests:  make(map[string]*models.Contest),
		cycles:    make(map[string]*models.Cycle),
		entries:   make(map[string]*models.Entry),
		blacklist: make(map[string]*models.BlacklistEntry),
		logs:      make(map[string]*models.DeliveryLog),
		globals:   make(map[string]map[string]string),
	}
}

func copyContest(c *models.Contest) *models.Contest {
	cp := *c
	if c.ActiveCycleID != nil {
		id := *c.ActiveCycleID
		cp.ActiveCycleID = &id
	}
	return &cp
}

func copyCycle(c *models.Cycle) *models.Cycle {
	cp := *c
	cp.WinnersSnapshot = append([]models.WinnerSnapshot(nil), c.WinnersSnapshot...)
	return &cp
}

func copyEntry(e *models.Entry) *models.Entry {
	cp := *e
	return &cp
}

func copyLog(l *models.DeliveryLog) *models.DeliveryLog {
	cp := *l
	return &cp
}

func (s *memStore) insertCycleLocked(cycle *models.Cycle) error {
	if cycle.IsOpen() {
		for _, c := range s.cycles {
			if c.ContestID == cycle.ContestID && c.IsOpen() {
				return repository.ErrOpenCycleExists
			}
		}
	}
	s.cycles[cycle.ID] = copyCycle(cycle)
	if contest, ok := s.contests[cycle.ContestID]; ok {
		id := cycle.ID
		contest.ActiveCycleID = &id
	}
	return nil
}

func (s *memStore) CreateContest(_ context.Context, contest *models.Contest, cycle *models.Cycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contests[contest.ID] = copyContest(contest)
	if cycle != nil {
		if err := s.insertCycleLocked(cycle); err != nil {
			return err
		}
		contest.ActiveCycleID = &cycle.ID
	}
	return nil
}

func (s *memStore) GetContest(_ context.Context, id string) (*models.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contests[id]
	if !ok {
		return nil, repository.ErrContestNotFound
	}
	return copyContest(c), nil
}

func (s *memStore) ListContests(_ context.Context, projectID string) ([]*models.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Contest
	for _, c := range s.contests {
		if c.ProjectID == projectID {
			out = append(out, copyContest(c))
		}
	}
	return out, nil
}

func (s *memStore) ListFinalizable(context.Context) ([]*models.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Contest
	for _, c := range s.contests {
		if c.CanFinalize() {
			out = append(out, copyContest(c))
		}
	}
	return out, nil
}

func (s *memStore) SetContestActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contests[id]
	if !ok {
		return repository.ErrContestNotFound
	}
	c.IsActive = active
	return nil
}

func (s *memStore) SetContestStatus(_ context.Context, id string, status models.ContestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contests[id]
	if !ok {
		return repository.ErrContestNotFound
	}
	c.Status = status
	return nil
}

func (s *memStore) GetCycle(_ context.Context, id string) (*models.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cycles[id]
	if !ok {
		return nil, repository.ErrCycleNotFound
	}
	return copyCycle(c), nil
}

func (s *memStore) GetOpenCycle(_ context.Context, contestID string) (*models.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.cycles {
		if c.ContestID == contestID && c.IsOpen() {
			return copyCycle(c), nil
		}
	}
	return nil, repository.ErrNoOpenCycle
}

func (s *memStore) ListCycles(_ context.Context, contestID string) ([]*models.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Cycle
	for _, c := range s.cycles {
		if c.ContestID == contestID {
			out = append(out, copyCycle(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) CreateCycle(_ context.Context, cycle *models.Cycle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertCycleLocked(cycle)
}

func (s *memStore) TryStartEvaluation(_ context.Context, cycleID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cycles[cycleID]
	if !ok || c.Status != models.CycleStatusActive {
		return false, nil
	}
	c.Status = models.CycleStatusEvaluating
	c.EvaluationStartedAt = &now
	return true, nil
}

func (s *memStore) ReleaseEvaluation(_ context.Context, cycleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cycles[cycleID]; ok && c.Status == models.CycleStatusEvaluating {
		c.Status = models.CycleStatusActive
		c.EvaluationStartedAt = nil
	}
	return nil
}

func (s *memStore) UpdateDeadline(_ context.Context, cycleID string, deadline time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cycles[cycleID]; ok {
		c.DeadlineAt = &deadline
	}
	return nil
}

func (s *memStore) ActivateCycle(_ context.Context, cycleID string, startedAt time.Time, deadline *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cycles[cycleID]
	if !ok || c.Status != models.CycleStatusCreated {
		return false, nil
	}
	for _, other := range s.cycles {
		if other.ContestID == c.ContestID && other.IsOpen() {
			return false, repository.ErrOpenCycleExists
		}
	}
	c.Status = models.CycleStatusActive
	c.StartedAt = startedAt
	c.DeadlineAt = deadline
	return true, nil
}

func (s *memStore) ListDueCreatedCycles(_ context.Context, now time.Time) ([]*models.Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Cycle
	for _, c := range s.cycles {
		if c.Status == models.CycleStatusCreated && !c.StartedAt.After(now) {
			out = append(out, copyCycle(c))
		}
	}
	return out, nil
}

func (s *memStore) ResetStaleEvaluations(_ context.Context, startedBefore time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, c := range s.cycles {
		if c.Status == models.CycleStatusEvaluating && c.EvaluationStartedAt != nil && c.EvaluationStartedAt.Before(startedBefore) {
			c.Status = models.CycleStatusActive
			c.EvaluationStartedAt = nil
			n++
		}
	}
	return n, nil
}

func (s *memStore) ArchiveCreatedCycles(_ context.Context, contestID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, c := range s.cycles {
		if c.ContestID == contestID && c.Status == models.CycleStatusCreated {
			c.Status = models.CycleStatusArchived
			n++
		}
	}
	return n, nil
}

func (s *memStore) SetResultPostLink(_ context.Context, cycleID, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cycles[cycleID]; ok {
		c.ResultPostLink = link
	}
	for _, l := range s.logs {
		if l.CycleID == cycleID {
			l.ResultsPostLink = link
		}
	}
	return nil
}

func (s *memStore) CreateEntry(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contest, ok := s.contests[entry.ContestID]
	if !ok {
		return repository.ErrContestNotFound
	}
	contest.EntrySeq++
	entry.EntryNumber = contest.EntrySeq
	s.entries[entry.ID] = copyEntry(entry)
	return nil
}

func (s *memStore) GetEntry(_ context.Context, id string) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, repository.ErrEntryNotFound
	}
	return copyEntry(e), nil
}

func (s *memStore) listEntriesLocked(match func(*models.Entry) bool) []*models.Entry {
	var out []*models.Entry
	for _, e := range s.entries {
		if match(e) {
			out = append(out, copyEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryNumber < out[j].EntryNumber })
	return out
}

func (s *memStore) ListEntries(_ context.Context, contestID string) ([]*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listEntriesLocked(func(e *models.Entry) bool { return e.ContestID == contestID }), nil
}

func (s *memStore) ListCandidates(_ context.Context, cycleID string) ([]*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listEntriesLocked(func(e *models.Entry) bool { return e.CycleID == cycleID && e.IsCandidate() }), nil
}

func (s *memStore) CountParticipants(_ context.Context, cycleID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.listEntriesLocked(func(e *models.Entry) bool {
		return e.CycleID == cycleID && e.Status != models.EntryStatusError
	}))
	return n, nil
}

func (s *memStore) ClearEntries(_ context.Context, contestID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, e := range s.entries {
		if e.ContestID == contestID && e.Status != models.EntryStatusWinner && e.Status != models.EntryStatusUsed {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) ListWinnerUserIDs(_ context.Context, contestID string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []int64
	for _, w := range s.winners {
		if w.ContestID == contestID {
			out = append(out, w.UserVkID)
		}
	}
	return out, nil
}

func (s *memStore) AddPromoCodes(_ context.Context, contestID string, codes []models.PromoCodeInput) (int, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	var skipped []string
	for _, in := range codes {
		exists := false
		for _, c := range s.codes {
			if c.ContestID == contestID && c.Code == in.Code {
				exists = true
				break
			}
		}
		if exists {
			skipped = append(skipped, in.Code)
			continue
		}
		s.codes = append(s.codes, &models.PromoCode{
			ID:          uuid.New().String(),
			ContestID:   contestID,
			Code:        in.Code,
			Description: in.Description,
			CreatedAt:   time.Now(),
		})
		added++
	}
	return added, skipped, nil
}

func (s *memStore) ListPromoCodes(_ context.Context, contestID string) ([]*models.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.PromoCode
	for _, c := range s.codes {
		if c.ContestID == contestID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) GetPromoCodeStats(_ context.Context, contestID string) (models.PromoCodeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats models.PromoCodeStats
	for _, c := range s.codes {
		if c.ContestID != contestID {
			continue
		}
		stats.Total++
		if c.IsIssued {
			stats.Issued++
		}
	}
	stats.Unissued = stats.Total - stats.Issued
	return stats, nil
}

func (s *memStore) DeletePromoCodes(_ context.Context, ids []string) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		targets[id] = struct{}{}
	}

	deleted, kept := 0, 0
	remaining := s.codes[:0]
	for _, c := range s.codes {
		if _, ok := targets[c.ID]; ok {
			if c.IsIssued {
				kept++
			} else {
				deleted++
				continue
			}
		}
		remaining = append(remaining, c)
	}
	s.codes = remaining
	return deleted, kept, nil
}

func (s *memStore) ClearPromoCodes(_ context.Context, contestID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	remaining := s.codes[:0]
	for _, c := range s.codes {
		if c.ContestID == contestID && !c.IsIssued {
			n++
			continue
		}
		remaining = append(remaining, c)
	}
	s.codes = remaining
	return n, nil
}

func (s *memStore) ListBlacklist(_ context.Context, contestID string) ([]*models.BlacklistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.BlacklistEntry
	for _, b := range s.blacklist {
		if b.ContestID == contestID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) AddToBlacklist(_ context.Context, entry *models.BlacklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.blacklist {
		if b.ContestID == entry.ContestID && b.UserVkID == entry.UserVkID {
			b.UntilDate = entry.UntilDate
			entry.ID = b.ID
			entry.CreatedAt = b.CreatedAt
			return nil
		}
	}
	cp := *entry
	s.blacklist[entry.ID] = &cp
	return nil
}

func (s *memStore) RemoveFromBlacklist(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blacklist[id]; !ok {
		return repository.ErrBlacklistEntryNotFound
	}
	delete(s.blacklist, id)
	return nil
}

func (s *memStore) GetDeliveryLog(_ context.Context, id string) (*models.DeliveryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[id]
	if !ok {
		return nil, repository.ErrDeliveryLogNotFound
	}
	return copyLog(l), nil
}

func (s *memStore) listLogsLocked(match func(*models.DeliveryLog) bool) []*models.DeliveryLog {
	var out []*models.DeliveryLog
	for _, id := range s.logOrder {
		if l, ok := s.logs[id]; ok && match(l) {
			out = append(out, copyLog(l))
		}
	}
	return out
}

func (s *memStore) ListDeliveryLogs(_ context.Context, contestID string) ([]*models.DeliveryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLogsLocked(func(l *models.DeliveryLog) bool { return l.ContestID == contestID }), nil
}

func (s *memStore) ListCycleDeliveryLogs(_ context.Context, cycleID string) ([]*models.DeliveryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLogsLocked(func(l *models.DeliveryLog) bool { return l.CycleID == cycleID }), nil
}

func (s *memStore) ListFailedDeliveries(_ context.Context, contestID string) ([]*models.DeliveryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLogsLocked(func(l *models.DeliveryLog) bool {
		return l.ContestID == contestID && l.IsRetryable()
	}), nil
}

func (s *memStore) FailStalePending(_ context.Context, staleBefore time.Time, details string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, l := range s.logs {
		if l.Status == models.DeliveryStatusPending && !l.UpdatedAt.After(staleBefore) {
			l.Status = models.DeliveryStatusError
			l.ErrorDetails = details
			n++
		}
	}
	return n, nil
}

func (s *memStore) MarkPending(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[id]
	if !ok || l.Status == models.DeliveryStatusSent {
		return false, nil
	}
	l.Status = models.DeliveryStatusPending
	l.ErrorDetails = ""
	l.UpdatedAt = time.Now()
	return true, nil
}

func (s *memStore) SaveOutcome(_ context.Context, id string, outcome models.DeliveryOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.logs[id]
	if !ok || l.Status == models.DeliveryStatusSent {
		return repository.ErrDeliveryLogNotFound
	}
	l.Status = outcome.Status
	l.Channel = outcome.Channel
	l.ErrorDetails = outcome.ErrorDetails
	l.Attempts++
	l.UpdatedAt = time.Now()
	return nil
}

func (s *memStore) ClearDeliveryLogs(_ context.Context, contestID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, l := range s.logs {
		if l.ContestID == contestID && l.Status != models.DeliveryStatusPending {
			delete(s.logs, id)
			n++
		}
	}
	return n, nil
}

func (s *memStore) CommitFinalize(_ context.Context, commit *repository.FinalizeCommit) ([]*models.DeliveryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cycle, ok := s.cycles[commit.CycleID]
	if !ok {
		return nil, repository.ErrCycleNotFound
	}
	if cycle.Status != models.CycleStatusEvaluating {
		return nil, repository.ErrCycleNotEvaluating
	}

	var free []*models.PromoCode
	for _, c := range s.codes {
		if len(free) == len(commit.Winners) {
			break
		}
		if c.ContestID == commit.ContestID && !c.IsIssued {
			free = append(free, c)
		}
	}
	if len(free) < len(commit.Winners) {
		return nil, repository.ErrInsufficientCodes
	}

	var logs []*models.DeliveryLog
	var snapshot []models.WinnerSnapshot
	for i, w := range commit.Winners {
		code := free[i]
		userID := w.UserVkID
		issuedAt := commit.FinishedAt
		cycleID := commit.CycleID
		code.IsIssued = true
		code.IssuedToUserID = &userID
		code.IssuedAt = &issuedAt
		code.CycleID = &cycleID

		s.entries[w.ID].Status = models.EntryStatusWinner
		s.winners = append(s.winners, models.WinnerRecord{ContestID: commit.ContestID, UserVkID: w.UserVkID, CycleID: commit.CycleID})

		l := &models.DeliveryLog{
			ID:             uuid.New().String(),
			ContestID:      commit.ContestID,
			CycleID:        commit.CycleID,
			EntryID:        w.ID,
			UserVkID:       w.UserVkID,
			UserName:       w.UserName,
			PromoCode:      code.Code,
			Description:    code.Description,
			Status:         models.DeliveryStatusPending,
			WinnerPostLink: commit.WinnerPostLinks[w.ID],
			CreatedAt:      commit.FinishedAt,
			UpdatedAt:      commit.FinishedAt,
		}
		s.logs[l.ID] = l
		s.logOrder = append(s.logOrder, l.ID)
		logs = append(logs, copyLog(l))

		snapshot = append(snapshot, models.WinnerSnapshot{
			EntryID:     w.ID,
			UserVkID:    w.UserVkID,
			UserName:    w.UserName,
			EntryNumber: w.EntryNumber,
			PromoCode:   code.Code,
			Description: code.Description,
		})
	}

	finishedAt := commit.FinishedAt
	cycle.Status = models.CycleStatusFinished
	cycle.FinishedAt = &finishedAt
	cycle.ParticipantsCount = commit.ParticipantsCount
	cycle.WinnersSnapshot = snapshot

	contest := s.contests[commit.ContestID]
	contest.Status = models.ContestStatusActive
	contest.ActiveCycleID = nil

	if commit.NextCycle != nil {
		if err := s.insertCycleLocked(commit.NextCycle); err != nil {
			return nil, err
		}
	}

	s.commits++
	return logs, nil
}

func (s *memStore) PauseNoCodes(_ context.Context, contestID, cycleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.contests[contestID]; ok {
		c.Status = models.ContestStatusPausedNoCodes
	}
	if c, ok := s.cycles[cycleID]; ok && c.Status == models.CycleStatusEvaluating {
		c.Status = models.CycleStatusActive
		c.EvaluationStartedAt = nil
	}
	return nil
}

func (s *memStore) GetGlobals(_ context.Context, projectID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string)
	for k, v := range s.globals[projectID] {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) ReplaceGlobals(_ context.Context, projectID string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	s.globals[projectID] = cp
	return nil
}

// helpers для тестов

func (s *memStore) issuedCodes(contestID string) []*models.PromoCode {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.PromoCode
	for _, c := range s.codes {
		if c.ContestID == contestID && c.IsIssued {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out
}

func (s *memStore) setLog(l *models.DeliveryLog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.logs[l.ID]; !ok {
		s.logOrder = append(s.logOrder, l.ID)
	}
	s.logs[l.ID] = copyLog(l)
}

func (s *memStore) setEvaluationStarted(cycleID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.cycles[cycleID]
	c.Status = models.CycleStatusEvaluating
	c.EvaluationStartedAt = &at
}
