package service

import (
	"time"

	"contest-tool-backend/internal/features/contest/models"
)

// FilterEligible оставляет заявки, которые могут выиграть в текущем цикле.
// Исключаются пользователи с активной блокировкой и, при uniqueWinner,
// пользователи, уже побеждавшие в прошлых циклах конкурса. Порядок заявок сохраняется.
func FilterEligible(entries []*models.Entry, blacklist []*models.BlacklistEntry, priorWinners []int64, uniqueWinner bool, now time.Time) []*models.Entry {
	blocked := make(map[int64]struct{}, len(blacklist))
	for _, b := range blacklist {
		if b.IsActive(now) {
			blocked[b.UserVkID] = struct{}{}
		}
	}

	won := make(map[int64]struct{}, len(priorWinners))
	if uniqueWinner {
		for _, id := range priorWinners {
			won[id] = struct{}{}
		}
	}

	eligible := make([]*models.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.IsCandidate() {
			continue
		}
		if _, ok := blocked[e.UserVkID]; ok {
			continue
		}
		if _, ok := won[e.UserVkID]; ok {
			continue
		}
		eligible = append(eligible, e)
	}

	return eligible
}
