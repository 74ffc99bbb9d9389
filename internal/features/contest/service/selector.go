package service

import (
	"fmt"

	"contest-tool-backend/internal/features/contest/models"
	"contest-tool-backend/internal/utils/random"
)

// WinnerSelector равновероятный выбор без возвращения
type WinnerSelector struct {
	shuffle Shuffler
}

// NewWinnerSelector по умолчанию использует криптографически стойкое перемешивание
func NewWinnerSelector(shuffle Shuffler) *WinnerSelector {
	if shuffle == nil {
		shuffle = random.Shuffle[*models.Entry]
	}
	return &WinnerSelector{shuffle: shuffle}
}

// Select возвращает до n победителей в порядке выбора.
// Пользователь с несколькими заявками получает не больше одного приза,
// поэтому победителей может быть меньше n.
func (s *WinnerSelector) Select(pool []*models.Entry, n int) ([]*models.Entry, error) {
	if n <= 0 || len(pool) == 0 {
		return nil, nil
	}

	shuffled := make([]*models.Entry, len(pool))
	copy(shuffled, pool)
	if err := s.shuffle(shuffled); err != nil {
		return nil, fmt.Errorf("failed to shuffle participants: %w", err)
	}

	winners := make([]*models.Entry, 0, n)
	seen := make(map[int64]struct{}, n)
	for _, e := range shuffled {
		if _, ok := seen[e.UserVkID]; ok {
			continue
		}
		seen[e.UserVkID] = struct{}{}
		winners = append(winners, e)
		if len(winners) == n {
			break
		}
	}

	return winners, nil
}
