package service

import (
	"fmt"
	"time"

	"contest-tool-backend/internal/features/contest/models"
)

const week = 7 * 24 * time.Hour

// Evaluation решение по условию завершения цикла
type Evaluation struct {
	Decision models.Decision
	// Deadline срок цикла, nil для условия count
	Deadline *time.Time
	// NextDeadline срок следующего окна после пропуска mixed
	NextDeadline *time.Time
}

// EvaluateFinish проверяет условие завершения.
// Функция чистая: результат зависит только от аргументов.
func EvaluateFinish(policy models.FinishPolicy, cycle *models.Cycle, participants int, now time.Time, loc *time.Location) (Evaluation, error) {
	switch policy.Condition {
	case models.FinishByCount:
		if participants >= policy.TargetCount {
			return Evaluation{Decision: models.DecisionFinalizeNow}, nil
		}
		return Evaluation{Decision: models.DecisionNotYet}, nil

	case models.FinishByDate, models.FinishByDuration:
		deadline, err := cycleDeadline(policy, cycle, loc)
		if err != nil {
			return Evaluation{}, err
		}
		if now.Before(deadline) {
			return Evaluation{Decision: models.DecisionNotYet, Deadline: &deadline}, nil
		}
		return Evaluation{Decision: models.DecisionFinalizeNow, Deadline: &deadline}, nil

	case models.FinishByMixed:
		deadline, err := cycleDeadline(policy, cycle, loc)
		if err != nil {
			return Evaluation{}, err
		}
		if now.Before(deadline) {
			return Evaluation{Decision: models.DecisionNotYet, Deadline: &deadline}, nil
		}
		if participants >= policy.TargetCount {
			return Evaluation{Decision: models.DecisionFinalizeNow, Deadline: &deadline}, nil
		}
		next := rollWeekly(deadline, now)
		return Evaluation{Decision: models.DecisionSkip, Deadline: &deadline, NextDeadline: &next}, nil

	default:
		return Evaluation{}, fmt.Errorf("unknown finish condition: %q", policy.Condition)
	}
}

// NextDeadline срок завершения цикла, начатого в startedAt. Для count срока нет.
func NextDeadline(policy models.FinishPolicy, startedAt time.Time, loc *time.Location) (*time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	switch policy.Condition {
	case models.FinishByCount:
		return nil, nil

	case models.FinishByDuration:
		deadline := startedAt.Add(policy.Duration())
		return &deadline, nil

	case models.FinishByDate, models.FinishByMixed:
		hour, minute, err := models.ParseClock(policy.Time)
		if err != nil {
			return nil, err
		}

		if policy.Date != "" {
			date, err := time.ParseInLocation("2006-01-02", policy.Date, loc)
			if err != nil {
				return nil, fmt.Errorf("invalid date %q: %w", policy.Date, err)
			}
			deadline := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
			// Дата до старта цикла переносится на целое число недель вперед
			if deadline.Before(startedAt) {
				deadline = rollWeekly(deadline, startedAt.Add(-time.Nanosecond))
			}
			return &deadline, nil
		}

		day, err := models.ParseWeekday(policy.DayOfWeek)
		if err != nil {
			return nil, err
		}
		deadline := weekdayDeadline(startedAt, day, hour, minute, loc)
		return &deadline, nil

	default:
		return nil, fmt.Errorf("unknown finish condition: %q", policy.Condition)
	}
}

func cycleDeadline(policy models.FinishPolicy, cycle *models.Cycle, loc *time.Location) (time.Time, error) {
	if cycle.DeadlineAt != nil {
		return *cycle.DeadlineAt, nil
	}

	deadline, err := NextDeadline(policy, cycle.StartedAt, loc)
	if err != nil {
		return time.Time{}, err
	}
	if deadline == nil {
		return time.Time{}, fmt.Errorf("finish condition %q has no deadline", policy.Condition)
	}
	return *deadline, nil
}

// weekdayDeadline первое наступление day hour:minute не раньше startedAt
func weekdayDeadline(startedAt time.Time, day time.Weekday, hour, minute int, loc *time.Location) time.Time {
	local := startedAt.In(loc)
	offset := (int(day) - int(local.Weekday()) + 7) % 7

	deadline := time.Date(local.Year(), local.Month(), local.Day()+offset, hour, minute, 0, 0, loc)
	if deadline.Before(local) {
		deadline = deadline.AddDate(0, 0, 7)
	}
	return deadline
}

// rollWeekly сдвигает срок на целое число недель, пока он не окажется позже now.
// AddDate сохраняет местное время при переходе на летнее время.
func rollWeekly(deadline, now time.Time) time.Time {
	if deadline.After(now) {
		return deadline
	}

	weeks := int(now.Sub(deadline)/week) + 1
	next := deadline.AddDate(0, 0, 7*weeks)
	for !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
