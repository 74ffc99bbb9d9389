package models

import (
	"fmt"
	"strings"
	"time"
)

// FinishCondition условие завершения цикла
type FinishCondition string

const (
	FinishByCount    FinishCondition = "count"
	FinishByDate     FinishCondition = "date"
	FinishByMixed    FinishCondition = "mixed"
	FinishByDuration FinishCondition = "duration"
)

// FinishPolicy настройки завершения.
// Для date и mixed срок задается либо днем недели и временем (DayOfWeek + Time),
// либо конкретной датой (Date + Time) в general конкурсах.
type FinishPolicy struct {
	Condition     FinishCondition `json:"condition"`
	TargetCount   int             `json:"target_count,omitempty"`
	DayOfWeek     string          `json:"day_of_week,omitempty"` // monday ... sunday
	Time          string          `json:"time,omitempty"`        // HH:MM
	Date          string          `json:"date,omitempty"`        // YYYY-MM-DD
	DurationDays  int             `json:"duration_days,omitempty"`
	DurationHours int             `json:"duration_hours,omitempty"`
}

// Верхние границы длительностей, чтобы произведение не переполнило time.Duration
const (
	MaxDurationDays      = 3650
	MaxDurationHours     = 87600
	MaxRestartDelayHours = 87600
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday принимает английское название дня недели без учета регистра
func ParseWeekday(s string) (time.Weekday, error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("invalid day of week: %q", s)
	}
	return day, nil
}

// ParseClock разбирает время в формате HH:MM
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// Duration суммарная длительность цикла для условия duration
func (p FinishPolicy) Duration() time.Duration {
	return time.Duration(p.DurationDays)*24*time.Hour + time.Duration(p.DurationHours)*time.Hour
}

// HasSchedule срок завершения задан датой или днем недели
func (p FinishPolicy) HasSchedule() bool {
	return p.Date != "" || p.DayOfWeek != ""
}

// IsHardDeadline срок, по наступлении которого цикл закрывается даже без победителей
func (p FinishPolicy) IsHardDeadline() bool {
	return p.Condition == FinishByDate || p.Condition == FinishByDuration
}

func (p FinishPolicy) Validate() error {
	switch p.Condition {
	case FinishByCount:
		if p.TargetCount < 1 {
			return fmt.Errorf("count condition requires target_count >= 1")
		}
	case FinishByDate:
		if err := p.validateSchedule(); err != nil {
			return err
		}
	case FinishByMixed:
		if p.TargetCount < 1 {
			return fmt.Errorf("mixed condition requires target_count >= 1")
		}
		if err := p.validateSchedule(); err != nil {
			return err
		}
	case FinishByDuration:
		if p.DurationDays < 0 || p.DurationHours < 0 {
			return fmt.Errorf("duration cannot be negative")
		}
		if p.DurationDays > MaxDurationDays || p.DurationHours > MaxDurationHours {
			return fmt.Errorf("duration cannot exceed %d days or %d hours", MaxDurationDays, MaxDurationHours)
		}
		if p.Duration() <= 0 {
			return fmt.Errorf("duration condition requires a positive number of days or hours")
		}
	default:
		return fmt.Errorf("unknown finish condition: %q", p.Condition)
	}
	return nil
}

func (p FinishPolicy) validateSchedule() error {
	if !p.HasSchedule() {
		return fmt.Errorf("%s condition requires day_of_week or date", p.Condition)
	}
	if _, _, err := ParseClock(p.Time); err != nil {
		return err
	}
	if p.Date != "" {
		if _, err := time.Parse("2006-01-02", p.Date); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", p.Date)
		}
		return nil
	}
	_, err := ParseWeekday(p.DayOfWeek)
	return err
}
