package service

import (
	"fmt"
	"time"

	"github.com/jesses-code-adventures/tims/internal/database"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
	clockLayout    = "15:04"
)

// Periods lists the names accepted by CalculatePeriodRange.
var Periods = []string{"day", "week", "fortnight", "month"}

// CalculatePeriodRange returns the start of the period containing targetDate
// and the start of the following one. Weeks and fortnights begin on Monday.
func (s *TimesheetService) CalculatePeriodRange(period string, targetDate time.Time) (time.Time, time.Time, error) {
	day := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())

	switch period {
	case "day":
		return day, day.AddDate(0, 0, 1), nil
	case "week", "fortnight":
		weekday := day.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		start := day.AddDate(0, 0, -int(weekday-1))
		if period == "week" {
			return start, start.AddDate(0, 0, 7), nil
		}
		return start, start.AddDate(0, 0, 14), nil
	case "month":
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return start, start.AddDate(0, 1, 0), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown period '%s', expected one of %v", period, Periods)
	}
}

// ResolveRange turns command line range flags into a half-open range. An
// explicit from/to wins over period/date; a date-only "to" includes that
// whole day. With no flags at all the current week is used.
func (s *TimesheetService) ResolveRange(period, date, from, to string) (database.Range, error) {
	if from != "" || to != "" {
		var rng database.Range
		if from != "" {
			t, _, err := s.parseBound(from)
			if err != nil {
				return rng, fmt.Errorf("invalid from: %w", err)
			}
			rng.Start = t.Unix()
		}
		if to != "" {
			t, dateOnly, err := s.parseBound(to)
			if err != nil {
				return rng, fmt.Errorf("invalid to: %w", err)
			}
			if dateOnly {
				t = t.AddDate(0, 0, 1)
			}
			rng.End = t.Unix()
		}
		if rng.End != 0 && rng.End <= rng.Start {
			return rng, fmt.Errorf("range end must be after its start")
		}
		return rng, nil
	}

	if period == "" {
		period = "week"
	}
	target := s.now()
	if date != "" {
		var err error
		target, err = time.ParseInLocation(dateLayout, date, target.Location())
		if err != nil {
			return database.Range{}, fmt.Errorf("invalid date format, expected YYYY-MM-DD: %w", err)
		}
	}
	start, next, err := s.CalculatePeriodRange(period, target)
	if err != nil {
		return database.Range{}, err
	}
	return database.Range{Start: start.Unix(), End: next.Unix()}, nil
}

func (s *TimesheetService) parseBound(value string) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(dateLayout, value, s.now().Location()); err == nil {
		return t, true, nil
	}
	t, err := s.ParseTimeString(value)
	return t, false, err
}

// ParseTimeString accepts "YYYY-MM-DD HH:MM" or "HH:MM", the latter meaning
// today.
func (s *TimesheetService) ParseTimeString(timeStr string) (time.Time, error) {
	now := s.now()

	if t, err := time.ParseInLocation(dateTimeLayout, timeStr, now.Location()); err == nil {
		return t, nil
	}

	if t, err := time.ParseInLocation(clockLayout, timeStr, now.Location()); err == nil {
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
	}

	return time.Time{}, fmt.Errorf("time must be in format 'YYYY-MM-DD HH:MM' or 'HH:MM'")
}
