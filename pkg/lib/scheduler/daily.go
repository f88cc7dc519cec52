package scheduler

import (
	"time"

	"github.com/cockroachdb/errors"
)

const DefaultDailyHours = 24

// DailyAnchor returns today's date in now's location at the "HH:MM" time of day.
// A time already past today is fine: New defers it by whole intervals.
func DailyAnchor(now time.Time, timeOfDay string) (time.Time, error) {
	t, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return time.Time{}, errors.WithHint(
			errors.Wrapf(err, "time of day %q", timeOfDay),
			"use 24h HH:MM, e.g. 09:30")
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}

// EveryHours converts a frequency in hours to an interval; zero or negative means daily.
func EveryHours(hours int) time.Duration {
	if hours <= 0 {
		hours = DefaultDailyHours
	}
	return time.Duration(hours) * time.Hour
}
