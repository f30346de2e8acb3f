package clock

import "time"

// Clock abstracts time so schedulers and services can be tested with a
// fake clock.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// DateOnly truncates t to a calendar date at UTC midnight. Due dates and
// scheduled-for values are always compared as pure dates.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BusinessDate returns the calendar date of t observed in loc, as a
// UTC-midnight time suitable for DATE column comparisons.
func BusinessDate(t time.Time, loc *time.Location) time.Time {
	return DateOnly(t.In(loc))
}

// BusinessTimeOfDay returns the "HH:MM" wall clock of t in loc. Stored
// invoice send times use the same zero-padded format so lexical
// comparison is well ordered.
func BusinessTimeOfDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04")
}
