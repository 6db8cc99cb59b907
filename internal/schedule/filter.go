// Package schedule classifies activity requests as upcoming or past. Every
// view that splits "активные/прошедшие" lists goes through Classify, so the
// cutoff rules cannot drift between call sites.
package schedule

import (
	"strings"
	"time"

	"github.com/akobyansamvel/curs/internal/models"
)

// Class is the outcome of the temporal test.
type Class int

const (
	Past Class = iota
	Upcoming
)

func (c Class) String() string {
	if c == Upcoming {
		return "upcoming"
	}
	return "past"
}

// Classify applies the combined status+date rule to a request:
//
//   - completed and cancelled requests are always past, regardless of date;
//   - otherwise the scheduled day decides: before today is past, after today
//     is upcoming;
//   - on the current day the time-of-day decides when present; a same-day
//     request without a time gets the benefit of the doubt and is upcoming.
//
// Date granularity is the caller's local calendar day of now.
func Classify(now time.Time, req *models.ActivityRequest) Class {
	switch req.Status {
	case models.StatusCompleted, models.StatusCancelled:
		return Past
	}

	day, ok := ParseDate(req.Date, now.Location())
	if !ok {
		// Нет корректной даты — показываем как актуальную.
		return Upcoming
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case day.Before(today):
		return Past
	case day.After(today):
		return Upcoming
	}

	hh, mm, ok := ParseTimeOfDay(req.Time)
	if !ok {
		return Upcoming
	}
	at := today.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
	if at.Before(now) {
		return Past
	}
	return Upcoming
}

// IsUpcoming is a convenience wrapper over Classify.
func IsUpcoming(now time.Time, req *models.ActivityRequest) bool {
	return Classify(now, req) == Upcoming
}

// FilterUpcoming keeps the requests Classify considers upcoming, preserving
// order.
func FilterUpcoming(now time.Time, reqs []models.ActivityRequest) []models.ActivityRequest {
	out := make([]models.ActivityRequest, 0, len(reqs))
	for i := range reqs {
		if Classify(now, &reqs[i]) == Upcoming {
			out = append(out, reqs[i])
		}
	}
	return out
}

// SplitActivePast partitions requests into the two tabs every profile and
// favorites view renders.
func SplitActivePast(now time.Time, reqs []models.ActivityRequest) (active, past []models.ActivityRequest) {
	for i := range reqs {
		if Classify(now, &reqs[i]) == Upcoming {
			active = append(active, reqs[i])
		} else {
			past = append(past, reqs[i])
		}
	}
	return active, past
}

// ParseDate parses the backend's "2006-01-02" (also accepting "2006/01/02")
// calendar-day form into local midnight.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006/01/02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTimeOfDay parses "15:04" or "15:04:05" into hour and minute.
func ParseTimeOfDay(s string) (hh, mm int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}
