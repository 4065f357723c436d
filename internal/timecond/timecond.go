// Package timecond evaluates the calendar/clock predicates that gate
// seasonal directory selection (spec §4.3).
package timecond

import (
	"time"
)

// Condition is a product of optional predicates, all ANDed together.
// A nil/zero-value field is not evaluated (treated as "don't care").
type Condition struct {
	DayOfWeek    []int      `yaml:"dayOfWeek,omitempty" json:"dayOfWeek,omitempty"`       // 0=Sun..6=Sat
	HourRange    *[2]int    `yaml:"hourRange,omitempty" json:"hourRange,omitempty"`        // [a,b]; overnight if a>b
	Hour         []int      `yaml:"hour,omitempty" json:"hour,omitempty"`
	Minute       []int      `yaml:"minute,omitempty" json:"minute,omitempty"`
	MinuteParity string     `yaml:"minuteParity,omitempty" json:"minuteParity,omitempty"` // "even" | "odd"
	DayOfMonth   []int      `yaml:"dayOfMonth,omitempty" json:"dayOfMonth,omitempty"`
	Month        []int      `yaml:"month,omitempty" json:"month,omitempty"` // 1..12
	Year         []int      `yaml:"year,omitempty" json:"year,omitempty"`
	DateRange    *[2]string `yaml:"dateRange,omitempty" json:"dateRange,omitempty"` // [ISO, ISO] inclusive
}

// Evaluate reports whether cond holds at instant now. Any parse error in
// a predicate (e.g. a malformed dateRange) causes that predicate — and
// therefore the whole condition — to evaluate false, per spec §4.3.
func Evaluate(cond Condition, now time.Time) bool {
	if len(cond.DayOfWeek) > 0 && !intIn(int(now.Weekday()), cond.DayOfWeek) {
		return false
	}
	if cond.HourRange != nil && !hourInRange(now.Hour(), cond.HourRange[0], cond.HourRange[1]) {
		return false
	}
	if len(cond.Hour) > 0 && !intIn(now.Hour(), cond.Hour) {
		return false
	}
	if len(cond.Minute) > 0 && !intIn(now.Minute(), cond.Minute) {
		return false
	}
	if cond.MinuteParity != "" {
		even := now.Minute()%2 == 0
		switch cond.MinuteParity {
		case "even":
			if !even {
				return false
			}
		case "odd":
			if even {
				return false
			}
		default:
			return false
		}
	}
	if len(cond.DayOfMonth) > 0 && !intIn(now.Day(), cond.DayOfMonth) {
		return false
	}
	if len(cond.Month) > 0 && !intIn(int(now.Month()), cond.Month) {
		return false
	}
	if len(cond.Year) > 0 && !intIn(now.Year(), cond.Year) {
		return false
	}
	if cond.DateRange != nil {
		ok, err := dateInRange(now, cond.DateRange[0], cond.DateRange[1])
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// hourInRange implements overnight semantics: when a>b the window wraps
// past midnight, so hour matches iff hour>=a OR hour<b.
func hourInRange(hour, a, b int) bool {
	if a <= b {
		return hour >= a && hour < b
	}
	return hour >= a || hour < b
}

func intIn(v int, set []int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func dateInRange(now time.Time, fromISO, toISO string) (bool, error) {
	from, err := time.ParseInLocation("2006-01-02", fromISO, now.Location())
	if err != nil {
		return false, err
	}
	to, err := time.ParseInLocation("2006-01-02", toISO, now.Location())
	if err != nil {
		return false, err
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !day.Before(from) && !day.After(to), nil
}
