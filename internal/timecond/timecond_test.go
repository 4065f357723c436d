package timecond

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOvernightHourRange(t *testing.T) {
	cond := Condition{HourRange: &[2]int{22, 6}}

	at23 := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	at5 := time.Date(2026, 1, 1, 5, 0, 0, 0, time.UTC)
	at12 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.True(t, Evaluate(cond, at23))
	require.True(t, Evaluate(cond, at5))
	require.False(t, Evaluate(cond, at12))
}

func TestDayOfWeekMembership(t *testing.T) {
	cond := Condition{DayOfWeek: []int{0, 6}} // weekend
	saturday := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

	require.Equal(t, time.Saturday, saturday.Weekday())
	require.True(t, Evaluate(cond, saturday))
	require.False(t, Evaluate(cond, monday))
}

func TestMinuteParity(t *testing.T) {
	even := Condition{MinuteParity: "even"}
	require.True(t, Evaluate(even, time.Date(2026, 1, 1, 0, 10, 0, 0, time.UTC)))
	require.False(t, Evaluate(even, time.Date(2026, 1, 1, 0, 11, 0, 0, time.UTC)))
}

func TestDateRangeInclusive(t *testing.T) {
	cond := Condition{DateRange: &[2]string{"2026-12-20", "2026-12-31"}}
	require.True(t, Evaluate(cond, time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)))
	require.True(t, Evaluate(cond, time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)))
	require.False(t, Evaluate(cond, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAndedPredicatesAllMustHold(t *testing.T) {
	cond := Condition{DayOfWeek: []int{1}, Hour: []int{9}}
	monday9am := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	monday10am := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	require.True(t, Evaluate(cond, monday9am))
	require.False(t, Evaluate(cond, monday10am))
}

func TestMalformedDateRangeEvaluatesFalse(t *testing.T) {
	cond := Condition{DateRange: &[2]string{"not-a-date", "2026-12-31"}}
	require.False(t, Evaluate(cond, time.Now()))
}

func TestEmptyConditionAlwaysTrue(t *testing.T) {
	require.True(t, Evaluate(Condition{}, time.Now()))
}
