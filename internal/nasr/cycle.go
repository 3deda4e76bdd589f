package nasr

import "time"

// CycleDays is the length of a NASR subscription cycle.
const CycleDays = 28

// cycleAnchor is a known cycle start.
var cycleAnchor = time.Date(2024, time.March, 21, 0, 0, 0, 0, time.UTC)

// Cycle returns the start date of the cycle containing t.
func Cycle(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int(day.Sub(cycleAnchor).Hours() / 24)
	n := days / CycleDays
	if days < 0 && days%CycleDays != 0 {
		n--
	}
	return cycleAnchor.AddDate(0, 0, n*CycleDays)
}

// Cycles returns the next, current and previous cycle starts around t,
// newest first.
func Cycles(t time.Time) []time.Time {
	cur := Cycle(t)
	return []time.Time{
		cur.AddDate(0, 0, CycleDays),
		cur,
		cur.AddDate(0, 0, -CycleDays),
	}
}

// CycleID formats a cycle start as YYYY-MM-DD.
func CycleID(t time.Time) string {
	return t.Format(time.DateOnly)
}
