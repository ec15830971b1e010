package ledger

import "time"

// Periods are opaque grouping keys. By convention the apps use the
// month key "2006-01"; nothing in the coordinator depends on the
// format.

// CurrentPeriod returns the month key for today.
func CurrentPeriod() string {
	return PeriodOf(time.Now().UTC())
}

// PeriodOf returns the month key for a point in time.
func PeriodOf(t time.Time) string {
	return t.Format("2006-01")
}
