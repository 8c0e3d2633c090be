package notify

import "time"

// dayShift moves the day boundary to 3 AM: a game finishing just after
// midnight still belongs to the previous day's slate.
const dayShift = 3 * time.Hour

// DayBucket returns the logical calendar day for an event time, formatted
// YYYY-MM-DD in UTC.
func DayBucket(t time.Time) string {
	return t.UTC().Add(-dayShift).Format("2006-01-02")
}

// PreviousDayBucket returns the bucket of the day before the given time.
func PreviousDayBucket(t time.Time) string {
	return DayBucket(t.Add(-24 * time.Hour))
}
