package clock

import "time"

// Clock abstracts time so elapsed labels and session timestamps stay
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// EpochMillis is the persisted form of a timestamp.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func FromEpochMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
