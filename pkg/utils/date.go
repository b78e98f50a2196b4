package utils

import "time"

// TimeNow returns the current time in UTC. All persisted timestamps use it.
func TimeNow() time.Time {
	return time.Now().UTC()
}

// MinutesSince returns the elapsed minutes between t and now, never negative.
func MinutesSince(t, now time.Time) float64 {
	diff := now.Sub(t).Minutes()
	if diff < 0 {
		return 0
	}
	return diff
}
