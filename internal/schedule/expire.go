package schedule

import (
	"fmt"
	"time"

	"statuscal/internal/model"
	"statuscal/internal/timeutil"
)

// ComputeExpiration returns the local instant at which a just-applied
// status should expire. Without an explicit expireHour the status lasts
// until the end of the local day. With one, it expires at that hour
// today, unless that hour is already at or behind the match instant
// (matched at 22:00 with expireHour 17), in which case the end-of-day
// fallback applies. An expiry in the past is meaningless to the
// downstream profile API and is never produced.
func ComputeExpiration(status *model.Status, local time.Time) time.Time {
	if status.ExpireHour == nil {
		return timeutil.EndOfDay(local)
	}

	candidate, err := timeutil.AtLocalTime(local, fmt.Sprintf("%02d:00", *status.ExpireHour))
	if err != nil {
		// Out-of-range hours are rejected by validation; fall back
		// rather than hand a zero instant downstream.
		return timeutil.EndOfDay(local)
	}
	if !candidate.After(local) {
		return timeutil.EndOfDay(local)
	}
	return candidate
}
