package earworm

import "time"

// The availability window is fixed wall-clock Eastern time, whatever the
// host's locale: no messages before 09:00 or after 23:00.
const (
	windowOpenSec  = 9 * 3600
	windowCloseSec = 23 * 3600
)

var eastern = mustLoadEastern()

func mustLoadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// tzdata missing from the host entirely; nothing sensible to do.
		panic(err)
	}
	return loc
}

// IsAvailable reports whether now falls inside the daily availability
// window. Both bounds are inclusive, and only time-of-day matters.
func IsAvailable(now time.Time) bool {
	local := now.In(eastern)
	sec := local.Hour()*3600 + local.Minute()*60 + local.Second()
	return sec >= windowOpenSec && sec <= windowCloseSec
}
