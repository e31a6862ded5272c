package civiltime

import (
	"crypto/md5"
	"encoding/binary"
	"time"
)

// civilDateLayout matches JavaScript's Date.toDateString(), which the
// original deployment hashed. Changing it would move every historic and
// future trigger time.
const civilDateLayout = "Mon Jan 02 2006"

// HashTime derives the deterministic trigger instant for the civil day of
// t: md5("<civil-date>@<zone>"), first 4 digest bytes as a big-endian
// uint32, reduced modulo the window length in milliseconds, offset from
// dayStart. Stable per day, uniform across days, and not guessable
// without computing the digest. Always in [dayStart, dayEnd).
func HashTime(t time.Time, zone *Zone, dayStart, dayEnd time.Time) time.Time {
	input := t.In(zone.loc).Format(civilDateLayout) + "@" + zone.name
	sum := md5.Sum([]byte(input))
	n := binary.BigEndian.Uint32(sum[:4])
	windowMs := dayEnd.Sub(dayStart).Milliseconds()
	if windowMs <= 0 {
		// Degenerate window; the modulo below would divide by zero.
		return dayStart
	}
	offset := int64(n) % windowMs
	return dayStart.Add(time.Duration(offset) * time.Millisecond)
}

// TriggerAt computes the trigger instant for the civil day of t using the
// window's own bounds.
func (w DayWindow) TriggerAt(t time.Time) time.Time {
	start, end := w.Bounds(t)
	return HashTime(t, w.Zone, start, end)
}
