package moment

import "time"

// Moment is one daily posting window. EndAt is nil while the window is
// the current one; it gets set when the next window opens. At most one
// moment has a nil EndAt at any time.
type Moment struct {
	ID           int64      `json:"id"`
	StartAt      time.Time  `json:"start_at"`
	EndAt        *time.Time `json:"end_at"`
	ReminderSent bool       `json:"reminder_sent"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Open reports whether the moment is still the current window.
func (m *Moment) Open() bool { return m.EndAt == nil }
