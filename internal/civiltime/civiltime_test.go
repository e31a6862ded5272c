package civiltime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func berlin(t *testing.T) *Zone {
	t.Helper()
	z, err := LoadZone("Europe/Berlin")
	require.NoError(t, err)
	return z
}

func TestLoadZone_Unknown(t *testing.T) {
	_, err := LoadZone("Nowhere/Atlantis")
	require.Error(t, err)
}

func TestAt_RoundTripsParts(t *testing.T) {
	z := berlin(t)
	instant := z.At(2025, time.March, 14, 9, 30, 15)

	y, m, d, h, mi, s := z.Parts(instant)
	assert.Equal(t, 2025, y)
	assert.Equal(t, time.March, m)
	assert.Equal(t, 14, d)
	assert.Equal(t, 9, h)
	assert.Equal(t, 30, mi)
	assert.Equal(t, 15, s)
}

func TestAt_HonorsDSTOffset(t *testing.T) {
	z := berlin(t)

	// Berlin is UTC+1 in winter, UTC+2 in summer.
	winter := z.At(2025, time.January, 10, 8, 0, 0)
	assert.Equal(t, 7, winter.UTC().Hour())

	summer := z.At(2025, time.July, 10, 8, 0, 0)
	assert.Equal(t, 6, summer.UTC().Hour())
}

func TestDayWindow_Bounds(t *testing.T) {
	z := berlin(t)
	w := DayWindow{Zone: z, StartHour: 8, EndHour: 20}

	// Any instant on the civil day maps to the same bounds.
	noon := z.At(2025, time.June, 1, 12, 0, 0)
	late := z.At(2025, time.June, 1, 23, 30, 0)

	s1, e1 := w.Bounds(noon)
	s2, e2 := w.Bounds(late)
	assert.True(t, s1.Equal(s2))
	assert.True(t, e1.Equal(e2))

	assert.True(t, s1.Equal(z.At(2025, time.June, 1, 8, 0, 0)))
	assert.True(t, e1.Equal(z.At(2025, time.June, 1, 20, 0, 0)))
	assert.Equal(t, 12*time.Hour, e1.Sub(s1))
}

func TestDayWindow_Contains(t *testing.T) {
	z := berlin(t)
	w := DayWindow{Zone: z, StartHour: 8, EndHour: 20}

	assert.False(t, w.Contains(z.At(2025, time.June, 1, 7, 59, 59)))
	assert.True(t, w.Contains(z.At(2025, time.June, 1, 8, 0, 0)))
	assert.True(t, w.Contains(z.At(2025, time.June, 1, 14, 21, 7)))
	assert.True(t, w.Contains(z.At(2025, time.June, 1, 20, 0, 0)))
	assert.False(t, w.Contains(z.At(2025, time.June, 1, 20, 0, 1)))
}

func TestDayWindow_Validate(t *testing.T) {
	z := berlin(t)

	assert.NoError(t, DayWindow{Zone: z, StartHour: 8, EndHour: 20}.Validate())
	assert.Error(t, DayWindow{Zone: nil, StartHour: 8, EndHour: 20}.Validate())
	assert.Error(t, DayWindow{Zone: z, StartHour: 20, EndHour: 8}.Validate())
	assert.Error(t, DayWindow{Zone: z, StartHour: 12, EndHour: 12}.Validate())
	assert.Error(t, DayWindow{Zone: z, StartHour: -1, EndHour: 20}.Validate())
	assert.Error(t, DayWindow{Zone: z, StartHour: 8, EndHour: 25}.Validate())
}

func TestSameDay(t *testing.T) {
	z := berlin(t)

	// 23:30 and next-day 00:30 local straddle midnight.
	a := z.At(2025, time.June, 1, 23, 30, 0)
	b := z.At(2025, time.June, 2, 0, 30, 0)
	assert.False(t, z.SameDay(a, b))
	assert.True(t, z.SameDay(a, z.At(2025, time.June, 1, 0, 0, 1)))

	// Same UTC day, different Berlin day.
	utcLate := time.Date(2025, time.June, 1, 22, 30, 0, 0, time.UTC) // 00:30 June 2 Berlin
	utcNoon := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, z.SameDay(utcLate, utcNoon))
}
