package gtfs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"08:15:00", "08:15:00"},
		{"8:05:09", "08:05:09"},
		{"23:59:59", "23:59:59"},
		{"24:00:00", "00:00:00"},
		{"25:30:15", "01:30:15"},
		{"48:01:00", "00:01:00"},
	}

	for _, test := range tests {
		parsed, err := ParseTime(test.input)
		require.NoError(t, err, test.input)
		assert.Equal(t, test.expected, parsed.String(), test.input)
	}

	for _, invalid := range []string{"", "08:15", "aa:00:00", "08:61:00", "08:00:75"} {
		_, err := ParseTime(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestTimeOfDayAdd(t *testing.T) {
	assert.Equal(t, "00:30:00", NewTimeOfDay(23, 50, 0).Add(40*time.Minute).String())
	assert.Equal(t, "23:50:00", NewTimeOfDay(0, 10, 0).Add(-20*time.Minute).String())
}

func TestParseDate(t *testing.T) {
	date, err := ParseDate("20250704")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.July, 4), date)
	assert.Equal(t, time.Friday, date.Weekday())
	assert.Equal(t, "20250704", date.String())

	for _, invalid := range []string{"", "2025-07-04", "20251304", "2025074"} {
		_, err := ParseDate(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestDateCompare(t *testing.T) {
	a := NewDate(2025, time.January, 31)
	b := NewDate(2025, time.February, 1)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.Equal(t, b, a.AddDays(1))
}

func TestParseBool(t *testing.T) {
	value, err := ParseBool("1")
	require.NoError(t, err)
	assert.True(t, value)

	value, err = ParseBool("0")
	require.NoError(t, err)
	assert.False(t, value)

	_, err = ParseBool("yes")
	assert.Error(t, err)
}

func TestCalendarActiveOn(t *testing.T) {
	calendar := Calendar{
		ServiceID: "WKDY",
		StartDate: NewDate(2025, time.January, 1),
		EndDate:   NewDate(2025, time.December, 31),
	}
	for _, weekday := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday} {
		calendar.Days[weekday] = true
	}

	assert.True(t, calendar.ActiveOn(NewDate(2025, time.July, 4)))
	assert.False(t, calendar.ActiveOn(NewDate(2025, time.July, 6)))
	assert.False(t, calendar.ActiveOn(NewDate(2026, time.January, 2)))
	assert.True(t, calendar.ActiveOn(NewDate(2025, time.December, 31)))
}
