package warehouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewDimDate(t *testing.T) {
	tests := []struct {
		date      string
		key       int
		quarter   int
		dayOfWeek int
		weekend   bool
	}{
		{"2024-01-01", 20240101, 1, 1, false}, // Monday
		{"2024-01-05", 20240105, 1, 5, false}, // Friday
		{"2024-01-06", 20240106, 1, 6, true},  // Saturday
		{"2024-01-07", 20240107, 1, 7, true},  // Sunday
		{"2024-04-01", 20240401, 2, 1, false},
		{"2024-09-30", 20240930, 3, 1, false},
		{"2025-12-31", 20251231, 4, 3, false},
		{"2024-02-29", 20240229, 1, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d := NewDimDate(day(tt.date))
			assert.Equal(t, tt.key, d.Key)
			assert.Equal(t, tt.quarter, d.Quarter)
			assert.Equal(t, tt.dayOfWeek, d.DayOfWeek)
			assert.Equal(t, tt.weekend, d.IsWeekend)
			assert.Equal(t, tt.date, d.Date.Format(time.DateOnly))
		})
	}
}

func TestNewDimDateIgnoresTimeOfDay(t *testing.T) {
	d := NewDimDate(time.Date(2024, 3, 15, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, 20240315, d.Key)
	assert.Equal(t, 2024, d.Year)
	assert.Equal(t, 3, d.Month)
	assert.Equal(t, 15, d.Day)
	assert.True(t, d.Date.Equal(day("2024-03-15")))
}

func TestDateRange(t *testing.T) {
	days, err := DateRange(day("2024-01-01"), day("2024-01-07"))
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.Equal(t, 20240101, days[0].Key)
	assert.Equal(t, 20240107, days[6].Key)

	var weekend int
	for _, d := range days {
		if d.IsWeekend {
			weekend++
		}
	}
	assert.Equal(t, 2, weekend)
}

func TestDateRangeSingleDay(t *testing.T) {
	days, err := DateRange(day("2024-02-29"), day("2024-02-29"))
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func TestDateRangeReversed(t *testing.T) {
	_, err := DateRange(day("2024-01-07"), day("2024-01-01"))
	assert.Error(t, err)
}

func TestDateRangeAcrossLeapYear(t *testing.T) {
	days, err := DateRange(day("2024-01-01"), day("2024-12-31"))
	require.NoError(t, err)
	assert.Len(t, days, 366)
}
