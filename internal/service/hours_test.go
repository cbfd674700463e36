package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jesses-code-adventures/tims/internal/database"
)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func TestCalculatePeriodRange(t *testing.T) {
	s := &TimesheetService{now: func() time.Time { return testNow }}
	sunday := at(2024, 3, 10, 18, 30)

	tests := []struct {
		period string
		target time.Time
		start  time.Time
		next   time.Time
	}{
		{"day", sunday, at(2024, 3, 10, 0, 0), at(2024, 3, 11, 0, 0)},
		{"week", sunday, at(2024, 3, 4, 0, 0), at(2024, 3, 11, 0, 0)},
		{"week", at(2024, 3, 4, 0, 0), at(2024, 3, 4, 0, 0), at(2024, 3, 11, 0, 0)},
		{"fortnight", sunday, at(2024, 3, 4, 0, 0), at(2024, 3, 18, 0, 0)},
		{"month", sunday, at(2024, 3, 1, 0, 0), at(2024, 4, 1, 0, 0)},
		{"month", at(2024, 12, 31, 23, 59), at(2024, 12, 1, 0, 0), at(2025, 1, 1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.period+" "+tt.target.Format(dateLayout), func(t *testing.T) {
			start, next, err := s.CalculatePeriodRange(tt.period, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.next, next)
		})
	}

	_, _, err := s.CalculatePeriodRange("decade", sunday)
	assert.ErrorContains(t, err, "unknown period")
}

func TestResolveRange(t *testing.T) {
	s := &TimesheetService{now: func() time.Time { return testNow }}

	rng, err := s.ResolveRange("", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, database.Range{Start: at(2024, 3, 4, 0, 0).Unix(), End: at(2024, 3, 11, 0, 0).Unix()}, rng)

	rng, err = s.ResolveRange("month", "2024-02-10", "", "")
	require.NoError(t, err)
	assert.Equal(t, database.Range{Start: at(2024, 2, 1, 0, 0).Unix(), End: at(2024, 3, 1, 0, 0).Unix()}, rng)

	rng, err = s.ResolveRange("week", "", "2024-03-01", "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, database.Range{Start: at(2024, 3, 1, 0, 0).Unix(), End: at(2024, 3, 6, 0, 0).Unix()}, rng)

	rng, err = s.ResolveRange("", "", "2024-03-01 09:30", "")
	require.NoError(t, err)
	assert.Equal(t, database.Range{Start: at(2024, 3, 1, 9, 30).Unix()}, rng)

	rng, err = s.ResolveRange("", "", "", "08:15")
	require.NoError(t, err)
	assert.Equal(t, database.Range{End: at(2024, 3, 6, 8, 15).Unix()}, rng)

	_, err = s.ResolveRange("", "", "2024-03-05", "2024-03-01")
	assert.ErrorContains(t, err, "after its start")

	_, err = s.ResolveRange("", "", "yesterday", "")
	assert.ErrorContains(t, err, "invalid from")

	_, err = s.ResolveRange("", "03/05/2024", "", "")
	assert.ErrorContains(t, err, "invalid date format")
}
