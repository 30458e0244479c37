package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWindowRelativePeriods(t *testing.T) {
	tests := []struct {
		period   string
		daysBack int
	}{
		{PeriodOneDay, 1},
		{PeriodSevenDays, 7},
		{PeriodThirtyDays, 30},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			w := ResolveWindow(tt.period, nil, nil)

			require.NotNil(t, w.DateFrom)
			assert.Nil(t, w.DateTo)
			assert.Equal(t, 100, w.PageSize)
			assert.True(t, w.StopEarly)

			expected := time.Now().AddDate(0, 0, -tt.daysBack)
			assert.WithinDuration(t, expected, *w.DateFrom, 5*time.Second)
		})
	}
}

func TestResolveWindowTest(t *testing.T) {
	w := ResolveWindow(PeriodTest, nil, nil)

	assert.Nil(t, w.DateFrom)
	assert.Nil(t, w.DateTo)
	assert.Equal(t, 10, w.PageSize)
	assert.True(t, w.StopEarly)
}

func TestResolveWindowAllAndUnrecognized(t *testing.T) {
	for _, period := range []string{PeriodAll, "", "yesterday"} {
		w := ResolveWindow(period, nil, nil)

		assert.Nil(t, w.DateFrom)
		assert.Nil(t, w.DateTo)
		assert.Equal(t, 100, w.PageSize)
		assert.False(t, w.StopEarly, "period %q must paginate to the end", period)
	}
}

func TestResolveWindowCustomExpandsToWholeDays(t *testing.T) {
	day := time.Date(2024, 4, 28, 15, 4, 5, 0, time.UTC)
	w := ResolveWindow(PeriodCustom, &day, &day)

	require.NotNil(t, w.DateFrom)
	require.NotNil(t, w.DateTo)
	assert.Equal(t, "2024-04-28T00:00:00", w.DateFrom.Format("2006-01-02T15:04:05"))
	assert.Equal(t, "2024-04-28T23:59:59", w.DateTo.Format("2006-01-02T15:04:05"))
	assert.Equal(t, 100, w.PageSize)
	assert.True(t, w.StopEarly)
}
