package incentive_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/incentive-engine/incentive"
)

func TestMonthPeriod_StartAndEnd(t *testing.T) {
	p, err := incentive.NewMonthPeriod(2025, 3)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), p.End())
	assert.Equal(t, "2025-03", p.String())
}

func TestMonthPeriod_LeapFebruary(t *testing.T) {
	p, err := incentive.NewMonthPeriod(2024, 2)
	require.NoError(t, err)
	assert.Equal(t, 29, p.End().Day())
}

func TestNewMonthPeriod_RejectsInvalidMonth(t *testing.T) {
	_, err := incentive.NewMonthPeriod(2025, 13)
	assert.ErrorIs(t, err, incentive.ErrInvalidPeriod)

	_, err = incentive.NewMonthPeriod(2025, 0)
	assert.ErrorIs(t, err, incentive.ErrInvalidPeriod)
}

func TestPreviousMonth_JanuaryWrapsYear(t *testing.T) {
	p := incentive.PreviousMonth(time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, 2024, p.Year)
	assert.Equal(t, time.December, p.Month)

	p = incentive.PreviousMonth(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2025, p.Year)
	assert.Equal(t, time.March, p.Month)
}

func TestMonthPeriod_Contains(t *testing.T) {
	p, _ := incentive.NewMonthPeriod(2025, 3)

	assert.True(t, p.Contains(time.Date(2025, time.March, 31, 23, 59, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDayPeriod_SingleDayWindow(t *testing.T) {
	from, to := incentive.DayPeriod(time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC))
	assert.Equal(t, from, to)
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), from)
}
