package storehours_test

import (
	"testing"
	"time"

	"merkado/internal/domain/storehours"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-03-03 は月曜
func at(day, hour, minute int) time.Time {
	return time.Date(2025, 3, day, hour, minute, 0, 0, storehours.Location)
}

func weekdaysNineToFive() storehours.Schedule {
	s := storehours.AllClosed()
	for i := range s {
		if s[i].DayOfWeek >= time.Monday && s[i].DayOfWeek <= time.Friday {
			s[i].IsOpen = true
			s[i].OpenTime = "09:00:00"
			s[i].CloseTime = "17:00:00"
		}
	}
	return s
}

func TestEvaluate_OpenWithinInterval(t *testing.T) {
	st := storehours.Evaluate(weekdaysNineToFive(), at(3, 10, 0))
	assert.True(t, st.IsOpen)
	assert.Equal(t, "Open until 5:00 PM", st.Message)
}

func TestEvaluate_OpenBoundaryInclusiveCloseExclusive(t *testing.T) {
	assert.True(t, storehours.Evaluate(weekdaysNineToFive(), at(3, 9, 0)).IsOpen)
	assert.False(t, storehours.Evaluate(weekdaysNineToFive(), at(3, 17, 0)).IsOpen)
}

func TestEvaluate_AfterCloseNamesNextDay(t *testing.T) {
	st := storehours.Evaluate(weekdaysNineToFive(), at(3, 18, 0))
	assert.False(t, st.IsOpen)
	assert.Equal(t, "Opens Tuesday at 9:00 AM", st.Message)
}

func TestEvaluate_BeforeOpenToday(t *testing.T) {
	st := storehours.Evaluate(weekdaysNineToFive(), at(3, 7, 30))
	assert.False(t, st.IsOpen)
	assert.Equal(t, "Opens today at 9:00 AM", st.Message)
}

func TestEvaluate_WeekendScansForward(t *testing.T) {
	// 金曜夜 → 月曜
	st := storehours.Evaluate(weekdaysNineToFive(), at(7, 20, 0))
	assert.False(t, st.IsOpen)
	assert.Equal(t, "Opens Monday at 9:00 AM", st.Message)
}

func TestEvaluate_SingleDayWrapsToNextWeek(t *testing.T) {
	s := storehours.AllClosed()
	s[time.Monday].IsOpen = true
	s[time.Monday].OpenTime = "09:00"
	s[time.Monday].CloseTime = "17:00"

	st := storehours.Evaluate(s, at(3, 18, 0))
	assert.False(t, st.IsOpen)
	assert.Equal(t, "Opens Monday at 9:00 AM", st.Message)
}

func TestEvaluate_MidnightCloseMeansEndOfDay(t *testing.T) {
	s := storehours.AllClosed()
	s[time.Monday].IsOpen = true
	s[time.Monday].OpenTime = "18:00:00"
	s[time.Monday].CloseTime = "00:00:00"

	st := storehours.Evaluate(s, at(3, 23, 30))
	assert.True(t, st.IsOpen)
	assert.Equal(t, "Open until 12:00 AM", st.Message)

	assert.False(t, storehours.Evaluate(s, at(3, 17, 59)).IsOpen)
}

func TestEvaluate_AllClosed(t *testing.T) {
	st := storehours.Evaluate(storehours.AllClosed(), at(3, 12, 0))
	assert.False(t, st.IsOpen)
	assert.Equal(t, "Closed", st.Message)

	st = storehours.Evaluate(nil, at(3, 12, 0))
	assert.Equal(t, "Closed", st.Message)
}

func TestEvaluate_ConvertsToPhilippineTime(t *testing.T) {
	// UTC 01:00 月曜 = PHT 09:00 月曜
	now := time.Date(2025, 3, 3, 1, 0, 0, 0, time.UTC)
	assert.True(t, storehours.Evaluate(weekdaysNineToFive(), now).IsOpen)

	// UTC 23:00 日曜 = PHT 07:00 月曜
	now = time.Date(2025, 3, 2, 23, 0, 0, 0, time.UTC)
	st := storehours.Evaluate(weekdaysNineToFive(), now)
	assert.False(t, st.IsOpen)
	assert.Equal(t, "Opens today at 9:00 AM", st.Message)
}

func TestEvaluate_InvalidTimesTreatedAsClosed(t *testing.T) {
	s := weekdaysNineToFive()
	s[time.Monday].OpenTime = "nine"

	st := storehours.Evaluate(s, at(3, 10, 0))
	assert.False(t, st.IsOpen)
	assert.Equal(t, "Opens Tuesday at 9:00 AM", st.Message)
}

func TestParseClock(t *testing.T) {
	cases := map[string]int{
		"00:00":    0,
		"09:30":    9*3600 + 30*60,
		"17:00:15": 17*3600 + 15,
		"24:00":    24 * 3600,
	}
	for in, want := range cases {
		got, err := storehours.ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "9:00", "25:00", "12:60", "12:00:61", "aa:bb", "24:01", "12"} {
		_, err := storehours.ParseClock(bad)
		assert.ErrorIs(t, err, storehours.ErrInvalidClock, bad)
	}
}

func TestNormalizeClock(t *testing.T) {
	got, err := storehours.NormalizeClock("09:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05:00", got)

	got, err = storehours.NormalizeClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, "00:00:00", got)
}

func TestSchedule_Validate(t *testing.T) {
	require.NoError(t, weekdaysNineToFive().Validate())

	short := weekdaysNineToFive()[:6]
	assert.ErrorIs(t, short.Validate(), storehours.ErrInvalidSchedule)

	dup := weekdaysNineToFive()
	dup[6].DayOfWeek = time.Monday
	assert.ErrorIs(t, dup.Validate(), storehours.ErrInvalidSchedule)

	inverted := weekdaysNineToFive()
	inverted[time.Monday].OpenTime = "18:00:00"
	inverted[time.Monday].CloseTime = "08:00:00"
	assert.ErrorIs(t, inverted.Validate(), storehours.ErrInvalidSchedule)

	badClock := weekdaysNineToFive()
	badClock[time.Tuesday].CloseTime = "5pm"
	assert.ErrorIs(t, badClock.Validate(), storehours.ErrInvalidSchedule)

	// 休業日は時刻を見ない
	closedJunk := weekdaysNineToFive()
	closedJunk[time.Sunday].OpenTime = "junk"
	assert.NoError(t, closedJunk.Validate())
}
