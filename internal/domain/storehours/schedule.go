// Package storehours は週ごとの営業時間から開店/閉店を判定する。
package storehours

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// フィリピン時間(UTC+8)固定
var Location = time.FixedZone("PHT", 8*60*60)

const endOfDay = 24 * 60 * 60

var (
	ErrInvalidClock    = errors.New("time must be HH:MM or HH:MM:SS")
	ErrInvalidSchedule = errors.New("invalid store hours")
)

type Day struct {
	DayOfWeek time.Weekday `json:"day_of_week"`
	IsOpen    bool         `json:"is_open"`
	OpenTime  string       `json:"open_time"`
	CloseTime string       `json:"close_time"`
}

type Schedule []Day

type Status struct {
	IsOpen  bool   `json:"is_open"`
	Message string `json:"message"`
}

// AllClosed は設定が何もないときのフォールバック。
func AllClosed() Schedule {
	s := make(Schedule, 0, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		s = append(s, Day{DayOfWeek: wd, OpenTime: "00:00:00", CloseTime: "00:00:00"})
	}
	return s
}

// ParseClock は "HH:MM" / "HH:MM:SS" を0時からの秒数にする。
func ParseClock(v string) (int, error) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, ErrInvalidClock
	}

	nums := make([]int, 3)
	for i, p := range parts {
		if len(p) != 2 {
			return 0, ErrInvalidClock
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, ErrInvalidClock
		}
		nums[i] = n
	}

	h, m, sec := nums[0], nums[1], nums[2]
	if m > 59 || sec > 59 {
		return 0, ErrInvalidClock
	}
	if h == 24 && m == 0 && sec == 0 {
		return endOfDay, nil
	}
	if h > 23 {
		return 0, ErrInvalidClock
	}
	return h*3600 + m*60 + sec, nil
}

// NormalizeClock は保存形式 "HH:MM:SS" にそろえる。
func NormalizeClock(v string) (string, error) {
	secs, err := ParseClock(v)
	if err != nil {
		return "", err
	}
	if secs == endOfDay {
		return "00:00:00", nil
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60), nil
}

// Validate は曜日が0..6でちょうど1件ずつあるかと、時刻の妥当性を見る。
func (s Schedule) Validate() error {
	if len(s) != 7 {
		return fmt.Errorf("%w: expected 7 days, got %d", ErrInvalidSchedule, len(s))
	}
	seen := map[time.Weekday]bool{}
	for _, d := range s {
		if d.DayOfWeek < time.Sunday || d.DayOfWeek > time.Saturday {
			return fmt.Errorf("%w: day_of_week %d out of range", ErrInvalidSchedule, d.DayOfWeek)
		}
		if seen[d.DayOfWeek] {
			return fmt.Errorf("%w: duplicate day_of_week %d", ErrInvalidSchedule, d.DayOfWeek)
		}
		seen[d.DayOfWeek] = true

		if !d.IsOpen {
			continue
		}
		if _, err := ParseClock(d.OpenTime); err != nil {
			return fmt.Errorf("%w: %s open_time: %v", ErrInvalidSchedule, d.DayOfWeek, err)
		}
		if _, err := ParseClock(d.CloseTime); err != nil {
			return fmt.Errorf("%w: %s close_time: %v", ErrInvalidSchedule, d.DayOfWeek, err)
		}
		if _, _, ok := interval(d); !ok {
			return fmt.Errorf("%w: %s open_time must be before close_time", ErrInvalidSchedule, d.DayOfWeek)
		}
	}
	return nil
}

func (s Schedule) day(wd time.Weekday) (Day, bool) {
	for _, d := range s {
		if d.DayOfWeek == wd {
			return d, true
		}
	}
	return Day{}, false
}

// interval は営業している日の [open, close) を秒で返す。
// 閉店 00:00 は 24:00 として扱う。
func interval(d Day) (int, int, bool) {
	if !d.IsOpen {
		return 0, 0, false
	}
	open, err := ParseClock(d.OpenTime)
	if err != nil {
		return 0, 0, false
	}
	closeAt, err := ParseClock(d.CloseTime)
	if err != nil {
		return 0, 0, false
	}
	if closeAt == 0 {
		closeAt = endOfDay
	}
	if open >= closeAt {
		return 0, 0, false
	}
	return open, closeAt, true
}
