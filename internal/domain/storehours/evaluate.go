package storehours

import (
	"fmt"
	"time"
)

// Evaluate は now をフィリピン時間に直して営業中かどうかを返す。
func Evaluate(s Schedule, now time.Time) Status {
	local := now.In(Location)
	wd := local.Weekday()
	secs := local.Hour()*3600 + local.Minute()*60 + local.Second()

	if today, ok := s.day(wd); ok {
		if open, closeAt, ok := interval(today); ok && open <= secs && secs < closeAt {
			return Status{IsOpen: true, Message: "Open until " + clockLabel(closeAt)}
		}
	}

	// 今日の残り → 翌日以降、7日後の同じ曜日まで
	for offset := 0; offset <= 7; offset++ {
		d, ok := s.day(time.Weekday((int(wd) + offset) % 7))
		if !ok {
			continue
		}
		open, _, ok := interval(d)
		if !ok {
			continue
		}
		if offset == 0 {
			if secs < open {
				return Status{Message: "Opens today at " + clockLabel(open)}
			}
			continue
		}
		return Status{Message: fmt.Sprintf("Opens %s at %s", d.DayOfWeek, clockLabel(open))}
	}

	return Status{Message: "Closed"}
}

func clockLabel(secs int) string {
	return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(secs) * time.Second).
		Format("3:04 PM")
}
