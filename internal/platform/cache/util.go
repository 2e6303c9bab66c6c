package cache

import (
	"time"
)

// TimeUntilNext は now から次の hour 時 (loc のローカル時刻) までの期間を返します。
// ちょうどその時刻の場合は翌日までの期間になります。
func TimeUntilNext(now time.Time, hour int, loc *time.Location) time.Duration {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// UntilNextRun はキャッシュを次回のETL実行時刻まで保持するTTLFuncを返します。
func UntilNextRun(hour int, loc *time.Location) TTLFunc {
	return func() time.Duration { return TimeUntilNext(time.Now(), hour, loc) }
}
