package pipeline

import (
	"finance_etl/internal/etl/frame"
	"finance_etl/internal/etl/timenorm"
)

// Normalized time columns added by WithTimeColumns.
const (
	ColShortDate = "short_date"
	ColTimestamp = "timestamp"
)

// WithTimeColumns は生の時刻列 col を short_date (DD-MM-YYYY) と timestamp (エポック秒) に変換し、
// col を削除します。解析できないセルがあると行番号付きの *domain.FormatError を返します。
func WithTimeColumns(buf frame.Buffer, col string) (frame.Buffer, error) {
	raw, err := buf.Strings(col)
	if err != nil {
		return frame.Buffer{}, err
	}
	norm, err := timenorm.Normalize(raw)
	if err != nil {
		return frame.Buffer{}, err
	}
	dates := make([]string, len(norm))
	ts := make([]int, len(norm))
	for i, n := range norm {
		dates[i], ts[i] = n.ShortDate, int(n.Timestamp)
	}
	if buf, err = buf.Set(frame.Strings(ColShortDate, dates)); err != nil {
		return frame.Buffer{}, err
	}
	if buf, err = buf.Set(frame.Ints(ColTimestamp, ts)); err != nil {
		return frame.Buffer{}, err
	}
	return buf.Drop(col)
}

// Present は文字列セルに値が入っているかを返します。
func Present(s string) bool { return s != "" && s != "NaN" }
