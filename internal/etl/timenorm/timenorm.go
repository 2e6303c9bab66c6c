// Package timenorm は外部APIの時刻文字列を、永続化するレコードが持つ2つの時刻項目
// (DD-MM-YYYY の日付とエポック秒) に変換します。
package timenorm

import (
	"strings"
	"time"

	"finance_etl/internal/etl/domain"
)

// DateLayout is the display layout of short_date.
const DateLayout = "02-01-2006"

// Layout groups are tried in order. The first group covers ISO-8601 with an explicit offset,
// the second the "YYYY-MM-DD HH:MM:SS" form, the third bare dates and offset-less datetimes.
// time.Parse accepts a fractional second after the seconds field even when the layout omits it.
var layoutChain = [][]string{
	{"2006-01-02T15:04:05Z0700", time.RFC3339},
	{time.DateTime},
	{"2006-01-02T15:04:05", time.DateOnly, "2006/01/02", DateLayout},
}

// Normalized is the pair of time fields derived from one input.
type Normalized struct {
	ShortDate string
	Timestamp int64
}

// Parse は s が表す時刻を返します。オフセットの無い入力は UTC として扱い、
// 明示的なオフセットは返す時刻にそのまま保持します。
func Parse(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	for _, group := range layoutChain {
		for _, layout := range group {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, &domain.FormatError{Input: s, Index: -1}
}

// ShortDate は t が持つオフセットでの日付を DD-MM-YYYY 形式で返します。
func ShortDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Normalize はすべての値を解析し、解析できない値があればその時点でエラーを返します。
func Normalize(values []string) ([]Normalized, error) {
	out := make([]Normalized, 0, len(values))
	for i, v := range values {
		t, err := Parse(v)
		if err != nil {
			return nil, &domain.FormatError{Input: v, Index: i}
		}
		out = append(out, Normalized{ShortDate: ShortDate(t), Timestamp: t.Unix()})
	}
	return out, nil
}

// ParseShortDate は DD-MM-YYYY 形式の値を UTC の0時として読み込みます。
func ParseShortDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &domain.FormatError{Input: s, Index: -1}
	}
	return t, nil
}
