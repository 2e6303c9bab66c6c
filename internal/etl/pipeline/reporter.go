package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Status of a stage in an Event.
type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Event はステージの開始・完了・失敗時に送られます。
type Event struct {
	RunID    uuid.UUID
	Source   string
	Stage    string
	Status   Status
	Rows     int
	Duration time.Duration
	Err      error
}

// Reporter はステージイベントを受け取ります。実装は実行をブロックしてはいけません。
type Reporter interface {
	Report(ctx context.Context, ev Event)
}

// NopReporter drops every event.
type NopReporter struct{}

func (NopReporter) Report(context.Context, Event) {}

// Reporters はイベントを複数の Reporter に順に配信します。
type Reporters []Reporter

func (rs Reporters) Report(ctx context.Context, ev Event) {
	for _, r := range rs {
		r.Report(ctx, ev)
	}
}

// LogReporter はイベントごとに1行のログを出力します。
type LogReporter struct {
	log zerolog.Logger
}

// NewLogReporter は新しい LogReporter を作成します。
func NewLogReporter(l zerolog.Logger) *LogReporter {
	return &LogReporter{log: l}
}

func (r *LogReporter) Report(_ context.Context, ev Event) {
	var e *zerolog.Event
	switch ev.Status {
	case StatusFailed:
		e = r.log.Error().Err(ev.Err)
	case StatusStarted:
		e = r.log.Debug()
	default:
		e = r.log.Info()
	}
	e.Str("run_id", ev.RunID.String()).
		Str("source", ev.Source).
		Str("stage", ev.Stage).
		Str("status", string(ev.Status))
	if ev.Status != StatusStarted {
		e.Int("rows", ev.Rows).Dur("duration", ev.Duration)
	}
	e.Msg("pipeline stage")
}
