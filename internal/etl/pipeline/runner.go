package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finance_etl/internal/etl/domain"
	"finance_etl/internal/etl/frame"
)

// State is the position of a run in the stage sequence.
type State int

const (
	StateCreated State = iota
	StateExtracted
	StateCleaned
	StateTransformed
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateExtracted:
		return "EXTRACTED"
	case StateCleaned:
		return "CLEANED"
	case StateTransformed:
		return "TRANSFORMED"
	case StateLoaded:
		return "LOADED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stage names used in events.
const (
	StageExtract   = "extract"
	StageClean     = "clean"
	StageTransform = "transform"
	StageLoad      = "load"
)

// Result は1回の実行結果です。失敗時も返され、State は最後に完了したステージを示します。
type Result struct {
	RunID     uuid.UUID
	Source    string
	Table     string
	State     State
	Extracted int // rows after extract
	Rows      int // rows handed to load
	Load      LoadStats
	Duration  time.Duration
}

// LoadStats はロード処理の結果です。
type LoadStats struct {
	CreatedTable bool
	Inserted     int64
}

// Runner はソースをステージごとに実行します。実行ごとの状態は持たないため、
// 1つの Runner で複数のソースを順に実行できます。
type Runner struct {
	store    Store
	reporter Reporter
	now      func() time.Time
}

// NewRunner は新しい Runner を作成します。reporter が nil の場合イベントは破棄されます。
func NewRunner(store Store, reporter Reporter) *Runner {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Runner{store: store, reporter: reporter, now: time.Now}
}

// Run は extract, clean, transform, load を順に実行し、最初の失敗で停止します。
// すべてのステージが成功しない限り何もコミットされません。
func (r *Runner) Run(ctx context.Context, src Source) (res Result, err error) {
	res = Result{RunID: uuid.New(), Source: src.Name(), Table: src.Table(), State: StateCreated}
	began := r.now()
	defer func() { res.Duration = r.now().Sub(began) }()

	buf, err := r.step(ctx, &res, StageExtract, func() (frame.Buffer, error) { return src.Extract(ctx) })
	if err != nil {
		return res, err
	}
	res.Extracted = buf.Len()

	buf, err = r.step(ctx, &res, StageClean, func() (frame.Buffer, error) { return src.Clean(buf) })
	if err != nil {
		return res, err
	}

	buf, err = r.step(ctx, &res, StageTransform, func() (frame.Buffer, error) { return src.Transform(buf) })
	if err != nil {
		return res, err
	}
	res.Rows = buf.Len()

	_, err = r.step(ctx, &res, StageLoad, func() (frame.Buffer, error) {
		stats, err := r.Load(ctx, src, buf)
		res.Load = stats
		return buf, err
	})
	if err != nil {
		return res, err
	}
	return res, nil
}

func (r *Runner) step(ctx context.Context, res *Result, stage string, fn func() (frame.Buffer, error)) (frame.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return frame.Buffer{}, fmt.Errorf("%s %s: %w", res.Source, stage, err)
	}
	ev := Event{RunID: res.RunID, Source: res.Source, Stage: stage, Status: StatusStarted}
	r.reporter.Report(ctx, ev)

	began := r.now()
	buf, err := fn()
	ev.Duration = r.now().Sub(began)
	if err != nil {
		ev.Status, ev.Err = StatusFailed, err
		r.reporter.Report(ctx, ev)
		return frame.Buffer{}, fmt.Errorf("%s %s: %w", res.Source, stage, err)
	}
	ev.Status, ev.Rows = StatusCompleted, buf.Len()
	r.reporter.Report(ctx, ev)
	res.State++
	return buf, nil
}

// Load はストアに接続し、テーブルが無ければ作成したうえで buf の全行を1つのトランザクションで
// 挿入します。接続はどの経路でも Load が戻る前に閉じられます。
func (r *Runner) Load(ctx context.Context, src Source, buf frame.Buffer) (stats LoadStats, err error) {
	conn, err := r.store.Connect(ctx)
	if err != nil {
		return stats, fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close connection: %w", cerr)
		}
	}()

	table := src.Table()
	exists, err := conn.HasTable(ctx, table)
	if err != nil {
		return stats, fmt.Errorf("check table %s: %w", table, err)
	}
	if !exists {
		if err := src.SetupTable(ctx, conn); err != nil {
			if !errors.Is(err, domain.ErrSchema) {
				err = &domain.SchemaError{Table: table, Err: err}
			}
			return stats, err
		}
		stats.CreatedTable = true
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("begin: %w", err)
	}
	// InsertRows が panic した場合もトランザクションを残さない
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	n, err := src.InsertRows(ctx, tx, buf)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return stats, fmt.Errorf("insert into %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit %s: %w", table, err)
	}
	stats.Inserted = n
	return stats, nil
}
