// Package pipeline は Source を extract, clean, transform, load の順に実行し、
// 全ソース共通の冪等なロード処理を提供します。
package pipeline

import (
	"context"

	"finance_etl/internal/etl/frame"
)

// Source はデータ提供元ごとの ETL ステージの実装です。
// 各ステージは前のステージが作ったバッファを受け取り、次のバッファを返します。
type Source interface {
	// Name identifies the source in events and errors.
	Name() string
	// Table is the persisted table the source loads into.
	Table() string

	// Extract pulls every field Clean and Transform need from the upstream provider.
	Extract(ctx context.Context) (frame.Buffer, error)
	// Clean drops malformed rows, fills missing numbers and coerces types. It must be idempotent.
	Clean(buf frame.Buffer) (frame.Buffer, error)
	// Transform adds the normalized time fields and derived columns and drops raw ones.
	Transform(buf frame.Buffer) (frame.Buffer, error)

	// SetupTable creates the table and its unique identity index.
	SetupTable(ctx context.Context, conn Conn) error
	// InsertRows upserts every row of buf and returns how many rows were new.
	InsertRows(ctx context.Context, tx Tx, buf frame.Buffer) (int64, error)
}

// Store はリレーショナルストアへの接続を払い出します。
type Store interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn is a connection held for the duration of one load.
type Conn interface {
	HasTable(ctx context.Context, table string) (bool, error)
	// Migrate creates the tables and indexes described by the given models.
	Migrate(ctx context.Context, models ...any) error
	Exec(ctx context.Context, stmt string, args ...any) error
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// Tx はロードした行をコミットする単位です。
type Tx interface {
	// InsertIgnore inserts rows (a pointer to a slice of models) and leaves any row whose
	// identity key already exists untouched. It returns the number of inserted rows.
	InsertIgnore(ctx context.Context, rows any, keys ...string) (int64, error)
	Commit() error
	Rollback() error
}
