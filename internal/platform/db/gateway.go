package db

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finance_etl/internal/etl/domain"
	"finance_etl/internal/etl/pipeline"
)

// insertBatchSize is the number of rows per INSERT statement.
const insertBatchSize = 500

// Gateway opens one connection per load and closes it when the load is done.
type Gateway struct {
	cfg    Config
	opener func(string) (*gorm.DB, error)
}

var _ pipeline.Store = (*Gateway)(nil)

// NewGateway creates a Gateway for cfg.
func NewGateway(cfg Config) *Gateway {
	return &Gateway{cfg: cfg, opener: Opener(cfg.Driver)}
}

// NewGatewayWithOpener is NewGateway with a custom opener, used in tests.
func NewGatewayWithOpener(cfg Config, opener func(string) (*gorm.DB, error)) *Gateway {
	return &Gateway{cfg: cfg, opener: opener}
}

// Connect establishes a fresh connection.
func (g *Gateway) Connect(ctx context.Context) (pipeline.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := g.cfg.Timeout
	if timeout <= 0 {
		timeout = retryInterval
	}
	gdb, err := ConnectWithRetry(BuildDSN(g.cfg), timeout, g.opener)
	if err != nil {
		return nil, err
	}
	return &conn{db: gdb}, nil
}

type conn struct {
	db *gorm.DB
}

func (c *conn) HasTable(ctx context.Context, table string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.db.WithContext(ctx).Migrator().HasTable(table), nil
}

// Migrate runs outside any transaction: MySQL commits DDL implicitly.
func (c *conn) Migrate(ctx context.Context, models ...any) error {
	for _, m := range models {
		if err := c.db.WithContext(ctx).AutoMigrate(m); err != nil {
			return &domain.SchemaError{Table: tableName(m), Code: ErrorCode(err), Err: err}
		}
	}
	return nil
}

func (c *conn) Exec(ctx context.Context, stmt string, args ...any) error {
	return c.db.WithContext(ctx).Exec(stmt, args...).Error
}

func (c *conn) Begin(ctx context.Context) (pipeline.Tx, error) {
	tx := c.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &txn{db: tx}, nil
}

func (c *conn) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type txn struct {
	db *gorm.DB
}

// InsertIgnore inserts rows with ON CONFLICT DO NOTHING on the given key columns.
// gorm's MySQL dialect renders the same clause as ON DUPLICATE KEY UPDATE on the primary key.
func (t *txn) InsertIgnore(ctx context.Context, rows any, keys ...string) (int64, error) {
	if isEmpty(rows) {
		return 0, nil
	}
	cols := make([]clause.Column, len(keys))
	for i, k := range keys {
		cols[i] = clause.Column{Name: k}
	}
	res := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: cols, DoNothing: true}).
		CreateInBatches(rows, insertBatchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (t *txn) Commit() error   { return t.db.Commit().Error }
func (t *txn) Rollback() error { return t.db.Rollback().Error }

// ErrorCode extracts the SQLSTATE (PostgreSQL) or error number (MySQL) from err.
func ErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return strconv.Itoa(int(myErr.Number))
	}
	return ""
}

func tableName(model any) string {
	if t, ok := model.(interface{ TableName() string }); ok {
		return t.TableName()
	}
	return fmt.Sprintf("%T", model)
}

// isEmpty reports whether rows is a nil value or points to an empty slice.
func isEmpty(rows any) bool {
	v := reflect.ValueOf(rows)
	if !v.IsValid() {
		return true
	}
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	return v.Kind() == reflect.Slice && v.Len() == 0
}
