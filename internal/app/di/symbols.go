package di

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	symboladapters "finance_etl/internal/feature/symbollist/adapters"
	"finance_etl/internal/feature/symbollist/domain/entity"
	symbolusecase "finance_etl/internal/feature/symbollist/usecase"
	"finance_etl/internal/platform/db"
)

// storedSymbols opens the database only when the symbols table is actually read,
// so a run with configured symbols never connects before the load stage.
type storedSymbols struct {
	open func() (*gorm.DB, error)
}

var _ symbolusecase.SymbolRepository = storedSymbols{}

func (s storedSymbols) with(fn func(r symbolusecase.SymbolRepository) error) error {
	gdb, err := s.open()
	if err != nil {
		return fmt.Errorf("open symbols store: %w", err)
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	return fn(symboladapters.NewSymbolRepository(gdb))
}

func (s storedSymbols) ListActive(ctx context.Context) (out []entity.Symbol, err error) {
	err = s.with(func(r symbolusecase.SymbolRepository) error {
		out, err = r.ListActive(ctx)
		return err
	})
	return out, err
}

func (s storedSymbols) ListActiveCodes(ctx context.Context) (out []string, err error) {
	err = s.with(func(r symbolusecase.SymbolRepository) error {
		out, err = r.ListActiveCodes(ctx)
		return err
	})
	return out, err
}

// NewSymbolResolver returns configured symbols as they are and otherwise reads the
// active rows of the symbols table in cfg's database.
func NewSymbolResolver(cfg db.Config) SymbolResolver {
	return symbolusecase.NewSymbolUsecase(storedSymbols{open: func() (*gorm.DB, error) { return db.Open(cfg) }})
}
