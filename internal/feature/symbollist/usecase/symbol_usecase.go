// Package usecase は銘柄一覧と、株価パイプラインが対象とする銘柄の解決を実装します。
package usecase

import (
	"context"
	"errors"
	"strings"

	"finance_etl/internal/feature/symbollist/domain/entity"
)

// ErrNoSymbols は設定にも symbols テーブルにも銘柄が無い場合に返されます。
var ErrNoSymbols = errors.New("no stock symbols configured and no active symbols stored")

// SymbolRepository は銘柄データの永続化レイヤーを抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// SymbolUsecase は銘柄に関するビジネスロジックを提供します。
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase は新しい SymbolUsecase を作成します。
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols は有効な銘柄をすべて返します。
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}

// ResolveSymbols は設定された銘柄を大文字化・重複除去して返します。
// 設定が空の場合は symbols テーブルの有効な銘柄コードを返します。
func (u *SymbolUsecase) ResolveSymbols(ctx context.Context, configured []string) ([]string, error) {
	out := normalize(configured)
	if len(out) > 0 {
		return out, nil
	}
	codes, err := u.repo.ListActiveCodes(ctx)
	if err != nil {
		return nil, err
	}
	if out = normalize(codes); len(out) == 0 {
		return nil, ErrNoSymbols
	}
	return out, nil
}

func normalize(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
