package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance_etl/internal/feature/symbollist/domain/entity"
	"finance_etl/internal/feature/symbollist/usecase"
)

// mockSymbolRepository はSymbolRepositoryインターフェースのモック実装です。
type mockSymbolRepository struct {
	ListActiveFunc      func(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodesFunc func(ctx context.Context) ([]string, error)
}

func (m *mockSymbolRepository) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func (m *mockSymbolRepository) ListActiveCodes(ctx context.Context) ([]string, error) {
	if m.ListActiveCodesFunc != nil {
		return m.ListActiveCodesFunc(ctx)
	}
	return nil, nil
}

func TestSymbolUsecase_ListActiveSymbols(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		mockListActive  func(ctx context.Context) ([]entity.Symbol, error)
		expectedSymbols []entity.Symbol
		wantErr         bool
	}{
		{
			name: "success: returns list of active symbols",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return []entity.Symbol{{ID: 1, Code: "AAPL", Name: "Apple Inc", IsActive: true, SortKey: 1}}, nil
			},
			expectedSymbols: []entity.Symbol{{ID: 1, Code: "AAPL", Name: "Apple Inc", IsActive: true, SortKey: 1}},
		},
		{
			name: "failure: repository returns error",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return nil, errors.New("database connection failed")
			},
			wantErr: true,
		},
		{
			name: "failure: context canceled",
			mockListActive: func(ctx context.Context) ([]entity.Symbol, error) {
				return nil, context.Canceled
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uc := usecase.NewSymbolUsecase(&mockSymbolRepository{ListActiveFunc: tt.mockListActive})
			symbols, err := uc.ListActiveSymbols(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, symbols)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedSymbols, symbols)
		})
	}
}

func TestSymbolUsecase_ResolveSymbols(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configured []string
		stored     []string
		storeErr   error
		want       []string
		wantErr    error
	}{
		{
			name:       "configured symbols win and are normalized",
			configured: []string{" aapl", "IBM", "AAPL", ""},
			stored:     []string{"MSFT"},
			want:       []string{"AAPL", "IBM"},
		},
		{
			name:   "falls back to active rows",
			stored: []string{"msft", "GOOG"},
			want:   []string{"MSFT", "GOOG"},
		},
		{
			name:       "blank configuration falls back",
			configured: []string{" "},
			stored:     []string{"IBM"},
			want:       []string{"IBM"},
		},
		{
			name:    "nothing anywhere",
			wantErr: usecase.ErrNoSymbols,
		},
		{
			name:     "store failure",
			storeErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockSymbolRepository{ListActiveCodesFunc: func(context.Context) ([]string, error) {
				return tt.stored, tt.storeErr
			}}
			got, err := usecase.NewSymbolUsecase(repo).ResolveSymbols(context.Background(), tt.configured)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.storeErr != nil:
				require.ErrorIs(t, err, tt.storeErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
