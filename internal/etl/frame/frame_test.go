package frame

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// must はテスト用のバッファ構築に失敗した場合 panic します。
func must(b Buffer, err error) Buffer {
	if err != nil {
		panic(err)
	}
	return b
}

func TestBuffer_FillMean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{"fills the gap with the mean of present cells", []float64{10, math.NaN(), 30}, []float64{10, 20, 30}},
		{"nothing missing is a no-op", []float64{1, 2, 3}, []float64{1, 2, 3}},
		{"all missing falls back to zero", []float64{math.NaN(), math.NaN()}, []float64{0, 0}},
		{"order of rows does not change the fill", []float64{30, math.NaN(), 10}, []float64{30, 20, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := must(New(Floats("open", tt.values)))
			got, err := b.FillMean("open")
			require.NoError(t, err)

			vals, err := got.Floats("open")
			require.NoError(t, err)
			assert.Equal(t, tt.want, vals)
		})
	}
}

func TestBuffer_Delta(t *testing.T) {
	t.Parallel()

	b := must(New(Floats("close", []float64{100, 110, 99})))
	got, err := b.Delta("close", "close_delta")
	require.NoError(t, err)

	deltas, err := got.Floats("close_delta")
	require.NoError(t, err)
	require.Len(t, deltas, 3)
	assert.Equal(t, 0.0, deltas[0], "first row has no predecessor")
	assert.InDelta(t, 0.10, deltas[1], 1e-9)
	assert.InDelta(t, -0.10, deltas[2], 1e-9)

	// the source column is untouched
	closes, err := got.Floats("close")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 110, 99}, closes)
}

func TestBuffer_ShiftRatio_ZeroPredecessor(t *testing.T) {
	t.Parallel()

	b := must(New(
		Floats("open", []float64{5, 6, 8}),
		Floats("close", []float64{0, 4, 2}),
	))
	got, err := b.ShiftRatio("open", "close", "ret")
	require.NoError(t, err)

	ret, err := got.Floats("ret")
	require.NoError(t, err)
	assert.Equal(t, 0.0, ret[0])
	assert.Equal(t, 0.0, ret[1], "division by a zero close yields 0")
	assert.InDelta(t, 1.0, ret[2], 1e-9)
}

func TestBuffer_Append(t *testing.T) {
	t.Parallel()

	first := must(New(Strings("symbol", []string{"AAPL"}), Floats("open", []float64{1})))
	second := must(New(Strings("symbol", []string{"MSFT", "MSFT"}), Floats("open", []float64{2, 3})))

	var acc Buffer
	acc, err := acc.Append(first)
	require.NoError(t, err)
	acc, err = acc.Append(second)
	require.NoError(t, err)

	assert.Equal(t, 3, acc.Len())
	syms, err := acc.Strings("symbol")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "MSFT"}, syms)

	_, err = first.Append(must(New(Strings("other", []string{"x"}))))
	assert.Error(t, err, "column sets must match")
}

func TestBuffer_RoundAndToInt(t *testing.T) {
	t.Parallel()

	b := must(New(
		Floats("price", []float64{1.23456, 2.5}),
		Floats("volume", []float64{10.9, 20}),
	))

	rounded, err := b.Round(2, "price")
	require.NoError(t, err)
	prices, err := rounded.Floats("price")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.23, 2.5}, prices)

	ints, err := rounded.ToInt("volume")
	require.NoError(t, err)
	vols, err := ints.Ints("volume")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, vols)

	// coercion is idempotent
	again, err := ints.ToInt("volume")
	require.NoError(t, err)
	vols, err = again.Ints("volume")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, vols)
}

func TestBuffer_ToInt_Missing(t *testing.T) {
	t.Parallel()

	b := must(New(Floats("volume", []float64{1, math.NaN()})))
	_, err := b.ToInt("volume")
	assert.Error(t, err)
}

func TestBuffer_WhereAndMap(t *testing.T) {
	t.Parallel()

	b := must(New(
		Strings("headline", []string{"Markets Rally", "", "Fed Holds"}),
		Floats("n", []float64{1, 2, 3}),
	))

	got, err := b.Where("headline", func(s string) bool { return s != "" })
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	got, err = got.MapStrings("headline", func(s string) (string, error) { return strings.ToLower(s), nil })
	require.NoError(t, err)
	heads, err := got.Strings("headline")
	require.NoError(t, err)
	assert.Equal(t, []string{"markets rally", "fed holds"}, heads)

	none, err := b.Where("headline", func(string) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())
	assert.Equal(t, b.Columns(), none.Columns())
}

func TestBuffer_SortSplitRenameDrop(t *testing.T) {
	t.Parallel()

	b := must(New(
		Strings("symbol", []string{"B", "A", "B", "A"}),
		Ints("ts", []int{20, 20, 10, 10}),
	))

	sorted, err := b.SortBy("ts")
	require.NoError(t, err)
	ts, err := sorted.Ints("ts")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 20, 20}, ts)
	syms, err := sorted.Strings("symbol")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "B", "A"}, syms, "sort is stable")

	parts, err := b.Split("symbol")
	require.NoError(t, err)
	require.Len(t, parts, 2)
	first, err := parts[0].Ints("ts")
	require.NoError(t, err)
	assert.Equal(t, []int{20, 10}, first)

	renamed, err := b.Rename("ts", "timestamp")
	require.NoError(t, err)
	assert.True(t, renamed.Has("timestamp"))
	assert.False(t, renamed.Has("ts"))

	dropped, err := renamed.Drop("symbol")
	require.NoError(t, err)
	assert.Equal(t, []string{"timestamp"}, dropped.Columns())

	_, err = b.Drop("missing")
	assert.Error(t, err)
}

func TestBuffer_Empty(t *testing.T) {
	t.Parallel()

	var b Buffer
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Columns())
	_, err := b.Floats("open")
	assert.Error(t, err)
}
