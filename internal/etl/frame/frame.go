// Package frame はパイプラインの各ステージ間で受け渡すインメモリの表 Buffer を提供します。
// 行は位置で、列は名前で参照します。すべての操作は新しい Buffer を返し、レシーバは変更しません。
package frame

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"
)

// Floats は float 列を作成します。NaN は欠損値を表します。
func Floats(name string, values []float64) series.Series {
	return series.New(values, series.Float, name)
}

// Ints は整数列を作成します。
func Ints(name string, values []int) series.Series {
	return series.New(values, series.Int, name)
}

// Strings は文字列列を作成します。
func Strings(name string, values []string) series.Series {
	return series.New(values, series.String, name)
}

// Buffer は同じ列構成を持つレコードの順序付きの表です。
// ゼロ値は列を持たない空のバッファです。
type Buffer struct {
	df dataframe.DataFrame
}

// New は同じ長さの列からバッファを組み立てます。
func New(cols ...series.Series) (Buffer, error) {
	if len(cols) == 0 {
		return Buffer{}, nil
	}
	return wrap(dataframe.New(cols...), "new")
}

func wrap(df dataframe.DataFrame, op string) (Buffer, error) {
	if df.Err != nil {
		return Buffer{}, fmt.Errorf("frame %s: %w", op, df.Err)
	}
	return Buffer{df: df}, nil
}

// Len returns the number of rows.
func (b Buffer) Len() int {
	if b.df.Ncol() == 0 {
		return 0
	}
	return b.df.Nrow()
}

// Columns は列名を順に返します。
func (b Buffer) Columns() []string {
	if b.df.Ncol() == 0 {
		return nil
	}
	return b.df.Names()
}

// Has reports whether the buffer has a column called name.
func (b Buffer) Has(name string) bool {
	for _, c := range b.Columns() {
		if c == name {
			return true
		}
	}
	return false
}

func (b Buffer) col(name string) (series.Series, error) {
	if !b.Has(name) {
		return series.Series{}, fmt.Errorf("frame: unknown column %q", name)
	}
	return b.df.Col(name), nil
}

// Floats は列のコピーを float で返します。欠損セルは NaN です。
func (b Buffer) Floats(name string) ([]float64, error) {
	s, err := b.col(name)
	if err != nil {
		return nil, err
	}
	return s.Float(), nil
}

// Ints は整数列のコピーを返します。欠損セルがあるとエラーになります。
func (b Buffer) Ints(name string) ([]int, error) {
	s, err := b.col(name)
	if err != nil {
		return nil, err
	}
	v, err := s.Int()
	if err != nil {
		return nil, fmt.Errorf("frame: column %q: %w", name, err)
	}
	return v, nil
}

// Strings returns a copy of a column in its text form.
func (b Buffer) Strings(name string) ([]string, error) {
	s, err := b.col(name)
	if err != nil {
		return nil, err
	}
	return s.Records(), nil
}

// Append は b の後ろに other の行を連結します。
// 空のバッファへの Append は other をそのまま返します。
func (b Buffer) Append(other Buffer) (Buffer, error) {
	if b.df.Ncol() == 0 {
		return other, nil
	}
	if other.df.Ncol() == 0 {
		return b, nil
	}
	return wrap(b.df.RBind(other.df), "append")
}

// Set は列を追加します。同名の列があれば置き換えます。
func (b Buffer) Set(col series.Series) (Buffer, error) {
	if b.df.Ncol() == 0 {
		return New(col)
	}
	return wrap(b.df.Mutate(col), "set "+col.Name)
}

// Drop removes the named columns.
func (b Buffer) Drop(names ...string) (Buffer, error) {
	for _, n := range names {
		if !b.Has(n) {
			return Buffer{}, fmt.Errorf("frame drop: unknown column %q", n)
		}
	}
	return wrap(b.df.Drop(names), "drop")
}

// Rename changes a column name.
func (b Buffer) Rename(from, to string) (Buffer, error) {
	if !b.Has(from) {
		return Buffer{}, fmt.Errorf("frame rename: unknown column %q", from)
	}
	return wrap(b.df.Rename(to, from), "rename")
}

// Subset keeps the rows at the given positions, in that order.
func (b Buffer) Subset(rows []int) (Buffer, error) {
	if b.df.Ncol() == 0 {
		return b, nil
	}
	if len(rows) == 0 {
		cols := make([]series.Series, 0, b.df.Ncol())
		for _, name := range b.Columns() {
			s := b.df.Col(name)
			cols = append(cols, series.New([]string{}, s.Type(), name))
		}
		return New(cols...)
	}
	return wrap(b.df.Subset(rows), "subset")
}

// Where は col の値が keep を満たす行だけを残します。
func (b Buffer) Where(col string, keep func(string) bool) (Buffer, error) {
	vals, err := b.Strings(col)
	if err != nil {
		return Buffer{}, err
	}
	rows := make([]int, 0, len(vals))
	for i, v := range vals {
		if keep(v) {
			rows = append(rows, i)
		}
	}
	return b.Subset(rows)
}

// SortBy は col の昇順に行を並べ替えます (安定ソート)。数値列は値で、それ以外は文字列で比較します。
func (b Buffer) SortBy(col string) (Buffer, error) {
	s, err := b.col(col)
	if err != nil {
		return Buffer{}, err
	}
	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	switch s.Type() {
	case series.Float, series.Int:
		v := s.Float()
		sort.SliceStable(idx, func(i, j int) bool { return v[idx[i]] < v[idx[j]] })
	default:
		v := s.Records()
		sort.SliceStable(idx, func(i, j int) bool { return v[idx[i]] < v[idx[j]] })
	}
	return b.Subset(idx)
}

// Split は col の値ごとに行を分割します。キーは初出順、各グループ内の行順は維持されます。
func (b Buffer) Split(col string) ([]Buffer, error) {
	vals, err := b.Strings(col)
	if err != nil {
		return nil, err
	}
	var keys []string
	groups := map[string][]int{}
	for i, v := range vals {
		if _, ok := groups[v]; !ok {
			keys = append(keys, v)
		}
		groups[v] = append(groups[v], i)
	}
	parts := make([]Buffer, 0, len(keys))
	for _, k := range keys {
		p, err := b.Subset(groups[k])
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// MapStrings rewrites a text column cell by cell.
func (b Buffer) MapStrings(col string, fn func(string) (string, error)) (Buffer, error) {
	vals, err := b.Strings(col)
	if err != nil {
		return Buffer{}, err
	}
	for i, v := range vals {
		if vals[i], err = fn(v); err != nil {
			return Buffer{}, fmt.Errorf("frame map %s row %d: %w", col, i, err)
		}
	}
	return b.Set(Strings(col, vals))
}

// FillMean は各列の欠損セルをその列の平均値で埋めます。
// すべて欠損している列は 0 で埋めます。結果の列は float になります。
func (b Buffer) FillMean(cols ...string) (Buffer, error) {
	out := b
	for _, c := range cols {
		vals, err := out.Floats(c)
		if err != nil {
			return Buffer{}, err
		}
		var sum float64
		var n int
		for _, v := range vals {
			if !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		mean := 0.0
		if n > 0 {
			mean = sum / float64(n)
		}
		for i, v := range vals {
			if math.IsNaN(v) {
				vals[i] = mean
			}
		}
		if out, err = out.Set(Floats(c, vals)); err != nil {
			return Buffer{}, err
		}
	}
	return out, nil
}

// Round は各列を指定した小数桁数に丸めます。欠損と無限大のセルはそのままです。
func (b Buffer) Round(places int32, cols ...string) (Buffer, error) {
	out := b
	for _, c := range cols {
		vals, err := out.Floats(c)
		if err != nil {
			return Buffer{}, err
		}
		for i, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			vals[i] = decimal.NewFromFloat(v).Round(places).InexactFloat64()
		}
		if out, err = out.Set(Floats(c, vals)); err != nil {
			return Buffer{}, err
		}
	}
	return out, nil
}

// ToInt は各列を 0 方向への切り捨てで整数に変換します。
// 欠損セルはエラーになるため、先に補完してください。
func (b Buffer) ToInt(cols ...string) (Buffer, error) {
	out := b
	for _, c := range cols {
		vals, err := out.Floats(c)
		if err != nil {
			return Buffer{}, err
		}
		ints := make([]int, len(vals))
		for i, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Buffer{}, fmt.Errorf("frame: column %q row %d has no integer value", c, i)
			}
			ints[i] = int(v)
		}
		if out, err = out.Set(Ints(c, ints)); err != nil {
			return Buffer{}, err
		}
	}
	return out, nil
}

// Delta は col の value[i]/value[i-1] - 1 を out に格納します。行は時刻の昇順である必要があります。
func (b Buffer) Delta(col, out string) (Buffer, error) {
	return b.ShiftRatio(col, col, out)
}

// ShiftRatio は num[i]/den[i-1] - 1 を out に格納します。
// 先頭行と、直前の値が 0 または欠損の行は 0 になります。
func (b Buffer) ShiftRatio(num, den, out string) (Buffer, error) {
	n, err := b.Floats(num)
	if err != nil {
		return Buffer{}, err
	}
	d, err := b.Floats(den)
	if err != nil {
		return Buffer{}, err
	}
	res := make([]float64, len(n))
	for i := 1; i < len(n); i++ {
		prev := d[i-1]
		if prev == 0 || math.IsNaN(prev) {
			continue
		}
		r := n[i]/prev - 1
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		res[i] = r
	}
	return b.Set(Floats(out, res))
}
