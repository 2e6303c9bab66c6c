// Package usecase はニュースパイプラインと記事参照のユースケースを実装します。
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"finance_etl/internal/etl/domain"
	"finance_etl/internal/etl/frame"
	"finance_etl/internal/etl/pipeline"
	"finance_etl/internal/feature/news/domain/entity"
	"finance_etl/internal/shared/ratelimiter"
)

const (
	// PipelineName identifies the news pipeline in events and errors.
	PipelineName = "news"
	// Table is the table articles are loaded into.
	Table = "news"
)

// Buffer columns. keywords holds a JSON array of strings.
const (
	ColPubDate   = "pub_date"
	ColSnippet   = "snippet"
	ColHeadline  = "headline"
	ColKeywords  = "keywords"
	ColShortDate = pipeline.ColShortDate
	ColTimestamp = pipeline.ColTimestamp
)

// DefaultDesks は記事を残す対象のニュースデスクです。
var DefaultDesks = []string{
	"Business", "Foreign", "Business Day", "Financial",
	"National", "Small Business", "Technology", "World",
}

// ArchiveSource は1か月分のニュースアーカイブを取得するインターフェイスです。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type ArchiveSource interface {
	GetArchive(ctx context.Context, year, month int) ([]entity.Article, error)
}

// ArticleSink は news テーブルのスキーマと挿入を担当します。
type ArticleSink interface {
	Setup(ctx context.Context, conn pipeline.Conn) error
	Insert(ctx context.Context, tx pipeline.Tx, articles []entity.StoredArticle) (int64, error)
}

// Params はニュースパイプラインの設定です。開始月と終了月を含みます。
type Params struct {
	StartYear  int `validate:"min=1851,max=9999"`
	StartMonth int `validate:"min=1,max=12"`
	EndYear    int `validate:"min=1851,max=9999,gtefield=StartYear"`
	EndMonth   int `validate:"min=1,max=12"`
	// Desks overrides DefaultDesks when set.
	Desks []string `validate:"omitempty,dive,required"`
}

// NewsPipeline は指定した月の範囲のアーカイブ記事を取り込みます。
type NewsPipeline struct {
	archive ArchiveSource
	sink    ArticleSink
	limiter ratelimiter.Limiter
	params  Params
	desks   map[string]struct{}
}

var _ pipeline.Source = (*NewsPipeline)(nil)

// NewNewsPipeline はリクエストを送る前に params を検証します。
func NewNewsPipeline(archive ArchiveSource, sink ArticleSink, limiter ratelimiter.Limiter, params Params) (*NewsPipeline, error) {
	var extra []string
	if params.StartYear == params.EndYear && params.EndMonth < params.StartMonth {
		extra = append(extra, "EndMonth cannot be before StartMonth in the same year")
	}
	if err := pipeline.Validate(PipelineName, params, extra...); err != nil {
		return nil, err
	}
	if limiter == nil {
		limiter = ratelimiter.Unlimited{}
	}
	desks := params.Desks
	if len(desks) == 0 {
		desks = DefaultDesks
	}
	set := make(map[string]struct{}, len(desks))
	for _, d := range desks {
		set[d] = struct{}{}
	}
	return &NewsPipeline{archive: archive, sink: sink, limiter: limiter, params: params, desks: set}, nil
}

func (p *NewsPipeline) Name() string  { return PipelineName }
func (p *NewsPipeline) Table() string { return Table }

// MonthsBetween は start から end までの月を両端を含めて返します。
func MonthsBetween(start, end entity.YearMonth) []entity.YearMonth {
	var out []entity.YearMonth
	for ym := start; ym.Year < end.Year || (ym.Year == end.Year && ym.Month <= end.Month); {
		out = append(out, ym)
		ym.Month++
		if ym.Month > 12 {
			ym.Month = 1
			ym.Year++
		}
	}
	return out
}

// Extract は月ごとにアーカイブを取得し、許可されたデスクの記事だけを残します。
func (p *NewsPipeline) Extract(ctx context.Context) (frame.Buffer, error) {
	months := MonthsBetween(
		entity.YearMonth{Year: p.params.StartYear, Month: p.params.StartMonth},
		entity.YearMonth{Year: p.params.EndYear, Month: p.params.EndMonth},
	)

	var dates, snippets, headlines, keywords []string
	for _, ym := range months {
		if err := p.limiter.Wait(ctx); err != nil {
			return frame.Buffer{}, err
		}
		docs, err := p.archive.GetArchive(ctx, ym.Year, ym.Month)
		if err != nil {
			return frame.Buffer{}, &domain.SourceUnavailableError{
				Source: PipelineName,
				Key:    fmt.Sprintf("%04d-%02d", ym.Year, ym.Month),
				Err:    err,
			}
		}
		for _, a := range docs {
			if _, ok := p.desks[a.Desk]; !ok {
				continue
			}
			kw, err := encodeKeywords(a.Keywords)
			if err != nil {
				return frame.Buffer{}, err
			}
			dates = append(dates, a.PubDate)
			snippets = append(snippets, a.Snippet)
			headlines = append(headlines, a.Headline)
			keywords = append(keywords, kw)
		}
	}
	if len(dates) == 0 {
		return frame.Buffer{}, nil
	}
	return frame.New(
		frame.Strings(ColPubDate, dates),
		frame.Strings(ColSnippet, snippets),
		frame.Strings(ColHeadline, headlines),
		frame.Strings(ColKeywords, keywords),
	)
}

// Clean は文字列列とキーワードを小文字にし、snippet または headline が空の行を削除します。
func (p *NewsPipeline) Clean(buf frame.Buffer) (frame.Buffer, error) {
	if buf.Len() == 0 {
		return buf, nil
	}
	lower := func(s string) (string, error) { return strings.ToLower(s), nil }
	buf, err := buf.MapStrings(ColSnippet, lower)
	if err != nil {
		return frame.Buffer{}, err
	}
	if buf, err = buf.MapStrings(ColHeadline, lower); err != nil {
		return frame.Buffer{}, err
	}
	if buf, err = buf.MapStrings(ColKeywords, lowerKeywords); err != nil {
		return frame.Buffer{}, err
	}
	if buf, err = buf.Where(ColSnippet, pipeline.Present); err != nil {
		return frame.Buffer{}, err
	}
	return buf.Where(ColHeadline, pipeline.Present)
}

// Transform は pub_date を short_date と timestamp に置き換えます。
func (p *NewsPipeline) Transform(buf frame.Buffer) (frame.Buffer, error) {
	if buf.Len() == 0 {
		return buf, nil
	}
	return pipeline.WithTimeColumns(buf, ColPubDate)
}

// SetupTable は (timestamp, headline) のユニークインデックス付きで news テーブルを作成します。
func (p *NewsPipeline) SetupTable(ctx context.Context, conn pipeline.Conn) error {
	return p.sink.Setup(ctx, conn)
}

// InsertRows は変換済みバッファを挿入します。
func (p *NewsPipeline) InsertRows(ctx context.Context, tx pipeline.Tx, buf frame.Buffer) (int64, error) {
	articles, err := ArticlesFromBuffer(buf)
	if err != nil {
		return 0, err
	}
	return p.sink.Insert(ctx, tx, articles)
}

// ArticlesFromBuffer は変換済みバッファの行を読み取ります。
func ArticlesFromBuffer(buf frame.Buffer) ([]entity.StoredArticle, error) {
	if buf.Len() == 0 {
		return nil, nil
	}
	ts, err := buf.Ints(ColTimestamp)
	if err != nil {
		return nil, err
	}
	cols := map[string][]string{}
	for _, c := range []string{ColShortDate, ColSnippet, ColHeadline, ColKeywords} {
		if cols[c], err = buf.Strings(c); err != nil {
			return nil, err
		}
	}
	out := make([]entity.StoredArticle, len(ts))
	for i := range out {
		kw, err := decodeKeywords(cols[ColKeywords][i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = entity.StoredArticle{
			Timestamp: int64(ts[i]),
			ShortDate: cols[ColShortDate][i],
			Snippet:   cols[ColSnippet][i],
			Headline:  cols[ColHeadline][i],
			Keywords:  kw,
		}
	}
	return out, nil
}

func encodeKeywords(kw []string) (string, error) {
	if kw == nil {
		kw = []string{}
	}
	b, err := json.Marshal(kw)
	if err != nil {
		return "", fmt.Errorf("encode keywords: %w", err)
	}
	return string(b), nil
}

func decodeKeywords(s string) ([]string, error) {
	var kw []string
	if err := json.Unmarshal([]byte(s), &kw); err != nil {
		return nil, fmt.Errorf("decode keywords %q: %w", s, err)
	}
	return kw, nil
}

func lowerKeywords(s string) (string, error) {
	kw, err := decodeKeywords(s)
	if err != nil {
		return "", err
	}
	for i := range kw {
		kw[i] = strings.ToLower(kw[i])
	}
	return encodeKeywords(kw)
}
