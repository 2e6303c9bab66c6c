// Package entity defines the domain models for the news feature.
package entity

// Article is one archive document as returned by the archive provider.
type Article struct {
	PubDate  string
	Snippet  string
	Headline string
	Desk     string // news desk the article was filed under
	Keywords []string
}

// StoredArticle is a cleaned article, identified by (Timestamp, Headline).
type StoredArticle struct {
	Timestamp int64
	ShortDate string // DD-MM-YYYY
	Snippet   string
	Headline  string
	Keywords  []string
}

// YearMonth addresses one month of the archive.
type YearMonth struct {
	Year  int
	Month int
}
