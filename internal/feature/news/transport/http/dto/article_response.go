// Package dto defines the HTTP payloads of the news feature.
package dto

// ArticleResponse は記事のレスポンスDTOです。
type ArticleResponse struct {
	Date      string   `json:"date"` // DD-MM-YYYY
	Timestamp int64    `json:"timestamp"`
	Headline  string   `json:"headline"`
	Snippet   string   `json:"snippet"`
	Keywords  []string `json:"keywords"`
}

// ErrorResponse はエラーレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}
