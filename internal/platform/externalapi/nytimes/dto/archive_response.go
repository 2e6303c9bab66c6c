// Package dto defines data transfer objects for the New York Times archive API.
package dto

// ArchiveResponse represents the JSON response of the archive endpoint.
type ArchiveResponse struct {
	Response struct {
		Docs []Doc `json:"docs"`
	} `json:"response"`
}

// Doc is one archived document.
type Doc struct {
	PubDate  string `json:"pub_date"`
	Snippet  string `json:"snippet"`
	Headline struct {
		Main string `json:"main"`
	} `json:"headline"`
	NewsDesk string `json:"news_desk"`
	Keywords []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"keywords"`
}
