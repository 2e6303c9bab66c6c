// Package nytimes provides a client for the New York Times archive API.
package nytimes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"finance_etl/internal/feature/news/domain/entity"
	"finance_etl/internal/feature/news/usecase"
	"finance_etl/internal/platform/externalapi/apiclient"
	"finance_etl/internal/platform/externalapi/nytimes/dto"
)

const provider = "nytimes"

// DefaultBaseURL is the root of the archive API.
const DefaultBaseURL = "https://api.nytimes.com/svc/archive/v1"

// Config holds configuration for the archive client.
type Config struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url" default:"https://api.nytimes.com/svc/archive/v1"`
	Timeout time.Duration `yaml:"timeout" default:"30s"`
}

// LoadConfig loads archive configuration from environment variables.
func LoadConfig() Config {
	cfg := Config{
		APIKey:  os.Getenv("NYTIMES_API_KEY"),
		BaseURL: os.Getenv("NYTIMES_BASE_URL"),
		Timeout: 30 * time.Second,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return cfg
}

// Archive is the ArchiveSource backed by the archive API.
type Archive struct {
	cfg    Config
	client *http.Client
}

var _ usecase.ArchiveSource = (*Archive)(nil)

// NewArchive creates an Archive client.
func NewArchive(cfg Config, client *http.Client) *Archive {
	return &Archive{cfg: cfg, client: client}
}

// GetArchive returns every document of a month. Desk filtering is left to the caller.
func (a *Archive) GetArchive(ctx context.Context, year, month int) ([]entity.Article, error) {
	q := url.Values{}
	q.Set("api-key", a.cfg.APIKey)
	u := fmt.Sprintf("%s/%d/%d.json?%s", a.cfg.BaseURL, year, month, q.Encode())

	var body dto.ArchiveResponse
	if err := apiclient.GetJSON(ctx, a.client, provider, u, &body); err != nil {
		return nil, err
	}

	out := make([]entity.Article, 0, len(body.Response.Docs))
	for _, d := range body.Response.Docs {
		kw := make([]string, 0, len(d.Keywords))
		for _, k := range d.Keywords {
			kw = append(kw, k.Value)
		}
		out = append(out, entity.Article{
			PubDate:  d.PubDate,
			Snippet:  d.Snippet,
			Headline: d.Headline.Main,
			Desk:     d.NewsDesk,
			Keywords: kw,
		})
	}
	return out, nil
}
