// Package apiclient holds the request plumbing shared by the provider clients.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http %d", e.Provider, e.Code)
}

// GetJSON issues a GET request to u and decodes the JSON body into out.
func GetJSON(ctx context.Context, client *http.Client, provider, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Warn().Err(err).Str("provider", provider).Msg("failed to close response body")
		}
	}()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &StatusError{Provider: provider, Code: res.StatusCode}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", provider, err)
	}
	return nil
}
