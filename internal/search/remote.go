package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"mallfinder/pkg/models"
)

// ErrMatchServiceUnavailable wraps any transport or status failure from
// the external matcher. Callers treat it as "use exact matching only",
// never as a request failure.
var ErrMatchServiceUnavailable = errors.New("match service unavailable")

// MatchClient talks to an external fuzzy-matching service over HTTP.
// One POST resolves the whole batch against the full catalog, keeping
// cost and latency flat regardless of how many names the user typed.
type MatchClient struct {
	http *resty.Client
	url  string
}

func NewMatchClient(url string) *MatchClient {
	return &MatchClient{
		http: resty.New().SetTimeout(10 * time.Second),
		url:  url,
	}
}

type matchRequest struct {
	Queries []string `json:"queries"`
	Catalog []string `json:"catalog"`
}

type matchResponse struct {
	Matches []struct {
		Query string `json:"query"`
		Match string `json:"match"`
	} `json:"matches"`
}

func (c *MatchClient) MatchBatch(ctx context.Context, requested []string, catalog []models.Store) (map[string]string, error) {
	names := make([]string, len(catalog))
	for i, s := range catalog {
		names[i] = s.Name
	}

	var out matchResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(matchRequest{Queries: requested, Catalog: names}).
		SetResult(&out).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchServiceUnavailable, err)
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: status %d", ErrMatchServiceUnavailable, res.StatusCode())
	}

	resolved := make(map[string]string, len(out.Matches))
	for _, m := range out.Matches {
		resolved[m.Query] = m.Match
	}
	return resolved, nil
}
