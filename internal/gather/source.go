package gather

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"mallfinder/pkg/utils"
)

// RawMall is a mall as one source reports it, before normalization.
type RawMall struct {
	Name    string
	Slug    string
	Address string
	Website string
}

// RawStore is one entry of a mall's store directory, before
// normalization. Category is still in the source's own taxonomy.
type RawStore struct {
	Name     string
	Category string
	Unit     string
}

// MallSource is implemented by each external directory site. The
// gatherer enumerates Malls once per run, then fetches Stores mall by
// mall; every call hits the network, there is no caching.
type MallSource interface {
	Name() string
	Malls(ctx context.Context) ([]RawMall, error)
	Stores(ctx context.Context, mall RawMall) ([]RawStore, error)
}

// SessionSource is a MallSource that holds an expensive session (a
// browser) for the duration of a run. The gatherer calls Start before
// the first Stores call and guarantees Stop on every exit path.
type SessionSource interface {
	MallSource
	Start(ctx context.Context) error
	Stop()
}

// NewHTTPClient builds the shared resty client used by the plain-HTTP
// sources: browser user agent, retries with backoff, and 429-aware
// retry condition to match the sites' rate limiting.
func NewHTTPClient(cfg utils.GatherConfig) *resty.Client {
	return resty.New().
		SetTimeout(15*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})
}
