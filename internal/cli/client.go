package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rshade/pageturn/internal/cache"
	"github.com/rshade/pageturn/internal/config"
	"github.com/rshade/pageturn/internal/fetch"
	"github.com/rshade/pageturn/internal/logging"
	"github.com/rshade/pageturn/internal/markup"
)

// ErrNoURL is returned when a command is run without a start URL.
var ErrNoURL = errors.New("a start URL is required")

// newFetchClient builds the HTTP client for startURL from cfg.
// The client's origin is the origin of startURL.
func newFetchClient(cfg *config.Config, startURL string, log zerolog.Logger) (*fetch.Client, error) {
	opts := []fetch.Option{
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
		fetch.WithMaxBodyBytes(cfg.Fetch.MaxBodyBytes),
		fetch.WithLogger(logging.ComponentLogger(log, "fetch")),
	}

	if cfg.Cache.Enabled {
		store, err := cache.NewFileStore(cfg.Cache.Directory, true, cfg.Cache.TTLSeconds)
		if err != nil {
			log.Warn().Err(err).Str("directory", cfg.Cache.Directory).Msg("fragment cache unavailable")
		} else {
			if cleanErr := store.CleanupExpired(); cleanErr != nil {
				log.Debug().Err(cleanErr).Msg("could not remove expired cache entries")
			}
			opts = append(opts, fetch.WithCache(store))
		}
	}

	client, err := fetch.NewClient(startURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	return client, nil
}

// selectorsFrom converts the configured selectors and rejects invalid ones.
func selectorsFrom(cfg *config.Config) (markup.Selectors, error) {
	sel := markup.Selectors(cfg.Selectors).Normalize()
	if err := sel.Validate(); err != nil {
		return markup.Selectors{}, fmt.Errorf("invalid selectors: %w", err)
	}
	return sel, nil
}
