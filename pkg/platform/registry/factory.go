// Package registry creates platform adapters from configuration and manages
// their lifecycle.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform/instagram"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform/tiktok"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform/youtube"
)

// Supported lists the platform names New accepts.
var Supported = []string{platform.Instagram, platform.TikTok, platform.YouTube}

// New creates the adapter named by cfg.Name.
//
// Example:
//
//	adapter, err := registry.New(platform.Config{
//	    Name:        "tiktok",
//	    AccessToken: os.Getenv("TIKTOK_ACCESS_TOKEN"),
//	})
//	if err != nil {
//	    return err
//	}
//	defer adapter.Close()
func New(cfg platform.Config, opts ...platform.ClientOption) (platform.Adapter, error) {
	slog.Debug("creating platform adapter",
		"platform", cfg.Name,
		"account", cfg.Account,
		"base_url", cfg.BaseURL,
	)

	var (
		adapter platform.Adapter
		err     error
	)

	switch cfg.Name {
	case platform.Instagram:
		adapter, err = instagram.NewAdapter(cfg, opts...)
	case platform.TikTok:
		adapter, err = tiktok.NewAdapter(cfg, opts...)
	case platform.YouTube:
		adapter, err = youtube.NewAdapter(cfg, opts...)
	default:
		return nil, &platform.ConfigError{
			Platform: cfg.Name,
			Field:    "name",
			Message:  fmt.Sprintf("unsupported platform %q (supported: %v)", cfg.Name, Supported),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s adapter: %w", cfg.Name, err)
	}

	return adapter, nil
}
