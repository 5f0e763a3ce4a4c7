package config

import (
	"github.com/altmunch/SocialSchedule-sub011/pkg/limits/ratelimit"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
)

// PlatformConfigs returns an adapter configuration for every enabled
// platform, in PlatformNames order.
func (c *Config) PlatformConfigs() []platform.Config {
	var out []platform.Config
	for _, name := range PlatformNames {
		p := c.Platforms.Platform(name)
		if !p.Enabled {
			continue
		}
		out = append(out, platform.Config{
			Name:        name,
			Account:     p.Account,
			BaseURL:     p.BaseURL,
			AccessToken: p.AccessToken,
			Timeout:     p.Timeout,
			RateLimit: ratelimit.Config{
				RequestsPerWindow: p.RateLimit.RequestsPerWindow,
				WindowSeconds:     p.RateLimit.WindowSeconds,
			},
			UsageThreshold: p.UsageThreshold,
			BackoffDelay:   p.BackoffDelay,
		})
	}
	return out
}
