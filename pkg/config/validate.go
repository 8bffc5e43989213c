package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateCore ensures the settings every binary depends on are usable.
func (c *Config) ValidateCore() error {
	var problems []string

	if strings.TrimSpace(c.Server.Port) == "" {
		problems = append(problems, "SERVER_PORT")
	}
	if u, err := url.Parse(c.PortalAPI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "PORTAL_API_BASE_URL")
	}
	if c.PortalAPI.Timeout <= 0 {
		problems = append(problems, "PORTAL_API_TIMEOUT")
	}
	if c.PortalAPI.RetryAttempts < 0 {
		problems = append(problems, "PORTAL_API_RETRY_ATTEMPTS")
	}
	switch c.Credentials.Backend {
	case "memory":
	case "file":
		if strings.TrimSpace(c.Credentials.File) == "" {
			problems = append(problems, "CREDENTIALS_FILE")
		}
	case "redis":
		if strings.TrimSpace(c.Redis.URL) == "" {
			problems = append(problems, "REDIS_URL")
		}
	default:
		problems = append(problems, "CREDENTIALS_BACKEND")
	}
	if c.Upload.MaxBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES")
	}

	if c.Limits.RateLimitRequests < 0 {
		problems = append(problems, "RATE_LIMIT_REQUESTS")
	}
	if c.Limits.RateLimitRequests > 0 && c.Limits.RateLimitWindow <= 0 {
		problems = append(problems, "RATE_LIMIT_WINDOW")
	}

	if len(problems) > 0 {
		return fmt.Errorf("missing or invalid configuration: %s", strings.Join(problems, ", "))
	}

	return nil
}
