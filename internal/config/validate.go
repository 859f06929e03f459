package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var validProviderKinds = map[string]struct{}{
	"openai": {},
	"claude": {},
	"gemini": {},
	"custom": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateQuota(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateProviders() error {
	if _, ok := validProviderKinds[c.Providers.Default]; !ok {
		return fmt.Errorf("providers.default must be one of openai, claude, gemini, custom (got %q)", c.Providers.Default)
	}
	if c.Providers.TimeoutSeconds <= 0 {
		return errors.New("providers.timeout_seconds must be positive")
	}
	if endpoint := c.Providers.Custom.Endpoint; endpoint != "" {
		parsed, err := url.Parse(endpoint)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("providers.custom.endpoint %q is not a valid URL", endpoint)
		}
	}
	return nil
}

func (c *Config) validateQuota() error {
	if c.Quota.FreeLimit <= 0 {
		return errors.New("quota.free_limit must be positive")
	}
	if strings.TrimSpace(c.Quota.Subject) == "" {
		return errors.New("quota.subject must be set")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.ScanInterval <= 0 {
		return errors.New("scheduler.scan_interval must be positive")
	}
	if c.Scheduler.ErrorRetryInterval <= 0 {
		return errors.New("scheduler.error_retry_interval must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}
