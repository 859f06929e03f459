package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProviders()
	c.normalizeQuota()
	c.normalizeScheduler()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.Socket) != "" {
		if c.Paths.Socket, err = expandPath(c.Paths.Socket); err != nil {
			return fmt.Errorf("paths.socket: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeProviders() {
	c.Providers.Default = strings.ToLower(strings.TrimSpace(c.Providers.Default))
	if c.Providers.Default == "" {
		c.Providers.Default = defaultProvider
	}
	if c.Providers.TimeoutSeconds <= 0 {
		c.Providers.TimeoutSeconds = defaultProviderTimeout
	}

	applyEnv := func(target *string, key string) {
		if strings.TrimSpace(*target) != "" {
			return
		}
		if value, ok := os.LookupEnv(key); ok {
			*target = strings.TrimSpace(value)
		}
	}
	applyEnv(&c.Providers.OpenAI.APIKey, "SMARTTASK_OPENAI_API_KEY")
	applyEnv(&c.Providers.Claude.APIKey, "SMARTTASK_CLAUDE_API_KEY")
	applyEnv(&c.Providers.Gemini.APIKey, "SMARTTASK_GEMINI_API_KEY")
	applyEnv(&c.Providers.Custom.APIKey, "SMARTTASK_CUSTOM_API_KEY")
	applyEnv(&c.Providers.Custom.Endpoint, "SMARTTASK_CUSTOM_ENDPOINT")

	trim := func(p *Provider, baseURL, model string) {
		p.APIKey = strings.TrimSpace(p.APIKey)
		p.BaseURL = strings.TrimSpace(p.BaseURL)
		p.Model = strings.TrimSpace(p.Model)
		if p.BaseURL == "" {
			p.BaseURL = baseURL
		}
		if p.Model == "" {
			p.Model = model
		}
	}
	trim(&c.Providers.OpenAI, defaultOpenAIBaseURL, defaultOpenAIModel)
	trim(&c.Providers.Claude, defaultClaudeBaseURL, defaultClaudeModel)
	trim(&c.Providers.Gemini, defaultGeminiBaseURL, defaultGeminiModel)
	c.Providers.Custom.Endpoint = strings.TrimSpace(c.Providers.Custom.Endpoint)
	c.Providers.Custom.APIKey = strings.TrimSpace(c.Providers.Custom.APIKey)
}

func (c *Config) normalizeQuota() {
	if c.Quota.FreeLimit <= 0 {
		c.Quota.FreeLimit = defaultFreeTierLimit
	}
	c.Quota.Subject = strings.TrimSpace(c.Quota.Subject)
	if c.Quota.Subject == "" {
		c.Quota.Subject = defaultQuotaSubject
	}
}

func (c *Config) normalizeScheduler() {
	if c.Scheduler.ScanInterval <= 0 {
		c.Scheduler.ScanInterval = defaultScanInterval
	}
	if c.Scheduler.ErrorRetryInterval <= 0 {
		c.Scheduler.ErrorRetryInterval = defaultErrorRetryInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}
