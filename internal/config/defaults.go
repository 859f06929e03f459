package config

const (
	defaultDataDir            = "~/.local/share/smarttask"
	defaultLogDir             = "~/.local/share/smarttask/logs"
	defaultProvider           = "openai"
	defaultProviderTimeout    = 30
	defaultOpenAIBaseURL      = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel        = "gpt-3.5-turbo"
	defaultClaudeBaseURL      = "https://api.anthropic.com/v1/messages"
	defaultClaudeModel        = "claude-3-sonnet-20240229"
	defaultGeminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel        = "gemini-1.5-flash-latest"
	defaultFreeTierLimit      = 20
	defaultQuotaSubject       = "local"
	defaultScanInterval       = 30
	defaultErrorRetryInterval = 10
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Providers: Providers{
			Default:        defaultProvider,
			TimeoutSeconds: defaultProviderTimeout,
			OpenAI: Provider{
				BaseURL: defaultOpenAIBaseURL,
				Model:   defaultOpenAIModel,
			},
			Claude: Provider{
				BaseURL: defaultClaudeBaseURL,
				Model:   defaultClaudeModel,
			},
			Gemini: Provider{
				BaseURL: defaultGeminiBaseURL,
				Model:   defaultGeminiModel,
			},
		},
		Quota: Quota{
			FreeLimit: defaultFreeTierLimit,
			Subject:   defaultQuotaSubject,
		},
		Scheduler: Scheduler{
			ScanInterval:       defaultScanInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Reminders:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
