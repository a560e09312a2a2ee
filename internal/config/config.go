package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

type Config struct {
	//===============
	//  Target site
	//===============
	// Origin against which redirect targets and pagination URLs are resolved.
	baseOrigin url.URL
	// User agent that will be used in the request header. In raw string
	userAgent string
	// Path to the credential file (username on first line, password on second)
	loginFile string

	//===============
	// Transport
	//===============
	// Maximum time of a single HTTP request. The target site can be very
	// slow under load, hence the generous default.
	timeout time.Duration
	// Whether the client keeps session cookies across requests.
	// Required for authenticated fetches.
	cookieJar bool

	//===============
	// Politeness
	//===============
	// Self-imposed pause after every successful page fetch.
	successCooldown time.Duration
	// Pause before following a redirect.
	redirectDelay time.Duration
	// Fallback pause before retrying a transient status when the server
	// does not suggest its own delay.
	transientDelay time.Duration

	//===============
	// Limits
	//===============
	// Maximum physical attempts per logical fetch. Zero means unbounded,
	// which matches the target site's throttling behavior: waiting out a
	// rate limit beats abandoning the fetch.
	maxAttempts int
	// Maximum number of page-fetch worker goroutines during aggregation.
	concurrency int

	//===============
	// Output
	//===============
	// Directory for debug artifacts (transient-failure response bodies).
	outputDir string
	// Minimum log level for the metadata recorder.
	logLevel string
}

type configDTO struct {
	BaseOrigin      string        `json:"baseOrigin,omitempty"`
	UserAgent       string        `json:"userAgent,omitempty"`
	LoginFile       string        `json:"loginFile,omitempty"`
	Timeout         time.Duration `json:"timeout,omitempty"`
	CookieJar       *bool         `json:"cookieJar,omitempty"`
	SuccessCooldown time.Duration `json:"successCooldown,omitempty"`
	RedirectDelay   time.Duration `json:"redirectDelay,omitempty"`
	TransientDelay  time.Duration `json:"transientDelay,omitempty"`
	MaxAttempts     int           `json:"maxAttempts,omitempty"`
	Concurrency     int           `json:"concurrency,omitempty"`
	OutputDir       string        `json:"outputDir,omitempty"`
	LogLevel        string        `json:"logLevel,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	builder := WithDefault()

	if dto.BaseOrigin != "" {
		origin, err := url.Parse(dto.BaseOrigin)
		if err != nil {
			return Config{}, fmt.Errorf("%w: bad baseOrigin: %s", ErrInvalidConfig, err.Error())
		}
		builder = builder.WithBaseOrigin(*origin)
	}
	if dto.UserAgent != "" {
		builder = builder.WithUserAgent(dto.UserAgent)
	}
	if dto.LoginFile != "" {
		builder = builder.WithLoginFile(dto.LoginFile)
	}
	if dto.Timeout != 0 {
		builder = builder.WithTimeout(dto.Timeout)
	}
	if dto.CookieJar != nil {
		builder = builder.WithCookieJar(*dto.CookieJar)
	}
	if dto.SuccessCooldown != 0 {
		builder = builder.WithSuccessCooldown(dto.SuccessCooldown)
	}
	if dto.RedirectDelay != 0 {
		builder = builder.WithRedirectDelay(dto.RedirectDelay)
	}
	if dto.TransientDelay != 0 {
		builder = builder.WithTransientDelay(dto.TransientDelay)
	}
	// MaxAttempts zero is a meaningful value (unbounded), so take it as-is
	builder = builder.WithMaxAttempts(dto.MaxAttempts)
	if dto.Concurrency != 0 {
		builder = builder.WithConcurrency(dto.Concurrency)
	}
	if dto.OutputDir != "" {
		builder = builder.WithOutputDir(dto.OutputDir)
	}
	if dto.LogLevel != "" {
		builder = builder.WithLogLevel(dto.LogLevel)
	}

	return builder.Build()
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg, err := newConfigFromDTO(cfgDTO)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefault creates a new Config with default values for all fields.
// The defaults mirror the behavior the target site tolerates.
func WithDefault() *Config {
	defaultOrigin := url.URL{
		Scheme: "https",
		Host:   "archiveofourown.org",
	}
	defaultConfig := Config{
		baseOrigin:      defaultOrigin,
		userAgent:       "ao3fetch/1.0",
		loginFile:       "log.txt",
		timeout:         960 * time.Second,
		cookieJar:       true,
		successCooldown: 5 * time.Second,
		redirectDelay:   2 * time.Second,
		transientDelay:  20 * time.Second,
		maxAttempts:     0,
		concurrency:     3,
		outputDir:       "output",
		logLevel:        "info",
	}
	return &defaultConfig
}

func (c *Config) WithBaseOrigin(origin url.URL) *Config {
	c.baseOrigin = origin
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithLoginFile(path string) *Config {
	c.loginFile = path
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithCookieJar(enabled bool) *Config {
	c.cookieJar = enabled
	return c
}

func (c *Config) WithSuccessCooldown(d time.Duration) *Config {
	c.successCooldown = d
	return c
}

func (c *Config) WithRedirectDelay(d time.Duration) *Config {
	c.redirectDelay = d
	return c
}

func (c *Config) WithTransientDelay(d time.Duration) *Config {
	c.transientDelay = d
	return c
}

func (c *Config) WithMaxAttempts(attempts int) *Config {
	c.maxAttempts = attempts
	return c
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithOutputDir(dir string) *Config {
	c.outputDir = dir
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) Build() (Config, error) {
	if c.baseOrigin.Scheme != "http" && c.baseOrigin.Scheme != "https" {
		return Config{}, fmt.Errorf("%w: baseOrigin must be an absolute http(s) URL", ErrInvalidConfig)
	}
	if c.baseOrigin.Host == "" {
		return Config{}, fmt.Errorf("%w: baseOrigin must have a host", ErrInvalidConfig)
	}
	if c.timeout <= 0 {
		return Config{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.concurrency < 1 {
		return Config{}, fmt.Errorf("%w: concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.maxAttempts < 0 {
		return Config{}, fmt.Errorf("%w: maxAttempts cannot be negative", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) BaseOrigin() url.URL {
	return c.baseOrigin
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) LoginFile() string {
	return c.loginFile
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) CookieJar() bool {
	return c.cookieJar
}

func (c Config) SuccessCooldown() time.Duration {
	return c.successCooldown
}

func (c Config) RedirectDelay() time.Duration {
	return c.redirectDelay
}

func (c Config) TransientDelay() time.Duration {
	return c.transientDelay
}

func (c Config) MaxAttempts() int {
	return c.maxAttempts
}

func (c Config) Concurrency() int {
	return c.concurrency
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) LogLevel() string {
	return c.logLevel
}
