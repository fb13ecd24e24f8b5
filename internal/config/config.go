// Package config loads the runtime configuration of the cli.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	"tieba-assist/internal/components/telemetry"
	"tieba-assist/internal/notify"
	"tieba-assist/internal/tasks"
	"tieba-assist/internal/tieba"
	"tieba-assist/lib/configutil"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	DefaultName    = "tieba.json5"
	DefaultEnvFile = ".env"

	DefaultCron     = "30 0 * * *"
	DefaultTimezone = "Asia/Shanghai"

	EnvCredential = "TIEBA_BDUSS"
	EnvLark       = "TIEBA_LARK_WEBHOOK"
	EnvWorkWechat = "TIEBA_WEWORK_KEY"
)

var ErrMissingCredential = errors.New("no credential configured, set bduss in the config or " + EnvCredential)

type LarkConfig struct {
	Webhook string `json:"webhook"`
}

type WorkWechatConfig struct {
	Key     string `json:"key"`
	BaseUrl string `json:"base_url"`
}

type EmailConfig struct {
	Smtp notify.SmtpConfig `json:"smtp"`
	To   []string          `json:"to"`
}

type ChannelsConfig struct {
	Lark       []LarkConfig       `json:"lark"`
	WorkWechat []WorkWechatConfig `json:"wework"`
	Email      []EmailConfig      `json:"email"`
	// TimeoutSeconds applies to webhook requests.
	TimeoutSeconds int `json:"timeout_seconds"`
}

type SignConfig struct {
	Enabled    *bool `json:"enabled"`
	IntervalMs int   `json:"interval_ms"`
}

type TrendingConfig struct {
	Enabled *bool `json:"enabled"`
	Page    int   `json:"page"`
	Size    int   `json:"size"`
}

type ScheduleConfig struct {
	Cron     string `json:"cron"`
	Timezone string `json:"timezone"`
}

type Config struct {
	Bduss             string  `json:"bduss"`
	MobileBaseUrl     string  `json:"mobile_base_url"`
	WebBaseUrl        string  `json:"web_base_url"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	PageSize          int     `json:"page_size"`
	PageAttempts      int     `json:"page_attempts"`

	Sign     SignConfig           `json:"sign"`
	Trending TrendingConfig       `json:"trending"`
	Channels ChannelsConfig       `json:"channels"`
	Schedule ScheduleConfig       `json:"schedule"`
	Otlp     telemetry.OtlpConfig `json:"otlp"`
}

// Load reads envFile into the process environment (a missing file is fine), then the config
// file at path merged with its local overrides, then applies environment overrides and
// defaults. An empty path searches for DefaultName from the working directory upwards, not
// finding it is fine as long as the environment carries the credential.
func Load(path, envFile string) (Config, error) {
	if envFile != "" {
		err := godotenv.Load(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var config Config
	var err error
	if path == "" {
		config, err = configutil.ReadRecursively[Config](DefaultName)
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
	} else {
		config, err = configutil.ReadConfig[Config](path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	config.applyEnv(os.LookupEnv)
	config.applyDefaults()
	err = config.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if value, ok := lookup(EnvCredential); ok && value != "" {
		c.Bduss = value
	}
	if value, ok := lookup(EnvLark); ok && value != "" {
		c.Channels.Lark = append(c.Channels.Lark, LarkConfig{Webhook: value})
	}
	if value, ok := lookup(EnvWorkWechat); ok && value != "" {
		c.Channels.WorkWechat = append(c.Channels.WorkWechat, WorkWechatConfig{Key: value})
	}
}

func (c *Config) applyDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	if c.PageSize <= 0 {
		c.PageSize = tieba.DefaultPageSize
	}
	if c.PageAttempts <= 0 {
		c.PageAttempts = tieba.DefaultPageAttempts
	}
	if c.Sign.IntervalMs <= 0 {
		c.Sign.IntervalMs = int(tasks.DefaultSignInterval / time.Millisecond)
	}
	if c.Trending.Page <= 0 {
		c.Trending.Page = tasks.DefaultTrendingPage
	}
	if c.Trending.Size <= 0 {
		c.Trending.Size = tasks.DefaultTrendingSize
	}
	if c.Channels.TimeoutSeconds <= 0 {
		c.Channels.TimeoutSeconds = 10
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = DefaultCron
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = DefaultTimezone
	}
}

func (c Config) Validate() error {
	if c.Bduss == "" {
		return ErrMissingCredential
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative, got %v", c.RequestsPerSecond)
	}
	_, err := cron.ParseStandard(c.Schedule.Cron)
	if err != nil {
		return fmt.Errorf("schedule.cron %q: %w", c.Schedule.Cron, err)
	}
	_, err = time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	for i, lark := range c.Channels.Lark {
		if lark.Webhook == "" {
			return fmt.Errorf("channels.lark[%d]: webhook is empty", i)
		}
	}
	for i, wework := range c.Channels.WorkWechat {
		if wework.Key == "" {
			return fmt.Errorf("channels.wework[%d]: key is empty", i)
		}
	}
	for i, email := range c.Channels.Email {
		if email.Smtp.Server == "" || len(email.To) == 0 {
			return fmt.Errorf("channels.email[%d]: smtp.server and to are required", i)
		}
	}
	return nil
}

func (c Config) SignEnabled() bool {
	return c.Sign.Enabled == nil || *c.Sign.Enabled
}

func (c Config) TrendingEnabled() bool {
	return c.Trending.Enabled == nil || *c.Trending.Enabled
}

func (c Config) SignInterval() time.Duration {
	return time.Duration(c.Sign.IntervalMs) * time.Millisecond
}

func (c Config) ClientOptions() tieba.ClientOptions {
	return tieba.ClientOptions{
		Credential:        c.Bduss,
		MobileBaseUrl:     c.MobileBaseUrl,
		WebBaseUrl:        c.WebBaseUrl,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.RequestsPerSecond,
		PageSize:          c.PageSize,
		PageAttempts:      c.PageAttempts,
	}
}

// Sinks builds a notification sink for every configured channel.
func (c Config) Sinks(tel telemetry.API) []notify.Sink {
	timeout := time.Duration(c.Channels.TimeoutSeconds) * time.Second

	var sinks []notify.Sink
	for _, lark := range c.Channels.Lark {
		sinks = append(sinks, notify.NewLark(lark.Webhook, timeout, tel))
	}
	for _, wework := range c.Channels.WorkWechat {
		sinks = append(sinks, notify.NewWorkWechat(wework.Key, wework.BaseUrl, timeout, tel))
	}
	for _, email := range c.Channels.Email {
		sinks = append(sinks, notify.NewEmail(email.Smtp, email.To))
	}
	return sinks
}
