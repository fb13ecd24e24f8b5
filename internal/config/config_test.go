package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	"tieba-assist/internal/components/telemetry"
	"tieba-assist/internal/notify"
	"tieba-assist/internal/tasks"
	"tieba-assist/internal/tieba"
	"tieba-assist/lib/configutil"

	"github.com/stretchr/testify/require"
)

func write(t testing.TB, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}

func clearEnv(t *testing.T) {
	for _, name := range []string{EnvCredential, EnvLark, EnvWorkWechat} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "tieba.json5")
	write(t, path, `{bduss: "file-bduss"}`)

	config, err := Load(path, "")
	require.NoError(t, err)

	require.Equal(t, "file-bduss", config.Bduss)
	require.Equal(t, tieba.DefaultPageSize, config.PageSize)
	require.Equal(t, tieba.DefaultPageAttempts, config.PageAttempts)
	require.Equal(t, tasks.DefaultSignInterval, config.SignInterval())
	require.Equal(t, tasks.DefaultTrendingPage, config.Trending.Page)
	require.Equal(t, tasks.DefaultTrendingSize, config.Trending.Size)
	require.Equal(t, DefaultCron, config.Schedule.Cron)
	require.Equal(t, DefaultTimezone, config.Schedule.Timezone)
	require.True(t, config.SignEnabled())
	require.True(t, config.TrendingEnabled())

	opts := config.ClientOptions()
	require.Equal(t, "file-bduss", opts.Credential)
	require.Equal(t, 15*time.Second, opts.Timeout)
	require.Empty(t, config.Sinks(telemetry.NewRecorder()))
}

func TestLoadFull(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "tieba.json5")
	write(t, path, `{
		bduss: "file-bduss",
		timeout_seconds: 5,
		requests_per_second: 2.5,
		sign: {interval_ms: 2000},
		trending: {enabled: false, page: 3, size: 10},
		channels: {
			lark: [{webhook: "https://open.feishu.cn/open-apis/bot/v2/hook/x"}],
			wework: [{key: "abc"}],
			email: [{smtp: {server: "smtp.example.com", port: 587}, to: ["me@example.com"]}],
		},
		schedule: {cron: "0 9 * * *", timezone: "UTC"},
	}`)
	write(t, configutil.LocalName(path), `{sign: {enabled: false}}`)

	config, err := Load(path, "")
	require.NoError(t, err)

	require.Equal(t, 2*time.Second, config.SignInterval())
	require.False(t, config.SignEnabled())
	require.False(t, config.TrendingEnabled())
	require.Equal(t, 3, config.Trending.Page)
	require.Equal(t, 2.5, config.ClientOptions().RequestsPerSecond)
	require.Equal(t, 5*time.Second, config.ClientOptions().Timeout)

	sinks := config.Sinks(telemetry.NewRecorder())
	var names []string
	for _, sink := range sinks {
		names = append(names, sink.Name())
	}
	require.Equal(t, []string{"lark", "work_wechat", "email"}, names)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "tieba.json5")
	write(t, path, `{bduss: "file-bduss"}`)

	envFile := filepath.Join(dir, ".env")
	write(t, envFile, "TIEBA_LARK_WEBHOOK=https://example.com/hook\n")
	t.Setenv(EnvCredential, "env-bduss")
	// godotenv never overrides variables already set
	t.Setenv(EnvLark, "")
	os.Unsetenv(EnvLark)

	config, err := Load(path, envFile)
	require.NoError(t, err)
	require.Equal(t, "env-bduss", config.Bduss)
	require.Equal(t, []LarkConfig{{Webhook: "https://example.com/hook"}}, config.Channels.Lark)
}

func TestLoadMissingFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json5"), filepath.Join(dir, ".env"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "tieba.json5")
	write(t, path, `{}`)
	_, err = Load(path, "")
	require.ErrorIs(t, err, ErrMissingCredential)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Config{Bduss: "x"}
		c.applyDefaults()
		return c
	}

	cases := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "bad cron", mutate: func(c *Config) { c.Schedule.Cron = "every day" }},
		{name: "bad timezone", mutate: func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
		{name: "negative rate", mutate: func(c *Config) { c.RequestsPerSecond = -1 }},
		{name: "empty lark", mutate: func(c *Config) { c.Channels.Lark = []LarkConfig{{}} }},
		{name: "empty wework", mutate: func(c *Config) { c.Channels.WorkWechat = []WorkWechatConfig{{}} }},
		{name: "email without recipients", mutate: func(c *Config) {
			c.Channels.Email = []EmailConfig{{Smtp: notify.SmtpConfig{Server: "smtp.example.com"}}}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
