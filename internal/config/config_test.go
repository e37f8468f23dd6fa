package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const baseYAML = `
env: dev
base_dir: /tmp/bot
telegram:
  bot_token: "123:abc"
  api_id: 42
  api_hash: hash
crm:
  url: https://crm.test/form/4/
`

func TestLoadPathDefaults(t *testing.T) {
	cfg, err := LoadPath(writeFile(t, "config.yaml", baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, int32(42), cfg.Telegram.ApiID)
	assert.Equal(t, 10*time.Second, cfg.CRM.Timeout)
	assert.Equal(t, "phone", cfg.CRM.PhoneField)
	assert.Equal(t, "telegram_bot", cfg.CRM.Source)
	assert.Equal(t, StoreMemory, cfg.Sessions.Store)
	assert.Zero(t, cfg.Sessions.TTL)
	assert.Equal(t, time.Minute, cfg.Sessions.SweepInterval)
	assert.False(t, cfg.Telegram.Proxy.Enabled())
	assert.False(t, cfg.ProductInfo.Enabled)
	assert.Equal(t, "h1.product-card-top__title", cfg.ProductInfo.TitleSelector)
}

func TestLoadPathEnvOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("TELEGRAM_PROXY_SERVER", "10.0.0.1")
	t.Setenv("TELEGRAM_PROXY_PORT", "1080")

	cfg, err := LoadPath(writeFile(t, "config.yaml", baseYAML))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Sessions.TTL)
	assert.Equal(t, StoreRedis, cfg.Sessions.Store)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Telegram.Proxy.Enabled())
}

func TestLoadPathValidation(t *testing.T) {
	cases := map[string]string{
		"missing token": `
telegram:
  api_id: 1
  api_hash: h
crm:
  url: https://crm.test
`,
		"bad crm url": `
telegram:
  bot_token: t
  api_id: 1
  api_hash: h
crm:
  url: not-a-url
`,
		"unknown store": baseYAML + `
sessions:
  store: etcd
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadPath(writeFile(t, "config.yaml", body))
			assert.Error(t, err)
		})
	}
}
