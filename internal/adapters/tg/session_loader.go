package tg

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/larriantoniy/tg_sales_bot/internal/config"
	"github.com/larriantoniy/tg_sales_bot/internal/ports"
)

// sessionProfile — необязательный <base_dir>/<session>/config.json с параметрами устройства
type sessionProfile struct {
	Device     string `json:"device"`
	SDK        string `json:"sdk"`
	AppVersion string `json:"app_version"`
	LangCode   string `json:"lang_code"`
}

// SessionName — каталог TDLib-базы бота: "bot" + числовой id из токена
func SessionName(botToken string) string {
	id, _, _ := strings.Cut(botToken, ":")
	if id == "" {
		return "bot"
	}
	return "bot" + id
}

// LoadSessionConfig собирает параметры сессии из конфига приложения и профиля устройства.
// Профиля может не быть, тогда берутся значения по умолчанию.
func LoadSessionConfig(baseDir string, cfg config.TelegramConfig) (*ports.SessionConfig, error) {
	name := SessionName(cfg.BotToken)

	var profile sessionProfile
	path := filepath.Join(baseDir, name, "config.json")
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", path, err)
		}
	}

	sc := &ports.SessionConfig{
		SessionName:        name,
		BotToken:           cfg.BotToken,
		AppID:              cfg.ApiID,
		AppHash:            cfg.ApiHash,
		DeviceModel:        profile.Device,
		SystemVersion:      profile.SDK,
		ApplicationVersion: profile.AppVersion,
		LangCode:           profile.LangCode,
	}
	if cfg.Proxy.Enabled() {
		sc.Proxy = &ports.ProxyConfig{
			Enabled:  true,
			Server:   cfg.Proxy.Server,
			Port:     cfg.Proxy.Port,
			Username: cfg.Proxy.Username,
			Password: cfg.Proxy.Password,
		}
	}
	return sc, nil
}
