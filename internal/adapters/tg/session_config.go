package tg

import (
	"github.com/zelenin/go-tdlib/client"

	"github.com/larriantoniy/tg_sales_bot/internal/ports"
)

func toTdParams(sc *ports.SessionConfig, dbDir, filesDir string) *client.SetTdlibParametersRequest {
	lang := sc.LangCode
	if lang == "" {
		lang = "ru"
	}
	systemVersion := sc.SystemVersion
	if systemVersion == "" {
		systemVersion = "Linux"
	}
	appVersion := sc.ApplicationVersion
	if appVersion == "" {
		appVersion = "1.0"
	}
	deviceModel := sc.DeviceModel
	if deviceModel == "" {
		deviceModel = "Server"
	}

	// боту история не нужна: состояние опроса хранится отдельно
	return &client.SetTdlibParametersRequest{
		UseTestDc:           false,
		DatabaseDirectory:   dbDir,
		FilesDirectory:      filesDir,
		UseFileDatabase:     false,
		UseChatInfoDatabase: true,
		UseMessageDatabase:  false,
		UseSecretChats:      false,
		ApiId:               sc.AppID,
		ApiHash:             sc.AppHash,
		SystemLanguageCode:  lang,
		DeviceModel:         deviceModel,
		SystemVersion:       systemVersion,
		ApplicationVersion:  appVersion,
	}
}

func proxyOption(p *ports.ProxyConfig) (client.Option, bool) {
	if p == nil || !p.Enabled {
		return nil, false
	}
	return client.WithProxy(&client.AddProxyRequest{
		Server: p.Server,
		Port:   p.Port,
		Enable: true,
		Type: &client.ProxyTypeSocks5{
			Username: p.Username,
			Password: p.Password,
		},
	}), true
}
