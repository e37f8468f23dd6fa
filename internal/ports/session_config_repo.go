package ports

import (
	"context"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
)

type ProxyConfig struct {
	Enabled  bool
	Server   string
	Port     int32
	Username string
	Password string
}

// SessionConfig — параметры TDLib-сессии бота
type SessionConfig struct {
	SessionName        string
	BotToken           string
	AppID              int32
	AppHash            string
	DeviceModel        string
	SystemVersion      string
	ApplicationVersion string
	LangCode           string
	Proxy              *ProxyConfig
}

type CatalogRepo interface {
	// Загружает каталог товаров в том порядке, в котором он задан
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
}
