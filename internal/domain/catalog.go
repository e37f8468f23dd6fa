package domain

// CatalogItem описывает одну охранную систему из каталога.
// Значения не меняются после загрузки каталога.
type CatalogItem struct {
	Name          string `json:"name" yaml:"name" validate:"required"`
	HasAutostart  bool   `json:"autostart" yaml:"autostart"`
	HasRemoteFob  bool   `json:"remote" yaml:"remote"`
	HasAppControl bool   `json:"app_control" yaml:"app_control"`
	HasGps        bool   `json:"gps" yaml:"gps"`
	DetailURL     string `json:"url" yaml:"url" validate:"required,http_url"`
}

// Catalog — упорядоченный список товаров. Порядок важен: он же порядок рекомендаций.
type Catalog []CatalogItem

// DefaultCatalog используется, если путь к файлу каталога не задан.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			Name:         "Pandora DX-40R",
			HasRemoteFob: true,
			DetailURL:    "https://ya7auto.ru/auto-security/car-alarms/pandora-dx-40r/",
		},
		{
			Name:         "Pandora DX-40RS",
			HasAutostart: true,
			HasRemoteFob: true,
			DetailURL:    "https://ya7auto.ru/auto-security/car-alarms/pandora-dx-40rs/",
		},
		{
			Name:          "StarLine S96 V2 LTE GPS",
			HasAutostart:  true,
			HasAppControl: true,
			HasGps:        true,
			DetailURL:     "https://ya7auto.ru/auto-security/car-alarms/starline-s96-v2-lte-gps/",
		},
	}
}
