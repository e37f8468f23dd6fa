package domain

// MaxRecommendations — сколько вариантов показываем пользователю.
const MaxRecommendations = 2

// Recommend подбирает товары под ответы пользователя.
//
// Товар подходит, если:
//   - нужен автозапуск → у товара есть автозапуск;
//   - управление из приложения → у товара есть приложение;
//   - нужен GPS → у товара есть GPS.
//
// Отказ от автозапуска, выбор брелока и отказ от GPS ничего не исключают.
// Результат идёт в порядке каталога, не больше MaxRecommendations.
// Для неполных ответов возвращается пустой список.
func Recommend(catalog Catalog, prefs UserPreferences) []CatalogItem {
	if !prefs.Complete() {
		return nil
	}
	autostart, _ := prefs.Autostart()
	mode, _ := prefs.ControlMode()
	gps, _ := prefs.Gps()

	out := make([]CatalogItem, 0, MaxRecommendations)
	for _, item := range catalog {
		if autostart && !item.HasAutostart {
			continue
		}
		if mode == ControlApp && !item.HasAppControl {
			continue
		}
		if gps && !item.HasGps {
			continue
		}
		out = append(out, item)
		if len(out) == MaxRecommendations {
			break
		}
	}
	return out
}
