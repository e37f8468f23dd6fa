package ports

import "context"

// ProductInfoFetcher достаёт с карточки товара название и цену
type ProductInfoFetcher interface {
	GetProductInfo(ctx context.Context, url string) (string, error)
}
