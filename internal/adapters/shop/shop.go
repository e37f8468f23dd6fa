package shop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/larriantoniy/tg_sales_bot/internal/config"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

var ErrNotFound = errors.New("shop: element not found")

// Scraper достаёт название и цену с карточки товара на сайте магазина
type Scraper struct {
	client *http.Client
	logger *slog.Logger
	title  cascadia.Sel
	price  cascadia.Sel
}

// NewScraper принимает любые CSS-селекторы, которые понимает cascadia
// ("h1.title", "div.card .price", "span.a.b > b").
func NewScraper(cfg config.ProductInfoConfig, logger *slog.Logger) (*Scraper, error) {
	title, err := cascadia.Parse(cfg.TitleSelector)
	if err != nil {
		return nil, fmt.Errorf("title selector %q: %w", cfg.TitleSelector, err)
	}
	price, err := cascadia.Parse(cfg.PriceSelector)
	if err != nil {
		return nil, fmt.Errorf("price selector %q: %w", cfg.PriceSelector, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scraper{
		client: &http.Client{Timeout: timeout},
		logger: logger,
		title:  title,
		price:  price,
	}, nil
}

// GetProductInfo возвращает строку "название - цена"
func (s *Scraper) GetProductInfo(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", url, err)
	}

	title := textOf(cascadia.Query(doc, s.title))
	price := textOf(cascadia.Query(doc, s.price))
	if title == "" && price == "" {
		return "", ErrNotFound
	}
	if title == "" {
		title = "Название не найдено"
	}
	if price == "" {
		price = "Цена не найдена"
	}

	s.logger.Debug("product info scraped", "url", url, "title", title, "price", price)
	return title + " - " + price, nil
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
