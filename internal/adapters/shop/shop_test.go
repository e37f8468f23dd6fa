package shop

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larriantoniy/tg_sales_bot/internal/config"
)

const page = `<html><body>
<div class="product-card-top">
  <h1 class="product-card-top__title big">Pandora <b>DX-40RS</b></h1>
  <span class="old-price">20 000 ₽</span>
  <span class="product-card-top__price">  15 990 ₽ </span>
</div>
</body></html>`

func testConfig() config.ProductInfoConfig {
	return config.ProductInfoConfig{
		Enabled:       true,
		TitleSelector: "h1.product-card-top__title",
		PriceSelector: "span.product-card-top__price",
		Timeout:       time.Second,
	}
}

func newScraperWith(t *testing.T, cfg config.ProductInfoConfig, h http.HandlerFunc) (*Scraper, string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	s, err := NewScraper(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s, srv.URL
}

func newScraper(t *testing.T, h http.HandlerFunc) (*Scraper, string) {
	t.Helper()
	return newScraperWith(t, testConfig(), h)
}

func TestGetProductInfo(t *testing.T) {
	var ua string
	s, url := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		ua = r.UserAgent()
		_, _ = io.WriteString(w, page)
	})

	info, err := s.GetProductInfo(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "Pandora DX-40RS - 15 990 ₽", info)
	assert.Equal(t, userAgent, ua)
}

func TestGetProductInfoPartial(t *testing.T) {
	s, url := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<h1 class="product-card-top__title">Only title</h1>`)
	})

	info, err := s.GetProductInfo(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "Only title - Цена не найдена", info)
}

func TestGetProductInfoErrors(t *testing.T) {
	s, url := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `<p>nothing here</p>`)
	})

	_, err := s.GetProductInfo(context.Background(), url+"/missing")
	assert.Error(t, err)

	_, err = s.GetProductInfo(context.Background(), url)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetProductInfoCompoundSelectors(t *testing.T) {
	cfg := testConfig()
	cfg.TitleSelector = "div.product-card-top h1 > b"
	cfg.PriceSelector = "span.price.current"
	s, url := newScraperWith(t, cfg, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<div class="product-card-top">
  <h1>Pandora <b>DX-40RS</b></h1>
  <span class="price old">20 000 ₽</span>
  <span class="price current">15 990 ₽</span>
</div>`)
	})

	info, err := s.GetProductInfo(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "DX-40RS - 15 990 ₽", info)
}

func TestNewScraperRejectsBadSelector(t *testing.T) {
	cfg := testConfig()
	cfg.PriceSelector = "span[class="
	_, err := NewScraper(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
