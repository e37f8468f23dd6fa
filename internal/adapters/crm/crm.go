package crm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/larriantoniy/tg_sales_bot/internal/config"
	"github.com/larriantoniy/tg_sales_bot/internal/domain"
)

const defaultTimeout = 10 * time.Second

var (
	ErrUnexpectedStatus = errors.New("crm: unexpected status")
	ErrDispatchTimeout  = errors.New("crm: timeout")
	ErrCircuitOpen      = errors.New("crm: circuit open")
)

// Client отправляет заявку в CRM обычной формой (application/x-www-form-urlencoded).
// Успех — любой 2xx. Повторов нет: решение о повторе принимает пользователь.
type Client struct {
	client  *http.Client
	logger  *slog.Logger
	cfg     config.CRMConfig
	breaker *gobreaker.CircuitBreaker
}

func NewClient(cfg config.CRMConfig, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	failures := cfg.BreakerFailures

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "crm",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return failures > 0 && counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("CRM circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		cfg:     cfg,
		breaker: breaker,
	}
}

// Dispatch реализует ports.LeadDispatcher
func (c *Client) Dispatch(ctx context.Context, lead domain.LeadRecord) domain.DispatchResult {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	started := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, lead)
	})
	if err != nil {
		err = classify(err)
		c.logger.Error("CRM dispatch failed",
			"lead_id", lead.ID,
			"user_id", lead.UserID,
			"elapsed", time.Since(started),
			"error", err,
		)
		return domain.Failed(err.Error())
	}

	c.logger.Info("CRM dispatch delivered",
		"lead_id", lead.ID,
		"user_id", lead.UserID,
		"items", len(lead.RecommendedItems),
		"elapsed", time.Since(started),
	)
	return domain.Delivered()
}

func (c *Client) form(lead domain.LeadRecord) url.Values {
	phone := lead.Phone.String()
	if c.cfg.PhoneStripPlus {
		phone = lead.Phone.Digits()
	}
	source := c.cfg.Source
	if source == "" {
		source = lead.Source
	}

	form := url.Values{}
	form.Set(c.cfg.PhoneField, phone)
	form.Set(c.cfg.SourceField, source)
	if c.cfg.ItemsField != "" && len(lead.RecommendedItems) > 0 {
		form.Set(c.cfg.ItemsField, strings.Join(lead.ItemNames(), ", "))
	}
	return form
}

func (c *Client) post(ctx context.Context, lead domain.LeadRecord) error {
	body := c.form(lead).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// тело не разбираем, но дочитываем, чтобы соединение вернулось в пул
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("CRM returned non-2xx", "status", resp.StatusCode, "body", string(data))
		return fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

func classify(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrDispatchTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrDispatchTimeout
	}
	if errors.Is(err, ErrUnexpectedStatus) {
		return err
	}
	return fmt.Errorf("crm: request failed: %w", err)
}
