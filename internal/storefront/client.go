// Package storefront предоставляет клиент для REST API витрины: купоны, кошелёк и заказы.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

var (
	// ErrCouponRejected возвращается, если сервис купонов отклонил код купона.
	ErrCouponRejected = errors.New("coupon rejected")
	// ErrWalletRejected возвращается, если сервис кошелька отказал в списании монет.
	ErrWalletRejected = errors.New("coin redemption rejected")
	// ErrOrderNotFound возвращается, если сервис заказов не знает указанный заказ.
	ErrOrderNotFound = errors.New("order not found")
	// ErrNotConfigured возвращается при обращении через клиент без адреса API.
	ErrNotConfigured = errors.New("storefront client not configured")
)

const maxErrorBody = 512

type authKey struct{}

// WithAuthorization сохраняет в контексте значение заголовка Authorization для запросов к API.
func WithAuthorization(ctx context.Context, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, authKey{}, value)
}

func authorizationFromContext(ctx context.Context) string {
	v, _ := ctx.Value(authKey{}).(string)
	return v
}

// Client инкапсулирует HTTP-взаимодействие с API витрины.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// Option настраивает клиент.
type Option func(*retryablehttp.Client)

// WithRetry задаёт число повторов и границы паузы между ними.
func WithRetry(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryMax = retryMax
		c.RetryWaitMin = waitMin
		c.RetryWaitMax = waitMax
	}
}

// NewClient создаёт клиент API витрины по указанному адресу.
// Запросы повторяются при ответах 5xx и 429 с учётом заголовка Retry-After.
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	if logger != nil {
		rc.Logger = leveledLogger{logger.Sugar()}
	}

	for _, opt := range opts {
		opt(rc)
	}

	return &Client{
		baseURL:    base,
		httpClient: rc,
	}
}

type couponRequest struct {
	Code       string  `json:"code"`
	OrderValue float64 `json:"orderValue"`
}

type couponResponse struct {
	Code        string   `json:"code"`
	Type        string   `json:"type"`
	Amount      float64  `json:"amount"`
	MaxDiscount *float64 `json:"maxDiscount,omitempty"`
	MinOrder    *float64 `json:"minOrder,omitempty"`
}

// ValidateCoupon проверяет код купона для заказа на указанную сумму.
func (c *Client) ValidateCoupon(ctx context.Context, code string, orderValue float64) (*model.Coupon, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/coupons/validate", couponRequest{Code: code, OrderValue: orderValue})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", ErrCouponRejected, readMessage(resp.Body))
	default:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result couponResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if result.Code == "" {
		result.Code = code
	}

	return &model.Coupon{
		Code:          result.Code,
		Kind:          model.CouponKind(strings.ToLower(result.Type)),
		Amount:        result.Amount,
		MaxDiscount:   result.MaxDiscount,
		MinOrderValue: result.MinOrder,
	}, nil
}

type walletRequest struct {
	Coins      int64   `json:"coins"`
	OrderValue float64 `json:"orderValue"`
}

// CoinDiscount запрашивает у сервиса кошелька скидку за списание указанного числа монет.
func (c *Client) CoinDiscount(ctx context.Context, coins int64, orderValue float64) (*model.CoinDiscount, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/wallet/discount", walletRequest{Coins: coins, OrderValue: orderValue})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusPaymentRequired, http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", ErrWalletRejected, readMessage(resp.Body))
	default:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result model.CoinDiscount
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}

type orderResponse struct {
	Status string `json:"status"`
}

// OrderStatus возвращает текущий статус заказа в сервисе заказов.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	default:
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return result.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if c == nil || c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	var rawBody any
	if raw != nil {
		rawBody = raw
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, rawBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth := authorizationFromContext(ctx); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	return resp, nil
}

func readMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// leveledLogger передаёт журнал повторов запросов в zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}
