// Package service реализует бизнес-логику оформления заказа.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-checkout/internal/model"
	"github.com/mmeshcher/storefront-checkout/internal/pricing"
	"github.com/mmeshcher/storefront-checkout/internal/repository"
	"github.com/mmeshcher/storefront-checkout/internal/storefront"
	"github.com/mmeshcher/storefront-checkout/internal/timeline"
	"github.com/mmeshcher/storefront-checkout/internal/validation"
)

// ErrStorefrontUnavailable возвращается, если адрес API витрины не настроен.
var ErrStorefrontUnavailable = errors.New("storefront api is not configured")

// Repository описывает контракт хранилища сеансов, используемый сервисом.
type Repository interface {
	Close() error
	Create(ctx context.Context, s *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, s *model.Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Storefront описывает обращения к внешнему API витрины.
type Storefront interface {
	ValidateCoupon(ctx context.Context, code string, orderValue float64) (*model.Coupon, error)
	CoinDiscount(ctx context.Context, coins int64, orderValue float64) (*model.CoinDiscount, error)
	OrderStatus(ctx context.Context, orderID string) (string, error)
}

// Service содержит бизнес-логику оформления заказа.
type Service struct {
	repo     Repository
	api      Storefront
	shipping model.ShippingRule
	ttl      time.Duration
	logger   *zap.Logger

	now           func() time.Time
	sweepInterval time.Duration
}

// NewService создаёт сервис с указанным хранилищем сеансов и клиентом API витрины.
// api может быть nil: тогда операции, требующие внешнего API, возвращают ErrStorefrontUnavailable.
func NewService(repo Repository, api Storefront, shipping model.ShippingRule, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:          repo,
		api:           api,
		shipping:      shipping,
		ttl:           ttl,
		logger:        logger,
		now:           time.Now,
		sweepInterval: time.Minute,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// ShippingRule возвращает действующее правило доставки.
func (s *Service) ShippingRule() model.ShippingRule {
	return s.shipping
}

// CreateSession открывает новый сеанс оформления заказа с пустой корзиной.
func (s *Service) CreateSession(ctx context.Context) (*model.Session, error) {
	now := s.now().UTC()
	sess := &model.Session{
		ID:        uuid.NewString(),
		Lines:     []model.CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSession возвращает сеанс по идентификатору.
// Сеанс, простаивающий дольше TTL, считается закрытым, даже если очистка до него ещё не дошла.
func (s *Service) GetSession(ctx context.Context, id string) (*model.Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 && sess.UpdatedAt.Before(s.now().Add(-s.ttl)) {
		if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			s.logger.Warn("delete expired session", zap.String("session", id), zap.Error(err))
		}
		return nil, repository.ErrSessionNotFound
	}
	return sess, nil
}

// CloseSession завершает сеанс и удаляет его состояние.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// SetCart заменяет содержимое корзины сеанса.
// Применённый купон не перепроверяется на минимальную сумму заказа.
func (s *Service) SetCart(ctx context.Context, id string, lines []model.CartLine) (*model.Session, error) {
	if err := validation.CartLines(lines); err != nil {
		return nil, err
	}

	return s.update(ctx, id, func(sess *model.Session) error {
		sess.Lines = lines
		return nil
	})
}

// ApplyCoupon проверяет код купона во внешнем сервисе и применяет его к сеансу.
// Минимальная сумма заказа проверяется один раз, по текущей сумме корзины.
func (s *Service) ApplyCoupon(ctx context.Context, id, code string) (*model.Session, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: empty coupon code", validation.ErrInvalidInput)
	}
	if s.api == nil {
		return nil, ErrStorefrontUnavailable
	}

	return s.update(ctx, id, func(sess *model.Session) error {
		subtotal := pricing.Subtotal(sess.Lines)

		coupon, err := s.api.ValidateCoupon(ctx, code, subtotal)
		if err != nil {
			return err
		}
		if err := validation.Coupon(coupon); err != nil {
			return fmt.Errorf("%w: %v", storefront.ErrCouponRejected, err)
		}
		if err := pricing.CheckMinimumOrder(coupon, subtotal); err != nil {
			return err
		}

		sess.Coupon = coupon
		return nil
	})
}

// RemoveCoupon снимает купон с сеанса.
func (s *Service) RemoveCoupon(ctx context.Context, id string) (*model.Session, error) {
	return s.update(ctx, id, func(sess *model.Session) error {
		sess.Coupon = nil
		return nil
	})
}

// ApplyCoins запрашивает у сервиса кошелька скидку за монеты и применяет её к сеансу.
func (s *Service) ApplyCoins(ctx context.Context, id string, coins int64) (*model.Session, error) {
	if err := validation.CoinsRequest(coins); err != nil {
		return nil, err
	}
	if s.api == nil {
		return nil, ErrStorefrontUnavailable
	}

	return s.update(ctx, id, func(sess *model.Session) error {
		discount, err := s.api.CoinDiscount(ctx, coins, pricing.Subtotal(sess.Lines))
		if err != nil {
			return err
		}
		if err := validation.CoinDiscount(discount); err != nil {
			return fmt.Errorf("%w: %v", storefront.ErrWalletRejected, err)
		}

		sess.Coins = discount
		return nil
	})
}

// RemoveCoins снимает скидку за монеты с сеанса.
func (s *Service) RemoveCoins(ctx context.Context, id string) (*model.Session, error) {
	return s.update(ctx, id, func(sess *model.Session) error {
		sess.Coins = nil
		return nil
	})
}

// Totals рассчитывает итоговую стоимость заказа для сеанса.
func (s *Service) Totals(sess *model.Session) model.Totals {
	return pricing.Reconcile(sess.Lines, sess.Coupon, sess.Coins, s.shipping)
}

// Quote рассчитывает стоимость без сеанса. Все входные данные проверяются до расчёта.
func (s *Service) Quote(lines []model.CartLine, coupon *model.Coupon, coins *model.CoinDiscount) (model.Totals, error) {
	if err := validation.CartLines(lines); err != nil {
		return model.Totals{}, err
	}
	if err := validation.Coupon(coupon); err != nil {
		return model.Totals{}, err
	}
	if err := validation.CoinDiscount(coins); err != nil {
		return model.Totals{}, err
	}
	if err := pricing.CheckMinimumOrder(coupon, pricing.Subtotal(lines)); err != nil {
		return model.Totals{}, err
	}

	return pricing.Reconcile(lines, coupon, coins, s.shipping), nil
}

// OrderTimeline запрашивает статус заказа и строит по нему шаги индикатора прогресса.
func (s *Service) OrderTimeline(ctx context.Context, orderID string) (model.OrderStatus, []model.StatusStep, error) {
	if s.api == nil {
		return "", nil, ErrStorefrontUnavailable
	}

	raw, err := s.api.OrderStatus(ctx, orderID)
	if err != nil {
		return "", nil, err
	}

	return timeline.Normalize(raw), timeline.Project(raw), nil
}

// StatusSteps строит шаги индикатора прогресса для статуса заказа.
func (s *Service) StatusSteps(status string) []model.StatusStep {
	return timeline.Project(status)
}

func (s *Service) update(ctx context.Context, id string, fn func(sess *model.Session) error) (*model.Session, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(sess); err != nil {
		return nil, err
	}

	sess.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// StartSessionSweeper периодически удаляет сеансы, простаивающие дольше TTL.
// Блокируется до отмены контекста.
func (s *Service) StartSessionSweeper(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepExpired(ctx)
		}
	}
}

func (s *Service) sweepExpired(ctx context.Context) {
	n, err := s.repo.DeleteExpired(ctx, s.now().Add(-s.ttl))
	if err != nil {
		s.logger.Warn("sweep expired sessions", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", zap.Int64("count", n))
	}
}
