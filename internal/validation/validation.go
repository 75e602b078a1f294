// Package validation содержит проверки входных данных на границе сервиса.
package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

// ErrInvalidInput оборачивает все ошибки валидации пакета.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func isNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// CartLines проверяет позиции корзины: цена конечна и неотрицательна, количество не меньше единицы.
func CartLines(lines []model.CartLine) error {
	for i, l := range lines {
		if l.ID == "" {
			return invalid("line %d: empty id", i)
		}
		if !isNonNegative(l.UnitPrice) {
			return invalid("line %d: unit price %v", i, l.UnitPrice)
		}
		if l.Quantity < 1 {
			return invalid("line %d: quantity %d", i, l.Quantity)
		}
	}
	return nil
}

// Coupon проверяет купон, полученный от сервиса купонов.
func Coupon(c *model.Coupon) error {
	if c == nil {
		return nil
	}
	if c.Code == "" {
		return invalid("coupon: empty code")
	}
	if !isNonNegative(c.Amount) {
		return invalid("coupon %s: amount %v", c.Code, c.Amount)
	}

	switch c.Kind {
	case model.CouponKindPercent:
		if c.Amount > 100 {
			return invalid("coupon %s: percent amount %v exceeds 100", c.Code, c.Amount)
		}
	case model.CouponKindFlat:
	default:
		return invalid("coupon %s: unknown type %q", c.Code, c.Kind)
	}

	if c.MaxDiscount != nil && !isNonNegative(*c.MaxDiscount) {
		return invalid("coupon %s: max discount %v", c.Code, *c.MaxDiscount)
	}
	if c.MinOrderValue != nil && !isNonNegative(*c.MinOrderValue) {
		return invalid("coupon %s: min order %v", c.Code, *c.MinOrderValue)
	}

	return nil
}

// CoinDiscount проверяет скидку за монеты, полученную от сервиса кошелька.
func CoinDiscount(d *model.CoinDiscount) error {
	if d == nil {
		return nil
	}
	if d.CoinsUsed < 0 {
		return invalid("coins used %d", d.CoinsUsed)
	}
	if !isNonNegative(d.DiscountAmount) {
		return invalid("coin discount amount %v", d.DiscountAmount)
	}
	return nil
}

// CoinsRequest проверяет количество монет, которое пользователь хочет списать.
func CoinsRequest(coins int64) error {
	if coins <= 0 {
		return invalid("coins must be positive, got %d", coins)
	}
	return nil
}
