// Package pricing рассчитывает итоговую стоимость заказа с учётом купона, монет и доставки.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

// ErrMinimumOrderNotMet возвращается, если сумма корзины меньше минимальной суммы заказа купона.
var ErrMinimumOrderNotMet = errors.New("minimum order value not met")

// DefaultShippingRule возвращает правило доставки витрины: бесплатно от 500, иначе 100.
func DefaultShippingRule() model.ShippingRule {
	return model.ShippingRule{
		FreeThreshold: 500,
		FlatFee:       100,
	}
}

// Subtotal возвращает сумму позиций корзины без скидок.
func Subtotal(lines []model.CartLine) float64 {
	var subtotal float64
	for _, l := range lines {
		subtotal += l.UnitPrice * float64(l.Quantity)
	}
	return subtotal
}

// CouponDiscount возвращает скидку по купону для указанной суммы корзины.
// Скидка никогда не превышает maxDiscount (для процентных купонов) и саму сумму.
func CouponDiscount(coupon *model.Coupon, subtotal float64) float64 {
	if coupon == nil {
		return 0
	}

	switch coupon.Kind {
	case model.CouponKindPercent:
		discount := subtotal * coupon.Amount / 100
		if coupon.MaxDiscount != nil {
			discount = math.Min(discount, *coupon.MaxDiscount)
		}
		return math.Min(discount, subtotal)
	case model.CouponKindFlat:
		return math.Min(coupon.Amount, subtotal)
	default:
		return 0
	}
}

// Shipping возвращает стоимость доставки для указанной суммы корзины.
func Shipping(subtotal float64, rule model.ShippingRule) float64 {
	if subtotal >= rule.FreeThreshold {
		return 0
	}
	return rule.FlatFee
}

// Reconcile рассчитывает итоговую стоимость заказа.
//
// Функция чистая: не выполняет ввод-вывод и не возвращает ошибок. Минимальная сумма заказа купона
// здесь не проверяется, это делает CheckMinimumOrder в момент применения купона. Скидка за монеты
// вычитается как есть. Отрицательный итог приводится к нулю, NaN на входе даёт NaN на выходе.
func Reconcile(lines []model.CartLine, coupon *model.Coupon, coins *model.CoinDiscount, rule model.ShippingRule) model.Totals {
	subtotal := Subtotal(lines)
	couponDiscount := CouponDiscount(coupon, subtotal)

	var coinAmount float64
	if coins != nil {
		coinAmount = coins.DiscountAmount
	}

	shipping := Shipping(subtotal, rule)

	total := subtotal - couponDiscount - coinAmount + shipping
	if total < 0 {
		total = 0
	}

	return model.Totals{
		Subtotal:       subtotal,
		CouponDiscount: couponDiscount,
		CoinDiscount:   coinAmount,
		Discount:       couponDiscount + coinAmount,
		Shipping:       shipping,
		Total:          total,
	}
}

// CheckMinimumOrder проверяет, что сумма корзины достигает минимальной суммы заказа купона.
func CheckMinimumOrder(coupon *model.Coupon, subtotal float64) error {
	if coupon == nil || coupon.MinOrderValue == nil {
		return nil
	}
	if subtotal < *coupon.MinOrderValue {
		return fmt.Errorf("%w: coupon %s requires %.2f, cart is %.2f",
			ErrMinimumOrderNotMet, coupon.Code, *coupon.MinOrderValue, subtotal)
	}
	return nil
}
