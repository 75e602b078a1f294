// Package model содержит доменные сущности сервиса оформления заказа.
package model

import "time"

// ItemKind описывает вид позиции корзины.
type ItemKind string

const (
	ItemKindProduct ItemKind = "product"
	ItemKindCombo   ItemKind = "combo"
)

// CartLine представляет нормализованную позицию корзины.
type CartLine struct {
	ID        string   `json:"id"`
	Kind      ItemKind `json:"kind"`
	Name      string   `json:"name,omitempty"`
	Image     string   `json:"image,omitempty"`
	UnitPrice float64  `json:"unitPrice"`
	Quantity  int      `json:"quantity"`
}

// CouponKind описывает способ расчёта скидки по купону.
type CouponKind string

const (
	CouponKindPercent CouponKind = "percent"
	CouponKindFlat    CouponKind = "flat"
)

// Coupon описывает купон, подтверждённый внешним сервисом купонов.
type Coupon struct {
	Code          string     `json:"code"`
	Kind          CouponKind `json:"type"`
	Amount        float64    `json:"amount"`
	MaxDiscount   *float64   `json:"maxDiscount,omitempty"`
	MinOrderValue *float64   `json:"minOrder,omitempty"`
}

// CoinDiscount описывает скидку за монеты, рассчитанную сервисом кошелька.
type CoinDiscount struct {
	CoinsUsed      int64   `json:"coinsUsed"`
	DiscountAmount float64 `json:"discountAmount"`
}

// ShippingRule задаёт порог бесплатной доставки и фиксированную стоимость доставки.
type ShippingRule struct {
	FreeThreshold float64 `json:"freeThreshold"`
	FlatFee       float64 `json:"flatFee"`
}

// Totals содержит итоговый расчёт стоимости заказа.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	CouponDiscount float64 `json:"couponDiscount"`
	CoinDiscount   float64 `json:"coinDiscount"`
	Discount       float64 `json:"discount"`
	Shipping       float64 `json:"shipping"`
	Total          float64 `json:"total"`
}

// OrderStatus описывает статус заказа во внешнем сервисе заказов.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// StatusStep описывает один шаг индикатора прогресса заказа.
type StatusStep struct {
	Key       OrderStatus `json:"key"`
	Label     string      `json:"label"`
	Completed bool        `json:"completed"`
	Active    bool        `json:"active"`
	Cancelled bool        `json:"cancelled"`
}

// Session содержит состояние сеанса оформления заказа.
type Session struct {
	ID        string        `json:"id"`
	Lines     []CartLine    `json:"lines"`
	Coupon    *Coupon       `json:"coupon,omitempty"`
	Coins     *CoinDiscount `json:"coins,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Clone возвращает копию сеанса, не разделяющую срезы и указатели с исходным.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Lines != nil {
		c.Lines = make([]CartLine, len(s.Lines))
		copy(c.Lines, s.Lines)
	}
	if s.Coupon != nil {
		cp := *s.Coupon
		if s.Coupon.MaxDiscount != nil {
			v := *s.Coupon.MaxDiscount
			cp.MaxDiscount = &v
		}
		if s.Coupon.MinOrderValue != nil {
			v := *s.Coupon.MinOrderValue
			cp.MinOrderValue = &v
		}
		c.Coupon = &cp
	}
	if s.Coins != nil {
		coins := *s.Coins
		c.Coins = &coins
	}
	return &c
}
