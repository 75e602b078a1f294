// Package handler содержит HTTP-обработчики API оформления заказа.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront-checkout/internal/cart"
	"github.com/mmeshcher/storefront-checkout/internal/middleware"
	"github.com/mmeshcher/storefront-checkout/internal/model"
	"github.com/mmeshcher/storefront-checkout/internal/pricing"
	"github.com/mmeshcher/storefront-checkout/internal/repository"
	"github.com/mmeshcher/storefront-checkout/internal/service"
	"github.com/mmeshcher/storefront-checkout/internal/storefront"
	"github.com/mmeshcher/storefront-checkout/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	CreateSession(ctx context.Context) (*model.Session, error)
	GetSession(ctx context.Context, id string) (*model.Session, error)
	CloseSession(ctx context.Context, id string) error
	SetCart(ctx context.Context, id string, lines []model.CartLine) (*model.Session, error)
	ApplyCoupon(ctx context.Context, id, code string) (*model.Session, error)
	RemoveCoupon(ctx context.Context, id string) (*model.Session, error)
	ApplyCoins(ctx context.Context, id string, coins int64) (*model.Session, error)
	RemoveCoins(ctx context.Context, id string) (*model.Session, error)
	Totals(sess *model.Session) model.Totals
	Quote(lines []model.CartLine, coupon *model.Coupon, coins *model.CoinDiscount) (model.Totals, error)
	OrderTimeline(ctx context.Context, orderID string) (model.OrderStatus, []model.StatusStep, error)
	StatusSteps(status string) []model.StatusStep
}

// Handler реализует HTTP-обработчики API оформления заказа.
type Handler struct {
	service           Service
	logger            *zap.Logger
	sessionMiddleware *middleware.SessionMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, sessions *middleware.SessionMiddleware) *Handler {
	return &Handler{
		service:           s,
		logger:            logger,
		sessionMiddleware: sessions,
	}
}

type sessionResponse struct {
	ID        string              `json:"id"`
	Items     []model.CartLine    `json:"items"`
	Coupon    *model.Coupon       `json:"coupon,omitempty"`
	Coins     *model.CoinDiscount `json:"coins,omitempty"`
	Totals    model.Totals        `json:"totals"`
	UpdatedAt string              `json:"updated_at"`
}

func (h *Handler) sessionResponse(s *model.Session) sessionResponse {
	items := s.Lines
	if items == nil {
		items = []model.CartLine{}
	}
	return sessionResponse{
		ID:        s.ID,
		Items:     items,
		Coupon:    s.Coupon,
		Coins:     s.Coins,
		Totals:    h.service.Totals(s),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}

// writeSession продлевает cookie сеанса и отдаёт его состояние.
func (h *Handler) writeSession(w http.ResponseWriter, status int, sess *model.Session) {
	h.sessionMiddleware.SetSessionCookie(w, sess.ID)
	h.writeJSON(w, status, h.sessionResponse(sess))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

// writeError отображает ошибки бизнес-логики в коды ответа HTTP.
func (h *Handler) writeError(w http.ResponseWriter, msg string, err error, fields ...zap.Field) {
	var status int
	switch {
	case errors.Is(err, validation.ErrInvalidInput), errors.Is(err, cart.ErrUnknownItemType):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrSessionNotFound), errors.Is(err, storefront.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storefront.ErrCouponRejected), errors.Is(err, pricing.ErrMinimumOrderNotMet):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, storefront.ErrWalletRejected):
		status = http.StatusPaymentRequired
	case errors.Is(err, service.ErrStorefrontUnavailable), errors.Is(err, storefront.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	default:
		h.logger.Error(msg, append(fields, zap.Error(err))...)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	http.Error(w, err.Error(), status)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	}
	return id, ok
}

// CreateSession открывает новый сеанс оформления заказа и устанавливает cookie сеанса.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.CreateSession(r.Context())
	if err != nil {
		h.writeError(w, "create session error", err)
		return
	}

	h.writeSession(w, http.StatusCreated, sess)
}

// GetSession возвращает состояние текущего сеанса вместе с расчётом стоимости.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		h.writeError(w, "get session error", err, zap.String("session", id))
		return
	}

	h.writeSession(w, http.StatusOK, sess)
}

// CloseSession завершает текущий сеанс. Повторное завершение не считается ошибкой.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	err := h.service.CloseSession(r.Context(), id)
	if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		h.writeError(w, "close session error", err, zap.String("session", id))
		return
	}

	h.sessionMiddleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type cartRequest struct {
	Items []cart.Item `json:"items"`
}

// SetCart заменяет содержимое корзины текущего сеанса.
func (h *Handler) SetCart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	lines, err := cart.Normalize(req.Items)
	if err != nil {
		h.writeError(w, "normalize cart error", err)
		return
	}

	sess, err := h.service.SetCart(r.Context(), id, lines)
	if err != nil {
		h.writeError(w, "set cart error", err, zap.String("session", id))
		return
	}

	h.writeSession(w, http.StatusOK, sess)
}

type couponRequest struct {
	Code string `json:"code"`
}

// ApplyCoupon применяет купон к текущему сеансу.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req couponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ctx := storefront.WithAuthorization(r.Context(), r.Header.Get("Authorization"))

	sess, err := h.service.ApplyCoupon(ctx, id, req.Code)
	if err != nil {
		h.writeError(w, "apply coupon error", err, zap.String("session", id), zap.String("coupon", req.Code))
		return
	}

	h.writeSession(w, http.StatusOK, sess)
}

// RemoveCoupon снимает купон с текущего сеанса.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.service.RemoveCoupon(r.Context(), id)
	if err != nil {
		h.writeError(w, "remove coupon error", err, zap.String("session", id))
		return
	}

	h.writeSession(w, http.StatusOK, sess)
}

type coinsRequest struct {
	Coins int64 `json:"coins"`
}

// ApplyCoins применяет скидку за монеты к текущему сеансу.
func (h *Handler) ApplyCoins(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req coinsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ctx := storefront.WithAuthorization(r.Context(), r.Header.Get("Authorization"))

	sess, err := h.service.ApplyCoins(ctx, id, req.Coins)
	if err != nil {
		h.writeError(w, "apply coins error", err, zap.String("session", id), zap.Int64("coins", req.Coins))
		return
	}

	h.writeSession(w, http.StatusOK, sess)
}

// RemoveCoins снимает скидку за монеты с текущего сеанса.
func (h *Handler) RemoveCoins(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.service.RemoveCoins(r.Context(), id)
	if err != nil {
		h.writeError(w, "remove coins error", err, zap.String("session", id))
		return
	}

	h.writeSession(w, http.StatusOK, sess)
}

// GetTotals возвращает расчёт стоимости текущего сеанса.
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	sess, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		h.writeError(w, "get totals error", err, zap.String("session", id))
		return
	}

	h.writeJSON(w, http.StatusOK, h.service.Totals(sess))
}

type quoteRequest struct {
	Items  []cart.Item         `json:"items"`
	Coupon *model.Coupon       `json:"coupon,omitempty"`
	Coins  *model.CoinDiscount `json:"coins,omitempty"`
}

// Quote рассчитывает стоимость по переданным данным без сеанса.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	lines, err := cart.Normalize(req.Items)
	if err != nil {
		h.writeError(w, "normalize cart error", err)
		return
	}

	totals, err := h.service.Quote(lines, req.Coupon, req.Coins)
	if err != nil {
		h.writeError(w, "quote error", err)
		return
	}

	h.writeJSON(w, http.StatusOK, totals)
}

type timelineResponse struct {
	OrderID string             `json:"orderId"`
	Status  model.OrderStatus  `json:"status"`
	Steps   []model.StatusStep `json:"steps"`
}

// GetOrderTimeline возвращает шаги индикатора прогресса для заказа из сервиса заказов.
func (h *Handler) GetOrderTimeline(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ctx := storefront.WithAuthorization(r.Context(), r.Header.Get("Authorization"))

	status, steps, err := h.service.OrderTimeline(ctx, orderID)
	if err != nil {
		h.writeError(w, "order timeline error", err, zap.String("order", orderID))
		return
	}

	h.writeJSON(w, http.StatusOK, timelineResponse{
		OrderID: orderID,
		Status:  status,
		Steps:   steps,
	})
}

// GetStatusSteps возвращает шаги индикатора прогресса для переданного статуса.
func (h *Handler) GetStatusSteps(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.StatusSteps(chi.URLParam(r, "status")))
}
