// Package timeline строит шаги индикатора прогресса заказа по его статусу.
package timeline

import (
	"strings"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

var canonicalOrder = []model.OrderStatus{
	model.OrderStatusPending,
	model.OrderStatusConfirmed,
	model.OrderStatusShipped,
	model.OrderStatusDelivered,
}

var labels = map[model.OrderStatus]string{
	model.OrderStatusPending:   "Pending",
	model.OrderStatusConfirmed: "Confirmed",
	model.OrderStatusShipped:   "Shipped",
	model.OrderStatusDelivered: "Delivered",
	model.OrderStatusCancelled: "Cancelled",
}

// Normalize приводит статус заказа к нижнему регистру.
func Normalize(rawStatus string) model.OrderStatus {
	return model.OrderStatus(strings.ToLower(strings.TrimSpace(rawStatus)))
}

// Project возвращает упорядоченный список шагов для статуса заказа.
//
// Для отменённого заказа возвращаются два шага: выполненный "pending" и активный "cancelled".
// Неизвестный статус не является ошибкой: все четыре шага возвращаются невыполненными.
func Project(rawStatus string) []model.StatusStep {
	status := Normalize(rawStatus)

	if status == model.OrderStatusCancelled {
		return []model.StatusStep{
			{
				Key:       model.OrderStatusPending,
				Label:     labels[model.OrderStatusPending],
				Completed: true,
			},
			{
				Key:       model.OrderStatusCancelled,
				Label:     labels[model.OrderStatusCancelled],
				Completed: true,
				Active:    true,
				Cancelled: true,
			},
		}
	}

	current := -1
	for i, s := range canonicalOrder {
		if s == status {
			current = i
			break
		}
	}

	steps := make([]model.StatusStep, 0, len(canonicalOrder))
	for i, s := range canonicalOrder {
		steps = append(steps, model.StatusStep{
			Key:       s,
			Label:     labels[s],
			Completed: i <= current,
			Active:    i == current,
		})
	}

	return steps
}
