// Package cart нормализует позиции корзины, приходящие от клиента и внешнего API.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

// ErrUnknownItemType возвращается для позиции с неизвестным значением поля type.
var ErrUnknownItemType = errors.New("unknown cart item type")

// Product описывает товар в корзине.
type Product struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Quantity  int      `json:"quantity"`
	Image     string   `json:"image,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// ComboPack описывает набор товаров, продаваемый по единой цене.
type ComboPack struct {
	ComboID    string   `json:"comboId"`
	Name       string   `json:"name"`
	ComboPrice float64  `json:"comboPrice"`
	Quantity   int      `json:"quantity"`
	Image      string   `json:"image,omitempty"`
	Images     []string `json:"images,omitempty"`
}

// Item описывает позицию корзины. Заполнено ровно одно из полей Product или Combo.
type Item struct {
	Product *Product
	Combo   *ComboPack
}

// UnmarshalJSON декодирует позицию по полю type.
func (i *Item) UnmarshalJSON(data []byte) error {
	var head struct {
		Type model.ItemKind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("decode item type: %w", err)
	}

	switch head.Type {
	case model.ItemKindProduct, "":
		var p Product
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("decode product: %w", err)
		}
		*i = Item{Product: &p}
	case model.ItemKindCombo:
		var c ComboPack
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("decode combo pack: %w", err)
		}
		*i = Item{Combo: &c}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownItemType, head.Type)
	}

	return nil
}

// MarshalJSON кодирует позицию вместе с полем type.
func (i Item) MarshalJSON() ([]byte, error) {
	switch {
	case i.Product != nil:
		return json.Marshal(struct {
			Type model.ItemKind `json:"type"`
			*Product
		}{model.ItemKindProduct, i.Product})
	case i.Combo != nil:
		return json.Marshal(struct {
			Type model.ItemKind `json:"type"`
			*ComboPack
		}{model.ItemKindCombo, i.Combo})
	default:
		return nil, ErrUnknownItemType
	}
}

// Line приводит позицию к виду, используемому при расчёте стоимости.
func (i Item) Line() (model.CartLine, error) {
	switch {
	case i.Product != nil:
		p := i.Product
		return model.CartLine{
			ID:        p.ProductID,
			Kind:      model.ItemKindProduct,
			Name:      p.Name,
			Image:     pickImage(p.Image, p.Images),
			UnitPrice: p.Price,
			Quantity:  p.Quantity,
		}, nil
	case i.Combo != nil:
		c := i.Combo
		return model.CartLine{
			ID:        c.ComboID,
			Kind:      model.ItemKindCombo,
			Name:      c.Name,
			Image:     pickImage(c.Image, c.Images),
			UnitPrice: c.ComboPrice,
			Quantity:  c.Quantity,
		}, nil
	default:
		return model.CartLine{}, ErrUnknownItemType
	}
}

// Normalize приводит список позиций к списку строк корзины.
func Normalize(items []Item) ([]model.CartLine, error) {
	lines := make([]model.CartLine, 0, len(items))
	for idx, it := range items {
		l, err := it.Line()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", idx, err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func pickImage(image string, images []string) string {
	if image != "" {
		return image
	}
	if len(images) > 0 {
		return images[0]
	}
	return ""
}
