// Package cart keeps each signed-in customer's cart in MongoDB.
package cart

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ariefcatur/go-storefront-orders/internal/apperr"
)

type Item struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Cart struct {
	UserID      string          `json:"user"`
	Items       []Item          `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Validate checks a replacement item list.
func Validate(items []Item) error {
	for i, it := range items {
		if it.ProductID == "" {
			return apperr.Validation(fmt.Sprintf("item %d has no product", i), nil)
		}
		if it.Quantity <= 0 {
			return apperr.Validation(fmt.Sprintf("item %d has invalid quantity %d", i, it.Quantity), nil)
		}
		if it.Price.IsNegative() {
			return apperr.Validation(fmt.Sprintf("item %d has negative price", i), nil)
		}
	}
	return nil
}

func total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// Mongo documents hold money as Decimal128.
type itemDoc struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name"`
	Image     string               `bson:"image,omitempty"`
	Size      string               `bson:"size,omitempty"`
	Color     string               `bson:"color,omitempty"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

type cartDoc struct {
	UserID      string               `bson:"user_id"`
	Items       []itemDoc            `bson:"items"`
	TotalAmount primitive.Decimal128 `bson:"total_amount"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toDoc(c Cart) cartDoc {
	items := make([]itemDoc, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, itemDoc{
			ProductID: it.ProductID, Name: it.Name, Image: it.Image, Size: it.Size, Color: it.Color,
			Quantity: it.Quantity, Price: toDecimal128(it.Price),
		})
	}
	return cartDoc{UserID: c.UserID, Items: items, TotalAmount: toDecimal128(c.TotalAmount), UpdatedAt: c.UpdatedAt}
}

func fromDoc(d cartDoc) Cart {
	items := make([]Item, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, Item{
			ProductID: it.ProductID, Name: it.Name, Image: it.Image, Size: it.Size, Color: it.Color,
			Quantity: it.Quantity, Price: fromDecimal128(it.Price),
		})
	}
	return Cart{UserID: d.UserID, Items: items, TotalAmount: fromDecimal128(d.TotalAmount), UpdatedAt: d.UpdatedAt}
}
