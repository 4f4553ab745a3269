package orders

import "github.com/shopspring/decimal"

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderPaid          = "OrderPaid"
)

type ItemQty struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size,omitempty"`
	Qty       int    `json:"qty"`
}

type OrderCreatedPayload struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id,omitempty"`
	Guest         bool            `json:"guest"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Items         []ItemQty       `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type OrderStatusChangedPayload struct {
	OrderID       string `json:"order_id"`
	From          Status `json:"from"`
	To            Status `json:"to"`
	StockRestored bool   `json:"stock_restored"`
}

type OrderPaidPayload struct {
	OrderID    string `json:"order_id"`
	PaymentRef string `json:"payment_ref"`
}

func itemQtys(lines []LineItem) []ItemQty {
	out := make([]ItemQty, 0, len(lines))
	for _, l := range lines {
		out = append(out, ItemQty{ProductID: l.ProductID, Size: l.Size, Qty: l.Quantity})
	}
	return out
}
