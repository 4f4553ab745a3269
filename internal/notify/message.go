// Package notify renders and delivers transactional order email.
package notify

import (
	"time"

	"github.com/shopspring/decimal"
)

type Template string

const (
	OrderConfirmation      Template = "orderConfirmation"
	OrderShipped           Template = "orderShipped"
	OrderDelivered         Template = "orderDelivered"
	AdminOrderNotification Template = "adminOrderNotification"
)

const (
	TopicEmail          = "notification.email"
	EventEmailRequested = "EmailRequested"
)

type Address struct {
	FullName string `json:"fullName"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Phone    string `json:"phone"`
}

type Line struct {
	Name     string          `json:"name"`
	Image    string          `json:"image,omitempty"`
	Size     string          `json:"size,omitempty"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OrderSummary is the order as the templates see it.
type OrderSummary struct {
	ID              string          `json:"id"`
	Number          string          `json:"number"`
	PlacedAt        time.Time       `json:"placedAt"`
	Items           []Line          `json:"items"`
	ItemsTotal      decimal.Decimal `json:"itemsTotal"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaymentMethod   string          `json:"paymentMethod"`
	IsPaid          bool            `json:"isPaid"`
	ShippingAddress Address         `json:"shippingAddress"`
}

type Message struct {
	ID       string       `json:"id"`
	To       string       `json:"to"`
	Name     string       `json:"name"`
	Template Template     `json:"template"`
	Order    OrderSummary `json:"order"`
}

// Recipient returns the greeting name, falling back to the shipping name.
func (m Message) Recipient() string {
	if m.Name != "" {
		return m.Name
	}
	if m.Order.ShippingAddress.FullName != "" {
		return m.Order.ShippingAddress.FullName
	}
	return "Customer"
}
