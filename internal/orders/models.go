package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront-orders/internal/inventory"
)

// Customer is the registered owner of an order as known at checkout.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type LineItem struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Address struct {
	FullName string `json:"fullName"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Phone    string `json:"phone"`
}

type PaymentResult struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"updateTime"`
}

// Order is owned either by Owner or, when IsGuest, by GuestEmail alone.
type Order struct {
	ID              string          `json:"id"`
	Owner           *Customer       `json:"user,omitempty"`
	IsGuest         bool            `json:"isGuest"`
	GuestEmail      string          `json:"guestEmail,omitempty"`
	Items           []LineItem      `json:"items"`
	ShippingAddress Address         `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentResult   *PaymentResult  `json:"paymentResult"`
	ItemsTotal      decimal.Decimal `json:"itemsTotal"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          Status          `json:"status"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt"`
	DeliveredAt     *time.Time      `json:"deliveredAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Number is the short reference shown to customers: the last eight
// characters of the id, upper-cased.
func (o Order) Number() string {
	id := strings.ReplaceAll(o.ID, "-", "")
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}

// OwnedBy reports whether userID is the registered owner.
func (o Order) OwnedBy(userID string) bool {
	return !o.IsGuest && o.Owner != nil && userID != "" && o.Owner.ID == userID
}

// StockItems is the order's demand on inventory.
func (o Order) StockItems() []inventory.Item {
	return stockItems(o.Items)
}

func stockItems(lines []LineItem) []inventory.Item {
	out := make([]inventory.Item, 0, len(lines))
	for _, l := range lines {
		out = append(out, inventory.Item{ProductID: l.ProductID, Name: l.Name, Size: l.Size, Quantity: l.Quantity})
	}
	return out
}

type Page struct {
	Orders []Order `json:"orders"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
	Total  int     `json:"total"`
}

type Stats struct {
	TotalOrders     int             `json:"totalOrders"`
	PendingOrders   int             `json:"pendingOrders"`
	ConfirmedOrders int             `json:"confirmedOrders"`
	ShippedOrders   int             `json:"shippedOrders"`
	DeliveredOrders int             `json:"deliveredOrders"`
	CancelledOrders int             `json:"cancelledOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
}
