package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

const Brand = "Navigator"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money":     money,
	"lineTotal": func(l Line) string { return money(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))) },
	"isZero":    func(d decimal.Decimal) bool { return d.IsZero() },
	"brand":     func() string { return Brand },
	"upper":     strings.ToUpper,
}).ParseFS(templateFS, "templates/*.html"))

type view struct {
	Message
	FirstName string
}

// Render returns the subject and HTML body for m.
func Render(m Message) (subject, body string, err error) {
	switch m.Template {
	case OrderConfirmation:
		subject = fmt.Sprintf("Your %s Order #%s", Brand, m.Order.Number)
	case OrderShipped:
		subject = fmt.Sprintf("Your Order #%s is On Its Way", m.Order.Number)
	case OrderDelivered:
		subject = fmt.Sprintf("Delivered! Your Order #%s Has Arrived", m.Order.Number)
	case AdminOrderNotification:
		subject = fmt.Sprintf("New Order #%s - ₹%s", m.Order.Number, money(m.Order.TotalAmount))
	default:
		return "", "", fmt.Errorf("unknown template %q", m.Template)
	}

	first, _, _ := strings.Cut(m.Recipient(), " ")
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(m.Template), view{Message: m, FirstName: first}); err != nil {
		return "", "", fmt.Errorf("render %s: %w", m.Template, err)
	}
	return subject, buf.String(), nil
}

// money rounds to whole rupees and groups digits the Indian way (12,34,567).
func money(d decimal.Decimal) string {
	s := d.Round(0).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if len(s) > 3 {
		head, tail := s[:len(s)-3], s[len(s)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		s = strings.Join(groups, ",") + "," + tail
	}
	if neg {
		return "-" + s
	}
	return s
}
