package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceLow  Sort = "price-low"
	SortPriceHigh Sort = "price-high"
	SortName      Sort = "name"
)

const (
	defaultProductLimit = 12
	maxProductLimit     = 100
)

// ProductQuery is a validated listing request. Build it with NewProductQuery;
// the zero value lists the newest products.
type ProductQuery struct {
	category string
	search   string
	minPrice decimal.NullDecimal
	maxPrice decimal.NullDecimal
	featured bool
	sort     Sort
	page     int
	limit    int
}

func NewProductQuery(v url.Values) (ProductQuery, error) {
	q := ProductQuery{sort: SortNewest, page: 1, limit: defaultProductLimit}

	if c := strings.TrimSpace(v.Get("category")); c != "" && c != "all" {
		q.category = c
	}
	q.search = strings.TrimSpace(v.Get("search"))

	var err error
	if q.minPrice, err = parsePrice(v.Get("minPrice")); err != nil {
		return ProductQuery{}, fmt.Errorf("minPrice: %w", err)
	}
	if q.maxPrice, err = parsePrice(v.Get("maxPrice")); err != nil {
		return ProductQuery{}, fmt.Errorf("maxPrice: %w", err)
	}
	if q.minPrice.Valid && q.maxPrice.Valid && q.minPrice.Decimal.GreaterThan(q.maxPrice.Decimal) {
		return ProductQuery{}, fmt.Errorf("minPrice must not exceed maxPrice")
	}
	q.featured = v.Get("featured") == "true"

	switch s := Sort(v.Get("sort")); s {
	case "":
	case SortNewest, SortPriceLow, SortPriceHigh, SortName:
		q.sort = s
	default:
		return ProductQuery{}, fmt.Errorf("unknown sort %q", s)
	}

	if q.page, err = positive(v.Get("page"), 1); err != nil {
		return ProductQuery{}, fmt.Errorf("page: %w", err)
	}
	if q.limit, err = positive(v.Get("limit"), defaultProductLimit); err != nil {
		return ProductQuery{}, fmt.Errorf("limit: %w", err)
	}
	q.limit = min(q.limit, maxProductLimit)
	return q, nil
}

func (q ProductQuery) Page() int  { return max(q.page, 1) }
func (q ProductQuery) Limit() int { return orDefault(q.limit, defaultProductLimit) }
func (q ProductQuery) Offset() int {
	return (q.Page() - 1) * q.Limit()
}

// Where renders the filter as SQL with positional arguments.
func (q ProductQuery) Where() (string, []any) {
	var conds []string
	var args []any
	add := func(format string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}
	if q.category != "" {
		add("category = $%d", q.category)
	}
	if q.search != "" {
		add("(name ILIKE $%[1]d OR description ILIKE $%[1]d OR tags::text ILIKE $%[1]d)", "%"+q.search+"%")
	}
	if q.minPrice.Valid {
		add("price >= $%d", q.minPrice.Decimal)
	}
	if q.maxPrice.Valid {
		add("price <= $%d", q.maxPrice.Decimal)
	}
	if q.featured {
		conds = append(conds, "featured")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (q ProductQuery) OrderBy() string {
	switch q.sort {
	case SortPriceLow:
		return " ORDER BY price ASC, created_at DESC"
	case SortPriceHigh:
		return " ORDER BY price DESC, created_at DESC"
	case SortName:
		return " ORDER BY name ASC"
	default:
		return " ORDER BY created_at DESC"
	}
}

func parsePrice(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

func positive(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("must be >= 1")
	}
	return n, nil
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
