package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

// InvalidError lists the reasons a product was rejected.
type InvalidError struct {
	Problems []string
}

func (e *InvalidError) Error() string { return strings.Join(e.Problems, "; ") }

var Categories = []string{"polo-shirts", "knit-polo-shirts", "zip-polo-shirts", "t-shirts", "shirts"}

type Color struct {
	Name string `json:"name" toml:"name"`
	Hex  string `json:"hex" toml:"hex"`
}

type Product struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice"`
	Category      string              `json:"category"`
	Images        []string            `json:"images"`
	Sizes         []string            `json:"sizes"`
	Colors        []Color             `json:"colors"`
	StockBySize   map[string]int      `json:"stockBySize"`
	Stock         int                 `json:"stock"`
	Featured      bool                `json:"featured"`
	IsNew         bool                `json:"isNew"`
	Rating        float64             `json:"rating"`
	NumReviews    int                 `json:"numReviews"`
	Tags          []string            `json:"tags"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

func (p Product) Validate() error {
	var problems []string
	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "Please add a product name")
	}
	if strings.TrimSpace(p.Description) == "" {
		problems = append(problems, "Please add a description")
	}
	if p.Price.IsNegative() {
		problems = append(problems, "price must be >= 0")
	}
	if p.OriginalPrice.Valid && p.OriginalPrice.Decimal.IsNegative() {
		problems = append(problems, "originalPrice must be >= 0")
	}
	if !validCategory(p.Category) {
		problems = append(problems, fmt.Sprintf("category %q is not supported", p.Category))
	}
	if p.Stock < 0 {
		problems = append(problems, "stock must be >= 0")
	}
	for size, n := range p.StockBySize {
		if n < 0 {
			problems = append(problems, fmt.Sprintf("stock for size %s must be >= 0", size))
		}
	}
	if p.Rating < 0 || p.Rating > 5 {
		problems = append(problems, "rating must be between 0 and 5")
	}
	if len(problems) > 0 {
		return &InvalidError{Problems: problems}
	}
	return nil
}

func validCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Patch carries a partial product update; nil fields keep the stored value.
type Patch struct {
	Name          *string              `json:"name"`
	Description   *string              `json:"description"`
	Price         *decimal.Decimal     `json:"price"`
	OriginalPrice *decimal.NullDecimal `json:"originalPrice"`
	Category      *string              `json:"category"`
	Images        []string             `json:"images"`
	Sizes         []string             `json:"sizes"`
	Colors        []Color              `json:"colors"`
	StockBySize   map[string]int       `json:"stockBySize"`
	Stock         *int                 `json:"stock"`
	Featured      *bool                `json:"featured"`
	IsNew         *bool                `json:"isNew"`
	Tags          []string             `json:"tags"`
}

func (pt Patch) Apply(p *Product) {
	if pt.Name != nil && *pt.Name != "" {
		p.Name = *pt.Name
	}
	if pt.Description != nil && *pt.Description != "" {
		p.Description = *pt.Description
	}
	if pt.Price != nil {
		p.Price = *pt.Price
	}
	if pt.OriginalPrice != nil {
		p.OriginalPrice = *pt.OriginalPrice
	}
	if pt.Category != nil && *pt.Category != "" {
		p.Category = *pt.Category
	}
	if pt.Images != nil {
		p.Images = pt.Images
	}
	if pt.Sizes != nil {
		p.Sizes = pt.Sizes
	}
	if pt.Colors != nil {
		p.Colors = pt.Colors
	}
	if pt.StockBySize != nil {
		p.StockBySize = pt.StockBySize
	}
	if pt.Stock != nil {
		p.Stock = *pt.Stock
	}
	if pt.Featured != nil {
		p.Featured = *pt.Featured
	}
	if pt.IsNew != nil {
		p.IsNew = *pt.IsNew
	}
	if pt.Tags != nil {
		p.Tags = pt.Tags
	}
}

// assignments returns the columns pt sets and their values taken from p, which
// must already have pt applied.
func (pt Patch) assignments(p Product) ([]string, []any) {
	var cols []string
	var vals []any
	set := func(col string, v any) {
		cols = append(cols, col)
		vals = append(vals, v)
	}
	if pt.Name != nil && *pt.Name != "" {
		set("name", p.Name)
	}
	if pt.Description != nil && *pt.Description != "" {
		set("description", p.Description)
	}
	if pt.Price != nil {
		set("price", p.Price)
	}
	if pt.OriginalPrice != nil {
		set("original_price", p.OriginalPrice)
	}
	if pt.Category != nil && *pt.Category != "" {
		set("category", p.Category)
	}
	if pt.Images != nil {
		set("images", p.Images)
	}
	if pt.Sizes != nil {
		set("sizes", p.Sizes)
	}
	if pt.Colors != nil {
		set("colors", p.Colors)
	}
	if pt.StockBySize != nil {
		set("stock_by_size", p.StockBySize)
	}
	if pt.Stock != nil {
		set("stock", p.Stock)
	}
	if pt.Featured != nil {
		set("featured", p.Featured)
	}
	if pt.IsNew != nil {
		set("is_new", p.IsNew)
	}
	if pt.Tags != nil {
		set("tags", p.Tags)
	}
	return cols, vals
}
