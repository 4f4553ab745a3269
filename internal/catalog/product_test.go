package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProduct() Product {
	return Product{
		Name:        "Classic Polo",
		Description: "Pique cotton polo",
		Price:       decimal.NewFromInt(1299),
		Category:    "polo-shirts",
		Stock:       10,
		StockBySize: map[string]int{"M": 4, "L": 6},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validProduct().Validate())

	p := validProduct()
	p.Name = " "
	p.Category = "jackets"
	p.StockBySize["S"] = -1
	err := p.Validate()
	assert.ErrorContains(t, err, "Please add a product name")
	assert.ErrorContains(t, err, `category "jackets" is not supported`)
	assert.ErrorContains(t, err, "stock for size S must be >= 0")
}

func TestPatch_Apply(t *testing.T) {
	p := validProduct()
	empty := ""
	stock := 0
	price := decimal.NewFromInt(999)

	Patch{Name: &empty, Stock: &stock, Price: &price, Tags: []string{"sale"}}.Apply(&p)

	assert.Equal(t, "Classic Polo", p.Name, "empty name keeps stored value")
	assert.Equal(t, 0, p.Stock)
	assert.True(t, price.Equal(p.Price))
	assert.Equal(t, []string{"sale"}, p.Tags)
	assert.Equal(t, map[string]int{"M": 4, "L": 6}, p.StockBySize)
}

func TestPatch_AssignmentsOnlyTouchSetColumns(t *testing.T) {
	p := validProduct()
	name := "Heritage Polo"
	pt := Patch{Name: &name}
	pt.Apply(&p)

	cols, vals := pt.assignments(p)
	assert.Equal(t, []string{"name"}, cols)
	assert.Equal(t, []any{"Heritage Polo"}, vals)

	stock := 7
	empty := ""
	pt = Patch{Stock: &stock, Description: &empty, StockBySize: map[string]int{"M": 7}}
	p = validProduct()
	pt.Apply(&p)
	cols, _ = pt.assignments(p)
	assert.Equal(t, []string{"stock_by_size", "stock"}, cols)
}

func TestValidate_InvalidError(t *testing.T) {
	p := validProduct()
	p.Rating = 6

	var inv *InvalidError
	require.ErrorAs(t, p.Validate(), &inv)
	assert.Equal(t, []string{"rating must be between 0 and 5"}, inv.Problems)
}
