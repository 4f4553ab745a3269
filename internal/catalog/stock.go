package catalog

// StockPolicy is how a product counts its units: Aggregate or PerSize.
type StockPolicy interface {
	// Available is the count a line item with the given size is checked against.
	Available(size string) int
	// Tracks reports whether size has its own counter.
	Tracks(size string) bool
}

type Aggregate struct {
	Count int
}

func (a Aggregate) Available(string) int { return a.Count }
func (a Aggregate) Tracks(string) bool   { return false }

// PerSize keeps the aggregate next to the per-size counters; the two are not
// derived from each other.
type PerSize struct {
	Total int
	Sizes map[string]int
}

func (s PerSize) Available(size string) int {
	if n, ok := s.Sizes[size]; ok && size != "" {
		return n
	}
	return s.Total
}

func (s PerSize) Tracks(size string) bool {
	if size == "" {
		return false
	}
	_, ok := s.Sizes[size]
	return ok
}

func (p Product) Policy() StockPolicy {
	if len(p.StockBySize) == 0 {
		return Aggregate{Count: p.Stock}
	}
	return PerSize{Total: p.Stock, Sizes: p.StockBySize}
}

// TakeStock removes qty from the size counter (when tracked) and the aggregate,
// never going below zero.
func (p *Product) TakeStock(size string, qty int) {
	if p.Policy().Tracks(size) {
		p.StockBySize[size] = max(0, p.StockBySize[size]-qty)
	}
	p.Stock = max(0, p.Stock-qty)
}

// ReturnStock is the inverse of TakeStock. It is not capped.
func (p *Product) ReturnStock(size string, qty int) {
	if p.Policy().Tracks(size) {
		p.StockBySize[size] += qty
	}
	p.Stock += qty
}
