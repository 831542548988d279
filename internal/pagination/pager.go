// Package pagination pages an already ordered list for display. Navigation is
// clamped to the first and last page.
package pagination

type Pager struct {
	count int
	size  int
	page  int
}

// New starts on page 1. A size below 1 is treated as 1.
func New(count, size int) *Pager {
	if size < 1 {
		size = 1
	}
	if count < 0 {
		count = 0
	}
	return &Pager{count: count, size: size, page: 1}
}

// TotalPages is never below 1 so an empty list still renders one page.
func (p *Pager) TotalPages() int {
	pages := (p.count + p.size - 1) / p.size
	if pages == 0 {
		return 1
	}
	return pages
}

func (p *Pager) Page() int     { return p.page }
func (p *Pager) Size() int     { return p.size }
func (p *Pager) Count() int    { return p.count }
func (p *Pager) HasPrev() bool { return p.page > 1 }
func (p *Pager) HasNext() bool { return p.page < p.TotalPages() }

// Next reports whether the page moved.
func (p *Pager) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.page++
	return true
}

func (p *Pager) Prev() bool {
	if !p.HasPrev() {
		return false
	}
	p.page--
	return true
}

func (p *Pager) Goto(page int) {
	switch {
	case page < 1:
		p.page = 1
	case page > p.TotalPages():
		p.page = p.TotalPages()
	default:
		p.page = page
	}
}

// Bounds returns the half-open index range of the current page.
func (p *Pager) Bounds() (int, int) {
	start := (p.page - 1) * p.size
	if start > p.count {
		start = p.count
	}
	end := start + p.size
	if end > p.count {
		end = p.count
	}
	return start, end
}

func Slice[T any](items []T, p *Pager) []T {
	start, end := p.Bounds()
	if end > len(items) {
		end = len(items)
	}
	if start > end {
		start = end
	}
	return items[start:end]
}
