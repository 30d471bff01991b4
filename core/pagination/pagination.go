// Package pagination holds the page/offset arithmetic used by listing
// operations.
package pagination

import "strings"

// Order is the direction of the default listing order.
type Order string

const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

const (
	DefaultPage = 1
	DefaultTake = 10
	MaxTake     = 50
)

// PageOptions describes which page of a listing to return.
type PageOptions struct {
	Order Order `json:"order,omitempty" yaml:"order,omitempty"`
	Page  int   `json:"page,omitempty" yaml:"page,omitempty"`
	Take  int   `json:"take,omitempty" yaml:"take,omitempty"`
}

// Normalize returns a copy with defaults applied and take capped at MaxTake.
func (p PageOptions) Normalize() PageOptions {
	switch Order(strings.ToUpper(string(p.Order))) {
	case OrderAsc:
		p.Order = OrderAsc
	default:
		p.Order = OrderDesc
	}
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Take < 1 {
		p.Take = DefaultTake
	}
	if p.Take > MaxTake {
		p.Take = MaxTake
	}
	return p
}

// Skip is the number of rows preceding the page.
func (p PageOptions) Skip() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Take
}

// PageMeta describes a returned page relative to the whole result set.
type PageMeta struct {
	Page            int  `json:"page" yaml:"page"`
	Take            int  `json:"take" yaml:"take"`
	ItemCount       int  `json:"itemCount" yaml:"itemCount"`
	PageCount       int  `json:"pageCount" yaml:"pageCount"`
	HasPreviousPage bool `json:"hasPreviousPage" yaml:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage" yaml:"hasNextPage"`
}

// NewPageMeta computes page metadata for itemCount total rows.
func NewPageMeta(opts PageOptions, itemCount int) PageMeta {
	n := opts.Normalize()
	pageCount := (itemCount + n.Take - 1) / n.Take
	return PageMeta{
		Page:            n.Page,
		Take:            n.Take,
		ItemCount:       itemCount,
		PageCount:       pageCount,
		HasPreviousPage: n.Page > 1,
		HasNextPage:     n.Page < pageCount,
	}
}

// Page is one page of T together with its metadata.
type Page[T any] struct {
	Data []T      `json:"data" yaml:"data"`
	Meta PageMeta `json:"meta" yaml:"meta"`
}

// NewPage wraps data and metadata.
func NewPage[T any](data []T, meta PageMeta) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{Data: data, Meta: meta}
}
