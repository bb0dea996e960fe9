package models

import (
	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams carries search, sort and paging for list endpoints.
// SortBy is matched against a per-resource whitelist; unknown keys fall back
// to creation time.
type ListParams struct {
	Search   string
	SortBy   string
	SortDesc bool
	Page     int
	PageSize int
}

// Normalize clamps paging to sane bounds.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	ListParams
	UserID *uuid.UUID
	Type   domain.OrderType
	Status domain.OrderStatus
}

// Page is one slice of a listing plus the total match count.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func NewPage[T any](items []T, total int, p ListParams) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}
}
