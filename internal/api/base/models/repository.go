// Package models holds the shared result types of the base repository layer.
package models

// PaginateResult is one page of a query
type PaginateResult[T any] struct {
	// Current page, from 1
	Page int64 `json:"page" bson:"page"`
	// Page size
	Limit int64 `json:"limit" bson:"limit"`
	// Items on this page
	ItemCount int64 `json:"itemCount" bson:"itemCount"`
	Items     []T   `json:"items" bson:"items"`
	// Items across all pages
	Total     int64 `json:"total" bson:"total"`
	TotalPage int64 `json:"totalPage" bson:"totalPage"`
}

// NewPaginateResult fills the derived fields
func NewPaginateResult[T any](items []T, page, limit, total int64) *PaginateResult[T] {
	if items == nil {
		items = []T{}
	}
	var totalPage int64
	if total > 0 && limit > 0 {
		totalPage = (total + limit - 1) / limit
	}
	return &PaginateResult[T]{
		Page:      page,
		Limit:     limit,
		ItemCount: int64(len(items)),
		Items:     items,
		Total:     total,
		TotalPage: totalPage,
	}
}
