// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres).
package repository

import (
	"context"

	"informeclaro/internal/model"
)

// ReportRepository persists the ledger of confirm outcomes using SQL queries only.
// No business logic here, strictly persistence operations.
type ReportRepository interface {
	// Create inserts a report row and returns the stored record.
	Create(ctx context.Context, r *model.Report) (*model.Report, error)

	// FindByID returns a report by its ID; sql.ErrNoRows when absent.
	FindByID(ctx context.Context, id string) (*model.Report, error)

	// List returns a page of reports, newest first, and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Report], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
