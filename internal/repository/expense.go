package repository

import (
	"context"

	"expense-tracker/internal/domain"
)

// ExpenseRepository exposes persistence operations for expenses. Every
// operation is scoped by the owning user's id.
type ExpenseRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, expense *domain.Expense) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Expense, error)
	SummaryByUser(ctx context.Context, userID int64) (*domain.Summary, error)
	DeleteByUser(ctx context.Context, userID, id int64) (bool, error)
}
