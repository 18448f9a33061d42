package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

// NewExpense carries the fields accepted when recording an expense.
type NewExpense struct {
	UserID      int64
	Category    string
	Amount      float64
	Description string
	Date        time.Time
}

// ExpenseService coordinates per-user expense operations.
type ExpenseService interface {
	Add(ctx context.Context, in NewExpense) (int64, error)
	List(ctx context.Context, userID int64) ([]domain.Expense, error)
	Summary(ctx context.Context, userID int64) (*domain.Summary, error)
	Delete(ctx context.Context, userID, id int64) error
}

type expenseService struct {
	expenses repository.ExpenseRepository
}

func NewExpenseService(expenses repository.ExpenseRepository) ExpenseService {
	return &expenseService{expenses: expenses}
}

func (s *expenseService) Add(ctx context.Context, in NewExpense) (int64, error) {
	category := strings.TrimSpace(in.Category)
	amount := domain.RoundAmount(in.Amount)
	if in.UserID <= 0 || category == "" || amount == 0 {
		return 0, invalid("User ID, category and amount are required")
	}

	expense := &domain.Expense{
		UserID:      in.UserID,
		Category:    category,
		Amount:      amount,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
	}
	id, err := s.expenses.Create(ctx, expense)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, invalid("Unknown user")
		}
		return 0, err
	}
	return id, nil
}

func (s *expenseService) List(ctx context.Context, userID int64) ([]domain.Expense, error) {
	return s.expenses.ListByUser(ctx, userID)
}

func (s *expenseService) Summary(ctx context.Context, userID int64) (*domain.Summary, error) {
	return s.expenses.SummaryByUser(ctx, userID)
}

func (s *expenseService) Delete(ctx context.Context, userID, id int64) error {
	deleted, err := s.expenses.DeleteByUser(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrExpenseNotFound
	}
	return nil
}
