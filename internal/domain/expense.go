package domain

import (
	"math"
	"time"
)

// Expense is a single spending record owned by a user.
type Expense struct {
	ID          int64
	UserID      int64
	Category    string
	Amount      float64
	Description string
	Date        time.Time
	CreatedAt   time.Time
}

// CategoryTotal aggregates a user's expenses within one category.
type CategoryTotal struct {
	Category    string
	Count       int64
	TotalAmount float64
}

// Summary is the per-category breakdown of a user's expenses.
type Summary struct {
	ByCategory []CategoryTotal
	GrandTotal float64
}

// RoundAmount rounds to the two fraction digits amounts are stored with.
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}
