package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

var createExpensesTable = map[Dialect]string{
	SQLite: `
CREATE TABLE IF NOT EXISTS expenses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	category TEXT NOT NULL,
	amount REAL NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	date DATETIME NOT NULL,
	created_at DATETIME NOT NULL
);
`,
	MySQL: `
CREATE TABLE IF NOT EXISTS expenses (
	id INT AUTO_INCREMENT PRIMARY KEY,
	user_id INT NOT NULL,
	category VARCHAR(100) NOT NULL,
	amount DECIMAL(10,2) NOT NULL,
	description TEXT,
	date DATETIME(6) NOT NULL,
	created_at DATETIME(6) NOT NULL,
	INDEX idx_expenses_user_date (user_id, date),
	CONSTRAINT fk_expenses_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
) ENGINE=InnoDB
`,
}

// Early builds stored expenses without an owner. Legacy rows keep a NULL
// user_id and stay invisible to every per-user query.
var expenseColumnAdditions = map[Dialect][]columnAddition{
	SQLite: {
		{name: "user_id", statements: []string{
			`ALTER TABLE expenses ADD COLUMN user_id INTEGER REFERENCES users(id) ON DELETE CASCADE`,
		}},
		{name: "description", statements: []string{
			`ALTER TABLE expenses ADD COLUMN description TEXT NOT NULL DEFAULT ''`,
		}},
		{name: "created_at", statements: []string{
			`ALTER TABLE expenses ADD COLUMN created_at DATETIME`,
		}},
	},
	MySQL: {
		{name: "user_id", statements: []string{
			`ALTER TABLE expenses ADD COLUMN user_id INT NULL`,
			`ALTER TABLE expenses ADD CONSTRAINT fk_expenses_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE`,
		}},
		{name: "description", statements: []string{
			`ALTER TABLE expenses ADD COLUMN description TEXT`,
		}},
		{name: "created_at", statements: []string{
			`ALTER TABLE expenses ADD COLUMN created_at DATETIME(6) NULL`,
		}},
	},
}

const createExpensesIndexSQLite = `CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, date)`

type ExpenseRepository struct {
	db *DB
}

func NewExpenseRepository(db *DB) repository.ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Init must run after the users table exists.
func (r *ExpenseRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createExpensesTable[r.db.dialect]); err != nil {
		return fmt.Errorf("create expenses table: %w", err)
	}
	if err := r.db.ensureColumns(ctx, "expenses", expenseColumnAdditions[r.db.dialect]); err != nil {
		return err
	}
	if r.db.dialect == SQLite {
		if _, err := r.db.ExecContext(ctx, createExpensesIndexSQLite); err != nil {
			return fmt.Errorf("create expenses index: %w", err)
		}
	}
	return nil
}

func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (int64, error) {
	now := nowUTC()
	expense.CreatedAt = now
	if expense.Date.IsZero() {
		expense.Date = now
	} else {
		expense.Date = expense.Date.UTC().Truncate(time.Microsecond)
	}
	expense.Amount = domain.RoundAmount(expense.Amount)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO expenses (user_id, category, amount, description, date, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		expense.UserID,
		expense.Category,
		expense.Amount,
		expense.Description,
		expense.Date,
		expense.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("insert expense: owner %d: %w", expense.UserID, repository.ErrNotFound)
		}
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense last insert id: %w", err)
	}
	expense.ID = id
	return id, nil
}

func (r *ExpenseRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, category, amount, COALESCE(description, ''), date, created_at
FROM expenses
WHERE user_id = ?
ORDER BY date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0)
	for rows.Next() {
		var (
			e         domain.Expense
			createdAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.Amount, &e.Description, &e.Date, &createdAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.CreatedAt = e.Date
		if createdAt.Valid {
			e.CreatedAt = createdAt.Time
		}
		e.Amount = domain.RoundAmount(e.Amount)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func (r *ExpenseRepository) SummaryByUser(ctx context.Context, userID int64) (*domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT category, COUNT(*) AS count, SUM(amount) AS total_amount
FROM expenses
WHERE user_id = ?
GROUP BY category
ORDER BY total_amount DESC, category ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	defer rows.Close()

	summary := &domain.Summary{ByCategory: make([]domain.CategoryTotal, 0)}
	for rows.Next() {
		var ct domain.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Count, &ct.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		ct.TotalAmount = domain.RoundAmount(ct.TotalAmount)
		summary.ByCategory = append(summary.ByCategory, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, `
SELECT COALESCE(SUM(amount), 0)
FROM expenses
WHERE user_id = ?`,
		userID,
	).Scan(&summary.GrandTotal); err != nil {
		return nil, fmt.Errorf("sum expenses: %w", err)
	}
	summary.GrandTotal = domain.RoundAmount(summary.GrandTotal)
	return summary, nil
}

func (r *ExpenseRepository) DeleteByUser(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete expense rows affected: %w", err)
	}
	return affected > 0, nil
}
