package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

var createUsersTable = map[Dialect]string{
	SQLite: `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`,
	MySQL: `
CREATE TABLE IF NOT EXISTS users (
	id INT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(50) NOT NULL UNIQUE,
	email VARCHAR(100) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	created_at DATETIME(6) NOT NULL
) ENGINE=InnoDB
`,
}

// Builds before email existed created users without it.
var userColumnAdditions = map[Dialect][]columnAddition{
	SQLite: {
		{name: "email", statements: []string{
			`ALTER TABLE users ADD COLUMN email TEXT`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		}},
	},
	MySQL: {
		{name: "email", statements: []string{
			`ALTER TABLE users ADD COLUMN email VARCHAR(100) NULL UNIQUE`,
		}},
	},
}

const selectUserColumns = `SELECT id, username, COALESCE(email, ''), password_hash, created_at FROM users`

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable[r.db.dialect]); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return r.db.ensureColumns(ctx, "users", userColumnAdditions[r.db.dialect])
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	user.CreatedAt = nowUTC()

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, email, password_hash, created_at)
VALUES (?, ?, ?, ?)`,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user: %w", repository.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUserColumns+` WHERE username = ?`, username)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, selectUserColumns+` WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM users
WHERE username = ? OR email = ?`,
		username,
		email,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check existing user: %w", err)
	}
	return count > 0, nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
