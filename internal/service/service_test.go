package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"expense-tracker/internal/auth"
	"expense-tracker/internal/repository"
	"expense-tracker/internal/repository/sqlstore"
)

type fixture struct {
	users    repository.UserRepository
	expenses repository.ExpenseRepository
	hasher   *auth.PasswordHasher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	db, err := sqlstore.Open(sqlstore.Options{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := sqlstore.NewUserRepository(db)
	expenses := sqlstore.NewExpenseRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, expenses.Init(ctx))

	return fixture{
		users:    users,
		expenses: expenses,
		hasher:   auth.NewPasswordHasher(bcrypt.MinCost),
	}
}
