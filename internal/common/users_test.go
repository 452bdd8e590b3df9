package common

import (
	"context"
	"testing"
	"time"

	"creator-ledger-go/internal/database"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *database.Service {
	t.Helper()
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestLookupWalletOwners(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.CreateUser(ctx, "u1", "Alice", "alice@example.com")
	require.NoError(t, err)
	_, err = db.CreateUser(ctx, "u2", "Bob", "bob@example.com")
	require.NoError(t, err)

	owners, err := LookupWalletOwners(ctx, db, "")
	require.NoError(t, err)
	assert.Len(t, owners, 2)
	for _, o := range owners {
		require.NotNil(t, o.Wallet)
		assert.Equal(t, o.User.Id, o.Wallet.UserId)
	}

	owners, err = LookupWalletOwners(ctx, db, "BOB@example.com")
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, "u2", owners[0].User.Id)

	_, err = LookupWalletOwners(ctx, db, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestAdminContext(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.CreateUser(ctx, "admin1", "Admin", "admin@example.com")
	require.NoError(t, err)
	require.NoError(t, db.GrantRole(ctx, "admin1", models.RoleAdmin))
	_, err = db.CreateUser(ctx, "plain1", "Plain", "plain@example.com")
	require.NoError(t, err)

	adminCtx, user, err := AdminContext(ctx, db, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin1", user.Id)
	principal := models.GetPrincipal(adminCtx)
	require.NotNil(t, principal)
	assert.True(t, principal.IsAdmin())

	_, _, err = AdminContext(ctx, db, "plain@example.com")
	assert.ErrorIs(t, err, store.ErrForbidden)

	_, _, err = AdminContext(ctx, db, "ghost@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "$12.50", FormatUSD(decimal.RequireFromString("12.5")))
	assert.Equal(t, "-$0.05", FormatUSD(decimal.RequireFromString("-0.05")))

	assert.Equal(t, "none", ShortId(""))
	assert.Equal(t, "abc", ShortId("abc"))
	assert.Equal(t, "12345678...", ShortId("123456789"))

	bps := 250
	assert.Equal(t, "2.5%", FormatBps(&bps))
	assert.Equal(t, "default", FormatBps(nil))
}
