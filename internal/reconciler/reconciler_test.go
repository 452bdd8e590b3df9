package reconciler

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"creator-ledger-go/internal/database"
	"creator-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *database.Service {
	db, _ := setupFileStore(t)
	return db
}

func setupFileStore(t *testing.T) (*database.Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         path,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db, path
}

// setBalance writes a wallet balance behind the ledger's back through a second handle.
func setBalance(t *testing.T, path, userId, balance string) {
	t.Helper()
	raw, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	require.NoError(t, err)
	defer raw.Close()

	result, err := raw.Exec("UPDATE wallets SET balance = ? WHERE user_id = ?", balance, userId)
	require.NoError(t, err)
	n, err := result.RowsAffected()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestRunOnce_ReportsDriftOnce(t *testing.T) {
	db, path := setupFileStore(t)
	ctx := context.Background()

	_, err := db.CreateUser(ctx, "user1", "One", "one@example.com")
	require.NoError(t, err)
	_, err = db.CreateUser(ctx, "user2", "Two", "two@example.com")
	require.NoError(t, err)

	// user2's wallet moves without a transaction behind it.
	setBalance(t, path, "user2", "7")

	r := New(Config{Store: db, Interval: time.Minute})

	drifted, err := r.RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, drifted, 1)
	assert.Equal(t, "user2", drifted[0].UserId)
	assert.True(t, drifted[0].Difference.Equal(decimal.NewFromInt(7)))

	_, err = r.RunOnce(ctx)
	require.NoError(t, err)

	entries, err := db.ListAuditLog(ctx, "wallets", "user2")
	require.NoError(t, err)
	require.Len(t, entries, 1, "a persistent drift is audited once")
	assert.Equal(t, models.AuditActionReconciliationDriftDetected, entries[0].Action)

	wallet, err := db.GetWallet(ctx, "user2")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(7)), "drift is never auto-corrected")
}

type staticMirror struct{ calls int }

func (m *staticMirror) GetUserBalance(context.Context, string) (decimal.Decimal, error) {
	m.calls++
	return decimal.Zero, nil
}

func TestStartStop(t *testing.T) {
	db := setupTestStore(t)
	_, err := db.CreateUser(context.Background(), "user1", "One", "one@example.com")
	require.NoError(t, err)

	mirror := &staticMirror{}
	r := New(Config{Store: db, Mirror: mirror, Interval: 10 * time.Millisecond})
	r.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	r.Stop()

	assert.GreaterOrEqual(t, mirror.calls, 1)
}

func TestStop_Twice(t *testing.T) {
	db := setupTestStore(t)

	r := New(Config{Store: db, Interval: time.Hour})
	r.Start(context.Background())

	assert.NotPanics(t, func() {
		r.Stop()
		r.Stop()
	})
}
