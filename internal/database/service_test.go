package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestService opens a private in-memory database. A single pooled connection keeps
// every statement on the same in-memory instance.
func setupTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(service.Close)
	return service
}

// setupFileService opens a database file with a real connection pool, for tests that need
// concurrent writers.
func setupFileService(t *testing.T, conns int) *Service {
	t.Helper()
	service, err := NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns: conns,
		MaxIdleConns: conns,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(service.Close)
	return service
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createTestUser(t *testing.T, s *Service, userId string) {
	t.Helper()
	_, err := s.CreateUser(context.Background(), userId, "User "+userId, userId+"@example.com")
	require.NoError(t, err)
}

func createTestCampaign(t *testing.T, s *Service, campaignId, budget, used string) {
	t.Helper()
	_, err := s.CreateCampaign(context.Background(), models.Campaign{
		BudgetedEntity: models.BudgetedEntity{Id: campaignId, Name: "Campaign " + campaignId, Budget: dec(budget), BudgetUsed: dec(used)},
		RpmRate:        dec("2.50"),
		FlatRate:       dec("1.00"),
	})
	require.NoError(t, err)
}

// seedWallet overwrites a wallet's balance and totals directly, bypassing the transaction log.
func seedWallet(t *testing.T, s *Service, userId, balance, earned string) {
	t.Helper()
	_, err := s.db.Exec("UPDATE wallets SET balance = ?, total_earned = ? WHERE user_id = ?", balance, earned, userId)
	require.NoError(t, err)
}

func countRows(t *testing.T, s *Service, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestNewService_InvalidConfig(t *testing.T) {
	ctx := context.Background()

	_, err := NewService(ctx, models.DatabaseConfig{Path: "", MaxOpenConns: 1, PingTimeout: time.Second})
	assert.Error(t, err)

	_, err = NewService(ctx, models.DatabaseConfig{Path: ":memory:", MaxOpenConns: 0, PingTimeout: time.Second})
	assert.Error(t, err)

	_, err = NewService(ctx, models.DatabaseConfig{Path: ":memory:", MaxOpenConns: 1, PingTimeout: 0})
	assert.Error(t, err)
}

func TestCreateUser(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "user1", "Test User", "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user1", user.Id)

	wallet, err := s.GetWallet(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero())
	assert.Empty(t, wallet.PayoutDetails)

	profile, err := s.GetProfile(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, profile.ReferralEarnings.IsZero())

	_, err = s.CreateUser(ctx, "user2", "Other", "TEST@example.com")
	assert.ErrorIs(t, err, store.ErrDuplicateUser)
	assert.ErrorIs(t, err, store.ErrAlreadyProcessed)
}

func TestGrantRole(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "admin1")

	require.NoError(t, s.GrantRole(ctx, "admin1", models.RoleAdmin))
	require.NoError(t, s.GrantRole(ctx, "admin1", models.RoleAdmin))

	roles, err := s.GetRoles(ctx, "admin1")
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleAdmin}, roles)

	err = s.GrantRole(ctx, "ghost", models.RoleAdmin)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestGetWallet_NotFound(t *testing.T) {
	s := setupTestService(t)

	_, err := s.GetWallet(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrWalletNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyDelta_ClampsTotalsAtZero(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	seedWallet(t, s, "user1", "10", "5")

	var wallet *models.Wallet
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		wallet, err = applyDelta(ctx, tx, store.WalletDelta{
			UserId:      "user1",
			Amount:      dec("-20"),
			TotalEarned: dec("-20"),
		})
		return err
	})
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("-10")), "balance is not floored")
	assert.True(t, wallet.TotalEarned.IsZero(), "total_earned is floored at zero")
	assert.Equal(t, int64(2), wallet.Version)
}

func TestApplyDelta_StaleVersion(t *testing.T) {
	s := setupTestService(t)
	createTestUser(t, s, "user1")

	_, err := s.db.Exec("UPDATE wallets SET version = version + 5 WHERE user_id = ?", "user1")
	require.NoError(t, err)

	// A write guarded by the old version must not land.
	result, err := s.db.Exec(queryUpdateWalletBalance, "1", "0", "0", time.Now(), "user1", 1)
	require.NoError(t, err)
	n, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdatePayoutDetails(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")

	details := []models.PayoutDetail{
		{Method: "paypal", Destination: "a@example.com"},
		{Method: "bank", Destination: "GB00", Label: "main"},
	}
	wallet, err := s.UpdatePayoutDetails(ctx, "user1", "paypal", details)
	require.NoError(t, err)
	assert.Equal(t, "paypal", wallet.PayoutMethod)
	assert.Equal(t, details, wallet.PayoutDetails)

	tooMany := append(details, models.PayoutDetail{Method: "x"}, models.PayoutDetail{Method: "y"})
	_, err = s.UpdatePayoutDetails(ctx, "user1", "paypal", tooMany)
	assert.ErrorIs(t, err, store.ErrTooManyPayoutDetails)

	_, err = s.UpdatePayoutDetails(ctx, "ghost", "paypal", nil)
	assert.ErrorIs(t, err, store.ErrWalletNotFound)
}

func TestRecordTransaction(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	seedWallet(t, s, "user1", "100", "100")

	withdrawal, err := s.RecordTransaction(ctx, store.RecordTransactionParams{
		UserId:         "user1",
		Type:           models.TransactionTypeWithdrawal,
		Amount:         dec("-40"),
		Description:    "Payout",
		TotalWithdrawn: dec("40"),
		Actor:          "admin1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, withdrawal.Status)

	wallet, err := s.GetWallet(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("60")))
	assert.True(t, wallet.TotalWithdrawn.Equal(dec("40")))

	_, err = s.RecordTransaction(ctx, store.RecordTransactionParams{
		UserId: "user1",
		Type:   models.TransactionTypeWithdrawal,
		Status: models.TransactionStatusPending,
		Amount: dec("-10"),
	})
	require.NoError(t, err)
	wallet, err = s.GetWallet(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("60")), "pending entries do not move the wallet")

	history, err := s.GetTransactionHistory(ctx, "user1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = s.RecordTransaction(ctx, store.RecordTransactionParams{UserId: "user1", Type: "bogus", Amount: dec("1")})
	assert.ErrorIs(t, err, store.ErrValidationFailed)

	_, err = s.RecordTransaction(ctx, store.RecordTransactionParams{UserId: "user1", Type: models.TransactionTypeTransferSent, Amount: dec("1.001")})
	assert.ErrorIs(t, err, store.ErrInvalidAmount)
}

func TestReconcileWallet(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	createTestCampaign(t, s, "C1", "1000", "0")

	_, err := s.CreatePayment(ctx, store.CreatePaymentParams{CampaignId: "C1", UserId: "user1", Amount: dec("0.10")})
	require.NoError(t, err)
	_, err = s.CreatePayment(ctx, store.CreatePaymentParams{CampaignId: "C1", UserId: "user1", Amount: dec("0.20")})
	require.NoError(t, err)

	result, err := s.ReconcileWallet(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, result.InSync)
	assert.Equal(t, "0.3", result.CalculatedBalance.String())
	assert.Equal(t, 2, result.TransactionCount)

	seedWallet(t, s, "user1", "5", "0.3")
	result, err = s.ReconcileWallet(ctx, "user1")
	require.NoError(t, err)
	assert.False(t, result.InSync)
	assert.True(t, result.Difference.Equal(dec("4.7")))
}

func TestGetUserByEmail(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")

	user, err := s.GetUserByEmail(ctx, "USER1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user1", user.Id)
	assert.Equal(t, "User user1", user.Name)

	_, err = s.GetUserByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReconcileWallet_ConcurrentPayments(t *testing.T) {
	s := setupFileService(t, 4)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	createTestCampaign(t, s, "C1", "100000", "0")

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 40; i++ {
			_, err := s.CreatePayment(ctx, store.CreatePaymentParams{CampaignId: "C1", UserId: "user1", Amount: dec("1.25")})
			assert.NoError(t, err)
		}
		close(done)
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		result, err := s.ReconcileWallet(ctx, "user1")
		require.NoError(t, err)
		assert.True(t, result.InSync, "stored %s vs calculated %s", result.StoredBalance, result.CalculatedBalance)
	}
	wg.Wait()

	result, err := s.ReconcileWallet(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, result.InSync)
	assert.Equal(t, 40, result.TransactionCount)
}
