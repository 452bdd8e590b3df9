package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"creator-ledger-go/internal/metrics"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (*models.Wallet, error) {
	var w models.Wallet
	var balanceStr, earnedStr, withdrawnStr, detailsStr string
	if err := row.Scan(&w.UserId, &balanceStr, &earnedStr, &withdrawnStr,
		&w.PayoutMethod, &detailsStr, &w.Version, &w.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if w.Balance, err = decimal.NewFromString(balanceStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	if w.TotalEarned, err = decimal.NewFromString(earnedStr); err != nil {
		return nil, fmt.Errorf("failed to parse total_earned '%s': %w", earnedStr, err)
	}
	if w.TotalWithdrawn, err = decimal.NewFromString(withdrawnStr); err != nil {
		return nil, fmt.Errorf("failed to parse total_withdrawn '%s': %w", withdrawnStr, err)
	}
	if err := json.Unmarshal([]byte(detailsStr), &w.PayoutDetails); err != nil {
		return nil, fmt.Errorf("failed to parse payout_details: %w", err)
	}
	return &w, nil
}

func getWallet(ctx context.Context, q dbtx, userId string) (*models.Wallet, error) {
	wallet, err := scanWallet(q.QueryRowContext(ctx, queryGetWallet, userId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrWalletNotFound, userId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return wallet, nil
}

// GetWallet returns the wallet of a user
func (s *Service) GetWallet(ctx context.Context, userId string) (*models.Wallet, error) {
	zap.L().Debug("Getting wallet", zap.String("user_id", userId))
	return getWallet(ctx, s.db, userId)
}

func (s *Service) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	rows, err := s.db.QueryContext(ctx, queryListWallets)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer closeRows(rows)

	var wallets []models.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}
	return wallets, nil
}

// applyDelta is the read-modify-write of a wallet row guarded by its version column.
// Running totals are floored at zero.
func applyDelta(ctx context.Context, q dbtx, delta store.WalletDelta) (*models.Wallet, error) {
	wallet, err := getWallet(ctx, q, delta.UserId)
	if err != nil {
		return nil, err
	}

	logFields := []zap.Field{zap.String("user_id", delta.UserId)}
	newBalance := wallet.Balance.Add(delta.Amount)
	newEarned := clampAtZero("total_earned", wallet.TotalEarned, delta.TotalEarned, logFields...)
	newWithdrawn := clampAtZero("total_withdrawn", wallet.TotalWithdrawn, delta.TotalWithdrawn, logFields...)
	now := time.Now().UTC()

	result, err := q.ExecContext(ctx, queryUpdateWalletBalance,
		newBalance.String(), newEarned.String(), newWithdrawn.String(), now, delta.UserId, wallet.Version)
	if err != nil {
		zap.L().Error("Failed to update wallet", zap.String("user_id", delta.UserId), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", store.ErrWalletUpdateFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check rows affected: %v", store.ErrWalletUpdateFailed, err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("wallet %s update failed - %w", delta.UserId, store.ErrConcurrentModification)
	}

	zap.L().Info("Wallet updated",
		zap.String("user_id", delta.UserId),
		zap.String("old_balance", wallet.Balance.String()),
		zap.String("new_balance", newBalance.String()),
		zap.String("total_earned", newEarned.String()),
		zap.String("total_withdrawn", newWithdrawn.String()))

	wallet.Balance = newBalance
	wallet.TotalEarned = newEarned
	wallet.TotalWithdrawn = newWithdrawn
	wallet.Version++
	wallet.UpdatedAt = now
	return wallet, nil
}

// clampAtZero returns max(0, current+delta). A floor that actually bites means upstream data
// was already inconsistent, so it is logged and counted rather than absorbed silently.
func clampAtZero(field string, current, delta decimal.Decimal, fields ...zap.Field) decimal.Decimal {
	next := current.Add(delta)
	if !next.IsNegative() {
		return next
	}

	metrics.ClampTriggered.WithLabelValues(field).Inc()
	zap.L().Warn("Running total clamped at zero",
		append(fields,
			zap.String("field", field),
			zap.String("current", current.String()),
			zap.String("delta", delta.String()),
			zap.String("unclamped", next.String()))...)
	return decimal.Zero
}

func (s *Service) UpdatePayoutDetails(ctx context.Context, userId, method string, details []models.PayoutDetail) (*models.Wallet, error) {
	if len(details) > models.MaxPayoutDetails {
		return nil, fmt.Errorf("%w: got %d, max %d", store.ErrTooManyPayoutDetails, len(details), models.MaxPayoutDetails)
	}
	if details == nil {
		details = []models.PayoutDetail{}
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payout details: %w", err)
	}

	result, err := s.db.ExecContext(ctx, queryUpdatePayoutDetails, method, string(encoded), time.Now().UTC(), userId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrWalletUpdateFailed, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrWalletNotFound, userId)
	}
	return s.GetWallet(ctx, userId)
}

// ReconcileWallet verifies that the stored balance matches the sum of completed transactions.
// Both reads run in one transaction so a concurrent payment cannot show up as drift.
// Amounts are summed as decimals in Go; SQLite would sum TEXT columns as floats.
func (s *Service) ReconcileWallet(ctx context.Context, userId string) (*models.ReconciliationResult, error) {
	zap.L().Debug("Reconciling wallet", zap.String("user_id", userId))

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer tx.Rollback()

	wallet, err := getWallet(ctx, tx, userId)
	if err != nil {
		return nil, err
	}
	calculated, count, err := sumCompleted(ctx, tx, userId)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to end read transaction: %w", err)
	}

	result := &models.ReconciliationResult{
		UserId:            userId,
		StoredBalance:     wallet.Balance,
		CalculatedBalance: calculated,
		Difference:        wallet.Balance.Sub(calculated),
		TransactionCount:  count,
		InSync:            wallet.Balance.Equal(calculated),
	}

	if !result.InSync {
		zap.L().Error("Balance reconciliation failed",
			zap.String("user_id", userId),
			zap.String("current_balance", wallet.Balance.String()),
			zap.String("calculated_balance", calculated.String()),
			zap.String("difference", result.Difference.String()))
	}
	return result, nil
}

func sumCompleted(ctx context.Context, q dbtx, userId string) (decimal.Decimal, int, error) {
	rows, err := q.QueryContext(ctx, queryCompletedTransactionAmounts, userId)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to load transactions: %w", err)
	}
	defer closeRows(rows)

	sum := decimal.Zero
	count := 0
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, 0, fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return decimal.Zero, 0, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}
		sum = sum.Add(amount)
		count++
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, 0, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return sum, count, nil
}
