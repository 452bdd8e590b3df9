package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var amountStr, typeStr, statusStr, metadataStr string
	if err := row.Scan(&t.Id, &t.UserId, &amountStr, &typeStr, &statusStr,
		&t.Description, &metadataStr, &t.CreatedAt); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	t.Amount = amount
	t.Type = models.TransactionType(typeStr)
	t.Status = models.TransactionStatus(statusStr)
	t.Metadata = []byte(metadataStr)
	return &t, nil
}

func getTransaction(ctx context.Context, q dbtx, transactionId string) (*models.Transaction, error) {
	t, err := scanTransaction(q.QueryRowContext(ctx, queryGetTransaction, transactionId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrTransactionNotFound, transactionId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// insertTransaction assigns an id and timestamp when absent and appends the row to the log.
func insertTransaction(ctx context.Context, q dbtx, t *models.Transaction) error {
	if t.Id == "" {
		t.Id = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if len(t.Metadata) == 0 {
		t.Metadata = []byte(`{}`)
	}

	_, err := q.ExecContext(ctx, queryInsertTransaction,
		t.Id, t.UserId, t.Amount.String(), string(t.Type), string(t.Status),
		t.Description, string(t.Metadata), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *Service) GetTransaction(ctx context.Context, transactionId string) (*models.Transaction, error) {
	return getTransaction(ctx, s.db, transactionId)
}

// GetTransactionHistory returns paginated transaction history for a user, newest first
func (s *Service) GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer closeRows(rows)

	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// RecordTransaction appends a ledger entry that is not a campaign payment. Completed
// entries move the wallet in the same database transaction; other statuses are log-only.
func (s *Service) RecordTransaction(ctx context.Context, params store.RecordTransactionParams) (*models.Transaction, error) {
	if !params.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", store.ErrValidationFailed, params.Type)
	}
	if err := validateAmount(params.Amount, false); err != nil {
		return nil, err
	}
	if params.Status == "" {
		params.Status = models.TransactionStatusCompleted
	}

	metadata, err := models.MarshalMetadata(params.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrValidationFailed, err)
	}

	transaction := &models.Transaction{
		UserId:      params.UserId,
		Amount:      params.Amount,
		Type:        params.Type,
		Status:      params.Status,
		Description: params.Description,
		Metadata:    metadata,
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if params.Status == models.TransactionStatusCompleted {
			if _, err := applyDelta(ctx, tx, store.WalletDelta{
				UserId:         params.UserId,
				Amount:         params.Amount,
				TotalEarned:    params.TotalEarned,
				TotalWithdrawn: params.TotalWithdrawn,
			}); err != nil {
				return err
			}
		} else if _, err := getWallet(ctx, tx, params.UserId); err != nil {
			return err
		}

		if err := insertTransaction(ctx, tx, transaction); err != nil {
			return err
		}
		return audit(ctx, tx, params.Actor, models.AuditActionTransactionRecorded, "wallet_transactions", transaction.Id,
			map[string]any{"user_id": params.UserId, "type": params.Type, "status": params.Status, "amount": params.Amount})
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Transaction recorded",
		zap.String("transaction_id", transaction.Id),
		zap.String("user_id", transaction.UserId),
		zap.String("type", string(transaction.Type)),
		zap.String("status", string(transaction.Status)),
		zap.String("amount", transaction.Amount.String()))
	return transaction, nil
}

// validateAmount rejects zero amounts and amounts with sub-cent precision. When
// positive is set the amount must also be greater than zero.
func validateAmount(amount decimal.Decimal, positive bool) error {
	if amount.IsZero() {
		return fmt.Errorf("%w: amount cannot be zero", store.ErrInvalidAmount)
	}
	if positive && amount.IsNegative() {
		return fmt.Errorf("%w: amount must be positive, got %s", store.ErrInvalidAmount, amount.String())
	}
	if !amount.Equal(amount.Truncate(2)) {
		return fmt.Errorf("%w: amount %s has more than two decimal places", store.ErrInvalidAmount, amount.String())
	}
	return nil
}
