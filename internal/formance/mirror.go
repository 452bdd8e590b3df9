package formance

import (
	"context"
	"fmt"

	"creator-ledger-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript templates. Metadata is set inside the script via set_tx_meta() so the
// Formance transaction can be found again by the wallet transaction id.
// Counterparty accounts may overdraft: they model money entering or leaving the platform.
// ---------------------------------------------------------------------------

const numscriptCredit = `vars {
  asset $asset
  number $amount
  account $counterparty
  account $user_id
  string $ledger_tx_id
  string $tx_type
}

send [$asset $amount] (
  source = @counterparties:$counterparty allowing unbounded overdraft
  destination = @users:$user_id
)

set_tx_meta("ledger_tx_id", $ledger_tx_id)
set_tx_meta("tx_type", $tx_type)
`

// Wallet balances may go negative locally (reversal of spent earnings), so the user side
// is allowed to overdraft as well.
const numscriptDebit = `vars {
  asset $asset
  number $amount
  account $counterparty
  account $user_id
  string $ledger_tx_id
  string $tx_type
}

send [$asset $amount] (
  source = @users:$user_id allowing unbounded overdraft
  destination = @counterparties:$counterparty
)

set_tx_meta("ledger_tx_id", $ledger_tx_id)
set_tx_meta("tx_type", $tx_type)
`

// RecordTransaction posts a completed wallet transaction. Posting is idempotent on the
// transaction id, which is used as the Formance reference.
func (s *Service) RecordTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.Status != models.TransactionStatusCompleted || tx.Amount.IsZero() {
		zap.L().Debug("Skipping mirror of non-posting transaction",
			zap.String("transaction_id", tx.Id),
			zap.String("status", string(tx.Status)))
		return nil
	}

	script := numscriptCredit
	if tx.Amount.IsNegative() {
		script = numscriptDebit
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: strPtr(tx.Id),
			Timestamp: &tx.CreatedAt,
			Script: &shared.V2PostTransactionScript{
				Plain: script,
				Vars: map[string]string{
					"asset":        usdAsset,
					"amount":       toMinorUnits(tx.Amount),
					"counterparty": counterpartyFor(tx),
					"user_id":      tx.UserId,
					"ledger_tx_id": tx.Id,
					"tx_type":      string(tx.Type),
				},
			},
		},
	})
	if err != nil {
		if isConflictError(err) {
			return nil // idempotent
		}
		return fmt.Errorf("error mirroring transaction %s: %w", tx.Id, err)
	}

	zap.L().Info("Transaction mirrored to Formance",
		zap.String("transaction_id", tx.Id),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()))
	return nil
}

// RecordReversal mirrors a reversal. When the original was mirrored, Formance's native
// revert produces the exact inverse posting. Otherwise (pending originals, corrections,
// transactions from before the mirror was enabled) the correction is posted as-is.
func (s *Service) RecordReversal(ctx context.Context, original, correction *models.Transaction) error {
	mirrored, err := s.findByLedgerTxId(ctx, original.Id)
	if err != nil {
		return err
	}
	if mirrored == nil {
		zap.L().Info("Original not mirrored, posting correction",
			zap.String("transaction_id", original.Id),
			zap.String("correction_id", correction.Id))
		return s.RecordTransaction(ctx, correction)
	}

	if mirrored.Reverted {
		zap.L().Info("Transaction already reverted",
			zap.String("transaction_id", original.Id),
			zap.String("formance_tx_id", mirrored.ID.String()))
		return nil
	}

	_, err = s.client.Ledger.V2.RevertTransaction(ctx, operations.V2RevertTransactionRequest{
		Ledger:          s.ledger,
		ID:              mirrored.ID,
		AtEffectiveDate: ptrBool(true),
	})
	if err != nil {
		if isConflictError(err) || isAlreadyRevertedError(err) {
			zap.L().Info("Transaction already reverted (race)",
				zap.String("transaction_id", original.Id))
			return nil
		}
		return fmt.Errorf("failed to revert transaction %s: %w", original.Id, err)
	}

	zap.L().Info("Transaction reverted in Formance",
		zap.String("transaction_id", original.Id),
		zap.String("correction_id", correction.Id),
		zap.String("formance_tx_id", mirrored.ID.String()))
	return nil
}

// findByLedgerTxId looks up the mirrored posting of a wallet transaction. It returns nil, nil
// when nothing was mirrored.
func (s *Service) findByLedgerTxId(ctx context.Context, transactionId string) (*shared.V2Transaction, error) {
	pageSize := int64(1)
	resp, err := s.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
		Ledger:   s.ledger,
		PageSize: &pageSize,
		RequestBody: map[string]any{
			"$match": map[string]any{
				"metadata[ledger_tx_id]": transactionId,
			},
		},
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find mirrored transaction %s: %w", transactionId, err)
	}
	if len(resp.V2TransactionsCursorResponse.Cursor.Data) == 0 {
		return nil, nil
	}
	return &resp.V2TransactionsCursorResponse.Cursor.Data[0], nil
}

// counterpartyFor names the platform-side account of a transaction.
func counterpartyFor(tx *models.Transaction) string {
	switch tx.Type {
	case models.TransactionTypeEarning, models.TransactionTypeBoostEarning:
		if ref, err := tx.TeamCommissionRef(); err == nil && ref.IsTeamCommission() {
			return "team_" + ref.TeamId
		}
		if meta, err := tx.EarningMetadata(); err == nil && meta.CampaignId != "" {
			return "campaign_" + meta.CampaignId
		}
		return "earnings"
	case models.TransactionTypeReferral:
		return "referrals"
	case models.TransactionTypeWithdrawal:
		return "payouts"
	case models.TransactionTypeTransferSent, models.TransactionTypeTransferReceived:
		return "transfers"
	default:
		return "corrections"
	}
}

// toMinorUnits renders |amount| in cents.
func toMinorUnits(amount decimal.Decimal) string {
	return amount.Abs().Shift(usdPrecision).Round(0).BigInt().String()
}

func strPtr(s string) *string { return &s }
func ptrBool(v bool) *bool    { return &v }
