/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"creator-ledger-go/internal/metrics"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultReversalReason = "Admin reversal"

// reversal carries the state of one ReverseTransaction call. Secondary steps append to
// undoActions on success and to failedActions when their savepoint was rolled back.
type reversal struct {
	ctx           context.Context
	tx            *sql.Tx
	original      *models.Transaction
	undoActions   []string
	failedActions []string
}

// ReverseTransaction undoes a transaction and every side effect it had, then appends a
// balance_correction entry and marks the original as reversed. The wallet update, the
// correction and the marker are all-or-nothing; side-ledger steps that fail are rolled back
// individually and reported in FailedActions.
func (s *Service) ReverseTransaction(ctx context.Context, params store.ReverseParams) (*store.ReversalOutcome, error) {
	if params.TransactionId == "" {
		return nil, fmt.Errorf("%w: transaction_id is required", store.ErrValidationFailed)
	}
	if params.AdminId == "" {
		return nil, fmt.Errorf("%w: reversal requires an admin", store.ErrUnauthorized)
	}

	zap.L().Info("Reversing transaction",
		zap.String("transaction_id", params.TransactionId),
		zap.String("admin_id", params.AdminId))

	var outcome *store.ReversalOutcome
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		original, err := getTransaction(ctx, tx, params.TransactionId)
		if err != nil {
			return err
		}

		marker, err := original.ReversalMarker()
		if err != nil {
			return fmt.Errorf("%w: %v", store.ErrValidationFailed, err)
		}
		if marker.Reversed {
			return fmt.Errorf("%w: %s reversed by %s", store.ErrAlreadyReversed, original.Id, marker.ReversalTransactionId)
		}
		// Only completed entries moved the wallet, so only they have anything to undo.
		if original.Status != models.TransactionStatusCompleted {
			return fmt.Errorf("%w: %s has status %s", store.ErrNotReversible, original.Id, original.Status)
		}

		r := &reversal{ctx: ctx, tx: tx, original: original, undoActions: []string{}}
		if err := r.reverseWallet(); err != nil {
			return err
		}
		if err := r.reverseSideLedgers(); err != nil {
			return err
		}

		correction, err := r.insertCorrection(params)
		if err != nil {
			return err
		}
		if err := r.markReversed(params.AdminId, correction.Id); err != nil {
			return err
		}

		if err := audit(ctx, tx, params.AdminId, models.AuditActionTransactionReversed, "wallet_transactions", original.Id,
			map[string]any{
				"reversal_transaction_id": correction.Id,
				"reason":                  reasonOrDefault(params.Reason),
				"undo_actions":            r.undoActions,
				"failed_actions":          r.failedActions,
			}); err != nil {
			return err
		}

		outcome = &store.ReversalOutcome{
			ReversalTransaction: correction,
			UndoActions:         r.undoActions,
			FailedActions:       r.failedActions,
		}
		return nil
	})
	if err != nil {
		zap.L().Error("Transaction reversal failed",
			zap.String("transaction_id", params.TransactionId),
			zap.Error(err))
		return nil, err
	}

	zap.L().Info("Transaction reversed successfully",
		zap.String("original_id", params.TransactionId),
		zap.String("reversal_id", outcome.ReversalTransaction.Id),
		zap.Strings("actions", outcome.UndoActions),
		zap.Strings("failed_actions", outcome.FailedActions))
	return outcome, nil
}

func reasonOrDefault(reason string) string {
	if reason == "" {
		return defaultReversalReason
	}
	return reason
}

func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// reverseWallet is the one mandatory effect: a missing wallet or failed update aborts the reversal.
func (r *reversal) reverseWallet() error {
	t := r.original
	delta := store.WalletDelta{UserId: t.UserId, Amount: t.Amount.Neg()}
	var actions []string

	if t.Type == models.TransactionTypeEarning && t.Amount.IsPositive() {
		delta.TotalEarned = t.Amount.Neg()
		actions = append(actions, fmt.Sprintf("Reversed total_earned by %s", formatMoney(t.Amount)))
	}
	if t.Type == models.TransactionTypeWithdrawal && t.Amount.IsNegative() {
		delta.TotalWithdrawn = t.Amount
		actions = append(actions, fmt.Sprintf("Reversed total_withdrawn by %s", formatMoney(t.Amount.Abs())))
	}

	if _, err := applyDelta(r.ctx, r.tx, delta); err != nil {
		return err
	}

	r.undoActions = append(r.undoActions, actions...)
	r.undoActions = append(r.undoActions, fmt.Sprintf("Updated wallet balance by %s", formatMoney(delta.Amount)))
	return nil
}

func (r *reversal) reverseSideLedgers() error {
	t := r.original

	switch t.Type {
	case models.TransactionTypeEarning:
		meta, err := t.EarningMetadata()
		if err != nil {
			return fmt.Errorf("%w: %v", store.ErrValidationFailed, err)
		}
		if meta.CampaignId != "" {
			r.step("campaign_budget", "Reverse campaign budget_used", func() (string, error) {
				used, err := decrementCampaignBudgetUsed(r.ctx, r.tx, meta.CampaignId, t.Amount)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Reversed campaign budget_used to %s", formatMoney(used)), nil
			})
			if meta.SocialAccountId != "" {
				r.step("account_analytics", "Reverse account paid_views", func() (string, error) {
					return r.reverseAccountAnalytics(meta)
				})
			}
			if meta.CpmPayoutId != "" {
				r.step("cpm_payout", "Delete campaign_cpm_payouts record", func() (string, error) {
					if err := deleteCpmPayout(r.ctx, r.tx, meta.CpmPayoutId); err != nil {
						return "", err
					}
					return "Deleted campaign_cpm_payouts record", nil
				})
			}
		}
		if meta.BoostId != "" {
			r.step("boost_budget", "Reverse boost budget_used", func() (string, error) {
				used, err := decrementBoostBudgetUsed(r.ctx, r.tx, meta.BoostId, t.Amount)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Reversed boost budget_used to %s", formatMoney(used)), nil
			})
		}

	case models.TransactionTypeReferral:
		meta, err := t.ReferralMetadata()
		if err != nil {
			return fmt.Errorf("%w: %v", store.ErrValidationFailed, err)
		}
		r.step("referral_earnings", "Reverse referral_earnings", func() (string, error) {
			profile, err := getProfile(r.ctx, r.tx, t.UserId)
			if err != nil {
				return "", err
			}
			next := clampAtZero("referral_earnings", profile.ReferralEarnings, t.Amount.Neg(), zap.String("user_id", t.UserId))
			if err := updateReferralEarnings(r.ctx, r.tx, t.UserId, next); err != nil {
				return "", err
			}
			return fmt.Sprintf("Reversed referral_earnings: %s → %s", formatMoney(profile.ReferralEarnings), formatMoney(next)), nil
		})
		if meta.ReferralId != "" {
			r.step("referral_reward", "Reverse referral reward_earned", func() (string, error) {
				referral, err := getReferral(r.ctx, r.tx, meta.ReferralId)
				if err != nil {
					return "", err
				}
				next := clampAtZero("reward_earned", referral.RewardEarned, t.Amount.Neg(), zap.String("referral_id", referral.Id))
				if err := updateReferralReward(r.ctx, r.tx, referral.Id, next); err != nil {
					return "", err
				}
				return "Reversed referral reward_earned", nil
			})
		}
	}

	ref, err := t.TeamCommissionRef()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrValidationFailed, err)
	}
	if ref.IsTeamCommission() {
		r.step("team_earnings", "Delete team_earnings record", func() (string, error) {
			if err := deleteTeamEarningsBySource(r.ctx, r.tx, t.Id); err != nil {
				return "", err
			}
			return "Deleted team_earnings record", nil
		})
	}
	return nil
}

func (r *reversal) reverseAccountAnalytics(meta models.EarningMetadata) (string, error) {
	analytics, err := getAccountAnalytics(r.ctx, r.tx, meta.CampaignId, meta.SocialAccountId)
	if err != nil {
		return "", err
	}

	newPaidViews := analytics.PaidViews - meta.ViewsPaid
	if newPaidViews < 0 {
		metrics.ClampTriggered.WithLabelValues("paid_views").Inc()
		zap.L().Warn("Running total clamped at zero",
			zap.String("field", "paid_views"),
			zap.String("campaign_id", meta.CampaignId),
			zap.String("social_account_id", meta.SocialAccountId),
			zap.Int64("current", analytics.PaidViews),
			zap.Int64("views_paid", meta.ViewsPaid))
		newPaidViews = 0
	}

	if err := reverseAnalytics(r.ctx, r.tx, meta.CampaignId, meta.SocialAccountId, newPaidViews); err != nil {
		return "", err
	}
	return fmt.Sprintf("Reversed account paid_views: %d → %d", analytics.PaidViews, newPaidViews), nil
}

// step runs one secondary effect inside its own savepoint. Failures are rolled back to the
// savepoint and reported; a referenced row that no longer exists is reported as skipped.
func (r *reversal) step(name, label string, fn func() (string, error)) {
	var action string
	err := savepoint(r.ctx, r.tx, "reversal_"+name, func() error {
		var err error
		action, err = fn()
		return err
	})

	switch {
	case err == nil:
		r.undoActions = append(r.undoActions, action)
	case errors.Is(err, store.ErrNotFound):
		zap.L().Warn("Reversal step skipped, referenced row not found",
			zap.String("transaction_id", r.original.Id),
			zap.String("step", name),
			zap.Error(err))
		r.failedActions = append(r.failedActions, fmt.Sprintf("%s skipped: %v", label, err))
	default:
		metrics.ReversalStepFailures.WithLabelValues(name).Inc()
		zap.L().Error("Reversal step failed",
			zap.String("transaction_id", r.original.Id),
			zap.String("step", name),
			zap.Error(err))
		r.failedActions = append(r.failedActions, fmt.Sprintf("%s failed: %v", label, err))
	}
}

func (r *reversal) insertCorrection(params store.ReverseParams) (*models.Transaction, error) {
	t := r.original
	metadata, err := models.MarshalMetadata(models.CorrectionMetadata{
		OriginalTransactionId: t.Id,
		OriginalType:          t.Type,
		OriginalAmount:        t.Amount,
		OriginalMetadata:      t.Metadata,
		ReversalReason:        reasonOrDefault(params.Reason),
		ReversedBy:            params.AdminId,
		UndoActions:           r.undoActions,
		FailedActions:         r.failedActions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrPersistenceFailed, err)
	}

	description := "Reversal of transaction " + t.Id
	if params.Reason != "" {
		description += ": " + params.Reason
	}

	correction := &models.Transaction{
		UserId:      t.UserId,
		Amount:      t.Amount.Neg(),
		Type:        models.TransactionTypeBalanceCorrection,
		Status:      models.TransactionStatusCompleted,
		Description: description,
		Metadata:    metadata,
	}
	if err := insertTransaction(r.ctx, r.tx, correction); err != nil {
		return nil, fmt.Errorf("%w: failed to create reversal transaction: %v", store.ErrPersistenceFailed, err)
	}
	return correction, nil
}

func (r *reversal) markReversed(adminId, correctionId string) error {
	now := time.Now().UTC()
	merged, err := models.MergeMetadata(r.original.Metadata, models.ReversalMarker{
		Reversed:              true,
		ReversedAt:            &now,
		ReversedBy:            adminId,
		ReversalTransactionId: correctionId,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrPersistenceFailed, err)
	}

	result, err := r.tx.ExecContext(r.ctx, queryUpdateTransactionMetadata, string(merged), r.original.Id, string(r.original.Metadata))
	if err != nil {
		return fmt.Errorf("%w: failed to mark transaction reversed: %v", store.ErrPersistenceFailed, err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrPersistenceFailed, err)
	} else if n == 0 {
		return fmt.Errorf("transaction %s metadata changed during reversal - %w", r.original.Id, store.ErrConcurrentModification)
	}
	return nil
}
