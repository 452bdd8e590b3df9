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

package api

import (
	"context"
	"errors"
	"fmt"

	"creator-ledger-go/internal/metrics"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"go.uber.org/zap"
)

// ReverseTransaction undoes a transaction on behalf of the admin in ctx. The admin id
// recorded on the reversal always comes from the principal, never from the request.
func (s *LedgerService) ReverseTransaction(ctx context.Context, transactionId, reason string) (*models.ReversalResult, error) {
	principal, err := requireAdmin(ctx)
	if err != nil {
		zap.L().Warn("Reversal refused",
			zap.String("transaction_id", transactionId),
			zap.Error(err))
		metrics.Reversals.WithLabelValues(metrics.OutcomeRejected).Inc()
		return &models.ReversalResult{Success: false, Error: err.Error()}, err
	}

	zap.L().Info("Reversing transaction",
		zap.String("transaction_id", transactionId),
		zap.String("admin_id", principal.UserId),
		zap.String("reason", reason))

	params := store.ReverseParams{
		TransactionId: transactionId,
		Reason:        reason,
		AdminId:       principal.UserId,
	}

	var outcome *store.ReversalOutcome
	err = s.withRetry(ctx, "reverse_transaction", func() error {
		var err error
		outcome, err = s.store.ReverseTransaction(ctx, params)
		return err
	})
	if err != nil {
		label := metrics.OutcomeFailed
		switch {
		case errors.Is(err, store.ErrAlreadyProcessed):
			label = metrics.OutcomeRejected
			zap.L().Info("Transaction already reversed",
				zap.String("transaction_id", transactionId))
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrValidationFailed):
			label = metrics.OutcomeRejected
			zap.L().Info("Reversal rejected",
				zap.String("transaction_id", transactionId),
				zap.Error(err))
		default:
			zap.L().Error("Reversal failed",
				zap.String("transaction_id", transactionId),
				zap.Error(err))
		}
		metrics.Reversals.WithLabelValues(label).Inc()
		return &models.ReversalResult{Success: false, Error: err.Error()}, err
	}

	metrics.Reversals.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.mirrorReversal(ctx, transactionId, outcome.ReversalTransaction)

	if len(outcome.FailedActions) > 0 {
		zap.L().Warn("Reversal completed with failed secondary steps",
			zap.String("transaction_id", transactionId),
			zap.Strings("failed_actions", outcome.FailedActions))
	}

	return &models.ReversalResult{
		Success:               true,
		ReversalTransactionId: outcome.ReversalTransaction.Id,
		ActionsTaken:          outcome.UndoActions,
		FailedActions:         outcome.FailedActions,
		Message:               fmt.Sprintf("Successfully reversed transaction. %d actions taken.", len(outcome.UndoActions)),
	}, nil
}

func (s *LedgerService) mirrorReversal(ctx context.Context, originalId string, correction *models.Transaction) {
	if s.mirror == nil {
		return
	}
	original, err := s.store.GetTransaction(ctx, originalId)
	if err == nil {
		err = s.mirror.RecordReversal(ctx, original, correction)
	}
	if err != nil {
		metrics.MirrorErrors.WithLabelValues("revert").Inc()
		zap.L().Error("Failed to mirror reversal",
			zap.String("transaction_id", originalId),
			zap.String("correction_id", correction.Id),
			zap.Error(err))
	}
}
