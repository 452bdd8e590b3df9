package api

import (
	"context"
	"errors"

	"creator-ledger-go/internal/metrics"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"go.uber.org/zap"
)

func (s *LedgerService) GetWallet(ctx context.Context, userId string) (*models.Wallet, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.store.GetWallet(ctx, userId)
}

func (s *LedgerService) GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.GetTransactionHistory(ctx, userId, limit, offset)
}

func (s *LedgerService) ReconcileWallet(ctx context.Context, userId string) (*models.ReconciliationResult, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.store.ReconcileWallet(ctx, userId)
}

// UpdatePayoutDetails replaces a wallet's payout method and destinations as the admin in ctx.
func (s *LedgerService) UpdatePayoutDetails(ctx context.Context, userId, method string, details []models.PayoutDetail) (*models.Wallet, error) {
	principal, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	var wallet *models.Wallet
	err = s.withRetry(ctx, "update_payout_details", func() error {
		var err error
		wallet, err = s.store.UpdatePayoutDetails(ctx, userId, method, details)
		return err
	})
	if err != nil {
		return nil, logRejection("Payout details update", userId, err)
	}

	zap.L().Info("Payout details updated",
		zap.String("user_id", userId),
		zap.String("method", method),
		zap.Int("destinations", len(details)),
		zap.String("changed_by", principal.UserId))
	return wallet, nil
}

// RecordTransaction books a non-payment movement (withdrawal, transfer, manual correction)
// as the admin in ctx.
func (s *LedgerService) RecordTransaction(ctx context.Context, params store.RecordTransactionParams) (*models.Transaction, error) {
	principal, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	params.Actor = principal.UserId

	var tx *models.Transaction
	err = s.withRetry(ctx, "record_transaction", func() error {
		var err error
		tx, err = s.store.RecordTransaction(ctx, params)
		return err
	})
	if err != nil {
		return nil, logRejection("Transaction", params.UserId, err)
	}
	s.mirrorTransaction(ctx, tx)
	return tx, nil
}

// CreateReferralReward credits a referrer as the admin in ctx.
func (s *LedgerService) CreateReferralReward(ctx context.Context, params store.ReferralRewardParams) (*models.Transaction, error) {
	principal, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	params.Actor = principal.UserId

	var tx *models.Transaction
	err = s.withRetry(ctx, "create_referral_reward", func() error {
		var err error
		tx, err = s.store.CreateReferralReward(ctx, params)
		return err
	})
	if err != nil {
		return nil, logRejection("Referral reward", params.ReferralId, err)
	}
	metrics.Payments.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.mirrorTransaction(ctx, tx)
	return tx, nil
}

// CreateTeamCommission credits a team member as the admin in ctx.
func (s *LedgerService) CreateTeamCommission(ctx context.Context, params store.TeamCommissionParams) (*models.Transaction, error) {
	principal, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	params.Actor = principal.UserId

	var tx *models.Transaction
	err = s.withRetry(ctx, "create_team_commission", func() error {
		var err error
		tx, err = s.store.CreateTeamCommission(ctx, params)
		return err
	})
	if err != nil {
		return nil, logRejection("Team commission", params.UserId, err)
	}
	metrics.Payments.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.mirrorTransaction(ctx, tx)
	return tx, nil
}

func logRejection(what, subject string, err error) error {
	if errors.Is(err, store.ErrValidationFailed) || errors.Is(err, store.ErrNotFound) {
		zap.L().Info(what+" rejected", zap.String("subject", subject), zap.Error(err))
	} else {
		zap.L().Error(what+" failed", zap.String("subject", subject), zap.Error(err))
	}
	return err
}
