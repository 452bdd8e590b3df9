package api

import (
	"context"
	"errors"

	"creator-ledger-go/internal/metrics"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"go.uber.org/zap"
)

// CreatePayment ingests a campaign earning. Signed and Actor are taken from the payment
// context when the HTTP middleware set one.
func (s *LedgerService) CreatePayment(ctx context.Context, params store.CreatePaymentParams) (*models.PaymentResult, error) {
	if pc := models.GetPaymentContext(ctx); pc != nil {
		params.Signed = pc.Signed
		if params.Actor == "" {
			params.Actor = pc.ApiKeyId
		}
	}

	zap.L().Info("Processing payment",
		zap.String("campaign_id", params.CampaignId),
		zap.String("user_id", params.UserId),
		zap.String("amount", params.Amount.String()),
		zap.Bool("signed", params.Signed))

	var tx *models.Transaction
	err := s.withRetry(ctx, "create_payment", func() error {
		var err error
		tx, err = s.store.CreatePayment(ctx, params)
		return err
	})
	if err != nil {
		return s.paymentFailed(params.UserId, params.CampaignId, err)
	}
	return s.paymentSucceeded(ctx, tx, params.CampaignId)
}

// CreateCPMPayment pays out accrued views of one social account on a campaign.
func (s *LedgerService) CreateCPMPayment(ctx context.Context, params store.CreateCPMPaymentParams) (*models.PaymentResult, error) {
	if pc := models.GetPaymentContext(ctx); pc != nil {
		params.Signed = pc.Signed
		if params.Actor == "" {
			params.Actor = pc.ApiKeyId
		}
	}

	zap.L().Info("Processing CPM payment",
		zap.String("campaign_id", params.CampaignId),
		zap.String("user_id", params.UserId),
		zap.String("social_account_id", params.SocialAccountId),
		zap.Int64("views", params.Views))

	var tx *models.Transaction
	err := s.withRetry(ctx, "create_cpm_payment", func() error {
		var err error
		tx, err = s.store.CreateCPMPayment(ctx, params)
		return err
	})
	if err != nil {
		return s.paymentFailed(params.UserId, params.CampaignId, err)
	}
	return s.paymentSucceeded(ctx, tx, params.CampaignId)
}

func (s *LedgerService) paymentFailed(userId, campaignId string, err error) (*models.PaymentResult, error) {
	outcome := metrics.OutcomeFailed
	if errors.Is(err, store.ErrValidationFailed) || errors.Is(err, store.ErrNotFound) {
		outcome = metrics.OutcomeRejected
		zap.L().Info("Payment rejected",
			zap.String("user_id", userId),
			zap.String("campaign_id", campaignId),
			zap.Error(err))
	} else {
		zap.L().Error("Payment processing failed",
			zap.String("user_id", userId),
			zap.String("campaign_id", campaignId),
			zap.Error(err))
	}
	metrics.Payments.WithLabelValues(outcome).Inc()

	return &models.PaymentResult{
		Success: false,
		Error:   err.Error(),
	}, err
}

func (s *LedgerService) paymentSucceeded(ctx context.Context, tx *models.Transaction, campaignId string) (*models.PaymentResult, error) {
	metrics.Payments.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.mirrorTransaction(ctx, tx)

	result := &models.PaymentResult{
		Success:       true,
		TransactionId: tx.Id,
		UserId:        tx.UserId,
		CampaignId:    campaignId,
		Amount:        tx.Amount,
	}

	wallet, err := s.store.GetWallet(ctx, tx.UserId)
	if err != nil {
		// The payment is committed; only the convenience balance is missing.
		zap.L().Warn("Balance lookup failed after payment",
			zap.String("transaction_id", tx.Id),
			zap.Error(err))
	} else {
		result.NewBalance = wallet.Balance
	}

	zap.L().Info("Payment processed successfully",
		zap.String("transaction_id", tx.Id),
		zap.String("user_id", tx.UserId),
		zap.String("amount", tx.Amount.String()),
		zap.String("new_balance", result.NewBalance.String()))
	return result, nil
}

func (s *LedgerService) mirrorTransaction(ctx context.Context, tx *models.Transaction) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.RecordTransaction(ctx, tx); err != nil {
		metrics.MirrorErrors.WithLabelValues("record").Inc()
		zap.L().Error("Failed to mirror transaction",
			zap.String("transaction_id", tx.Id),
			zap.Error(err))
	}
}
