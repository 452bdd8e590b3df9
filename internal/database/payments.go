package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"creator-ledger-go/internal/commission"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// earning describes one credit to a creator's wallet paid out of a campaign, a boost, or both.
type earning struct {
	userId      string
	amount      decimal.Decimal
	txType      models.TransactionType
	description string
	campaignId  string
	boostId     string
	metadata    models.EarningMetadata
	actor       string
}

// CreatePayment credits a creator for a campaign. Every write happens in one database transaction.
func (s *Service) CreatePayment(ctx context.Context, params store.CreatePaymentParams) (*models.Transaction, error) {
	if err := validateAmount(params.Amount, true); err != nil {
		return nil, err
	}
	if params.CampaignId == "" || params.UserId == "" {
		return nil, fmt.Errorf("%w: campaign_id and user_id are required", store.ErrValidationFailed)
	}

	zap.L().Info("Processing payment",
		zap.String("campaign_id", params.CampaignId),
		zap.String("user_id", params.UserId),
		zap.String("amount", params.Amount.String()),
		zap.Bool("signed", params.Signed))

	description := params.Description
	if description == "" {
		description = "Campaign payment"
	}

	var transaction *models.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getCampaign(ctx, tx, params.CampaignId); err != nil {
			return err
		}

		var err error
		transaction, err = creditEarning(ctx, tx, earning{
			userId:      params.UserId,
			amount:      params.Amount,
			txType:      models.TransactionTypeEarning,
			description: description,
			campaignId:  params.CampaignId,
			boostId:     params.BoostId,
			metadata:    models.EarningMetadata{Signed: params.Signed},
			actor:       params.Actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Payment processed successfully",
		zap.String("transaction_id", transaction.Id),
		zap.String("user_id", transaction.UserId),
		zap.String("campaign_id", params.CampaignId))
	return transaction, nil
}

// CreateCPMPayment pays views accrued on a social account at the campaign's CPM rates and
// records the payout and analytics rows alongside the earning.
func (s *Service) CreateCPMPayment(ctx context.Context, params store.CreateCPMPaymentParams) (*models.Transaction, error) {
	if params.Views <= 0 {
		return nil, fmt.Errorf("%w: views must be positive, got %d", store.ErrValidationFailed, params.Views)
	}
	if params.CampaignId == "" || params.UserId == "" || params.SocialAccountId == "" {
		return nil, fmt.Errorf("%w: campaign_id, user_id and social_account_id are required", store.ErrValidationFailed)
	}

	var transaction *models.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		campaign, err := getCampaign(ctx, tx, params.CampaignId)
		if err != nil {
			return err
		}

		amount := commission.CPMPayout(params.Views, campaign.RpmRate, campaign.FlatRate)
		if err := validateAmount(amount, true); err != nil {
			return fmt.Errorf("accrued payout for %d views: %w", params.Views, err)
		}

		now := time.Now().UTC()
		payout := &models.CpmPayout{
			CampaignId:      params.CampaignId,
			UserId:          params.UserId,
			SocialAccountId: params.SocialAccountId,
			Views:           params.Views,
			Amount:          amount,
			CreatedAt:       now,
		}
		if err := insertCpmPayout(ctx, tx, payout); err != nil {
			return err
		}
		if err := recordAnalyticsPayment(ctx, tx, params.CampaignId, params.SocialAccountId, params.Views, amount, now); err != nil {
			return err
		}

		transaction, err = creditEarning(ctx, tx, earning{
			userId:      params.UserId,
			amount:      amount,
			txType:      models.TransactionTypeEarning,
			description: fmt.Sprintf("CPM payout for %d views", params.Views),
			campaignId:  params.CampaignId,
			metadata: models.EarningMetadata{
				SocialAccountId: params.SocialAccountId,
				ViewsPaid:       params.Views,
				CpmPayoutId:     payout.Id,
				Signed:          params.Signed,
			},
			actor: params.Actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("CPM payment processed successfully",
		zap.String("transaction_id", transaction.Id),
		zap.String("social_account_id", params.SocialAccountId),
		zap.Int64("views", params.Views),
		zap.String("amount", transaction.Amount.String()))
	return transaction, nil
}

// CreateTeamCommission credits a team member from the team's commission pool and records the
// matching team_earnings row.
func (s *Service) CreateTeamCommission(ctx context.Context, params store.TeamCommissionParams) (*models.Transaction, error) {
	if err := validateAmount(params.Amount, true); err != nil {
		return nil, err
	}
	if params.TeamId == "" {
		return nil, fmt.Errorf("%w: team_id is required", store.ErrValidationFailed)
	}

	var transaction *models.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		transaction, err = creditEarning(ctx, tx, earning{
			userId:      params.UserId,
			amount:      params.Amount,
			txType:      models.TransactionTypeEarning,
			description: "Team commission",
			metadata: models.EarningMetadata{
				TeamId:     params.TeamId,
				SourceType: models.SourceTypeTeamCommission,
			},
			actor: params.Actor,
		})
		if err != nil {
			return err
		}

		return insertTeamEarning(ctx, tx, &models.TeamEarning{
			TeamId:              params.TeamId,
			UserId:              params.UserId,
			SourceTransactionId: transaction.Id,
			Amount:              params.Amount,
			CreatedAt:           transaction.CreatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// CreateReferralReward credits the referrer of a referral. Referral rewards move the balance
// and the referral side ledgers but not total_earned.
func (s *Service) CreateReferralReward(ctx context.Context, params store.ReferralRewardParams) (*models.Transaction, error) {
	if err := validateAmount(params.Amount, true); err != nil {
		return nil, err
	}

	var transaction *models.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		referral, err := getReferral(ctx, tx, params.ReferralId)
		if err != nil {
			return err
		}
		profile, err := getProfile(ctx, tx, referral.ReferrerId)
		if err != nil {
			return err
		}

		if _, err := applyDelta(ctx, tx, store.WalletDelta{UserId: referral.ReferrerId, Amount: params.Amount}); err != nil {
			return err
		}
		if err := updateReferralEarnings(ctx, tx, referral.ReferrerId, profile.ReferralEarnings.Add(params.Amount)); err != nil {
			return err
		}
		if err := updateReferralReward(ctx, tx, referral.Id, referral.RewardEarned.Add(params.Amount)); err != nil {
			return err
		}

		metadata, err := models.MarshalMetadata(models.ReferralMetadata{ReferralId: referral.Id})
		if err != nil {
			return err
		}
		transaction = &models.Transaction{
			UserId:      referral.ReferrerId,
			Amount:      params.Amount,
			Type:        models.TransactionTypeReferral,
			Status:      models.TransactionStatusCompleted,
			Description: "Referral reward",
			Metadata:    metadata,
		}
		if err := insertTransaction(ctx, tx, transaction); err != nil {
			return err
		}

		return audit(ctx, tx, params.Actor, models.AuditActionPaymentCreated, "wallet_transactions", transaction.Id,
			map[string]any{"user_id": transaction.UserId, "type": transaction.Type, "amount": params.Amount, "referral_id": referral.Id})
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Referral reward paid",
		zap.String("transaction_id", transaction.Id),
		zap.String("referral_id", params.ReferralId),
		zap.String("amount", params.Amount.String()))
	return transaction, nil
}

// creditEarning applies the wallet delta, bumps the budget counters, logs the earning with
// before/after snapshots and writes the audit entry. It must run inside the caller's transaction.
func creditEarning(ctx context.Context, tx *sql.Tx, e earning) (*models.Transaction, error) {
	wallet, err := applyDelta(ctx, tx, store.WalletDelta{
		UserId:      e.userId,
		Amount:      e.amount,
		TotalEarned: e.amount,
	})
	if err != nil {
		return nil, err
	}

	meta := e.metadata
	balanceBefore := wallet.Balance.Sub(e.amount)
	meta.BalanceBefore = &balanceBefore
	meta.BalanceAfter = &wallet.Balance

	if e.campaignId != "" {
		used, err := incrementCampaignBudgetUsed(ctx, tx, e.campaignId, e.amount)
		if err != nil {
			return nil, err
		}
		before := used.Sub(e.amount)
		meta.CampaignId = e.campaignId
		meta.CampaignBudgetBefore = &before
		meta.CampaignBudgetAfter = &used
	}
	if e.boostId != "" {
		if _, err := incrementBoostBudgetUsed(ctx, tx, e.boostId, e.amount); err != nil {
			return nil, err
		}
		meta.BoostId = e.boostId
	}

	raw, err := models.MarshalMetadata(meta)
	if err != nil {
		return nil, err
	}
	transaction := &models.Transaction{
		UserId:      e.userId,
		Amount:      e.amount,
		Type:        e.txType,
		Status:      models.TransactionStatusCompleted,
		Description: e.description,
		Metadata:    raw,
	}
	if err := insertTransaction(ctx, tx, transaction); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"user_id": e.userId,
		"type":    e.txType,
		"amount":  e.amount,
		"signed":  meta.Signed,
	}
	if e.campaignId != "" {
		payload["campaign_id"] = e.campaignId
	}
	if e.boostId != "" {
		payload["boost_id"] = e.boostId
	}
	if err := audit(ctx, tx, e.actor, models.AuditActionPaymentCreated, "wallet_transactions", transaction.Id, payload); err != nil {
		return nil, err
	}
	return transaction, nil
}
