package api

import (
	"context"

	"creator-ledger-go/internal/models"

	"go.uber.org/zap"
)

// Side-ledger access for admins. Writes to these rows happen inside the payment and reversal
// workflows; only referrals are created directly.

func (s *LedgerService) CreateReferral(ctx context.Context, referrerId, referredId string) (*models.Referral, error) {
	principal, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	referral, err := s.store.CreateReferral(ctx, referrerId, referredId)
	if err != nil {
		return nil, logRejection("Referral", referrerId, err)
	}
	zap.L().Info("Referral registered",
		zap.String("referral_id", referral.Id),
		zap.String("created_by", principal.UserId))
	return referral, nil
}

func (s *LedgerService) GetReferral(ctx context.Context, referralId string) (*models.Referral, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.store.GetReferral(ctx, referralId)
}

func (s *LedgerService) GetProfile(ctx context.Context, userId string) (*models.Profile, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.store.GetProfile(ctx, userId)
}

func (s *LedgerService) GetAccountAnalytics(ctx context.Context, campaignId, socialAccountId string) (*models.AccountAnalytics, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.store.GetAccountAnalytics(ctx, campaignId, socialAccountId)
}

func (s *LedgerService) GetCpmPayout(ctx context.Context, payoutId string) (*models.CpmPayout, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.store.GetCpmPayout(ctx, payoutId)
}

// GetTeamEarning returns the team earning row booked by a team commission transaction.
func (s *LedgerService) GetTeamEarning(ctx context.Context, transactionId string) (*models.TeamEarning, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.store.GetTeamEarningBySource(ctx, transactionId)
}

// ListAuditLog returns the audit trail of one row, oldest first.
func (s *LedgerService) ListAuditLog(ctx context.Context, targetTable, targetId string) ([]models.AuditLogEntry, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.store.ListAuditLog(ctx, targetTable, targetId)
}
