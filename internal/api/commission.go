package api

import (
	"context"
	"fmt"

	"creator-ledger-go/internal/commission"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ResolveForSeller returns the rates a seller pays, optionally inside a community.
func (s *LedgerService) ResolveForSeller(ctx context.Context, sellerId, communityId string) (*models.EffectiveRates, error) {
	seller, err := s.store.GetSellerProfile(ctx, sellerId)
	if err != nil {
		return nil, err
	}

	var community *models.CommunityConfig
	if communityId != "" {
		community, err = s.store.GetCommunityConfig(ctx, communityId)
		if err != nil {
			return nil, err
		}
	}

	rates := s.resolver.Resolve(seller, community)
	return &rates, nil
}

// SplitPayment breaks a gross amount down into platform fee, community fee and seller net.
func (s *LedgerService) SplitPayment(ctx context.Context, sellerId, communityId string, gross decimal.Decimal) (*models.FeeBreakdown, error) {
	if gross.IsNegative() {
		return nil, fmt.Errorf("%w: gross amount cannot be negative", store.ErrInvalidAmount)
	}
	rates, err := s.ResolveForSeller(ctx, sellerId, communityId)
	if err != nil {
		return nil, err
	}
	breakdown := commission.Split(gross, *rates)
	return &breakdown, nil
}

// SetSellerRate changes a seller fee override as the admin in ctx.
func (s *LedgerService) SetSellerRate(ctx context.Context, params store.SetRateParams) (*models.SellerProfile, error) {
	principal, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	params.ChangedBy = principal.UserId

	var seller *models.SellerProfile
	err = s.withRetry(ctx, "set_seller_rate", func() error {
		var err error
		seller, err = s.store.SetSellerRate(ctx, params)
		return err
	})
	if err != nil {
		zap.L().Info("Seller rate change rejected",
			zap.String("seller_id", params.TargetId),
			zap.String("fee_type", string(params.FeeType)),
			zap.Error(err))
		return nil, err
	}
	return seller, nil
}

// SetCommunityRate changes a community fee as the admin in ctx.
func (s *LedgerService) SetCommunityRate(ctx context.Context, params store.SetRateParams) (*models.CommunityConfig, error) {
	principal, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	params.ChangedBy = principal.UserId

	var cfg *models.CommunityConfig
	err = s.withRetry(ctx, "set_community_rate", func() error {
		var err error
		cfg, err = s.store.SetCommunityRate(ctx, params)
		return err
	})
	if err != nil {
		zap.L().Info("Community rate change rejected",
			zap.String("community_id", params.TargetId),
			zap.String("fee_type", string(params.FeeType)),
			zap.Error(err))
		return nil, err
	}
	return cfg, nil
}

func (s *LedgerService) ListCommissionChanges(ctx context.Context, sellerId, communityId string) ([]models.CommissionChange, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.store.ListCommissionChanges(ctx, sellerId, communityId)
}
