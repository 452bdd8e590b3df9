/*
Package commission resolves the fees taken from a seller's payments.

Two fees apply to every payment: the platform fee and the community fee, both in basis
points (1 bps = 0.01%). Each fee is resolved independently through three layers:

	seller override  ->  community config  ->  platform default

The community layer contributes `custom_platform_fee_bps` to the platform fee and
`community_fee_bps` to the community fee. The resolved pair is never allowed to exceed
MaxTotalFeeBps in total.
*/
package commission

import (
	"fmt"

	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

const (
	DefaultPlatformFeeBps  = 800
	DefaultCommunityFeeBps = 500
	MaxTotalFeeBps         = 9000

	bpsDenominator = 10000
)

// Defaults holds the global fee layer.
type Defaults struct {
	PlatformFeeBps  int `yaml:"platform_fee_bps"`
	CommunityFeeBps int `yaml:"community_fee_bps"`
	MaxTotalFeeBps  int `yaml:"max_total_fee_bps"`
}

func DefaultConfig() Defaults {
	return Defaults{
		PlatformFeeBps:  DefaultPlatformFeeBps,
		CommunityFeeBps: DefaultCommunityFeeBps,
		MaxTotalFeeBps:  MaxTotalFeeBps,
	}
}

type Resolver struct {
	defaults Defaults
}

func NewResolver(defaults Defaults) *Resolver {
	return &Resolver{defaults: defaults}
}

func (r *Resolver) Defaults() Defaults { return r.defaults }

// Resolve computes the effective rates for a seller. community may be nil when the payment
// has no community context; seller may be nil for sellers without a profile row.
func (r *Resolver) Resolve(seller *models.SellerProfile, community *models.CommunityConfig) models.EffectiveRates {
	rates := models.EffectiveRates{
		PlatformFeeBps:  r.defaults.PlatformFeeBps,
		CommunityFeeBps: r.defaults.CommunityFeeBps,
		Source: models.RateSources{
			Platform:  models.FeeSourceDefault,
			Community: models.FeeSourceDefault,
		},
	}

	switch {
	case seller != nil && seller.CustomPlatformFeeBps != nil:
		rates.PlatformFeeBps = *seller.CustomPlatformFeeBps
		rates.Source.Platform = models.FeeSourceSeller
	case community != nil && community.CustomPlatformFeeBps != nil:
		rates.PlatformFeeBps = *community.CustomPlatformFeeBps
		rates.Source.Platform = models.FeeSourceCommunity
	}

	switch {
	case seller != nil && seller.CustomCommunityFeeBps != nil:
		rates.CommunityFeeBps = *seller.CustomCommunityFeeBps
		rates.Source.Community = models.FeeSourceSeller
	case community != nil && community.CommunityFeeBps != nil:
		rates.CommunityFeeBps = *community.CommunityFeeBps
		rates.Source.Community = models.FeeSourceCommunity
	}

	rates.TotalFeeBps = rates.PlatformFeeBps + rates.CommunityFeeBps
	return rates
}

// Validate checks a platform/community pair against the configured bounds.
func (r *Resolver) Validate(platformBps, communityBps int) error {
	max := r.defaults.MaxTotalFeeBps
	if platformBps < 0 {
		return fmt.Errorf("%w: platform fee cannot be negative", store.ErrInvalidCommissionRate)
	}
	if communityBps < 0 {
		return fmt.Errorf("%w: community fee cannot be negative", store.ErrInvalidCommissionRate)
	}
	if platformBps > max {
		return fmt.Errorf("%w: platform fee %s cannot exceed %s",
			store.ErrInvalidCommissionRate, FormatBpsAsPercent(platformBps), FormatBpsAsPercent(max))
	}
	if communityBps > max {
		return fmt.Errorf("%w: community fee %s cannot exceed %s",
			store.ErrInvalidCommissionRate, FormatBpsAsPercent(communityBps), FormatBpsAsPercent(max))
	}
	if total := platformBps + communityBps; total > max {
		return fmt.Errorf("%w: total fee %s cannot exceed %s",
			store.ErrInvalidCommissionRate, FormatBpsAsPercent(total), FormatBpsAsPercent(max))
	}
	return nil
}

// SellerPairAfter returns the seller's own fee pair once feeType is set to newBps
// (nil clears the override and falls back to the default).
func (r *Resolver) SellerPairAfter(seller *models.SellerProfile, feeType models.FeeType, newBps *int) (int, int) {
	platform, community := r.defaults.PlatformFeeBps, r.defaults.CommunityFeeBps
	if seller != nil {
		if seller.CustomPlatformFeeBps != nil {
			platform = *seller.CustomPlatformFeeBps
		}
		if seller.CustomCommunityFeeBps != nil {
			community = *seller.CustomCommunityFeeBps
		}
	}
	return r.applyChange(platform, community, feeType, newBps)
}

// CommunityPairAfter is SellerPairAfter for a community config.
func (r *Resolver) CommunityPairAfter(cfg *models.CommunityConfig, feeType models.FeeType, newBps *int) (int, int) {
	platform, community := r.defaults.PlatformFeeBps, r.defaults.CommunityFeeBps
	if cfg != nil {
		if cfg.CustomPlatformFeeBps != nil {
			platform = *cfg.CustomPlatformFeeBps
		}
		if cfg.CommunityFeeBps != nil {
			community = *cfg.CommunityFeeBps
		}
	}
	return r.applyChange(platform, community, feeType, newBps)
}

func (r *Resolver) applyChange(platform, community int, feeType models.FeeType, newBps *int) (int, int) {
	switch feeType {
	case models.FeeTypePlatform:
		platform = r.defaults.PlatformFeeBps
		if newBps != nil {
			platform = *newBps
		}
	case models.FeeTypeCommunity:
		community = r.defaults.CommunityFeeBps
		if newBps != nil {
			community = *newBps
		}
	}
	return platform, community
}

// ValidFeeType reports whether feeType names one of the two fee layers.
func ValidFeeType(feeType models.FeeType) bool {
	return feeType == models.FeeTypePlatform || feeType == models.FeeTypeCommunity
}

// CalculateFee returns amount * bps / 10000 rounded to cents.
func CalculateFee(amount decimal.Decimal, bps int) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(bps))).
		Div(decimal.NewFromInt(bpsDenominator)).
		Round(2)
}

// Split breaks a gross payment down using the given effective rates.
func Split(gross decimal.Decimal, rates models.EffectiveRates) models.FeeBreakdown {
	platformFee := CalculateFee(gross, rates.PlatformFeeBps)
	communityFee := CalculateFee(gross, rates.CommunityFeeBps)
	return models.FeeBreakdown{
		Gross:        gross,
		PlatformFee:  platformFee,
		CommunityFee: communityFee,
		Net:          gross.Sub(platformFee).Sub(communityFee),
		Rates:        rates,
	}
}

// FormatBpsAsPercent renders 850 as "8.5%".
func FormatBpsAsPercent(bps int) string {
	return decimal.New(int64(bps), -2).String() + "%"
}

// CPMPayout is the accrued payout for a number of views: views/1000 * rpm + flat, in cents.
func CPMPayout(views int64, rpmRate, flatRate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(views).
		Div(decimal.NewFromInt(1000)).
		Mul(rpmRate).
		Add(flatRate).
		Round(2)
}
