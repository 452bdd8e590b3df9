package commission

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestResolve_NoOverrides(t *testing.T) {
	r := NewResolver(DefaultConfig())

	rates := r.Resolve(&models.SellerProfile{Id: "seller-1"}, nil)

	assert.Equal(t, DefaultPlatformFeeBps, rates.PlatformFeeBps)
	assert.Equal(t, DefaultCommunityFeeBps, rates.CommunityFeeBps)
	assert.Equal(t, DefaultPlatformFeeBps+DefaultCommunityFeeBps, rates.TotalFeeBps)
	assert.Equal(t, models.FeeSourceDefault, rates.Source.Platform)
	assert.Equal(t, models.FeeSourceDefault, rates.Source.Community)
}

func TestResolve_SellerPlatformOverrideOnly(t *testing.T) {
	r := NewResolver(DefaultConfig())
	seller := &models.SellerProfile{Id: "seller-1", CustomPlatformFeeBps: intPtr(100)}

	rates := r.Resolve(seller, nil)

	assert.Equal(t, 100, rates.PlatformFeeBps)
	assert.Equal(t, models.FeeSourceSeller, rates.Source.Platform)
	assert.Equal(t, DefaultCommunityFeeBps, rates.CommunityFeeBps)
	assert.Equal(t, models.FeeSourceDefault, rates.Source.Community)
}

func TestResolve_Precedence(t *testing.T) {
	r := NewResolver(DefaultConfig())
	community := &models.CommunityConfig{
		Id:                   "community-1",
		CommunityFeeBps:      intPtr(300),
		CustomPlatformFeeBps: intPtr(600),
	}

	// Community layer applies when the seller has no overrides.
	rates := r.Resolve(&models.SellerProfile{Id: "seller-1"}, community)
	assert.Equal(t, 600, rates.PlatformFeeBps)
	assert.Equal(t, 300, rates.CommunityFeeBps)
	assert.Equal(t, models.RateSources{Platform: models.FeeSourceCommunity, Community: models.FeeSourceCommunity}, rates.Source)

	// Seller overrides beat the community layer, independently per fee.
	seller := &models.SellerProfile{Id: "seller-1", CustomCommunityFeeBps: intPtr(0)}
	rates = r.Resolve(seller, community)
	assert.Equal(t, 600, rates.PlatformFeeBps)
	assert.Equal(t, models.FeeSourceCommunity, rates.Source.Platform)
	assert.Equal(t, 0, rates.CommunityFeeBps)
	assert.Equal(t, models.FeeSourceSeller, rates.Source.Community)
	assert.Equal(t, 600, rates.TotalFeeBps)
}

func TestResolve_NilSeller(t *testing.T) {
	r := NewResolver(DefaultConfig())
	rates := r.Resolve(nil, &models.CommunityConfig{Id: "c"})
	assert.Equal(t, models.FeeSourceDefault, rates.Source.Platform)
	assert.Equal(t, models.FeeSourceDefault, rates.Source.Community)
}

func TestValidate(t *testing.T) {
	r := NewResolver(DefaultConfig())

	tests := []struct {
		name      string
		platform  int
		community int
		wantErr   string
	}{
		{"defaults", 800, 500, ""},
		{"at max", 4500, 4500, ""},
		{"zero", 0, 0, ""},
		{"negative platform", -1, 500, "platform fee cannot be negative"},
		{"negative community", 800, -5, "community fee cannot be negative"},
		{"platform over max", 9100, 0, "platform fee 91% cannot exceed 90%"},
		{"community over max", 0, 9001, "community fee 90.01% cannot exceed 90%"},
		{"sum over max", 5000, 4500, "total fee 95% cannot exceed 90%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate(tt.platform, tt.community)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, store.ErrInvalidCommissionRate))
			assert.True(t, errors.Is(err, store.ErrValidationFailed))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSellerPairAfter(t *testing.T) {
	r := NewResolver(DefaultConfig())
	seller := &models.SellerProfile{CustomPlatformFeeBps: intPtr(200), CustomCommunityFeeBps: intPtr(8500)}

	platform, community := r.SellerPairAfter(seller, models.FeeTypePlatform, intPtr(1000))
	assert.Equal(t, 1000, platform)
	assert.Equal(t, 8500, community)

	// Clearing falls back to the default for the target fee only.
	platform, community = r.SellerPairAfter(seller, models.FeeTypeCommunity, nil)
	assert.Equal(t, 200, platform)
	assert.Equal(t, DefaultCommunityFeeBps, community)
}

func TestCommunityPairAfter(t *testing.T) {
	r := NewResolver(DefaultConfig())
	cfg := &models.CommunityConfig{CommunityFeeBps: intPtr(1500)}

	platform, community := r.CommunityPairAfter(cfg, models.FeeTypePlatform, intPtr(7600))
	assert.Equal(t, 7600, platform)
	assert.Equal(t, 1500, community)
	assert.Error(t, r.Validate(platform, community))
}

func TestCalculateFeeAndSplit(t *testing.T) {
	gross := decimal.RequireFromString("123.45")
	assert.True(t, CalculateFee(gross, 800).Equal(decimal.RequireFromString("9.88")))
	assert.True(t, CalculateFee(gross, 0).IsZero())

	rates := NewResolver(DefaultConfig()).Resolve(nil, nil)
	split := Split(decimal.NewFromInt(100), rates)
	assert.True(t, split.PlatformFee.Equal(decimal.NewFromInt(8)))
	assert.True(t, split.CommunityFee.Equal(decimal.NewFromInt(5)))
	assert.True(t, split.Net.Equal(decimal.NewFromInt(87)))
}

func TestFormatBpsAsPercent(t *testing.T) {
	assert.Equal(t, "8%", FormatBpsAsPercent(800))
	assert.Equal(t, "8.5%", FormatBpsAsPercent(850))
	assert.Equal(t, "90%", FormatBpsAsPercent(9000))
	assert.Equal(t, "0%", FormatBpsAsPercent(0))
}

func TestCPMPayout(t *testing.T) {
	got := CPMPayout(25000, decimal.RequireFromString("2.50"), decimal.RequireFromString("10"))
	assert.True(t, got.Equal(decimal.RequireFromString("72.5")), "got %s", got)

	got = CPMPayout(333, decimal.RequireFromString("1"), decimal.Zero)
	assert.True(t, got.Equal(decimal.RequireFromString("0.33")), "got %s", got)
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	missing, err := LoadDefaults(filepath.Join(dir, "nope.yaml"), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), missing)

	path := filepath.Join(dir, "commission.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fees:\n  platform_fee_bps: 1000\n"), 0o600))
	loaded, err := LoadDefaults(path, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1000, loaded.PlatformFeeBps)
	assert.Equal(t, DefaultCommunityFeeBps, loaded.CommunityFeeBps)
	assert.Equal(t, MaxTotalFeeBps, loaded.MaxTotalFeeBps)

	require.NoError(t, os.WriteFile(path, []byte("fees:\n  platform_fee_bps: 9500\n"), 0o600))
	_, err = LoadDefaults(path, DefaultConfig())
	assert.Error(t, err)
}
