package models

import "time"

type FeeType string

const (
	FeeTypePlatform  FeeType = "platform"
	FeeTypeCommunity FeeType = "community"
)

// FeeSource names the layer an effective fee was taken from
type FeeSource string

const (
	FeeSourceSeller    FeeSource = "seller"
	FeeSourceCommunity FeeSource = "community"
	FeeSourceDefault   FeeSource = "default"
)

// SellerProfile carries per-seller fee overrides. Nil means "not overridden".
type SellerProfile struct {
	Id                    string     `db:"id" json:"id"`
	UserId                string     `db:"user_id" json:"user_id"`
	CustomPlatformFeeBps  *int       `db:"custom_platform_fee_bps" json:"custom_platform_fee_bps"`
	CustomCommunityFeeBps *int       `db:"custom_community_fee_bps" json:"custom_community_fee_bps"`
	CommissionNotes       string     `db:"commission_notes" json:"commission_notes,omitempty"`
	CommissionUpdatedAt   *time.Time `db:"commission_updated_at" json:"commission_updated_at,omitempty"`
	CommissionUpdatedBy   string     `db:"commission_updated_by" json:"commission_updated_by,omitempty"`
}

// CommunityConfig carries the community's own fee and its platform-fee override.
type CommunityConfig struct {
	Id                   string     `db:"id" json:"id"`
	Name                 string     `db:"name" json:"name"`
	CommunityFeeBps      *int       `db:"community_fee_bps" json:"community_fee_bps"`
	CustomPlatformFeeBps *int       `db:"custom_platform_fee_bps" json:"custom_platform_fee_bps"`
	CommissionUpdatedAt  *time.Time `db:"commission_updated_at" json:"commission_updated_at,omitempty"`
	CommissionUpdatedBy  string     `db:"commission_updated_by" json:"commission_updated_by,omitempty"`
}

// CommissionChange is the append-only audit row of a fee override edit.
// Exactly one of SellerProfileId and CommunityConfigId is set.
type CommissionChange struct {
	Id                string    `db:"id" json:"id"`
	ChangedBy         string    `db:"changed_by" json:"changed_by"`
	SellerProfileId   *string   `db:"seller_profile_id" json:"seller_profile_id,omitempty"`
	CommunityConfigId *string   `db:"community_config_id" json:"community_config_id,omitempty"`
	FeeType           FeeType   `db:"fee_type" json:"fee_type"`
	PreviousBps       *int      `db:"previous_bps" json:"previous_bps"`
	NewBps            *int      `db:"new_bps" json:"new_bps"`
	Reason            string    `db:"reason" json:"reason"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

type RateSources struct {
	Platform  FeeSource `json:"platform"`
	Community FeeSource `json:"community"`
}

// EffectiveRates is the resolved fee pair for a seller in a community context
type EffectiveRates struct {
	PlatformFeeBps  int         `json:"platform_fee_bps"`
	CommunityFeeBps int         `json:"community_fee_bps"`
	TotalFeeBps     int         `json:"total_fee_bps"`
	Source          RateSources `json:"source"`
}
