package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SourceTypeTeamCommission marks earnings paid out of a team's commission pool
const SourceTypeTeamCommission = "team_commission"

// EarningMetadata holds the cross-references carried by earning transactions.
type EarningMetadata struct {
	CampaignId      string `json:"campaign_id,omitempty"`
	BoostId         string `json:"boost_id,omitempty"`
	SocialAccountId string `json:"social_account_id,omitempty"`
	ViewsPaid       int64  `json:"views_paid,omitempty"`
	CpmPayoutId     string `json:"cpm_payout_id,omitempty"`
	TeamId          string `json:"team_id,omitempty"`
	SourceType      string `json:"source_type,omitempty"`

	BalanceBefore        *decimal.Decimal `json:"balance_before,omitempty"`
	BalanceAfter         *decimal.Decimal `json:"balance_after,omitempty"`
	CampaignBudgetBefore *decimal.Decimal `json:"campaign_budget_before,omitempty"`
	CampaignBudgetAfter  *decimal.Decimal `json:"campaign_budget_after,omitempty"`
	Signed               bool             `json:"signed,omitempty"`
}

// ReferralMetadata holds the cross-references carried by referral transactions.
type ReferralMetadata struct {
	ReferralId string `json:"referral_id,omitempty"`
}

// TeamCommissionRef is present on any transaction that fed a team_earnings row.
type TeamCommissionRef struct {
	SourceType string `json:"source_type,omitempty"`
	TeamId     string `json:"team_id,omitempty"`
}

// IsTeamCommission reports whether the transaction created a team_earnings row.
func (r TeamCommissionRef) IsTeamCommission() bool {
	return r.SourceType == SourceTypeTeamCommission && r.TeamId != ""
}

// CorrectionMetadata is written on balance_correction transactions produced by a reversal.
// The original metadata is nested, never flattened, so its references stay inert.
type CorrectionMetadata struct {
	OriginalTransactionId string          `json:"original_transaction_id"`
	OriginalType          TransactionType `json:"original_type"`
	OriginalAmount        decimal.Decimal `json:"original_amount"`
	OriginalMetadata      json.RawMessage `json:"original_metadata,omitempty"`
	ReversalReason        string          `json:"reversal_reason"`
	ReversedBy            string          `json:"reversed_by"`
	UndoActions           []string        `json:"undo_actions"`
	FailedActions         []string        `json:"failed_actions,omitempty"`
}

// ReversalMarker is merged into a transaction's metadata once it has been reversed.
type ReversalMarker struct {
	Reversed              bool       `json:"reversed,omitempty"`
	ReversedAt            *time.Time `json:"reversed_at,omitempty"`
	ReversedBy            string     `json:"reversed_by,omitempty"`
	ReversalTransactionId string     `json:"reversal_transaction_id,omitempty"`
}

func decodeMetadata[T any](raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("invalid transaction metadata: %w", err)
	}
	return out, nil
}

func (t *Transaction) EarningMetadata() (EarningMetadata, error) {
	return decodeMetadata[EarningMetadata](t.Metadata)
}

func (t *Transaction) ReferralMetadata() (ReferralMetadata, error) {
	return decodeMetadata[ReferralMetadata](t.Metadata)
}

func (t *Transaction) TeamCommissionRef() (TeamCommissionRef, error) {
	return decodeMetadata[TeamCommissionRef](t.Metadata)
}

func (t *Transaction) CorrectionMetadata() (CorrectionMetadata, error) {
	return decodeMetadata[CorrectionMetadata](t.Metadata)
}

func (t *Transaction) ReversalMarker() (ReversalMarker, error) {
	return decodeMetadata[ReversalMarker](t.Metadata)
}

// MarshalMetadata encodes a metadata variant, defaulting to an empty object.
func MarshalMetadata(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage(`{}`), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return raw, nil
}

// MergeMetadata overlays the keys of patch onto raw, keeping every key of raw that patch
// does not set.
func MergeMetadata(raw json.RawMessage, patch any) (json.RawMessage, error) {
	base := map[string]json.RawMessage{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &base); err != nil {
			return nil, fmt.Errorf("invalid transaction metadata: %w", err)
		}
	}

	patchRaw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata patch: %w", err)
	}
	overlay := map[string]json.RawMessage{}
	if err := json.Unmarshal(patchRaw, &overlay); err != nil {
		return nil, fmt.Errorf("metadata patch must be an object: %w", err)
	}
	for k, v := range overlay {
		base[k] = v
	}

	return json.Marshal(base)
}
