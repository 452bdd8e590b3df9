package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// MaxPayoutDetails is the number of payout destinations a wallet may hold
const MaxPayoutDetails = 3

// User represents a user in the system
type User struct {
	Id        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PayoutDetail is one payout destination registered on a wallet
type PayoutDetail struct {
	Method      string `json:"method"`
	Destination string `json:"destination"`
	Label       string `json:"label,omitempty"`
}

// Wallet is the per-user balance row plus its running totals
type Wallet struct {
	UserId         string          `db:"user_id" json:"user_id"`
	Balance        decimal.Decimal `db:"balance" json:"balance"`
	TotalEarned    decimal.Decimal `db:"total_earned" json:"total_earned"`
	TotalWithdrawn decimal.Decimal `db:"total_withdrawn" json:"total_withdrawn"`
	PayoutMethod   string          `db:"payout_method" json:"payout_method"`
	PayoutDetails  []PayoutDetail  `db:"payout_details" json:"payout_details"`
	Version        int64           `db:"version" json:"version"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

type TransactionType string

const (
	TransactionTypeEarning           TransactionType = "earning"
	TransactionTypeWithdrawal        TransactionType = "withdrawal"
	TransactionTypeReferral          TransactionType = "referral"
	TransactionTypeBoostEarning      TransactionType = "boost_earning"
	TransactionTypeTransferSent      TransactionType = "transfer_sent"
	TransactionTypeTransferReceived  TransactionType = "transfer_received"
	TransactionTypeBalanceCorrection TransactionType = "balance_correction"
)

// Valid reports whether t is one of the known transaction types
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeEarning, TransactionTypeWithdrawal, TransactionTypeReferral,
		TransactionTypeBoostEarning, TransactionTypeTransferSent, TransactionTypeTransferReceived,
		TransactionTypeBalanceCorrection:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusRejected  TransactionStatus = "rejected"
	TransactionStatusInTransit TransactionStatus = "in_transit"
)

// Transaction is an entry in the wallet transaction log. Amount, type and status never
// change after insert; Metadata is the only mutable column.
type Transaction struct {
	Id          string            `db:"id" json:"id"`
	UserId      string            `db:"user_id" json:"user_id"`
	Amount      decimal.Decimal   `db:"amount" json:"amount"`
	Type        TransactionType   `db:"type" json:"type"`
	Status      TransactionStatus `db:"status" json:"status"`
	Description string            `db:"description" json:"description"`
	Metadata    json.RawMessage   `db:"metadata" json:"metadata"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

// BudgetedEntity is a campaign or a boost: something earnings are paid out against
type BudgetedEntity struct {
	Id         string          `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	Budget     decimal.Decimal `db:"budget" json:"budget"`
	BudgetUsed decimal.Decimal `db:"budget_used" json:"budget_used"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Campaign carries the CPM rates used by accrual payouts
type Campaign struct {
	BudgetedEntity
	RpmRate  decimal.Decimal `db:"rpm_rate" json:"rpm_rate"`
	FlatRate decimal.Decimal `db:"flat_rate" json:"flat_rate"`
}

type Boost struct {
	BudgetedEntity
}

// AccountAnalytics is the denormalised per-account payout projection of a campaign
type AccountAnalytics struct {
	CampaignId        string           `db:"campaign_id" json:"campaign_id"`
	SocialAccountId   string           `db:"social_account_id" json:"social_account_id"`
	PaidViews         int64            `db:"paid_views" json:"paid_views"`
	LastPaymentAmount *decimal.Decimal `db:"last_payment_amount" json:"last_payment_amount,omitempty"`
	LastPaymentDate   *time.Time       `db:"last_payment_date" json:"last_payment_date,omitempty"`
}

type CpmPayout struct {
	Id              string          `db:"id" json:"id"`
	CampaignId      string          `db:"campaign_id" json:"campaign_id"`
	UserId          string          `db:"user_id" json:"user_id"`
	SocialAccountId string          `db:"social_account_id" json:"social_account_id"`
	Views           int64           `db:"views" json:"views"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

type Profile struct {
	Id               string          `db:"id" json:"id"`
	ReferralEarnings decimal.Decimal `db:"referral_earnings" json:"referral_earnings"`
}

type Referral struct {
	Id           string          `db:"id" json:"id"`
	ReferrerId   string          `db:"referrer_id" json:"referrer_id"`
	ReferredId   string          `db:"referred_id" json:"referred_id"`
	RewardEarned decimal.Decimal `db:"reward_earned" json:"reward_earned"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

type TeamEarning struct {
	Id                  string          `db:"id" json:"id"`
	TeamId              string          `db:"team_id" json:"team_id"`
	UserId              string          `db:"user_id" json:"user_id"`
	SourceTransactionId string          `db:"source_transaction_id" json:"source_transaction_id"`
	Amount              decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}

// AuditLogEntry is a write-only record of a privileged state change
type AuditLogEntry struct {
	Id          string          `db:"id" json:"id"`
	Actor       string          `db:"actor" json:"actor"`
	Action      string          `db:"action" json:"action"`
	TargetTable string          `db:"target_table" json:"target_table"`
	TargetId    string          `db:"target_id" json:"target_id"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Audit log actions
const (
	AuditActionPaymentCreated              = "payment.created"
	AuditActionTransactionRecorded         = "transaction.recorded"
	AuditActionTransactionReversed         = "transaction.reversed"
	AuditActionSellerRateChanged           = "commission.seller_rate_changed"
	AuditActionCommunityRateChanged        = "commission.community_rate_changed"
	AuditActionReconciliationDriftDetected = "reconciliation.drift_detected"
)
