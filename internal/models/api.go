package models

import (
	"github.com/shopspring/decimal"
)

// PaymentResult represents the result of ingesting a payment
type PaymentResult struct {
	Success       bool            `json:"success"`
	TransactionId string          `json:"transaction_id,omitempty"`
	UserId        string          `json:"user_id,omitempty"`
	CampaignId    string          `json:"campaign_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	Error         string          `json:"error,omitempty"`
}

// ReversalResult is the response shape of a reversal request
type ReversalResult struct {
	Success               bool     `json:"success"`
	ReversalTransactionId string   `json:"reversal_transaction_id,omitempty"`
	ActionsTaken          []string `json:"actions_taken"`
	FailedActions         []string `json:"failed_actions,omitempty"`
	Message               string   `json:"message,omitempty"`
	Error                 string   `json:"error,omitempty"`
}

// ReconciliationResult compares a wallet against its completed transactions
type ReconciliationResult struct {
	UserId            string          `json:"user_id"`
	StoredBalance     decimal.Decimal `json:"stored_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	TransactionCount  int             `json:"transaction_count"`
	InSync            bool            `json:"in_sync"`
}

// FeeBreakdown splits a gross payment into the platform cut, community cut and seller net
type FeeBreakdown struct {
	Gross        decimal.Decimal `json:"gross"`
	PlatformFee  decimal.Decimal `json:"platform_fee"`
	CommunityFee decimal.Decimal `json:"community_fee"`
	Net          decimal.Decimal `json:"net"`
	Rates        EffectiveRates  `json:"rates"`
}
