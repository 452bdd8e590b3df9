package store

import (
	"context"
	"errors"
	"fmt"

	"creator-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Error taxonomy shared by every layer. Specific errors below wrap one of these so callers
// can branch on the category with errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrAlreadyProcessed       = errors.New("already processed")
	ErrValidationFailed       = errors.New("validation failed")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrPersistenceFailed      = errors.New("persistence failed")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
)

var (
	ErrTransactionNotFound   = fmt.Errorf("transaction %w", ErrNotFound)
	ErrWalletNotFound        = fmt.Errorf("wallet %w", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)
	ErrCampaignNotFound      = fmt.Errorf("campaign %w", ErrNotFound)
	ErrBoostNotFound         = fmt.Errorf("boost %w", ErrNotFound)
	ErrSellerNotFound        = fmt.Errorf("seller profile %w", ErrNotFound)
	ErrCommunityNotFound     = fmt.Errorf("community config %w", ErrNotFound)
	ErrReferralNotFound      = fmt.Errorf("referral %w", ErrNotFound)
	ErrAlreadyReversed       = fmt.Errorf("transaction %w: already reversed", ErrAlreadyProcessed)
	ErrDuplicateUser         = fmt.Errorf("user %w: email already registered", ErrAlreadyProcessed)
	ErrInvalidAmount         = fmt.Errorf("%w: invalid amount", ErrValidationFailed)
	ErrInvalidCommissionRate = fmt.Errorf("%w: invalid commission rate", ErrValidationFailed)
	ErrInvalidSignature      = fmt.Errorf("%w: invalid signature", ErrValidationFailed)
	ErrTooManyPayoutDetails  = fmt.Errorf("%w: too many payout details", ErrValidationFailed)
	ErrNotReversible         = fmt.Errorf("%w: transaction not reversible", ErrValidationFailed)
	ErrWalletUpdateFailed    = fmt.Errorf("wallet update: %w", ErrPersistenceFailed)
)

// WalletDelta is a signed adjustment to a wallet. TotalEarned and TotalWithdrawn are
// applied with a floor of zero.
type WalletDelta struct {
	UserId         string
	Amount         decimal.Decimal
	TotalEarned    decimal.Decimal
	TotalWithdrawn decimal.Decimal
}

// CreatePaymentParams contains the parameters for ingesting a campaign earning.
type CreatePaymentParams struct {
	CampaignId  string
	UserId      string
	Amount      decimal.Decimal
	Description string
	BoostId     string
	Signed      bool
	Actor       string // API key id or admin id that triggered the payment
}

// CreateCPMPaymentParams contains the parameters for paying out accrued views on a campaign.
type CreateCPMPaymentParams struct {
	CampaignId      string
	UserId          string
	SocialAccountId string
	Views           int64
	Signed          bool
	Actor           string
}

// RecordTransactionParams records a ledger entry that is not a campaign payment
// (withdrawals, transfers, manual corrections).
type RecordTransactionParams struct {
	UserId         string
	Type           models.TransactionType
	Status         models.TransactionStatus
	Amount         decimal.Decimal
	Description    string
	Metadata       any
	TotalEarned    decimal.Decimal
	TotalWithdrawn decimal.Decimal
	Actor          string
}

// ReferralRewardParams credits a referrer for a referral.
type ReferralRewardParams struct {
	ReferralId string
	Amount     decimal.Decimal
	Actor      string
}

// TeamCommissionParams credits a team member from the team's commission pool.
type TeamCommissionParams struct {
	TeamId string
	UserId string
	Amount decimal.Decimal
	Actor  string
}

// ReverseParams contains the parameters for reversing a transaction. AdminId must come
// from a verified admin principal.
type ReverseParams struct {
	TransactionId string
	Reason        string
	AdminId       string
}

// ReversalOutcome is what a completed reversal returns.
type ReversalOutcome struct {
	ReversalTransaction *models.Transaction
	UndoActions         []string
	FailedActions       []string
}

// SetRateParams changes (or clears, when NewBps is nil) one fee override.
type SetRateParams struct {
	TargetId  string
	FeeType   models.FeeType
	NewBps    *int
	Reason    string
	ChangedBy string
}

// LedgerStore defines the contract of the ledger backend.
type LedgerStore interface {
	// --- Users ---
	CreateUser(ctx context.Context, userId, name, email string) (*models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GrantRole(ctx context.Context, userId, role string) error
	GetRoles(ctx context.Context, userId string) ([]string, error)

	// --- Wallets ---
	GetWallet(ctx context.Context, userId string) (*models.Wallet, error)
	ListWallets(ctx context.Context) ([]models.Wallet, error)
	UpdatePayoutDetails(ctx context.Context, userId, method string, details []models.PayoutDetail) (*models.Wallet, error)

	// --- Budgeted entities ---
	CreateCampaign(ctx context.Context, campaign models.Campaign) (*models.Campaign, error)
	GetCampaign(ctx context.Context, campaignId string) (*models.Campaign, error)
	CreateBoost(ctx context.Context, boost models.Boost) (*models.Boost, error)
	GetBoost(ctx context.Context, boostId string) (*models.Boost, error)

	// --- Transaction log ---
	GetTransaction(ctx context.Context, transactionId string) (*models.Transaction, error)
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)
	RecordTransaction(ctx context.Context, params RecordTransactionParams) (*models.Transaction, error)

	// --- Payments and reversals ---
	CreatePayment(ctx context.Context, params CreatePaymentParams) (*models.Transaction, error)
	CreateCPMPayment(ctx context.Context, params CreateCPMPaymentParams) (*models.Transaction, error)
	CreateReferralReward(ctx context.Context, params ReferralRewardParams) (*models.Transaction, error)
	CreateTeamCommission(ctx context.Context, params TeamCommissionParams) (*models.Transaction, error)
	ReverseTransaction(ctx context.Context, params ReverseParams) (*ReversalOutcome, error)

	// --- Side ledgers ---
	CreateReferral(ctx context.Context, referrerId, referredId string) (*models.Referral, error)
	GetReferral(ctx context.Context, referralId string) (*models.Referral, error)
	GetProfile(ctx context.Context, userId string) (*models.Profile, error)
	GetAccountAnalytics(ctx context.Context, campaignId, socialAccountId string) (*models.AccountAnalytics, error)
	GetCpmPayout(ctx context.Context, payoutId string) (*models.CpmPayout, error)
	GetTeamEarningBySource(ctx context.Context, sourceTransactionId string) (*models.TeamEarning, error)

	// --- Commission ---
	CreateSellerProfile(ctx context.Context, profile models.SellerProfile) (*models.SellerProfile, error)
	GetSellerProfile(ctx context.Context, sellerId string) (*models.SellerProfile, error)
	CreateCommunityConfig(ctx context.Context, cfg models.CommunityConfig) (*models.CommunityConfig, error)
	GetCommunityConfig(ctx context.Context, communityId string) (*models.CommunityConfig, error)
	SetSellerRate(ctx context.Context, params SetRateParams) (*models.SellerProfile, error)
	SetCommunityRate(ctx context.Context, params SetRateParams) (*models.CommunityConfig, error)
	ListCommissionChanges(ctx context.Context, sellerId, communityId string) ([]models.CommissionChange, error)

	// --- Audit and reconciliation ---
	InsertAuditLog(ctx context.Context, entry models.AuditLogEntry) error
	ListAuditLog(ctx context.Context, targetTable, targetId string) ([]models.AuditLogEntry, error)
	ReconcileWallet(ctx context.Context, userId string) (*models.ReconciliationResult, error)

	Ping(ctx context.Context) error
	Close()
}
