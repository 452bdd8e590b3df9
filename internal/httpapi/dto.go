package httpapi

// Request bodies. Amounts travel as strings so no precision is lost before decimal parsing.

type PaymentRequest struct {
	CampaignId  string `json:"campaign_id" validate:"required,max=128"`
	UserId      string `json:"user_id" validate:"required,max=128"`
	Amount      string `json:"amount" validate:"required,numeric"`
	Description string `json:"description" validate:"max=500"`
	BoostId     string `json:"boost_id" validate:"max=128"`
}

type CPMPaymentRequest struct {
	CampaignId      string `json:"campaign_id" validate:"required,max=128"`
	UserId          string `json:"user_id" validate:"required,max=128"`
	SocialAccountId string `json:"social_account_id" validate:"required,max=128"`
	Views           int64  `json:"views" validate:"required,gt=0"`
}

type ReverseRequest struct {
	TransactionId string `json:"transaction_id" validate:"required,max=128"`
	Reason        string `json:"reason" validate:"max=500"`
}

// SetRateRequest sets one fee override; a null bps clears it.
type SetRateRequest struct {
	FeeType string `json:"fee_type" validate:"required,oneof=platform community"`
	Bps     *int   `json:"bps" validate:"omitempty,min=0,max=10000"`
	Reason  string `json:"reason" validate:"max=500"`
}

type RecordTransactionRequest struct {
	UserId         string `json:"user_id" validate:"required,max=128"`
	Type           string `json:"type" validate:"required,oneof=earning withdrawal referral boost_earning transfer_sent transfer_received balance_correction"`
	Status         string `json:"status" validate:"omitempty,oneof=pending completed rejected in_transit"`
	Amount         string `json:"amount" validate:"required,numeric"`
	Description    string `json:"description" validate:"max=500"`
	TotalEarned    string `json:"total_earned" validate:"omitempty,numeric"`
	TotalWithdrawn string `json:"total_withdrawn" validate:"omitempty,numeric"`
}

type ReferralRequest struct {
	ReferrerId string `json:"referrer_id" validate:"required,max=128"`
	ReferredId string `json:"referred_id" validate:"required,max=128,nefield=ReferrerId"`
}

type ReferralRewardRequest struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

type TeamCommissionRequest struct {
	UserId string `json:"user_id" validate:"required,max=128"`
	Amount string `json:"amount" validate:"required,numeric"`
}

type PayoutDetailDTO struct {
	Method      string `json:"method" validate:"required,max=64"`
	Destination string `json:"destination" validate:"required,max=256"`
	Label       string `json:"label" validate:"max=128"`
}

// PayoutDetailsRequest replaces every payout destination of a wallet.
type PayoutDetailsRequest struct {
	PayoutMethod string            `json:"payout_method" validate:"max=64"`
	Details      []PayoutDetailDTO `json:"details" validate:"max=3,dive"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
