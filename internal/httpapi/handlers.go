package httpapi

import (
	"net/http"
	"strconv"

	"creator-ledger-go/internal/api"
	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/go-chi/chi/v5"
)

// Handler holds the HTTP handlers.
type Handler struct {
	ledger *api.LedgerService
}

func NewHandler(ledger *api.LedgerService) *Handler {
	return &Handler{ledger: ledger}
}

// Healthz reports database reachability.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// PAYMENTS
// =============================================================================

// CreatePayment ingests a campaign earning.
// POST /api/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.ledger.CreatePayment(r.Context(), store.CreatePaymentParams{
		CampaignId:  req.CampaignId,
		UserId:      req.UserId,
		Amount:      amount,
		Description: req.Description,
		BoostId:     req.BoostId,
	})
	if err != nil {
		writeJSON(w, statusFor(err), result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// CreateCPMPayment pays out accrued views.
// POST /api/payments/cpm
func (h *Handler) CreateCPMPayment(w http.ResponseWriter, r *http.Request) {
	var req CPMPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.ledger.CreateCPMPayment(r.Context(), store.CreateCPMPaymentParams{
		CampaignId:      req.CampaignId,
		UserId:          req.UserId,
		SocialAccountId: req.SocialAccountId,
		Views:           req.Views,
	})
	if err != nil {
		writeJSON(w, statusFor(err), result)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// =============================================================================
// REVERSALS
// =============================================================================

// ReverseTransaction reverses the transaction named in the path.
// POST /api/admin/transactions/{id}/reverse
func (h *Handler) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason" validate:"max=500"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	h.reverse(w, r, chi.URLParam(r, "id"), req.Reason)
}

// UndoTransaction is the body-addressed form of ReverseTransaction.
// POST /api/admin/undo-transaction
func (h *Handler) UndoTransaction(w http.ResponseWriter, r *http.Request) {
	var req ReverseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.reverse(w, r, req.TransactionId, req.Reason)
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request, transactionId, reason string) {
	result, err := h.ledger.ReverseTransaction(r.Context(), transactionId, reason)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			writeError(w, err)
			return
		}
		writeJSON(w, status, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RecordTransaction books a withdrawal, transfer or manual correction.
// POST /api/admin/transactions
func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req RecordTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	params := store.RecordTransactionParams{
		UserId:      req.UserId,
		Type:        models.TransactionType(req.Type),
		Status:      models.TransactionStatus(req.Status),
		Description: req.Description,
	}
	var err error
	if params.Amount, err = parseAmount("amount", req.Amount); err != nil {
		writeError(w, err)
		return
	}
	if params.TotalEarned, err = parseAmount("total_earned", req.TotalEarned); err != nil {
		writeError(w, err)
		return
	}
	if params.TotalWithdrawn, err = parseAmount("total_withdrawn", req.TotalWithdrawn); err != nil {
		writeError(w, err)
		return
	}

	tx, err := h.ledger.RecordTransaction(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// CreateReferralReward credits the referrer of a referral.
// POST /api/admin/referrals/{id}/reward
func (h *Handler) CreateReferralReward(w http.ResponseWriter, r *http.Request) {
	var req ReferralRewardRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	tx, err := h.ledger.CreateReferralReward(r.Context(), store.ReferralRewardParams{
		ReferralId: chi.URLParam(r, "id"),
		Amount:     amount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// CreateTeamCommission credits a team member from the team's pool.
// POST /api/admin/teams/{id}/commissions
func (h *Handler) CreateTeamCommission(w http.ResponseWriter, r *http.Request) {
	var req TeamCommissionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	tx, err := h.ledger.CreateTeamCommission(r.Context(), store.TeamCommissionParams{
		TeamId: chi.URLParam(r, "id"),
		UserId: req.UserId,
		Amount: amount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// =============================================================================
// COMMISSION
// =============================================================================

// GetSellerRates resolves a seller's effective rates.
// GET /api/admin/commission/sellers/{id}?community_id=
func (h *Handler) GetSellerRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.ledger.ResolveForSeller(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("community_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

// SetSellerRate changes a seller fee override.
// PUT /api/admin/commission/sellers/{id}
func (h *Handler) SetSellerRate(w http.ResponseWriter, r *http.Request) {
	var req SetRateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	seller, err := h.ledger.SetSellerRate(r.Context(), rateParams(chi.URLParam(r, "id"), req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seller)
}

// SetCommunityRate changes a community fee.
// PUT /api/admin/commission/communities/{id}
func (h *Handler) SetCommunityRate(w http.ResponseWriter, r *http.Request) {
	var req SetRateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	cfg, err := h.ledger.SetCommunityRate(r.Context(), rateParams(chi.URLParam(r, "id"), req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// SellerChanges lists a seller's commission history.
// GET /api/admin/commission/sellers/{id}/changes
func (h *Handler) SellerChanges(w http.ResponseWriter, r *http.Request) {
	h.listChanges(w, r, chi.URLParam(r, "id"), "")
}

// CommunityChanges lists a community's commission history.
// GET /api/admin/commission/communities/{id}/changes
func (h *Handler) CommunityChanges(w http.ResponseWriter, r *http.Request) {
	h.listChanges(w, r, "", chi.URLParam(r, "id"))
}

func (h *Handler) listChanges(w http.ResponseWriter, r *http.Request, sellerId, communityId string) {
	changes, err := h.ledger.ListCommissionChanges(r.Context(), sellerId, communityId)
	if err != nil {
		writeError(w, err)
		return
	}
	if changes == nil {
		changes = []models.CommissionChange{}
	}
	writeJSON(w, http.StatusOK, changes)
}

func rateParams(targetId string, req SetRateRequest) store.SetRateParams {
	return store.SetRateParams{
		TargetId: targetId,
		FeeType:  models.FeeType(req.FeeType),
		NewBps:   req.Bps,
		Reason:   req.Reason,
	}
}

// =============================================================================
// WALLETS
// =============================================================================

// GetWallet returns a user's wallet.
// GET /api/admin/wallets/{userId}
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.ledger.GetWallet(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

// GetTransactions returns a page of a user's transaction history.
// GET /api/admin/wallets/{userId}/transactions?limit=&offset=
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	txs, err := h.ledger.GetTransactionHistory(r.Context(), chi.URLParam(r, "userId"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// ReconcileWallet compares a wallet against its completed transactions.
// GET /api/admin/wallets/{userId}/reconcile
func (h *Handler) ReconcileWallet(w http.ResponseWriter, r *http.Request) {
	result, err := h.ledger.ReconcileWallet(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UpdatePayoutDetails replaces a wallet's payout destinations.
// PUT /api/admin/wallets/{userId}/payout-details
func (h *Handler) UpdatePayoutDetails(w http.ResponseWriter, r *http.Request) {
	var req PayoutDetailsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	details := make([]models.PayoutDetail, 0, len(req.Details))
	for _, d := range req.Details {
		details = append(details, models.PayoutDetail{Method: d.Method, Destination: d.Destination, Label: d.Label})
	}

	wallet, err := h.ledger.UpdatePayoutDetails(r.Context(), chi.URLParam(r, "userId"), req.PayoutMethod, details)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

// =============================================================================
// SIDE LEDGERS
// =============================================================================

// CreateReferral registers who referred whom.
// POST /api/admin/referrals
func (h *Handler) CreateReferral(w http.ResponseWriter, r *http.Request) {
	var req ReferralRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	referral, err := h.ledger.CreateReferral(r.Context(), req.ReferrerId, req.ReferredId)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, referral)
}

// GET /api/admin/referrals/{id}
func (h *Handler) GetReferral(w http.ResponseWriter, r *http.Request) {
	referral, err := h.ledger.GetReferral(r.Context(), chi.URLParam(r, "id"))
	respond(w, referral, err)
}

// GET /api/admin/wallets/{userId}/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.ledger.GetProfile(r.Context(), chi.URLParam(r, "userId"))
	respond(w, profile, err)
}

// GET /api/admin/campaigns/{id}/accounts/{accountId}
func (h *Handler) GetAccountAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.ledger.GetAccountAnalytics(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "accountId"))
	respond(w, analytics, err)
}

// GET /api/admin/cpm-payouts/{id}
func (h *Handler) GetCpmPayout(w http.ResponseWriter, r *http.Request) {
	payout, err := h.ledger.GetCpmPayout(r.Context(), chi.URLParam(r, "id"))
	respond(w, payout, err)
}

// GET /api/admin/transactions/{id}/team-earning
func (h *Handler) GetTeamEarning(w http.ResponseWriter, r *http.Request) {
	earning, err := h.ledger.GetTeamEarning(r.Context(), chi.URLParam(r, "id"))
	respond(w, earning, err)
}

// ListAuditLog returns the audit trail of one row.
// GET /api/admin/audit/{table}/{id}
func (h *Handler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.ListAuditLog(r.Context(), chi.URLParam(r, "table"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
