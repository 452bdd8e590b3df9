package database

import (
	"context"
	"testing"

	"creator-ledger-go/internal/models"
	"creator-ledger-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reverse(t *testing.T, s *Service, transactionId, reason string) *store.ReversalOutcome {
	t.Helper()
	outcome, err := s.ReverseTransaction(context.Background(), store.ReverseParams{
		TransactionId: transactionId,
		Reason:        reason,
		AdminId:       "admin1",
	})
	require.NoError(t, err)
	return outcome
}

func TestReverseTransaction_CampaignEarning(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	createTestCampaign(t, s, "C1", "5000", "250")
	seedWallet(t, s, "user1", "450", "1950")

	original, err := s.CreatePayment(ctx, store.CreatePaymentParams{CampaignId: "C1", UserId: "user1", Amount: dec("50")})
	require.NoError(t, err)

	// balance 500, total_earned 2000, budget_used 300
	outcome := reverse(t, s, original.Id, "")

	wallet, err := s.GetWallet(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("450")))
	assert.True(t, wallet.TotalEarned.Equal(dec("1950")))

	campaign, err := s.GetCampaign(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, campaign.BudgetUsed.Equal(dec("250")))

	correction := outcome.ReversalTransaction
	assert.Equal(t, models.TransactionTypeBalanceCorrection, correction.Type)
	assert.Equal(t, models.TransactionStatusCompleted, correction.Status)
	assert.True(t, correction.Amount.Equal(dec("-50")))
	assert.Equal(t, "Reversal of transaction "+original.Id, correction.Description)

	meta, err := correction.CorrectionMetadata()
	require.NoError(t, err)
	assert.Equal(t, original.Id, meta.OriginalTransactionId)
	assert.Equal(t, models.TransactionTypeEarning, meta.OriginalType)
	assert.Equal(t, "Admin reversal", meta.ReversalReason)
	assert.Equal(t, "admin1", meta.ReversedBy)

	assert.Equal(t, []string{
		"Reversed total_earned by $50.00",
		"Updated wallet balance by $-50.00",
		"Reversed campaign budget_used to $250.00",
	}, outcome.UndoActions)
	assert.Empty(t, outcome.FailedActions)
	assert.Equal(t, outcome.UndoActions, meta.UndoActions)

	reloaded, err := s.GetTransaction(ctx, original.Id)
	require.NoError(t, err)
	marker, err := reloaded.ReversalMarker()
	require.NoError(t, err)
	assert.True(t, marker.Reversed)
	assert.Equal(t, correction.Id, marker.ReversalTransactionId)
	assert.Equal(t, "admin1", marker.ReversedBy)
	require.NotNil(t, marker.ReversedAt)

	// Original references survive the marker merge.
	earningMeta, err := reloaded.EarningMetadata()
	require.NoError(t, err)
	assert.Equal(t, "C1", earningMeta.CampaignId)

	entries, err := s.ListAuditLog(ctx, "wallet_transactions", original.Id)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionTransactionReversed, entries[1].Action)
}

func TestReverseTransaction_ReasonInDescription(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	createTestCampaign(t, s, "C1", "100", "0")

	original, err := s.CreatePayment(ctx, store.CreatePaymentParams{CampaignId: "C1", UserId: "user1", Amount: dec("5")})
	require.NoError(t, err)

	outcome := reverse(t, s, original.Id, "duplicate payout")
	assert.Equal(t, "Reversal of transaction "+original.Id+": duplicate payout", outcome.ReversalTransaction.Description)
}

func TestReverseTransaction_TwiceIsRejected(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	createTestCampaign(t, s, "C1", "1000", "0")

	original, err := s.CreatePayment(ctx, store.CreatePaymentParams{CampaignId: "C1", UserId: "user1", Amount: dec("20")})
	require.NoError(t, err)
	reverse(t, s, original.Id, "")

	walletBefore, err := s.GetWallet(ctx, "user1")
	require.NoError(t, err)
	campaignBefore, err := s.GetCampaign(ctx, "C1")
	require.NoError(t, err)
	txCount := countRows(t, s, "wallet_transactions")

	_, err = s.ReverseTransaction(ctx, store.ReverseParams{TransactionId: original.Id, AdminId: "admin1"})
	assert.ErrorIs(t, err, store.ErrAlreadyReversed)
	assert.ErrorIs(t, err, store.ErrAlreadyProcessed)

	walletAfter, err := s.GetWallet(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, walletBefore.Balance.Equal(walletAfter.Balance))
	assert.Equal(t, walletBefore.Version, walletAfter.Version)
	campaignAfter, err := s.GetCampaign(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, campaignBefore.BudgetUsed.Equal(campaignAfter.BudgetUsed))
	assert.Equal(t, txCount, countRows(t, s, "wallet_transactions"))
}

func TestReverseTransaction_CorrectionIsWalletOnly(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	createTestCampaign(t, s, "C1", "1000", "0")

	original, err := s.CreatePayment(ctx, store.CreatePaymentParams{CampaignId: "C1", UserId: "user1", Amount: dec("40")})
	require.NoError(t, err)
	first := reverse(t, s, original.Id, "")

	second := reverse(t, s, first.ReversalTransaction.Id, "undo the undo")
	assert.Equal(t, []string{"Updated wallet balance by $40.00"}, second.UndoActions)

	campaign, err := s.GetCampaign(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, campaign.BudgetUsed.IsZero(), "copied campaign reference must not be re-applied")

	wallet, err := s.GetWallet(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("40")))
}

func TestReverseTransaction_Errors(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()

	_, err := s.ReverseTransaction(ctx, store.ReverseParams{TransactionId: "missing", AdminId: "admin1"})
	assert.ErrorIs(t, err, store.ErrTransactionNotFound)

	_, err = s.ReverseTransaction(ctx, store.ReverseParams{TransactionId: "x"})
	assert.ErrorIs(t, err, store.ErrUnauthorized)

	_, err = s.ReverseTransaction(ctx, store.ReverseParams{AdminId: "admin1"})
	assert.ErrorIs(t, err, store.ErrValidationFailed)
}

func TestReverseTransaction_MissingWalletIsFatal(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	createTestCampaign(t, s, "C1", "1000", "0")

	original, err := s.CreatePayment(ctx, store.CreatePaymentParams{CampaignId: "C1", UserId: "user1", Amount: dec("10")})
	require.NoError(t, err)
	_, err = s.db.Exec("DELETE FROM wallets WHERE user_id = ?", "user1")
	require.NoError(t, err)

	_, err = s.ReverseTransaction(ctx, store.ReverseParams{TransactionId: original.Id, AdminId: "admin1"})
	assert.ErrorIs(t, err, store.ErrWalletNotFound)

	campaign, err := s.GetCampaign(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, campaign.BudgetUsed.Equal(dec("10")), "nothing is undone when the wallet step fails")
	assert.Equal(t, 1, countRows(t, s, "wallet_transactions"))
}

func TestReverseTransaction_Withdrawal(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	seedWallet(t, s, "user1", "100", "100")

	withdrawal, err := s.RecordTransaction(ctx, store.RecordTransactionParams{
		UserId:         "user1",
		Type:           models.TransactionTypeWithdrawal,
		Amount:         dec("-30"),
		TotalWithdrawn: dec("30"),
	})
	require.NoError(t, err)

	outcome := reverse(t, s, withdrawal.Id, "")
	assert.Equal(t, []string{
		"Reversed total_withdrawn by $30.00",
		"Updated wallet balance by $30.00",
	}, outcome.UndoActions)

	wallet, err := s.GetWallet(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("100")))
	assert.True(t, wallet.TotalWithdrawn.IsZero())
}

func TestReverseTransaction_CPMPayment(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	createTestCampaign(t, s, "C1", "1000", "0")

	_, err := s.CreateCPMPayment(ctx, store.CreateCPMPaymentParams{CampaignId: "C1", UserId: "user1", SocialAccountId: "acct-1", Views: 4000})
	require.NoError(t, err)
	second, err := s.CreateCPMPayment(ctx, store.CreateCPMPaymentParams{CampaignId: "C1", UserId: "user1", SocialAccountId: "acct-1", Views: 2000})
	require.NoError(t, err)
	meta, err := second.EarningMetadata()
	require.NoError(t, err)

	outcome := reverse(t, s, second.Id, "")
	assert.Contains(t, outcome.UndoActions, "Reversed account paid_views: 6000 → 4000")
	assert.Contains(t, outcome.UndoActions, "Deleted campaign_cpm_payouts record")

	analytics, err := s.GetAccountAnalytics(ctx, "C1", "acct-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4000), analytics.PaidViews)
	assert.Nil(t, analytics.LastPaymentAmount)
	assert.Nil(t, analytics.LastPaymentDate)

	_, err = s.GetCpmPayout(ctx, meta.CpmPayoutId)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReverseTransaction_PaidViewsClamp(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	createTestCampaign(t, s, "C1", "1000", "0")

	tx, err := s.CreateCPMPayment(ctx, store.CreateCPMPaymentParams{CampaignId: "C1", UserId: "user1", SocialAccountId: "acct-1", Views: 3000})
	require.NoError(t, err)
	_, err = s.db.Exec("UPDATE campaign_account_analytics SET paid_views = 1000")
	require.NoError(t, err)

	outcome := reverse(t, s, tx.Id, "")
	assert.Contains(t, outcome.UndoActions, "Reversed account paid_views: 1000 → 0")
}

func TestReverseTransaction_Referral(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "referrer")
	createTestUser(t, s, "referred")

	referral, err := s.CreateReferral(ctx, "referrer", "referred")
	require.NoError(t, err)
	tx, err := s.CreateReferralReward(ctx, store.ReferralRewardParams{ReferralId: referral.Id, Amount: dec("10")})
	require.NoError(t, err)

	// Someone already reduced the profile total outside the ledger.
	_, err = s.db.Exec("UPDATE profiles SET referral_earnings = '4' WHERE id = ?", "referrer")
	require.NoError(t, err)

	outcome := reverse(t, s, tx.Id, "")
	assert.Equal(t, []string{
		"Updated wallet balance by $-10.00",
		"Reversed referral_earnings: $4.00 → $0.00",
		"Reversed referral reward_earned",
	}, outcome.UndoActions)

	profile, err := s.GetProfile(ctx, "referrer")
	require.NoError(t, err)
	assert.True(t, profile.ReferralEarnings.IsZero())

	referral, err = s.GetReferral(ctx, referral.Id)
	require.NoError(t, err)
	assert.True(t, referral.RewardEarned.IsZero())
}

func TestReverseTransaction_TeamCommission(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "member")

	tx, err := s.CreateTeamCommission(ctx, store.TeamCommissionParams{TeamId: "team-1", UserId: "member", Amount: dec("8")})
	require.NoError(t, err)

	outcome := reverse(t, s, tx.Id, "")
	assert.Contains(t, outcome.UndoActions, "Deleted team_earnings record")

	_, err = s.GetTeamEarningBySource(ctx, tx.Id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReverseTransaction_SecondaryFailureIsReported(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "member")

	tx, err := s.CreateTeamCommission(ctx, store.TeamCommissionParams{TeamId: "team-1", UserId: "member", Amount: dec("8")})
	require.NoError(t, err)
	_, err = s.db.Exec("DROP TABLE team_earnings")
	require.NoError(t, err)

	outcome := reverse(t, s, tx.Id, "")
	require.Len(t, outcome.FailedActions, 1)
	assert.Contains(t, outcome.FailedActions[0], "Delete team_earnings record failed")
	assert.NotContains(t, outcome.UndoActions, "Deleted team_earnings record")

	meta, err := outcome.ReversalTransaction.CorrectionMetadata()
	require.NoError(t, err)
	assert.Equal(t, outcome.FailedActions, meta.FailedActions)

	wallet, err := s.GetWallet(ctx, "member")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero(), "the mandatory wallet step still commits")
}

func TestReverseTransaction_MissingCampaignIsSkipped(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	createTestCampaign(t, s, "C1", "1000", "0")

	tx, err := s.CreatePayment(ctx, store.CreatePaymentParams{CampaignId: "C1", UserId: "user1", Amount: dec("10")})
	require.NoError(t, err)
	_, err = s.db.Exec("DELETE FROM campaigns WHERE id = 'C1'")
	require.NoError(t, err)

	outcome := reverse(t, s, tx.Id, "")
	assert.Equal(t, []string{
		"Reversed total_earned by $10.00",
		"Updated wallet balance by $-10.00",
	}, outcome.UndoActions)
	require.Len(t, outcome.FailedActions, 1)
	assert.Contains(t, outcome.FailedActions[0], "Reverse campaign budget_used skipped")
	assert.Contains(t, outcome.FailedActions[0], "C1")

	entries, err := s.ListAuditLog(ctx, "wallet_transactions", tx.Id)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Contains(t, string(entries[1].Payload), "skipped")
}

func TestReverseTransaction_OnlyCompletedEntries(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	seedWallet(t, s, "user1", "100", "100")

	pending, err := s.RecordTransaction(ctx, store.RecordTransactionParams{
		UserId: "user1",
		Type:   models.TransactionTypeWithdrawal,
		Status: models.TransactionStatusPending,
		Amount: dec("-40"),
	})
	require.NoError(t, err)
	rejected, err := s.RecordTransaction(ctx, store.RecordTransactionParams{
		UserId: "user1",
		Type:   models.TransactionTypeEarning,
		Status: models.TransactionStatusRejected,
		Amount: dec("25"),
	})
	require.NoError(t, err)
	txCount := countRows(t, s, "wallet_transactions")

	for _, id := range []string{pending.Id, rejected.Id} {
		_, err := s.ReverseTransaction(ctx, store.ReverseParams{TransactionId: id, AdminId: "admin1"})
		assert.ErrorIs(t, err, store.ErrNotReversible)
		assert.ErrorIs(t, err, store.ErrValidationFailed)
	}

	wallet, err := s.GetWallet(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(dec("100")))
	assert.True(t, wallet.TotalEarned.Equal(dec("100")))
	assert.True(t, wallet.TotalWithdrawn.IsZero())
	assert.Equal(t, txCount, countRows(t, s, "wallet_transactions"))

	reloaded, err := s.GetTransaction(ctx, pending.Id)
	require.NoError(t, err)
	marker, err := reloaded.ReversalMarker()
	require.NoError(t, err)
	assert.False(t, marker.Reversed)
}

func TestReconciliation_AfterPaymentsAndReversals(t *testing.T) {
	s := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, s, "user1")
	createTestCampaign(t, s, "C1", "1000", "0")

	var ids []string
	for _, amount := range []string{"10.10", "0.01", "99.99", "5"} {
		tx, err := s.CreatePayment(ctx, store.CreatePaymentParams{CampaignId: "C1", UserId: "user1", Amount: dec(amount)})
		require.NoError(t, err)
		ids = append(ids, tx.Id)
	}
	first := reverse(t, s, ids[1], "")
	reverse(t, s, ids[2], "")
	reverse(t, s, first.ReversalTransaction.Id, "")

	result, err := s.ReconcileWallet(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, result.InSync)
	assert.True(t, result.StoredBalance.Equal(dec("15.11")))
	assert.Equal(t, 7, result.TransactionCount)
}
