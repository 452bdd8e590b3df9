package database

const (
	// User queries
	queryInsertUser = `
		INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`

	queryGetUsers = `
		SELECT id, name, email, created_at
		FROM users
		ORDER BY created_at`

	queryGetUserById = `
		SELECT id, name, email, created_at
		FROM users
		WHERE id = ?`

	queryGetUserByEmail = `
		SELECT id, name, email, created_at
		FROM users
		WHERE LOWER(email) = LOWER(?)`

	queryInsertUserRole = `
		INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`

	queryGetUserRoles = `
		SELECT role FROM user_roles WHERE user_id = ? ORDER BY role`

	// Wallet queries
	queryInsertWallet = `
		INSERT INTO wallets (user_id, updated_at) VALUES (?, ?)`

	queryGetWallet = `
		SELECT user_id, balance, total_earned, total_withdrawn, payout_method, payout_details, version, updated_at
		FROM wallets
		WHERE user_id = ?`

	queryListWallets = `
		SELECT user_id, balance, total_earned, total_withdrawn, payout_method, payout_details, version, updated_at
		FROM wallets
		ORDER BY user_id`

	queryUpdateWalletBalance = `
		UPDATE wallets
		SET balance = ?, total_earned = ?, total_withdrawn = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?`

	queryUpdatePayoutDetails = `
		UPDATE wallets
		SET payout_method = ?, payout_details = ?, version = version + 1, updated_at = ?
		WHERE user_id = ?`

	queryCompletedTransactionAmounts = `
		SELECT amount
		FROM wallet_transactions
		WHERE user_id = ? AND status = 'completed'`

	// Budgeted entity queries
	queryInsertCampaign = `
		INSERT INTO campaigns (id, name, budget, budget_used, rpm_rate, flat_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetCampaign = `
		SELECT id, name, budget, budget_used, rpm_rate, flat_rate, created_at
		FROM campaigns
		WHERE id = ?`

	queryInsertBoost = `
		INSERT INTO boosts (id, name, budget, budget_used, created_at)
		VALUES (?, ?, ?, ?, ?)`

	queryGetBoost = `
		SELECT id, name, budget, budget_used, created_at
		FROM boosts
		WHERE id = ?`

	// Atomic counters: one statement each, never read-then-write.
	queryIncrementCampaignBudgetUsed = `
		UPDATE campaigns SET budget_used = budget_used + ? WHERE id = ? RETURNING budget_used`

	queryDecrementCampaignBudgetUsed = `
		UPDATE campaigns SET budget_used = budget_used - ? WHERE id = ? RETURNING budget_used`

	queryIncrementBoostBudgetUsed = `
		UPDATE boosts SET budget_used = budget_used + ? WHERE id = ? RETURNING budget_used`

	queryDecrementBoostBudgetUsed = `
		UPDATE boosts SET budget_used = budget_used - ? WHERE id = ? RETURNING budget_used`

	// Transaction queries
	queryInsertTransaction = `
		INSERT INTO wallet_transactions (id, user_id, amount, type, status, description, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransaction = `
		SELECT id, user_id, amount, type, status, description, metadata, created_at
		FROM wallet_transactions
		WHERE id = ?`

	queryGetTransactionHistory = `
		SELECT id, user_id, amount, type, status, description, metadata, created_at
		FROM wallet_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`

	// Compare-and-swap on the metadata column so two reversals of the same transaction
	// cannot both mark it.
	queryUpdateTransactionMetadata = `
		UPDATE wallet_transactions SET metadata = ? WHERE id = ? AND metadata = ?`

	// Side ledger queries
	queryGetAccountAnalytics = `
		SELECT campaign_id, social_account_id, paid_views, last_payment_amount, last_payment_date
		FROM campaign_account_analytics
		WHERE campaign_id = ? AND social_account_id = ?`

	queryRecordAccountAnalyticsPayment = `
		INSERT INTO campaign_account_analytics (campaign_id, social_account_id, paid_views, last_payment_amount, last_payment_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (campaign_id, social_account_id) DO UPDATE SET
			paid_views = paid_views + excluded.paid_views,
			last_payment_amount = excluded.last_payment_amount,
			last_payment_date = excluded.last_payment_date`

	queryReverseAccountAnalytics = `
		UPDATE campaign_account_analytics
		SET paid_views = ?, last_payment_amount = NULL, last_payment_date = NULL
		WHERE campaign_id = ? AND social_account_id = ?`

	queryInsertCpmPayout = `
		INSERT INTO campaign_cpm_payouts (id, campaign_id, user_id, social_account_id, views, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetCpmPayout = `
		SELECT id, campaign_id, user_id, social_account_id, views, amount, created_at
		FROM campaign_cpm_payouts
		WHERE id = ?`

	queryDeleteCpmPayout = `
		DELETE FROM campaign_cpm_payouts WHERE id = ?`

	queryInsertProfile = `
		INSERT OR IGNORE INTO profiles (id) VALUES (?)`

	queryGetProfile = `
		SELECT id, referral_earnings FROM profiles WHERE id = ?`

	queryUpdateReferralEarnings = `
		UPDATE profiles SET referral_earnings = ? WHERE id = ?`

	queryInsertReferral = `
		INSERT INTO referrals (id, referrer_id, referred_id, reward_earned, created_at)
		VALUES (?, ?, ?, '0', ?)`

	queryGetReferral = `
		SELECT id, referrer_id, referred_id, reward_earned, created_at
		FROM referrals
		WHERE id = ?`

	queryUpdateReferralReward = `
		UPDATE referrals SET reward_earned = ? WHERE id = ?`

	queryInsertTeamEarning = `
		INSERT INTO team_earnings (id, team_id, user_id, source_transaction_id, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetTeamEarningBySource = `
		SELECT id, team_id, user_id, source_transaction_id, amount, created_at
		FROM team_earnings
		WHERE source_transaction_id = ?`

	queryDeleteTeamEarningsBySource = `
		DELETE FROM team_earnings WHERE source_transaction_id = ?`

	// Commission queries
	queryInsertSellerProfile = `
		INSERT INTO seller_profiles (id, user_id, custom_platform_fee_bps, custom_community_fee_bps, commission_notes)
		VALUES (?, ?, ?, ?, ?)`

	queryGetSellerProfile = `
		SELECT id, user_id, custom_platform_fee_bps, custom_community_fee_bps, commission_notes,
		       commission_updated_at, commission_updated_by
		FROM seller_profiles
		WHERE id = ?`

	queryUpdateSellerPlatformFee = `
		UPDATE seller_profiles
		SET custom_platform_fee_bps = ?, commission_updated_at = ?, commission_updated_by = ?
		WHERE id = ?`

	queryUpdateSellerCommunityFee = `
		UPDATE seller_profiles
		SET custom_community_fee_bps = ?, commission_updated_at = ?, commission_updated_by = ?
		WHERE id = ?`

	queryInsertCommunityConfig = `
		INSERT INTO community_configs (id, name, community_fee_bps, custom_platform_fee_bps)
		VALUES (?, ?, ?, ?)`

	queryGetCommunityConfig = `
		SELECT id, name, community_fee_bps, custom_platform_fee_bps, commission_updated_at, commission_updated_by
		FROM community_configs
		WHERE id = ?`

	queryUpdateCommunityPlatformFee = `
		UPDATE community_configs
		SET custom_platform_fee_bps = ?, commission_updated_at = ?, commission_updated_by = ?
		WHERE id = ?`

	queryUpdateCommunityFee = `
		UPDATE community_configs
		SET community_fee_bps = ?, commission_updated_at = ?, commission_updated_by = ?
		WHERE id = ?`

	queryInsertCommissionChange = `
		INSERT INTO commission_changes (id, changed_by, seller_profile_id, community_config_id, fee_type,
		                                previous_bps, new_bps, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryListCommissionChanges = `
		SELECT id, changed_by, seller_profile_id, community_config_id, fee_type, previous_bps, new_bps, reason, created_at
		FROM commission_changes
		WHERE (? != '' AND seller_profile_id = ?) OR (? != '' AND community_config_id = ?)
		ORDER BY created_at, id`

	// Audit queries
	queryInsertAuditLog = `
		INSERT INTO audit_log (id, actor, action, target_table, target_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryListAuditLog = `
		SELECT id, actor, action, target_table, target_id, payload, created_at
		FROM audit_log
		WHERE target_table = ? AND target_id = ?
		ORDER BY created_at, id`
)
