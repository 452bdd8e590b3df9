package database

// Money columns are decimal strings, except budget counters which are integer cents so they
// can be adjusted by a single UPDATE.
const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_roles (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, role)
	);

	CREATE TABLE IF NOT EXISTS wallets (
		user_id TEXT PRIMARY KEY,
		balance TEXT NOT NULL DEFAULT '0',
		total_earned TEXT NOT NULL DEFAULT '0',
		total_withdrawn TEXT NOT NULL DEFAULT '0',
		payout_method TEXT NOT NULL DEFAULT '',
		payout_details TEXT NOT NULL DEFAULT '[]',
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS wallet_transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_wallet_transactions_user_id ON wallet_transactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_wallet_transactions_status ON wallet_transactions(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_wallet_transactions_created_at ON wallet_transactions(created_at);

	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		budget INTEGER NOT NULL DEFAULT 0,
		budget_used INTEGER NOT NULL DEFAULT 0,
		rpm_rate TEXT NOT NULL DEFAULT '0',
		flat_rate TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS boosts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		budget INTEGER NOT NULL DEFAULT 0,
		budget_used INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaign_account_analytics (
		campaign_id TEXT NOT NULL,
		social_account_id TEXT NOT NULL,
		paid_views INTEGER NOT NULL DEFAULT 0,
		last_payment_amount TEXT,
		last_payment_date TIMESTAMP,
		PRIMARY KEY (campaign_id, social_account_id)
	);

	CREATE TABLE IF NOT EXISTS campaign_cpm_payouts (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		social_account_id TEXT NOT NULL,
		views INTEGER NOT NULL,
		amount TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		referral_earnings TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS referrals (
		id TEXT PRIMARY KEY,
		referrer_id TEXT NOT NULL,
		referred_id TEXT NOT NULL,
		reward_earned TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS team_earnings (
		id TEXT PRIMARY KEY,
		team_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		source_transaction_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_team_earnings_source ON team_earnings(source_transaction_id);

	CREATE TABLE IF NOT EXISTS seller_profiles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		custom_platform_fee_bps INTEGER,
		custom_community_fee_bps INTEGER,
		commission_notes TEXT NOT NULL DEFAULT '',
		commission_updated_at TIMESTAMP,
		commission_updated_by TEXT
	);

	CREATE TABLE IF NOT EXISTS community_configs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		community_fee_bps INTEGER,
		custom_platform_fee_bps INTEGER,
		commission_updated_at TIMESTAMP,
		commission_updated_by TEXT
	);

	CREATE TABLE IF NOT EXISTS commission_changes (
		id TEXT PRIMARY KEY,
		changed_by TEXT NOT NULL,
		seller_profile_id TEXT,
		community_config_id TEXT,
		fee_type TEXT NOT NULL CHECK (fee_type IN ('platform', 'community')),
		previous_bps INTEGER,
		new_bps INTEGER,
		reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		CHECK ((seller_profile_id IS NULL) <> (community_config_id IS NULL))
	);

	CREATE INDEX IF NOT EXISTS idx_commission_changes_seller ON commission_changes(seller_profile_id);
	CREATE INDEX IF NOT EXISTS idx_commission_changes_community ON commission_changes(community_config_id);

	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		target_table TEXT NOT NULL,
		target_id TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_log_target ON audit_log(target_table, target_id);
`
