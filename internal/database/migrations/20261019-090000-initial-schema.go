package migrations

func init() {
	Register(Migration{
		Timestamp:   "20261019-090000",
		Description: "Initial schema: users, plans, subscriptions, ledgers, voices, generations, payments, usage",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				deleted_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,

			`CREATE TABLE IF NOT EXISTS plans (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				credits_per_month INTEGER NOT NULL,
				voice_limit INTEGER NOT NULL DEFAULT 0,
				price_monthly TEXT NOT NULL DEFAULT '0',
				price_yearly TEXT NOT NULL DEFAULT '0',
				currency TEXT NOT NULL DEFAULT 'PKR',
				is_active INTEGER NOT NULL DEFAULT 1,
				sort_order INTEGER NOT NULL DEFAULT 0
			)`,

			`CREATE TABLE IF NOT EXISTS subscriptions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL UNIQUE REFERENCES users(id),
				plan_id TEXT NOT NULL REFERENCES plans(id),
				status TEXT NOT NULL CHECK (status IN ('TRIAL','ACTIVE','PAST_DUE','CANCELLED','EXPIRED')),
				billing_cycle TEXT NOT NULL DEFAULT 'MONTHLY',
				current_period_start TEXT NOT NULL,
				current_period_end TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,

			`CREATE TABLE IF NOT EXISTS credit_ledgers (
				user_id TEXT PRIMARY KEY REFERENCES users(id),
				total_credits INTEGER NOT NULL DEFAULT 0,
				used_credits INTEGER NOT NULL DEFAULT 0 CHECK (used_credits >= 0),
				bonus_credits INTEGER NOT NULL DEFAULT 0 CHECK (bonus_credits >= 0),
				next_reset_at TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,

			`CREATE TABLE IF NOT EXISTS voices (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id),
				name TEXT NOT NULL,
				language TEXT NOT NULL DEFAULT 'en',
				external_voice_id TEXT NOT NULL DEFAULT '',
				sample_url TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL CHECK (status IN ('PROCESSING','READY','FAILED','DELETED')),
				error_message TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_voices_user ON voices(user_id, status)`,

			`CREATE TABLE IF NOT EXISTS generations (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id),
				voice_id TEXT NOT NULL,
				text TEXT NOT NULL,
				language TEXT NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('PROCESSING','COMPLETED','FAILED')),
				character_count INTEGER NOT NULL,
				credits_cost INTEGER NOT NULL,
				audio_url TEXT NOT NULL DEFAULT '',
				duration_seconds REAL NOT NULL DEFAULT 0,
				error_message TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				completed_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_generations_user_created ON generations(user_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_generations_status ON generations(status, created_at)`,

			`CREATE TABLE IF NOT EXISTS payments (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id),
				plan_id TEXT NOT NULL REFERENCES plans(id),
				billing_cycle TEXT NOT NULL CHECK (billing_cycle IN ('MONTHLY','YEARLY')),
				provider TEXT NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('PENDING','PROCESSING','COMPLETED','FAILED')),
				amount TEXT NOT NULL,
				currency TEXT NOT NULL,
				provider_txn_id TEXT,
				raw_response TEXT NOT NULL DEFAULT '',
				error_message TEXT NOT NULL DEFAULT '',
				settled_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_payments_provider_txn ON payments(provider_txn_id)`,

			`CREATE TABLE IF NOT EXISTS usage_records (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(id),
				type TEXT NOT NULL CHECK (type IN ('TTS_GENERATION','VOICE_CLONE','SUBSCRIPTION_RESET')),
				credits INTEGER NOT NULL DEFAULT 0,
				reference_id TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_usage_records_user ON usage_records(user_id, created_at)`,
		},
	})
}
