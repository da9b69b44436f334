package migrations

func init() {
	Register(Migration{
		Timestamp:   "20261019-091500",
		Description: "Seed plan catalog",
		Up: []string{
			`INSERT OR IGNORE INTO plans (id, name, credits_per_month, voice_limit, price_monthly, price_yearly, currency, is_active, sort_order)
				VALUES ('free', 'Free', 2000, 1, '0', '0', 'PKR', 1, 0)`,
			`INSERT OR IGNORE INTO plans (id, name, credits_per_month, voice_limit, price_monthly, price_yearly, currency, is_active, sort_order)
				VALUES ('starter', 'Starter', 30000, 3, '1499', '14990', 'PKR', 1, 1)`,
			`INSERT OR IGNORE INTO plans (id, name, credits_per_month, voice_limit, price_monthly, price_yearly, currency, is_active, sort_order)
				VALUES ('pro', 'Pro', 100000, 10, '3999', '39990', 'PKR', 1, 2)`,
		},
	})
}
