package stores

import (
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/clients/postgres"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS diagnosis_records (
		id BIGSERIAL PRIMARY KEY,
		"timestamp" TEXT NOT NULL,
		company TEXT NOT NULL,
		email TEXT NOT NULL,
		category_scores TEXT NOT NULL,
		total_score DOUBLE PRECISION NOT NULL,
		type_label TEXT NOT NULL,
		ai_comment TEXT NOT NULL DEFAULT '',
		utm_source TEXT NOT NULL DEFAULT '',
		utm_campaign TEXT NOT NULL DEFAULT '',
		pdf_url TEXT NOT NULL DEFAULT '',
		app_version TEXT NOT NULL,
		status TEXT NOT NULL,
		ai_comment_len INTEGER NOT NULL DEFAULT 0,
		risk_level TEXT NOT NULL,
		entry_check TEXT NOT NULL,
		report_date TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS diagnosis_events (
		id BIGSERIAL PRIMARY KEY,
		"timestamp" TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT ''
	)`,
}

// NewPostgresStore creates a record and event store backed by PostgreSQL.
// A nil client yields a store that reports itself as not configured.
func NewPostgresStore(client *postgres.Client) *SQLStore {
	if client == nil {
		return newSQLStore("postgres", "postgres", nil, postgresSchema)
	}
	return newSQLStore("postgres", "postgres", client.DB(), postgresSchema)
}
