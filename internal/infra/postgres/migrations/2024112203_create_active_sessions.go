package migrations

import _ "embed"

//go:embed 0003_create_active_sessions.sql
var createActiveSessionsSQL string

func init() {
	Migrations.MustRegister(
		execMigration(createActiveSessionsSQL),
		execMigration(`DROP TABLE IF EXISTS active_sessions`),
	)
}
