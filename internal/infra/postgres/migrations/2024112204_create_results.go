package migrations

import _ "embed"

//go:embed 0004_create_results.sql
var createResultsSQL string

func init() {
	Migrations.MustRegister(
		execMigration(createResultsSQL),
		execMigration(`DROP TABLE IF EXISTS results`),
	)
}
