package postgres

// SQL statements for the warehouse journal.

const (
	// queryUpsertVersion writes one dimension version keyed by surrogate key.
	// A repeated write of the same key carries the close or SCD1 overwrite.
	queryUpsertVersion = `
		INSERT INTO dimension_versions (
			surrogate_key, dimension, natural_key, attributes,
			valid_from, valid_to, is_current
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (surrogate_key) DO UPDATE SET
			attributes = EXCLUDED.attributes,
			valid_to   = EXCLUDED.valid_to,
			is_current = EXCLUDED.is_current
	`

	// querySaveFact inserts a fact row. Facts are immutable, so a replayed
	// write of the same ID is ignored.
	querySaveFact = `
		INSERT INTO sales_facts (id, business_date, dimension_keys, measures)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	queryLoadVersions = `
		SELECT
			surrogate_key, dimension, natural_key, attributes,
			valid_from, valid_to, is_current
		FROM dimension_versions
		ORDER BY surrogate_key ASC
	`

	queryLoadFacts = `
		SELECT id, business_date, dimension_keys, measures
		FROM sales_facts
		ORDER BY id ASC
	`

	querySchemaTables = `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_name IN ('dimension_versions', 'sales_facts')
	`
)
