package migrations

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upSeedDefaultPointRule, downSeedDefaultPointRule)
}

// The default rule owns sequence 1. The engine installs the same row on
// first use when this migration has not run.
func upSeedDefaultPointRule(tx *sql.Tx) error {
	query := `
		INSERT INTO point_rules (sequence, conversion_unit, ticket_multiplier, combo_multiplier, app_web_bonus, points_expiry_months, created_at)
		VALUES (1, 10000, 1.0, 1.5, 0.1, 12, NOW())
		ON CONFLICT (sequence) DO NOTHING
	`
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to seed default point rule: %w", err)
	}
	return nil
}

func downSeedDefaultPointRule(tx *sql.Tx) error {
	// Only an unused default is removed.
	query := `
		DELETE FROM point_rules
		WHERE sequence = 1 AND NOT EXISTS (SELECT 1 FROM point_ledger)
	`
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to delete default point rule: %w", err)
	}
	return nil
}
