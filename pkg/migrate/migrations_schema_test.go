package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestTransactionsMigrationConstraints(t *testing.T) {
	content := readMigration(t, "*_create_unified_transactions.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS unified_transactions",
		"org_id UUID NOT NULL",
		"CHECK (risk_score >= 0 AND risk_score <= 100)",
		"idx_transactions_org_sku",
		"DROP TABLE IF EXISTS unified_transactions",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestLinksMigrationUniquePerOrgSKU(t *testing.T) {
	content := readMigration(t, "*_create_document_inventory_links.sql")
	if !strings.Contains(content, "CREATE UNIQUE INDEX IF NOT EXISTS uniq_links_org_sku") {
		t.Error("links table must be unique per (org_id, sku)")
	}
}

func TestRunsMigrationScoreBounds(t *testing.T) {
	content := readMigration(t, "*_create_reconciliation_runs.sql")
	for _, sub := range []string{
		"CHECK (overall_score >= 0 AND overall_score <= 100)",
		"CHECK (balance_index >= 0 AND balance_index <= 1)",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected constraint %q", sub)
		}
	}
}

func TestAlertsMigrationDedupIndex(t *testing.T) {
	content := readMigration(t, "*_create_alert_records.sql")
	if !strings.Contains(content, "uniq_alerts_run_sku_type") {
		t.Error("alerts must be deduplicated per (run_id, sku, type)")
	}
}
