package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFeaturesMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_features.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no features migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS features",
		"FOREIGN KEY (party_id) REFERENCES parties(id) ON DELETE CASCADE",
		"CHECK (confidence >= 0 AND confidence <= 1)",
		"CHECK (source_type IN ('KYC', 'TRANSACTIONS', 'RELATIONSHIPS'))",
		"CREATE INDEX IF NOT EXISTS idx_features_party_current",
		"DROP TABLE IF EXISTS features",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
