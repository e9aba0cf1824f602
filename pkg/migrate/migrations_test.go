package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quadmarket/quadmarket-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"FOREIGN KEY (listing_id) REFERENCES listings(id) ON DELETE RESTRICT",
		"CHECK (quantity > 0)",
		"CHECK (status IN ('pending', 'delivered', 'cancelled'))",
		"otp_hash TEXT NOT NULL",
		"DROP TABLE IF EXISTS orders",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCartLinesMigrationEnforcesUniqueLine(t *testing.T) {
	content := readMigration(t, "*_create_cart_lines.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS cart_lines",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_buyer_listing ON cart_lines (buyer_id, listing_id)",
		"CHECK (quantity > 0)",
		"DROP TABLE IF EXISTS cart_lines",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
