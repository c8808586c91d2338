package migrations_test

import (
	"context"
	"testing"

	"github.com/cityrun/quest/internal/database"
	"github.com/cityrun/quest/internal/migrations"
)

func TestMigrations(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	// Verify all tables exist by querying sqlite_master.
	want := []string{
		"users", "events", "teams", "team_members", "blocks", "riddles",
		"answers", "riddle_insiders", "attempt_types", "attempts",
		"sessions", "admins", "admin_sessions",
	}

	for _, table := range want {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}

	// The canonical attempt types are seeded up front.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM attempt_types WHERE is_active = 1").Scan(&count); err != nil {
		t.Fatalf("counting attempt types: %v", err)
	}
	if count != 8 {
		t.Errorf("expected 8 attempt types, got %d", count)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(db); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
}
