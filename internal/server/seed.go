package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// SeedDemo creates a demo event with quest content, users with fixed
// session tokens, and a console admin. Idempotent: does nothing if the
// event already exists. Intended for local development and tests.
func (s *SQLiteStore) SeedDemo(ctx context.Context, logger *slog.Logger) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE name = 'city-run-demo'`).Scan(&one)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for demo event: %w", err)
	}

	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO events (id, name, is_active) VALUES ('e-demo', 'city-run-demo', 1)`, nil},

		{`INSERT INTO users (id, name, role) VALUES
			('u-alice', 'Alice', 'guest'),
			('u-bob', 'Bob', 'guest'),
			('u-carol', 'Carol', 'guest'),
			('u-dave', 'Dave', 'guest'),
			('u-erin', 'Erin', 'guest'),
			('u-frank', 'Frank', 'guest'),
			('u-grace', 'Grace', 'guest'),
			('u-igor', 'Igor', 'insider'),
			('u-olga', 'Olga', 'organizer'),
			('u-cass', 'Cass', 'ctc')`, nil},

		{`INSERT INTO sessions (id, user_id) VALUES
			('s-alice', 'u-alice'),
			('s-bob', 'u-bob'),
			('s-carol', 'u-carol'),
			('s-dave', 'u-dave'),
			('s-erin', 'u-erin'),
			('s-frank', 'u-frank'),
			('s-grace', 'u-grace'),
			('s-igor', 'u-igor'),
			('s-olga', 'u-olga'),
			('s-cass', 'u-cass')`, nil},

		{`INSERT INTO blocks (id, event_id, title, language, position) VALUES
			('b-oldtown', 'e-demo', 'Old Town', 'en', 1),
			('b-riverside', 'e-demo', 'Riverside', 'ru', 2)`, nil},

		{`INSERT INTO riddles (id, block_id, title, body, hint, solved_text, position) VALUES
			('r-lamppost', 'b-oldtown', 'The Crooked Lamppost',
			 'Find the address where the crooked lamppost leans.',
			 'Look along the boulevard, west side.',
			 'The lamppost has leaned since the 1998 storm.', 1),
			('r-fountain', 'b-oldtown', 'The Dry Fountain',
			 'In which year was the fountain on the main square built?',
			 'The cornerstone has a date.',
			 'Built in 1651, dry since 1923.', 2),
			('r-bridge', 'b-riverside', 'Горбатый мост',
			 'Что соединяет два берега?', NULL, NULL, 1)`, nil},

		{`INSERT INTO answers (riddle_id, text) VALUES
			('r-lamppost', 'Tverskoy Blvd 23'),
			('r-fountain', '1651'),
			('r-bridge', 'мост')`, nil},

		{`INSERT INTO riddle_insiders (riddle_id, user_id) VALUES
			('r-lamppost', 'u-igor'),
			('r-fountain', 'u-igor')`, nil},
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing demo admin password: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash)
		VALUES ('a-demo', 'organizer@cityrun.dev', ?)
	`, string(hash))
	if err != nil {
		return fmt.Errorf("seeding demo admin: %w", err)
	}

	if logger != nil {
		logger.Info("demo event seeded", "event", "city-run-demo")
	}
	return nil
}
