package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cityrun/quest/internal/quest"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// isUniqueViolation reports whether err is a SQLite uniqueness rejection.
// libSQL surfaces these as plain error strings, so match on the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) SessionFromToken(ctx context.Context, token string) (session, error) {
	var sess session
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.role
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?
	`, token).Scan(&sess.UserID, &sess.UserName, &sess.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return session{}, errNoSession
	}
	if err != nil {
		return session{}, err
	}

	// A valid session with no active event is a deployment problem, not an
	// authentication failure.
	event, err := s.ActiveEvent(ctx)
	if err != nil {
		return session{}, err
	}
	sess.EventID = event.ID

	member, err := s.TeamForUser(ctx, event.ID, sess.UserID)
	if errors.Is(err, quest.ErrNotFound) {
		return sess, nil
	}
	if err != nil {
		return session{}, err
	}
	sess.TeamID = member.Team.ID
	sess.TeamRole = member.Role
	sess.Language = member.Team.Language
	return sess, nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, userID string) (string, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (user_id)
		VALUES (?)
		RETURNING id
	`, userID).Scan(&sessionID)
	return sessionID, err
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) UserByID(ctx context.Context, id string) (quest.User, error) {
	var u quest.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, role FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Name, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return u, quest.ErrNotFound
	}
	return u, err
}

func (s *SQLiteStore) ActiveEvent(ctx context.Context) (quest.Event, error) {
	var e quest.Event
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, is_active FROM events WHERE is_active = 1
	`).Scan(&e.ID, &e.Name, &e.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("%w: no active event", quest.ErrConfiguration)
	}
	return e, err
}

func (s *SQLiteStore) EventByName(ctx context.Context, name string) (quest.Event, error) {
	var e quest.Event
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, is_active FROM events WHERE name = ?
	`, name).Scan(&e.ID, &e.Name, &e.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return e, quest.ErrNotFound
	}
	return e, err
}

func (s *SQLiteStore) CreateTeam(ctx context.Context, eventID, name, language, captainID string) (quest.Team, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quest.Team{}, err
	}
	defer tx.Rollback()

	var t quest.Team
	err = tx.QueryRowContext(ctx, `
		INSERT INTO teams (event_id, name, language)
		VALUES (?, ?, ?)
		RETURNING id, event_id, name, language
	`, eventID, name, language).Scan(&t.ID, &t.EventID, &t.Name, &t.Language)
	if isUniqueViolation(err) {
		return quest.Team{}, fmt.Errorf("%w: team name already taken", quest.ErrBadRequest)
	}
	if err != nil {
		return quest.Team{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES (?, ?, 'captain')
	`, t.ID, captainID)
	if err != nil {
		return quest.Team{}, err
	}

	return t, tx.Commit()
}

func (s *SQLiteStore) RenameTeam(ctx context.Context, teamID, name string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE teams SET name = ? WHERE id = ?
	`, name, teamID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: team name already taken", quest.ErrBadRequest)
	}
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return quest.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteTeam(ctx context.Context, teamID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, teamID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return quest.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) TeamForUser(ctx context.Context, eventID, userID string) (teamMembership, error) {
	var m teamMembership
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.event_id, t.name, t.language, tm.role
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE tm.user_id = ? AND t.event_id = ?
	`, userID, eventID).Scan(&m.Team.ID, &m.Team.EventID, &m.Team.Name, &m.Team.Language, &m.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return m, quest.ErrNotFound
	}
	return m, err
}

func (s *SQLiteStore) TeamMembers(ctx context.Context, teamID string) ([]TeamMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.name, tm.role
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = ?
		ORDER BY CASE tm.role WHEN 'captain' THEN 0 ELSE 1 END, u.name
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []TeamMember{}
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.UserID, &m.Name, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *SQLiteStore) AddTeamMember(ctx context.Context, teamID, userID string, role quest.TeamRole) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES (?, ?, ?)
	`, teamID, userID, string(role))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: already a member of this team", quest.ErrBadRequest)
	}
	return err
}

func (s *SQLiteStore) ListBlocks(ctx context.Context, eventID, language string) ([]quest.Block, error) {
	query := `
		SELECT id, event_id, title, language, position
		FROM blocks
		WHERE event_id = ?`
	args := []any{eventID}
	if language != "" {
		query += ` AND language = ?`
		args = append(args, language)
	}
	query += ` ORDER BY position, title`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []quest.Block
	for rows.Next() {
		var b quest.Block
		if err := rows.Scan(&b.ID, &b.EventID, &b.Title, &b.Language, &b.Position); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (s *SQLiteStore) BlockByID(ctx context.Context, blockID string) (quest.Block, error) {
	var b quest.Block
	err := s.db.QueryRowContext(ctx, `
		SELECT id, event_id, title, language, position
		FROM blocks WHERE id = ?
	`, blockID).Scan(&b.ID, &b.EventID, &b.Title, &b.Language, &b.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return b, quest.ErrNotFound
	}
	return b, err
}

func (s *SQLiteStore) BlockRiddles(ctx context.Context, blockID string) ([]quest.Riddle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, block_id, title, body, COALESCE(hint, ''), COALESCE(solved_text, ''), position
		FROM riddles
		WHERE block_id = ?
		ORDER BY position, title
	`, blockID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var riddles []quest.Riddle
	for rows.Next() {
		var rd quest.Riddle
		if err := rows.Scan(&rd.ID, &rd.BlockID, &rd.Title, &rd.Body, &rd.Hint, &rd.SolvedText, &rd.Position); err != nil {
			return nil, err
		}
		riddles = append(riddles, rd)
	}
	return riddles, rows.Err()
}

func (s *SQLiteStore) RiddleByID(ctx context.Context, riddleID string) (quest.Riddle, error) {
	var rd quest.Riddle
	err := s.db.QueryRowContext(ctx, `
		SELECT id, block_id, title, body, COALESCE(hint, ''), COALESCE(solved_text, ''), position
		FROM riddles WHERE id = ?
	`, riddleID).Scan(&rd.ID, &rd.BlockID, &rd.Title, &rd.Body, &rd.Hint, &rd.SolvedText, &rd.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return rd, quest.ErrNotFound
	}
	return rd, err
}

func (s *SQLiteStore) RiddleAnswers(ctx context.Context, riddleID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT text FROM answers WHERE riddle_id = ?
	`, riddleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *SQLiteStore) RiddleHasInsider(ctx context.Context, riddleID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM riddle_insiders WHERE riddle_id = ? AND user_id = ?
	`, riddleID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
