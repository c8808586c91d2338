package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cityrun/quest/internal/quest"
)

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (s *SQLiteStore) AttemptTypeByName(ctx context.Context, name string) (quest.AttemptType, error) {
	var at quest.AttemptType
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, score, money, is_cost, is_active
		FROM attempt_types
		WHERE name = ? AND is_active = 1
	`, name).Scan(&at.ID, &at.Name, &at.Score, &at.Money, &at.IsCost, &at.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return at, fmt.Errorf("%w: attempt type %q missing or inactive", quest.ErrConfiguration, name)
	}
	return at, err
}

// RecordAttempt appends one ledger entry. It performs no precondition
// validation beyond resolving the type name. A uniqueness rejection from the
// partial indexes comes back as quest.ErrDuplicateAttempt, the authoritative
// "already done" signal under concurrent triggers.
func (s *SQLiteStore) RecordAttempt(ctx context.Context, rec attemptRecord) error {
	at, err := s.AttemptTypeByName(ctx, rec.TypeName)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts (team_id, user_id, riddle_id, block_id, attempt_type_id, dimension, payload, is_true)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, NULLIF(?, ''), ?, ?)
	`, rec.TeamID, rec.UserID, rec.RiddleID, rec.BlockID, at.ID,
		string(rec.Dimension), rec.Payload, rec.IsTrue)
	if isUniqueViolation(err) {
		return quest.ErrDuplicateAttempt
	}
	return err
}

func (s *SQLiteStore) HasSuccessfulAttempt(ctx context.Context, teamID, riddleID string, typeNames ...string) (bool, error) {
	args := []any{teamID, riddleID}
	for _, n := range typeNames {
		args = append(args, n)
	}

	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM attempts a
		JOIN attempt_types at ON at.id = a.attempt_type_id
		WHERE a.team_id = ? AND a.riddle_id = ? AND a.is_true = 1
		  AND at.name IN (`+placeholders(len(typeNames))+`)
		LIMIT 1
	`, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) HasSuccessfulBlockBonus(ctx context.Context, teamID, blockID string, dim quest.Dimension) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM attempts
		WHERE team_id = ? AND block_id = ? AND dimension = ? AND is_true = 1
		LIMIT 1
	`, teamID, blockID, string(dim)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) CountSuccessfulByTypesInBlock(ctx context.Context, teamID, blockID string, typeNames ...string) (int, error) {
	args := []any{teamID, blockID}
	for _, n := range typeNames {
		args = append(args, n)
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT a.riddle_id) FROM attempts a
		JOIN attempt_types at ON at.id = a.attempt_type_id
		JOIN riddles r ON r.id = a.riddle_id
		WHERE a.team_id = ? AND r.block_id = ? AND a.is_true = 1
		  AND at.name IN (`+placeholders(len(typeNames))+`)
	`, args...).Scan(&count)
	return count, err
}

func (s *SQLiteStore) CountRiddlesInBlock(ctx context.Context, blockID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM riddles WHERE block_id = ?
	`, blockID).Scan(&count)
	return count, err
}

func (s *SQLiteStore) CountInsiderRiddlesInBlock(ctx context.Context, blockID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT r.id)
		FROM riddles r
		JOIN riddle_insiders ri ON ri.riddle_id = r.id
		WHERE r.block_id = ?
	`, blockID).Scan(&count)
	return count, err
}

// RiddleStatuses resolves a team's solve/hint/insider state for every riddle
// in a block with one query, so rendering a block never does N+1 lookups.
func (s *SQLiteStore) RiddleStatuses(ctx context.Context, teamID, blockID string) (map[string]riddleStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.riddle_id, at.name
		FROM attempts a
		JOIN attempt_types at ON at.id = a.attempt_type_id
		JOIN riddles r ON r.id = a.riddle_id
		WHERE a.team_id = ? AND r.block_id = ? AND a.is_true = 1
	`, teamID, blockID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make(map[string]riddleStatus)
	for rows.Next() {
		var riddleID, typeName string
		if err := rows.Scan(&riddleID, &typeName); err != nil {
			return nil, err
		}
		st := statuses[riddleID]
		switch typeName {
		case quest.TypeQuestion, quest.TypeQuestionHint:
			st.Solved = true
		case quest.TypeHint:
			st.HintUsed = true
		case quest.TypeInsider, quest.TypeInsiderHint:
			st.InsiderVisited = true
		}
		statuses[riddleID] = st
	}
	return statuses, rows.Err()
}

// TeamTotals derives the current score and coin balance by summing the
// ledger. Cost-flagged types debit the balance; everything else credits it.
func (s *SQLiteStore) TeamTotals(ctx context.Context, teamID string) (quest.Totals, error) {
	var t quest.Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(at.score), 0),
		       COALESCE(SUM(CASE WHEN at.is_cost = 1 THEN -at.money ELSE at.money END), 0)
		FROM attempts a
		JOIN attempt_types at ON at.id = a.attempt_type_id
		WHERE a.team_id = ? AND a.is_true = 1
	`, teamID).Scan(&t.Score, &t.Coins)
	return t, err
}
