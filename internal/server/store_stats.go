package server

import (
	"context"

	"github.com/cityrun/quest/internal/quest"
)

func (s *SQLiteStore) TeamScores(ctx context.Context, eventID string) ([]teamScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.language,
			COALESCE(SUM(CASE WHEN a.is_true = 1 THEN at.score END), 0),
			COALESCE(SUM(CASE WHEN a.is_true = 1 THEN
				CASE WHEN at.is_cost = 1 THEN -at.money ELSE at.money END
			END), 0),
			COALESCE(SUM(CASE WHEN a.is_true = 1
				AND at.name IN ('question', 'question_hint') THEN 1 END), 0)
		FROM teams t
		LEFT JOIN attempts a ON a.team_id = t.id
		LEFT JOIN attempt_types at ON at.id = a.attempt_type_id
		WHERE t.event_id = ?
		GROUP BY t.id
		ORDER BY t.created_at
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []teamScore
	for rows.Next() {
		var ts teamScore
		if err := rows.Scan(&ts.TeamID, &ts.Name, &ts.Language,
			&ts.Totals.Score, &ts.Totals.Coins, &ts.Solved); err != nil {
			return nil, err
		}
		scores = append(scores, ts)
	}
	return scores, rows.Err()
}

// SolvedRiddleTeams returns, per riddle, the set of teams holding a
// successful solve entry. Used for the per-riddle solve-rate export.
func (s *SQLiteStore) SolvedRiddleTeams(ctx context.Context, eventID string) (map[string]map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.riddle_id, a.team_id
		FROM attempts a
		JOIN attempt_types at ON at.id = a.attempt_type_id
		JOIN teams t ON t.id = a.team_id
		WHERE t.event_id = ? AND a.is_true = 1 AND a.riddle_id IS NOT NULL
		  AND at.name IN (?, ?)
	`, eventID, quest.TypeQuestion, quest.TypeQuestionHint)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	solved := make(map[string]map[string]bool)
	for rows.Next() {
		var riddleID, teamID string
		if err := rows.Scan(&riddleID, &teamID); err != nil {
			return nil, err
		}
		if solved[riddleID] == nil {
			solved[riddleID] = make(map[string]bool)
		}
		solved[riddleID][teamID] = true
	}
	return solved, rows.Err()
}
