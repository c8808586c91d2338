package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cityrun/quest/internal/quest"
)

// RiddleView is the riddle as shown to a team, with solved-only content
// revealed after the solve.
type RiddleView struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	HasHint        bool   `json:"hasHint"`
	Solved         bool   `json:"solved"`
	HintUsed       bool   `json:"hintUsed"`
	InsiderVisited bool   `json:"insiderVisited"`
	SolvedText     string `json:"solvedText,omitempty"`
}

type answerOutcome struct {
	Correct bool
	Riddle  *RiddleView
	Totals  quest.Totals
}

type hintOutcome struct {
	Hint   string
	Totals quest.Totals
}

// loadRiddleForTeam fetches the riddle and enforces the language gate
// against the team's language.
func loadRiddleForTeam(ctx context.Context, store Store, sess session, riddleID string) (quest.Riddle, quest.Block, error) {
	riddle, err := store.RiddleByID(ctx, riddleID)
	if err != nil {
		return quest.Riddle{}, quest.Block{}, err
	}
	block, err := store.BlockByID(ctx, riddle.BlockID)
	if err != nil {
		return quest.Riddle{}, quest.Block{}, err
	}
	if block.Language != sess.Language {
		return quest.Riddle{}, quest.Block{}, quest.ErrLanguageMismatch
	}
	return riddle, block, nil
}

// checkAnswer validates and records one solve attempt. Wrong answers are
// appended with is_true=0 and never affect scoring; the second correct
// answer for the same riddle fails with ErrAlreadyRewarded.
func checkAnswer(ctx context.Context, store Store, logger *slog.Logger, broker *Broker, sess session, riddleID, answerText string) (answerOutcome, error) {
	riddle, block, err := loadRiddleForTeam(ctx, store, sess, riddleID)
	if err != nil {
		return answerOutcome{}, err
	}

	solved, err := store.HasSuccessfulAttempt(ctx, sess.TeamID, riddle.ID,
		quest.TypeQuestion, quest.TypeQuestionHint)
	if err != nil {
		return answerOutcome{}, err
	}
	if solved {
		return answerOutcome{}, quest.ErrAlreadyRewarded
	}

	accepted, err := store.RiddleAnswers(ctx, riddle.ID)
	if err != nil {
		return answerOutcome{}, err
	}
	correct := false
	for _, a := range accepted {
		if quest.AnswersMatch(answerText, a) {
			correct = true
			break
		}
	}

	hintUsed, err := store.HasSuccessfulAttempt(ctx, sess.TeamID, riddle.ID, quest.TypeHint)
	if err != nil {
		return answerOutcome{}, err
	}
	typeName := quest.TypeQuestion
	if hintUsed {
		typeName = quest.TypeQuestionHint
	}

	rec := attemptRecord{
		TeamID:   sess.TeamID,
		UserID:   sess.UserID,
		RiddleID: riddle.ID,
		TypeName: typeName,
		Payload:  answerText,
		IsTrue:   correct,
	}
	if correct {
		rec.Dimension = quest.DimSolve
	}
	if err := store.RecordAttempt(ctx, rec); err != nil {
		if errors.Is(err, quest.ErrDuplicateAttempt) {
			// Lost a double-submit race: someone on the team solved it first.
			return answerOutcome{}, quest.ErrAlreadyRewarded
		}
		return answerOutcome{}, err
	}

	out := answerOutcome{Correct: correct}
	if correct {
		// Completion failures must not roll back the solve itself.
		evaluateQuestionBlock(ctx, store, logger, sess, block, riddle.ID)

		broker.Publish(sess.TeamID, TeamEvent{
			Type:     "riddle_solved",
			RiddleID: riddle.ID,
			UserName: sess.UserName,
		})

		out.Riddle = &RiddleView{
			ID:         riddle.ID,
			Title:      riddle.Title,
			Body:       riddle.Body,
			HasHint:    riddle.Hint != "",
			Solved:     true,
			HintUsed:   hintUsed,
			SolvedText: riddle.SolvedText,
		}
	}

	out.Totals, err = store.TeamTotals(ctx, sess.TeamID)
	if err != nil {
		return answerOutcome{}, err
	}
	return out, nil
}

// requestHint returns the riddle's hint, charging the team exactly once.
// Repeat requests after a successful purchase are free idempotent reads.
func requestHint(ctx context.Context, store Store, broker *Broker, sess session, riddleID string) (hintOutcome, error) {
	riddle, _, err := loadRiddleForTeam(ctx, store, sess, riddleID)
	if err != nil {
		return hintOutcome{}, err
	}
	if riddle.Hint == "" {
		return hintOutcome{}, fmt.Errorf("%w: riddle has no hint", quest.ErrNotFound)
	}

	purchased, err := store.HasSuccessfulAttempt(ctx, sess.TeamID, riddle.ID, quest.TypeHint)
	if err != nil {
		return hintOutcome{}, err
	}
	if !purchased {
		hintType, err := store.AttemptTypeByName(ctx, quest.TypeHint)
		if err != nil {
			return hintOutcome{}, err
		}
		totals, err := store.TeamTotals(ctx, sess.TeamID)
		if err != nil {
			return hintOutcome{}, err
		}
		if totals.Coins < hintType.Money {
			return hintOutcome{}, quest.ErrInsufficientCoins
		}

		err = store.RecordAttempt(ctx, attemptRecord{
			TeamID:    sess.TeamID,
			UserID:    sess.UserID,
			RiddleID:  riddle.ID,
			TypeName:  quest.TypeHint,
			Dimension: quest.DimHint,
			IsTrue:    true,
		})
		if err != nil && !errors.Is(err, quest.ErrDuplicateAttempt) {
			return hintOutcome{}, err
		}
		if err == nil {
			broker.Publish(sess.TeamID, TeamEvent{
				Type:     "hint_purchased",
				RiddleID: riddle.ID,
				UserName: sess.UserName,
			})
		}
	}

	totals, err := store.TeamTotals(ctx, sess.TeamID)
	if err != nil {
		return hintOutcome{}, err
	}
	return hintOutcome{Hint: riddle.Hint, Totals: totals}, nil
}

// markInsiderAttendance records an insider's on-site confirmation for a
// team. The entry is credited to the scanned team member, not the scanner.
func markInsiderAttendance(ctx context.Context, store Store, logger *slog.Logger, broker *Broker, scanner session, teamID, riddleID, scannedUserID string) (quest.Totals, error) {
	riddle, err := store.RiddleByID(ctx, riddleID)
	if err != nil {
		return quest.Totals{}, err
	}

	assigned, err := store.RiddleHasInsider(ctx, riddle.ID, scanner.UserID)
	if err != nil {
		return quest.Totals{}, err
	}
	if !assigned {
		return quest.Totals{}, quest.ErrQuestionNotAssigned
	}

	visited, err := store.HasSuccessfulAttempt(ctx, teamID, riddle.ID,
		quest.TypeInsider, quest.TypeInsiderHint)
	if err != nil {
		return quest.Totals{}, err
	}
	if visited {
		return quest.Totals{}, quest.ErrAlreadyMarked
	}

	solved, err := store.HasSuccessfulAttempt(ctx, teamID, riddle.ID,
		quest.TypeQuestion, quest.TypeQuestionHint)
	if err != nil {
		return quest.Totals{}, err
	}
	if !solved {
		return quest.Totals{}, quest.ErrCannotMarkUnsolved
	}

	hintUsed, err := store.HasSuccessfulAttempt(ctx, teamID, riddle.ID, quest.TypeHint)
	if err != nil {
		return quest.Totals{}, err
	}
	typeName := quest.TypeInsider
	if hintUsed {
		typeName = quest.TypeInsiderHint
	}

	err = store.RecordAttempt(ctx, attemptRecord{
		TeamID:    teamID,
		UserID:    scannedUserID,
		RiddleID:  riddle.ID,
		TypeName:  typeName,
		Dimension: quest.DimInsider,
		Payload:   "marked by " + scanner.UserID,
		IsTrue:    true,
	})
	if errors.Is(err, quest.ErrDuplicateAttempt) {
		return quest.Totals{}, quest.ErrAlreadyMarked
	}
	if err != nil {
		return quest.Totals{}, err
	}

	block, err := store.BlockByID(ctx, riddle.BlockID)
	if err == nil {
		evaluateInsiderBlock(ctx, store, logger, teamID, scannedUserID, block, riddle.ID)
	}

	broker.Publish(teamID, TeamEvent{
		Type:     "insider_visited",
		RiddleID: riddle.ID,
	})

	return store.TeamTotals(ctx, teamID)
}

// evaluateQuestionBlock awards the one-time block bonus once every riddle in
// the block is solved. Best-effort: failures are logged, never surfaced, and
// the unique index makes the bonus exactly-once under concurrent triggers.
func evaluateQuestionBlock(ctx context.Context, store Store, logger *slog.Logger, sess session, block quest.Block, lastRiddleID string) {
	awardBlockBonus(ctx, store, logger, blockBonus{
		TeamID:       sess.TeamID,
		UserID:       sess.UserID,
		Block:        block,
		LastRiddleID: lastRiddleID,
		TypeName:     quest.TypeQuestionBlock,
		Dimension:    quest.DimQuestionBlock,
		SolveTypes:   []string{quest.TypeQuestion, quest.TypeQuestionHint},
		CountTotal:   store.CountRiddlesInBlock,
	})
}

func evaluateInsiderBlock(ctx context.Context, store Store, logger *slog.Logger, teamID, userID string, block quest.Block, lastRiddleID string) {
	awardBlockBonus(ctx, store, logger, blockBonus{
		TeamID:       teamID,
		UserID:       userID,
		Block:        block,
		LastRiddleID: lastRiddleID,
		TypeName:     quest.TypeInsiderBlock,
		Dimension:    quest.DimInsiderBlock,
		SolveTypes:   []string{quest.TypeInsider, quest.TypeInsiderHint},
		CountTotal:   store.CountInsiderRiddlesInBlock,
	})
}

type blockBonus struct {
	TeamID       string
	UserID       string
	Block        quest.Block
	LastRiddleID string
	TypeName     string
	Dimension    quest.Dimension
	SolveTypes   []string
	CountTotal   func(ctx context.Context, blockID string) (int, error)
}

func awardBlockBonus(ctx context.Context, store Store, logger *slog.Logger, b blockBonus) {
	awarded, err := store.HasSuccessfulBlockBonus(ctx, b.TeamID, b.Block.ID, b.Dimension)
	if err != nil || awarded {
		if err != nil {
			logger.Error("block bonus check failed", "block", b.Block.ID, "team", b.TeamID, "error", err)
		}
		return
	}

	total, err := b.CountTotal(ctx, b.Block.ID)
	if err != nil {
		logger.Error("block bonus count failed", "block", b.Block.ID, "team", b.TeamID, "error", err)
		return
	}
	done, err := store.CountSuccessfulByTypesInBlock(ctx, b.TeamID, b.Block.ID, b.SolveTypes...)
	if err != nil {
		logger.Error("block bonus count failed", "block", b.Block.ID, "team", b.TeamID, "error", err)
		return
	}
	if total == 0 || done != total {
		return
	}

	err = store.RecordAttempt(ctx, attemptRecord{
		TeamID:    b.TeamID,
		UserID:    b.UserID,
		RiddleID:  b.LastRiddleID,
		BlockID:   b.Block.ID,
		TypeName:  b.TypeName,
		Dimension: b.Dimension,
		Payload:   b.Block.Title,
		IsTrue:    true,
	})
	if errors.Is(err, quest.ErrDuplicateAttempt) {
		// A concurrent trigger got there first.
		return
	}
	if err != nil {
		logger.Error("block bonus award failed", "block", b.Block.ID, "team", b.TeamID, "error", err)
		return
	}

	logger.Info("block bonus awarded", "block", b.Block.ID, "team", b.TeamID, "type", b.TypeName)
}
