package server

import (
	"context"

	"github.com/cityrun/quest/internal/quest"
)

// attemptRecord is the input to the append-only ledger. The caller is
// responsible for all precondition checks; RecordAttempt only resolves the
// type name and appends.
type attemptRecord struct {
	TeamID    string
	UserID    string
	RiddleID  string // optional
	BlockID   string // set for block-completion bonuses
	TypeName  string
	Dimension quest.Dimension // empty for failed attempts and grants
	Payload   string
	IsTrue    bool
}

// riddleStatus is a team's derived state for one riddle.
type riddleStatus struct {
	Solved         bool
	HintUsed       bool
	InsiderVisited bool
}

type teamMembership struct {
	Team quest.Team
	Role quest.TeamRole
}

type TeamMember struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// teamScore is one leaderboard/stats row. Totals are recomputed from the
// ledger on every call.
type teamScore struct {
	TeamID   string
	Name     string
	Language string
	Totals   quest.Totals
	Solved   int
}

type adminSession struct {
	AdminID string
	Email   string
}

type Store interface {
	// Identity and sessions.
	SessionFromToken(ctx context.Context, token string) (session, error)
	CreateSession(ctx context.Context, userID string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error
	UserByID(ctx context.Context, id string) (quest.User, error)
	ActiveEvent(ctx context.Context) (quest.Event, error)
	EventByName(ctx context.Context, name string) (quest.Event, error)

	// Teams.
	CreateTeam(ctx context.Context, eventID, name, language, captainID string) (quest.Team, error)
	RenameTeam(ctx context.Context, teamID, name string) error
	DeleteTeam(ctx context.Context, teamID string) error
	TeamForUser(ctx context.Context, eventID, userID string) (teamMembership, error)
	TeamMembers(ctx context.Context, teamID string) ([]TeamMember, error)
	AddTeamMember(ctx context.Context, teamID, userID string, role quest.TeamRole) error

	// Quest content.
	ListBlocks(ctx context.Context, eventID, language string) ([]quest.Block, error)
	BlockByID(ctx context.Context, blockID string) (quest.Block, error)
	BlockRiddles(ctx context.Context, blockID string) ([]quest.Riddle, error)
	RiddleByID(ctx context.Context, riddleID string) (quest.Riddle, error)
	RiddleAnswers(ctx context.Context, riddleID string) ([]string, error)
	RiddleHasInsider(ctx context.Context, riddleID, userID string) (bool, error)

	// Attempt ledger.
	AttemptTypeByName(ctx context.Context, name string) (quest.AttemptType, error)
	RecordAttempt(ctx context.Context, rec attemptRecord) error
	HasSuccessfulAttempt(ctx context.Context, teamID, riddleID string, typeNames ...string) (bool, error)
	HasSuccessfulBlockBonus(ctx context.Context, teamID, blockID string, dim quest.Dimension) (bool, error)
	CountSuccessfulByTypesInBlock(ctx context.Context, teamID, blockID string, typeNames ...string) (int, error)
	CountRiddlesInBlock(ctx context.Context, blockID string) (int, error)
	CountInsiderRiddlesInBlock(ctx context.Context, blockID string) (int, error)
	RiddleStatuses(ctx context.Context, teamID, blockID string) (map[string]riddleStatus, error)

	// Scoring aggregates.
	TeamTotals(ctx context.Context, teamID string) (quest.Totals, error)
	TeamScores(ctx context.Context, eventID string) ([]teamScore, error)
	SolvedRiddleTeams(ctx context.Context, eventID string) (map[string]map[string]bool, error)

	// Organizer console sessions.
	AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error)
	CreateAdminSession(ctx context.Context, adminID string) (string, error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)
}
