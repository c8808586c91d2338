// Package quest defines the core domain types for the quest engine.
// It has no dependencies outside the standard library.
package quest

import "time"

// Role is a user's global role for the running event.
type Role string

const (
	RoleGuest     Role = "guest"
	RoleInsider   Role = "insider"
	RoleOrganizer Role = "organizer"
	RoleCTC       Role = "ctc"
)

// TeamRole is a user's role within a team.
type TeamRole string

const (
	TeamRoleCaptain TeamRole = "captain"
	TeamRoleMember  TeamRole = "member"
)

// MaxTeamSize is the hard cap on team membership.
const MaxTeamSize = 6

type User struct {
	ID        string
	Name      string
	Role      Role
	CreatedAt time.Time
}

type Event struct {
	ID       string
	Name     string
	IsActive bool
}

type Team struct {
	ID        string
	EventID   string
	Name      string
	Language  string
	CreatedAt time.Time
}

type Block struct {
	ID       string
	EventID  string
	Title    string
	Language string
	Position int
}

type Riddle struct {
	ID         string
	BlockID    string
	Title      string
	Body       string
	Hint       string
	SolvedText string
	Position   int
}

// AttemptType is a named outcome category carrying a fixed reward tuple.
// Types with IsCost set debit Money from the team balance instead of
// crediting it.
type AttemptType struct {
	ID       string
	Name     string
	Score    int
	Money    int
	IsCost   bool
	IsActive bool
}

// Canonical attempt type names. The engine fails with ErrConfiguration if
// one of these is missing or inactive at the time it is needed.
const (
	TypeQuestion      = "question"
	TypeQuestionHint  = "question_hint"
	TypeHint          = "hint"
	TypeInsider       = "insider"
	TypeInsiderHint   = "insider_hint"
	TypeQuestionBlock = "question_block"
	TypeInsiderBlock  = "insider_block"
	TypeMoneyStart    = "money_start"
)

// Dimension partitions successful ledger entries for uniqueness purposes:
// at most one successful entry per (team, riddle, dimension) and per
// (team, block, dimension).
type Dimension string

const (
	DimSolve         Dimension = "solve"
	DimHint          Dimension = "hint"
	DimInsider       Dimension = "insider"
	DimQuestionBlock Dimension = "question_block"
	DimInsiderBlock  Dimension = "insider_block"
)

// Attempt is an immutable ledger fact. Only entries with IsTrue contribute
// to scoring; failed attempts are retained for audit and statistics.
type Attempt struct {
	ID        string
	TeamID    string
	UserID    string
	RiddleID  string // empty for non-riddle entries (grants)
	BlockID   string // set for block-completion bonuses
	TypeName  string
	Dimension Dimension
	Payload   string
	IsTrue    bool
	CreatedAt time.Time
}

// Totals is a team's derived score and coin balance. Always recomputed from
// the ledger, never stored.
type Totals struct {
	Score int
	Coins int
}

// FinalScore is the leaderboard ranking value.
func (t Totals) FinalScore() float64 {
	return float64(t.Coins)*0.5 + float64(t.Score)
}

// LeaderboardThreshold excludes teams that are not seriously participating
// from public ranking.
const LeaderboardThreshold = 2.0
