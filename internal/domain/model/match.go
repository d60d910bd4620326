// Package model contains domain models passed between layers.
package model

// Movement is the game service's classification of how a match changed a
// player's rank standing.
type Movement string

// Movement codes emitted by the game service.
const (
	MovementUnknown       Movement = "MOVEMENT_UNKNOWN" // not yet resolved; carries no progress data
	MovementIncrease      Movement = "INCREASE"
	MovementMinorIncrease Movement = "MINOR_INCREASE"
	MovementMajorIncrease Movement = "MAJOR_INCREASE"
	MovementDecrease      Movement = "DECREASE"
	MovementMinorDecrease Movement = "MINOR_DECREASE"
	MovementMajorDecrease Movement = "MAJOR_DECREASE"
	MovementPromoted      Movement = "PROMOTED"
	MovementDemoted       Movement = "DEMOTED"
	MovementStable        Movement = "STABLE"
)

// Outcome is the display result of a match.
type Outcome string

// Match outcomes.
const (
	OutcomeVictory Outcome = "Victory"
	OutcomeDefeat  Outcome = "Defeat"
	OutcomeDraw    Outcome = "Draw"
)

// RawMatchEvent is one competitive update as returned by the game service.
// Field tags mirror the upstream payload.
type RawMatchEvent struct {
	MatchID                  string   `json:"MatchID,omitempty"`
	MapID                    string   `json:"MapID"`
	CompetitiveMovement      Movement `json:"CompetitiveMovement"`
	TierAfterUpdate          int      `json:"TierAfterUpdate"`
	TierProgressBeforeUpdate int      `json:"TierProgressBeforeUpdate"`
	TierProgressAfterUpdate  int      `json:"TierProgressAfterUpdate"`
	MatchStartTime           int64    `json:"MatchStartTime"` // epoch milliseconds
}

// MatchRecord is the display-ready rank-progress record sent to clients.
type MatchRecord struct {
	PointChange  string  `json:"point_change"`
	CurrentPoint int     `json:"current_point"`
	GameOutcome  Outcome `json:"game_outcome"`
	Movement     string  `json:"movement"`
	Tier         int     `json:"tier"`
	Date         string  `json:"date"`
	GameMap      string  `json:"game_map"`
}

// Credentials identify the game account whose history is requested.
type Credentials struct {
	Username string
	Password string
	Region   string
}
