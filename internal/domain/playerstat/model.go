package playerstat

import (
	"fmt"
	"time"
)

// Stat is one player's box score line for one game. PlayerID and TeamID
// stay nullable: a line whose identity could not be resolved is still
// worth keeping.
type Stat struct {
	ID       string
	GameID   string
	PlayerID *string
	TeamID   *string
	GameDate time.Time

	MinutesPlayed   *float64
	Points          int
	Rebounds        int
	Assists         int
	Steals          int
	Blocks          int
	Turnovers       int
	FieldGoalsMade  int
	FieldGoalsAtt   int
	ThreePointsMade int
	ThreePointsAtt  int
	FreeThrowsMade  int
	FreeThrowsAtt   int
	PlusMinus       *int
	UsageRate       *float64
	TrueShootingPct *float64
	Started         bool

	// AdvancedMetrics carries source fields that have no dedicated
	// column; persisted as a JSON document.
	AdvancedMetrics map[string]any
}

func (s Stat) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("stat id is required")
	}
	if s.GameID == "" {
		return fmt.Errorf("stat game id is required")
	}
	if s.GameDate.IsZero() {
		return fmt.Errorf("stat game date is required")
	}
	if s.MinutesPlayed != nil && *s.MinutesPlayed < 0 {
		return fmt.Errorf("minutes played cannot be negative")
	}
	if s.Points < 0 || s.Rebounds < 0 || s.Assists < 0 {
		return fmt.Errorf("counting stats cannot be negative")
	}
	if s.FieldGoalsMade > s.FieldGoalsAtt {
		return fmt.Errorf("field goals made exceeds attempts")
	}
	if s.ThreePointsMade > s.ThreePointsAtt {
		return fmt.Errorf("three pointers made exceeds attempts")
	}
	if s.FreeThrowsMade > s.FreeThrowsAtt {
		return fmt.Errorf("free throws made exceeds attempts")
	}

	return nil
}
