package player

import (
	"errors"
	"fmt"
)

// ErrDuplicateName reports an insert that lost the race on the unique
// name constraint; callers re-fetch instead of failing.
var ErrDuplicateName = errors.New("player name already exists")

// Player is a canonical athlete identity. All sources' representations
// of the same person resolve to one row, keyed by distinct name.
type Player struct {
	ID           string
	Name         string
	Position     *string
	HeightMeters *float64
	WeightPounds *float64
	RookieSeason *int
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if p.HeightMeters != nil && (*p.HeightMeters <= 0 || *p.HeightMeters > 3) {
		return fmt.Errorf("player height %.4f out of range", *p.HeightMeters)
	}
	if p.WeightPounds != nil && *p.WeightPounds <= 0 {
		return fmt.Errorf("player weight must be positive")
	}

	return nil
}
