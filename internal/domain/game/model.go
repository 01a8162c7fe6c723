package game

import (
	"fmt"
	"time"
)

// Game is one contest. The event time is part of the row's identity in
// the chunked store, so it travels with the id everywhere. Team ids are
// nullable: a game whose team references failed to resolve is still
// persisted.
type Game struct {
	ID          string
	ExternalRef string
	SeasonID    *string
	GameDate    time.Time
	HomeTeamID  *string
	AwayTeamID  *string
	IsPlayoffs  bool
	Status      string
}

// Key is the (canonical id, event time) pair children need to reference
// a game in the chunked store.
type Key struct {
	ID       string
	GameDate time.Time
}

func (g Game) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("game id is required")
	}
	if g.ExternalRef == "" {
		return fmt.Errorf("game external ref is required")
	}
	if g.GameDate.IsZero() {
		return fmt.Errorf("game date is required")
	}
	if g.HomeTeamID != nil && g.AwayTeamID != nil && *g.HomeTeamID == *g.AwayTeamID {
		return fmt.Errorf("game home and away team must differ")
	}

	return nil
}
