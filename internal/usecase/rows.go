package usecase

import (
	"context"
	"time"
)

// Raw rows are the loosely typed records source adapters hand the core.
// Each has a fixed optional-field set plus an Extras bag for source
// fields nothing here is interested in; fields are never discovered by
// reflection. `validate` tags state the structural minimum; everything
// beyond that is checked by the validation service.

type RawTeamRow struct {
	TeamRef      int64  `validate:"required"`
	Name         string `validate:"required"`
	City         string
	Abbreviation string
	Extras       map[string]any
}

type RawPlayerRow struct {
	PlayerRef    int64  `validate:"required"`
	Name         string `validate:"required"`
	Position     string
	Height       string
	Weight       string
	RookieSeason string
	Extras       map[string]any
}

type RawGameRow struct {
	GameRef     string `validate:"required"`
	GameDate    string `validate:"required"`
	HomeTeamRef int64
	AwayTeamRef int64
	SeasonYear  string
	Status      string
	Extras      map[string]any
}

type RawStatRow struct {
	GameRef       string `validate:"required"`
	GameDate      string
	PlayerRef     int64
	PlayerName    string `validate:"required"`
	TeamRef       int64
	TeamName      string
	Minutes       string
	StartPosition string

	Points          float64
	Rebounds        float64
	Assists         float64
	Steals          float64
	Blocks          float64
	Turnovers       float64
	FieldGoalsMade  float64
	FieldGoalsAtt   float64
	ThreePointsMade float64
	ThreePointsAtt  float64
	FreeThrowsMade  float64
	FreeThrowsAtt   float64
	PlusMinus       *float64
	UsageRate       *float64
	TrueShootingPct *float64

	Extras map[string]any
}

type RawInjuryRow struct {
	PlayerName string `validate:"required"`
	TeamName   string
	Status     string `validate:"required"`
	InjuryType string
	BodyArea   string
	Diagnosis  string
	ReportedAt time.Time `validate:"required"`
	SourceURL  string
	Extras     map[string]any
}

// StatsFeed is the structured feed collaborator. Implementations may
// fail, time out, or return partial data; callers treat every error as
// transient for that unit of work.
type StatsFeed interface {
	FetchTeams(ctx context.Context) ([]RawTeamRow, error)
	FetchPlayers(ctx context.Context) ([]RawPlayerRow, error)
	FetchScoreboard(ctx context.Context, day time.Time) ([]RawGameRow, error)
	FetchBoxScore(ctx context.Context, gameRef string) ([]RawStatRow, error)
	FetchPlayerGameLog(ctx context.Context, playerRef int64, seasonLabel string) ([]RawStatRow, error)
}

// InjurySource is the scraped-pages collaborator. Rows carry names, not
// ids; duplicates across sources are possible and removed downstream.
type InjurySource interface {
	FetchInjuries(ctx context.Context) ([]RawInjuryRow, error)
}
