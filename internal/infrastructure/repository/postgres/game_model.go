package postgres

import "time"

type gameTableModel struct {
	GameID      string    `db:"game_id"`
	ExternalRef string    `db:"external_ref"`
	SeasonID    *string   `db:"season_id"`
	GameDate    time.Time `db:"game_date"`
	HomeTeamID  *string   `db:"home_team_id"`
	AwayTeamID  *string   `db:"away_team_id"`
	IsPlayoffs  bool      `db:"is_playoffs"`
	Status      *string   `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

var gameInsertColumns = []string{
	"game_id",
	"external_ref",
	"season_id",
	"game_date",
	"home_team_id",
	"away_team_id",
	"is_playoffs",
	"status",
}
