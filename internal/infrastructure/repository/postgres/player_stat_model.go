package postgres

import "time"

type playerStatTableModel struct {
	StatID          string    `db:"stat_id"`
	GameID          string    `db:"game_id"`
	PlayerID        *string   `db:"player_id"`
	TeamID          *string   `db:"team_id"`
	GameDate        time.Time `db:"game_date"`
	MinutesPlayed   *float64  `db:"minutes_played"`
	Points          int       `db:"points"`
	Rebounds        int       `db:"rebounds"`
	Assists         int       `db:"assists"`
	Steals          int       `db:"steals"`
	Blocks          int       `db:"blocks"`
	Turnovers       int       `db:"turnovers"`
	FieldGoalsMade  int       `db:"field_goals_made"`
	FieldGoalsAtt   int       `db:"field_goals_att"`
	ThreePointsMade int       `db:"three_points_made"`
	ThreePointsAtt  int       `db:"three_points_att"`
	FreeThrowsMade  int       `db:"free_throws_made"`
	FreeThrowsAtt   int       `db:"free_throws_att"`
	PlusMinus       *int      `db:"plus_minus"`
	UsageRate       *float64  `db:"usage_rate"`
	TrueShootingPct *float64  `db:"true_shooting_pct"`
	Started         bool      `db:"started"`
	AdvancedMetrics *string   `db:"advanced_metrics"`
	CreatedAt       time.Time `db:"created_at"`
}

var playerStatInsertColumns = []string{
	"stat_id",
	"game_id",
	"player_id",
	"team_id",
	"game_date",
	"minutes_played",
	"points",
	"rebounds",
	"assists",
	"steals",
	"blocks",
	"turnovers",
	"field_goals_made",
	"field_goals_att",
	"three_points_made",
	"three_points_att",
	"free_throws_made",
	"free_throws_att",
	"plus_minus",
	"usage_rate",
	"true_shooting_pct",
	"started",
	"advanced_metrics",
}
