package postgres

import "time"

type playerTableModel struct {
	PlayerID     string    `db:"player_id"`
	Name         string    `db:"name"`
	Position     *string   `db:"position"`
	HeightMeters *float64  `db:"height_meters"`
	WeightPounds *float64  `db:"weight_pounds"`
	RookieSeason *int      `db:"rookie_season"`
	CreatedAt    time.Time `db:"created_at"`
}

type playerInsertModel struct {
	PlayerID     string   `db:"player_id"`
	Name         string   `db:"name"`
	Position     *string  `db:"position"`
	HeightMeters *float64 `db:"height_meters"`
	WeightPounds *float64 `db:"weight_pounds"`
	RookieSeason *int     `db:"rookie_season"`
}
