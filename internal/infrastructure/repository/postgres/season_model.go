package postgres

import "time"

type seasonTableModel struct {
	SeasonID   string    `db:"season_id"`
	YearStart  int       `db:"year_start"`
	YearEnd    int       `db:"year_end"`
	SeasonType string    `db:"season_type"`
	CreatedAt  time.Time `db:"created_at"`
}

type seasonInsertModel struct {
	SeasonID   string `db:"season_id"`
	YearStart  int    `db:"year_start"`
	YearEnd    int    `db:"year_end"`
	SeasonType string `db:"season_type"`
}
