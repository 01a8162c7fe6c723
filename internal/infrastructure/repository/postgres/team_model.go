package postgres

import "time"

type teamTableModel struct {
	TeamID       string    `db:"team_id"`
	Name         string    `db:"name"`
	City         *string   `db:"city"`
	Abbreviation *string   `db:"abbreviation"`
	CreatedAt    time.Time `db:"created_at"`
}

type teamInsertModel struct {
	TeamID       string  `db:"team_id"`
	Name         string  `db:"name"`
	City         *string `db:"city"`
	Abbreviation *string `db:"abbreviation"`
}
