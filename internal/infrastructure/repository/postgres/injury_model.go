package postgres

import "time"

type injuryTableModel struct {
	InjuryID       string     `db:"injury_id"`
	PlayerID       *string    `db:"player_id"`
	TeamID         *string    `db:"team_id"`
	ReportedAt     time.Time  `db:"reported_at"`
	InjuryType     *string    `db:"injury_type"`
	BodyArea       *string    `db:"body_area"`
	Diagnosis      *string    `db:"diagnosis"`
	Status         string     `db:"status"`
	EffectiveFrom  *time.Time `db:"effective_from"`
	EffectiveUntil *time.Time `db:"effective_until"`
	SourceURL      *string    `db:"source_url"`
	CreatedAt      time.Time  `db:"created_at"`
}

var injuryInsertColumns = []string{
	"injury_id",
	"player_id",
	"team_id",
	"reported_at",
	"injury_type",
	"body_area",
	"diagnosis",
	"status",
	"effective_from",
	"effective_until",
	"source_url",
}
