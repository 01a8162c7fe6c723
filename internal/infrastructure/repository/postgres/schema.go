package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/nba-ingest/internal/platform/logging"
)

// SchemaManager owns the destination DDL. The three event tables are
// converted to hypertables so writes land in time chunks; plain unique
// constraints cannot survive that conversion, so they are dropped first
// and re-added with the partition column included.
type SchemaManager struct {
	db     *sqlx.DB
	logger *logging.Logger
}

func NewSchemaManager(db *sqlx.DB, logger *logging.Logger) *SchemaManager {
	if logger == nil {
		logger = logging.Default()
	}
	return &SchemaManager{db: db, logger: logger}
}

var requiredTables = []string{
	"teams",
	"players",
	"seasons",
	"games",
	"player_game_stats",
	"injury_reports",
}

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS timescaledb`,

	`CREATE TABLE IF NOT EXISTS teams (
    team_id       UUID PRIMARY KEY,
    name          TEXT NOT NULL UNIQUE,
    city          TEXT,
    abbreviation  TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,

	`CREATE TABLE IF NOT EXISTS players (
    player_id      UUID PRIMARY KEY,
    name           TEXT NOT NULL UNIQUE,
    position       TEXT,
    height_meters  DOUBLE PRECISION,
    weight_pounds  DOUBLE PRECISION,
    rookie_season  INT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`,

	`CREATE TABLE IF NOT EXISTS seasons (
    season_id    UUID PRIMARY KEY,
    year_start   INT NOT NULL,
    year_end     INT NOT NULL,
    season_type  TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (year_start, season_type)
)`,

	`CREATE TABLE IF NOT EXISTS games (
    game_id       UUID NOT NULL,
    external_ref  TEXT NOT NULL UNIQUE,
    season_id     UUID REFERENCES seasons (season_id),
    game_date     TIMESTAMPTZ NOT NULL,
    home_team_id  UUID REFERENCES teams (team_id),
    away_team_id  UUID REFERENCES teams (team_id),
    is_playoffs   BOOLEAN NOT NULL DEFAULT FALSE,
    status        TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (game_id, game_date)
)`,

	`ALTER TABLE games DROP CONSTRAINT IF EXISTS games_external_ref_key`,
	`SELECT create_hypertable('games', 'game_date', chunk_time_interval => INTERVAL '1 month', if_not_exists => TRUE)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_games_external_ref ON games (external_ref, game_date)`,

	`CREATE TABLE IF NOT EXISTS player_game_stats (
    stat_id            UUID NOT NULL,
    game_id            UUID NOT NULL,
    player_id          UUID REFERENCES players (player_id),
    team_id            UUID REFERENCES teams (team_id),
    game_date          TIMESTAMPTZ NOT NULL,
    minutes_played     DOUBLE PRECISION,
    points             INT NOT NULL DEFAULT 0,
    rebounds           INT NOT NULL DEFAULT 0,
    assists            INT NOT NULL DEFAULT 0,
    steals             INT NOT NULL DEFAULT 0,
    blocks             INT NOT NULL DEFAULT 0,
    turnovers          INT NOT NULL DEFAULT 0,
    field_goals_made   INT NOT NULL DEFAULT 0,
    field_goals_att    INT NOT NULL DEFAULT 0,
    three_points_made  INT NOT NULL DEFAULT 0,
    three_points_att   INT NOT NULL DEFAULT 0,
    free_throws_made   INT NOT NULL DEFAULT 0,
    free_throws_att    INT NOT NULL DEFAULT 0,
    plus_minus         INT,
    usage_rate         DOUBLE PRECISION,
    true_shooting_pct  DOUBLE PRECISION,
    started            BOOLEAN NOT NULL DEFAULT FALSE,
    advanced_metrics   JSONB,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (stat_id, game_date)
)`,

	`SELECT create_hypertable('player_game_stats', 'game_date', chunk_time_interval => INTERVAL '1 month', if_not_exists => TRUE)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_player_game_stats_player_game ON player_game_stats (player_id, game_id, game_date)`,
	`CREATE INDEX IF NOT EXISTS idx_player_game_stats_player ON player_game_stats (player_id, game_date DESC)`,

	`CREATE TABLE IF NOT EXISTS injury_reports (
    injury_id        UUID NOT NULL,
    player_id        UUID REFERENCES players (player_id),
    team_id          UUID REFERENCES teams (team_id),
    reported_at      TIMESTAMPTZ NOT NULL,
    injury_type      TEXT,
    body_area        TEXT,
    diagnosis        TEXT,
    status           TEXT NOT NULL,
    effective_from   TIMESTAMPTZ,
    effective_until  TIMESTAMPTZ,
    source_url       TEXT,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (injury_id, reported_at)
)`,

	`SELECT create_hypertable('injury_reports', 'reported_at', chunk_time_interval => INTERVAL '1 week', if_not_exists => TRUE)`,
	`CREATE INDEX IF NOT EXISTS idx_injury_reports_player ON injury_reports (player_id, reported_at DESC)`,
}

// CreateSchema applies the full DDL. Every statement is idempotent, so
// re-running against an initialized database is a no-op.
func (m *SchemaManager) CreateSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %q: %w", firstLine(stmt), err)
		}
	}
	m.logger.InfoContext(ctx, "schema ready", "tables", len(requiredTables))
	return nil
}

// CheckSchema verifies every destination table exists without touching
// any of them.
func (m *SchemaManager) CheckSchema(ctx context.Context) error {
	const query = `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_name = ANY($1)`

	var found []string
	if err := m.db.SelectContext(ctx, &found, query, pq.Array(requiredTables)); err != nil {
		return fmt.Errorf("probe schema tables: %w", err)
	}

	present := make(map[string]struct{}, len(found))
	for _, name := range found {
		present[name] = struct{}{}
	}
	var missing []string
	for _, name := range requiredTables {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func firstLine(stmt string) string {
	if idx := strings.IndexByte(stmt, '\n'); idx >= 0 {
		return stmt[:idx]
	}
	return stmt
}
