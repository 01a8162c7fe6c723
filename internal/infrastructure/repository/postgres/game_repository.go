package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nba-ingest/internal/domain/game"
	qb "github.com/riskibarqy/nba-ingest/internal/platform/querybuilder"
)

type GameRepository struct {
	db        *sqlx.DB
	batchSize int
}

func NewGameRepository(db *sqlx.DB, batchSize int) *GameRepository {
	return &GameRepository{db: db, batchSize: batchSizeOrDefault(batchSize)}
}

// BulkInsert writes games in chunks, skipping rows that collide with an
// existing primary key or external ref. The returned count is the
// number of rows the database actually accepted.
func (r *GameRepository) BulkInsert(ctx context.Context, games []game.Game) (int, error) {
	inserted := 0
	for start := 0; start < len(games); start += r.batchSize {
		end := start + r.batchSize
		if end > len(games) {
			end = len(games)
		}

		builder := qb.InsertInto("games").
			Columns(gameInsertColumns...).
			Suffix("ON CONFLICT DO NOTHING")
		for _, g := range games[start:end] {
			builder.Values(
				g.ID,
				g.ExternalRef,
				g.SeasonID,
				g.GameDate,
				g.HomeTeamID,
				g.AwayTeamID,
				g.IsPlayoffs,
				nullableString(g.Status),
			)
		}

		query, args, err := builder.ToSQL()
		if err != nil {
			return inserted, fmt.Errorf("build bulk insert games query: %w", err)
		}
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("bulk insert games: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("count inserted games: %w", err)
		}
		inserted += int(affected)
	}

	return inserted, nil
}

func (r *GameRepository) RefIndex(ctx context.Context) (map[string]game.Key, error) {
	query, args, err := qb.Select("game_id", "external_ref", "game_date").From("games").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select game refs query: %w", err)
	}

	var rows []struct {
		GameID      string    `db:"game_id"`
		ExternalRef string    `db:"external_ref"`
		GameDate    time.Time `db:"game_date"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select game refs: %w", err)
	}

	out := make(map[string]game.Key, len(rows))
	for _, row := range rows {
		out[row.ExternalRef] = game.Key{ID: row.GameID, GameDate: row.GameDate}
	}
	return out, nil
}

func (r *GameRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Gte("game_date", start),
			qb.Lt("game_date", end),
		).
		OrderBy("game_date", "game_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games by date range query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games by date range: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, game.Game{
			ID:          row.GameID,
			ExternalRef: row.ExternalRef,
			SeasonID:    row.SeasonID,
			GameDate:    row.GameDate,
			HomeTeamID:  row.HomeTeamID,
			AwayTeamID:  row.AwayTeamID,
			IsPlayoffs:  row.IsPlayoffs,
			Status:      stringFromNullable(row.Status),
		})
	}
	return out, nil
}
