package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nba-ingest/internal/domain/playerstat"
	qb "github.com/riskibarqy/nba-ingest/internal/platform/querybuilder"
)

type PlayerStatRepository struct {
	db        *sqlx.DB
	batchSize int
}

func NewPlayerStatRepository(db *sqlx.DB, batchSize int) *PlayerStatRepository {
	return &PlayerStatRepository{db: db, batchSize: batchSizeOrDefault(batchSize)}
}

// BulkInsert writes stat lines in chunks. Rows that collide with an
// existing primary key or the per-player-per-game constraint are
// skipped, so replaying a day is harmless.
func (r *PlayerStatRepository) BulkInsert(ctx context.Context, stats []playerstat.Stat) (int, error) {
	inserted := 0
	for start := 0; start < len(stats); start += r.batchSize {
		end := start + r.batchSize
		if end > len(stats) {
			end = len(stats)
		}

		builder := qb.InsertInto("player_game_stats").
			Columns(playerStatInsertColumns...).
			Suffix("ON CONFLICT DO NOTHING")
		for _, s := range stats[start:end] {
			metrics, err := marshalMetrics(s.AdvancedMetrics)
			if err != nil {
				return inserted, fmt.Errorf("encode advanced metrics for stat %s: %w", s.ID, err)
			}
			builder.Values(
				s.ID,
				s.GameID,
				s.PlayerID,
				s.TeamID,
				s.GameDate,
				s.MinutesPlayed,
				s.Points,
				s.Rebounds,
				s.Assists,
				s.Steals,
				s.Blocks,
				s.Turnovers,
				s.FieldGoalsMade,
				s.FieldGoalsAtt,
				s.ThreePointsMade,
				s.ThreePointsAtt,
				s.FreeThrowsMade,
				s.FreeThrowsAtt,
				s.PlusMinus,
				s.UsageRate,
				s.TrueShootingPct,
				s.Started,
				metrics,
			)
		}

		query, args, err := builder.ToSQL()
		if err != nil {
			return inserted, fmt.Errorf("build bulk insert stats query: %w", err)
		}
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("bulk insert stats: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("count inserted stats: %w", err)
		}
		inserted += int(affected)
	}

	return inserted, nil
}

func (r *PlayerStatRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]playerstat.Stat, error) {
	query, args, err := qb.Select("*").From("player_game_stats").
		Where(
			qb.Gte("game_date", start),
			qb.Lt("game_date", end),
		).
		OrderBy("game_date", "stat_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select stats by date range query: %w", err)
	}

	var rows []playerStatTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select stats by date range: %w", err)
	}

	out := make([]playerstat.Stat, 0, len(rows))
	for _, row := range rows {
		metrics, err := unmarshalMetrics(row.AdvancedMetrics)
		if err != nil {
			return nil, fmt.Errorf("decode advanced metrics for stat %s: %w", row.StatID, err)
		}
		out = append(out, playerstat.Stat{
			ID:              row.StatID,
			GameID:          row.GameID,
			PlayerID:        row.PlayerID,
			TeamID:          row.TeamID,
			GameDate:        row.GameDate,
			MinutesPlayed:   row.MinutesPlayed,
			Points:          row.Points,
			Rebounds:        row.Rebounds,
			Assists:         row.Assists,
			Steals:          row.Steals,
			Blocks:          row.Blocks,
			Turnovers:       row.Turnovers,
			FieldGoalsMade:  row.FieldGoalsMade,
			FieldGoalsAtt:   row.FieldGoalsAtt,
			ThreePointsMade: row.ThreePointsMade,
			ThreePointsAtt:  row.ThreePointsAtt,
			FreeThrowsMade:  row.FreeThrowsMade,
			FreeThrowsAtt:   row.FreeThrowsAtt,
			PlusMinus:       row.PlusMinus,
			UsageRate:       row.UsageRate,
			TrueShootingPct: row.TrueShootingPct,
			Started:         row.Started,
			AdvancedMetrics: metrics,
		})
	}
	return out, nil
}

// marshalMetrics encodes the overflow metric map as a JSON string the
// driver binds into the jsonb column. Empty maps persist as NULL.
func marshalMetrics(metrics map[string]any) (*string, error) {
	if len(metrics) == 0 {
		return nil, nil
	}
	raw, err := sonic.Marshal(metrics)
	if err != nil {
		return nil, err
	}
	encoded := string(raw)
	return &encoded, nil
}

func unmarshalMetrics(raw *string) (map[string]any, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var metrics map[string]any
	if err := sonic.Unmarshal([]byte(*raw), &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}
