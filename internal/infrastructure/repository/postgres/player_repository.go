package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nba-ingest/internal/domain/player"
	qb "github.com/riskibarqy/nba-ingest/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) GetByName(ctx context.Context, name string) (*player.Player, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("name", name)).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player by name query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select player by name: %w", err)
	}

	out := playerFromRow(row)
	return &out, nil
}

func (r *PlayerRepository) NameIndex(ctx context.Context) (map[string]string, error) {
	query, args, err := qb.Select("player_id", "name").From("players").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select player names query: %w", err)
	}

	var rows []struct {
		PlayerID string `db:"player_id"`
		Name     string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select player names: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Name] = row.PlayerID
	}
	return out, nil
}

func (r *PlayerRepository) Insert(ctx context.Context, p player.Player) error {
	model := playerInsertModel{
		PlayerID:     p.ID,
		Name:         p.Name,
		Position:     p.Position,
		HeightMeters: p.HeightMeters,
		WeightPounds: p.WeightPounds,
		RookieSeason: p.RookieSeason,
	}
	query, args, err := qb.InsertModel("players", model, "")
	if err != nil {
		return fmt.Errorf("build insert player query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return player.ErrDuplicateName
		}
		return fmt.Errorf("insert player: %w", err)
	}
	return nil
}

func playerFromRow(row playerTableModel) player.Player {
	return player.Player{
		ID:           row.PlayerID,
		Name:         row.Name,
		Position:     row.Position,
		HeightMeters: row.HeightMeters,
		WeightPounds: row.WeightPounds,
		RookieSeason: row.RookieSeason,
	}
}
