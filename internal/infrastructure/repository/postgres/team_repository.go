package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nba-ingest/internal/domain/team"
	qb "github.com/riskibarqy/nba-ingest/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByName(ctx context.Context, name string) (*team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("name", name)).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select team by name query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select team by name: %w", err)
	}

	out := teamFromRow(row)
	return &out, nil
}

func (r *TeamRepository) NameIndex(ctx context.Context) (map[string]string, error) {
	query, args, err := qb.Select("team_id", "name").From("teams").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select team names query: %w", err)
	}

	var rows []struct {
		TeamID string `db:"team_id"`
		Name   string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select team names: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Name] = row.TeamID
	}
	return out, nil
}

func (r *TeamRepository) Insert(ctx context.Context, t team.Team) error {
	model := teamInsertModel{
		TeamID:       t.ID,
		Name:         t.Name,
		City:         t.City,
		Abbreviation: t.Abbreviation,
	}
	query, args, err := qb.InsertModel("teams", model, "")
	if err != nil {
		return fmt.Errorf("build insert team query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return team.ErrDuplicateName
		}
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		ID:           row.TeamID,
		Name:         row.Name,
		City:         row.City,
		Abbreviation: row.Abbreviation,
	}
}
