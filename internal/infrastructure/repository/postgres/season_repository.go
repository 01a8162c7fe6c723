package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nba-ingest/internal/domain/season"
	qb "github.com/riskibarqy/nba-ingest/internal/platform/querybuilder"
)

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) GetByYearAndType(ctx context.Context, yearStart int, seasonType season.Type) (*season.Season, error) {
	query, args, err := qb.Select("*").From("seasons").
		Where(
			qb.Eq("year_start", yearStart),
			qb.Eq("season_type", string(seasonType)),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select season query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select season: %w", err)
	}

	out := season.Season{
		ID:        row.SeasonID,
		YearStart: row.YearStart,
		YearEnd:   row.YearEnd,
		Type:      season.Type(row.SeasonType),
	}
	return &out, nil
}

func (r *SeasonRepository) Insert(ctx context.Context, s season.Season) error {
	model := seasonInsertModel{
		SeasonID:   s.ID,
		YearStart:  s.YearStart,
		YearEnd:    s.YearEnd,
		SeasonType: string(s.Type),
	}
	query, args, err := qb.InsertModel("seasons", model, "")
	if err != nil {
		return fmt.Errorf("build insert season query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return season.ErrDuplicate
		}
		return fmt.Errorf("insert season: %w", err)
	}
	return nil
}
