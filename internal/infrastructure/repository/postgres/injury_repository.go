package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nba-ingest/internal/domain/injury"
	qb "github.com/riskibarqy/nba-ingest/internal/platform/querybuilder"
)

type InjuryRepository struct {
	db        *sqlx.DB
	batchSize int
}

func NewInjuryRepository(db *sqlx.DB, batchSize int) *InjuryRepository {
	return &InjuryRepository{db: db, batchSize: batchSizeOrDefault(batchSize)}
}

func (r *InjuryRepository) BulkInsert(ctx context.Context, reports []injury.Report) (int, error) {
	inserted := 0
	for start := 0; start < len(reports); start += r.batchSize {
		end := start + r.batchSize
		if end > len(reports) {
			end = len(reports)
		}

		builder := qb.InsertInto("injury_reports").
			Columns(injuryInsertColumns...).
			Suffix("ON CONFLICT DO NOTHING")
		for _, rep := range reports[start:end] {
			builder.Values(
				rep.ID,
				rep.PlayerID,
				rep.TeamID,
				rep.ReportedAt,
				rep.InjuryType,
				rep.BodyArea,
				rep.Diagnosis,
				string(rep.Status),
				rep.EffectiveFrom,
				rep.EffectiveUntil,
				rep.SourceURL,
			)
		}

		query, args, err := builder.ToSQL()
		if err != nil {
			return inserted, fmt.Errorf("build bulk insert injuries query: %w", err)
		}
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("bulk insert injuries: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("count inserted injuries: %w", err)
		}
		inserted += int(affected)
	}

	return inserted, nil
}

func (r *InjuryRepository) ListByReportedRange(ctx context.Context, start, end time.Time) ([]injury.Report, error) {
	query, args, err := qb.Select("*").From("injury_reports").
		Where(
			qb.Gte("reported_at", start),
			qb.Lt("reported_at", end),
		).
		OrderBy("reported_at", "injury_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select injuries by range query: %w", err)
	}

	var rows []injuryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select injuries by range: %w", err)
	}

	out := make([]injury.Report, 0, len(rows))
	for _, row := range rows {
		out = append(out, injury.Report{
			ID:             row.InjuryID,
			PlayerID:       row.PlayerID,
			TeamID:         row.TeamID,
			ReportedAt:     row.ReportedAt,
			InjuryType:     row.InjuryType,
			BodyArea:       row.BodyArea,
			Diagnosis:      row.Diagnosis,
			Status:         injury.Status(row.Status),
			EffectiveFrom:  row.EffectiveFrom,
			EffectiveUntil: row.EffectiveUntil,
			SourceURL:      row.SourceURL,
		})
	}
	return out, nil
}
