package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/nba-ingest/internal/domain/game"
	"github.com/riskibarqy/nba-ingest/internal/domain/injury"
	"github.com/riskibarqy/nba-ingest/internal/domain/playerstat"
	"github.com/riskibarqy/nba-ingest/internal/platform/id"
	"github.com/riskibarqy/nba-ingest/internal/platform/logging"
)

// BatchTransformer joins validated rows with resolved identities into
// batches shaped for bulk load. Unresolved player or team references
// become nulls; a stat row whose parent game is unknown is rejected
// because the store does not enforce that relation itself.
type BatchTransformer struct {
	resolver *IdentityResolver
	idGen    id.Generator
	logger   *logging.Logger
}

func NewBatchTransformer(resolver *IdentityResolver, idGen id.Generator, logger *logging.Logger) *BatchTransformer {
	if logger == nil {
		logger = logging.Default()
	}
	return &BatchTransformer{resolver: resolver, idGen: idGen, logger: logger}
}

// BuildGameBatch assigns surrogate keys and canonical references to
// validated games. Games whose external ref is already known are
// dropped as duplicates, counted by the caller via the batch size.
func (t *BatchTransformer) BuildGameBatch(ctx context.Context, rows []ValidatedGame) ([]game.Game, []RowFailure, error) {
	ctx, span := startUsecaseSpan(ctx, "transformer.BuildGameBatch")
	defer span.End()

	out := make([]game.Game, 0, len(rows))
	var failures []RowFailure
	for i, row := range rows {
		known, err := t.resolver.ResolveGameRef(ctx, row.Ref)
		if err != nil {
			return nil, failures, err
		}
		if known != nil {
			continue
		}

		seasonID, err := t.resolver.EnsureSeason(ctx, row.SeasonYear, row.SeasonType)
		if err != nil {
			failures = append(failures, RowFailure{Kind: "game", Index: i, Err: err})
			continue
		}

		homeID, err := t.resolver.ResolveTeamRef(ctx, row.HomeTeamRef)
		if err != nil {
			return nil, failures, err
		}
		awayID, err := t.resolver.ResolveTeamRef(ctx, row.AwayTeamRef)
		if err != nil {
			return nil, failures, err
		}
		if homeID == nil || awayID == nil {
			t.logger.WarnContext(ctx, "game team reference unresolved, persisting with nulls",
				"game_ref", row.Ref, "home_ref", row.HomeTeamRef, "away_ref", row.AwayTeamRef)
		}

		newID, err := t.idGen.NewID()
		if err != nil {
			return nil, failures, err
		}

		candidate := game.Game{
			ID:          newID,
			ExternalRef: row.Ref,
			SeasonID:    &seasonID,
			GameDate:    row.Date,
			HomeTeamID:  homeID,
			AwayTeamID:  awayID,
			IsPlayoffs:  row.IsPlayoffs,
			Status:      row.Status,
		}
		if err := candidate.Validate(); err != nil {
			failures = append(failures, RowFailure{Kind: "game", Index: i, Err: err})
			continue
		}

		out = append(out, candidate)
		t.resolver.RegisterGame(row.Ref, game.Key{ID: newID, GameDate: row.Date})
	}

	return out, failures, nil
}

// BuildStatBatch resolves each stat line against the games and players
// known to this run. The parent game pre-check stands in for the
// foreign key the chunked store cannot carry; the event time is always
// taken from the parent so both sides agree.
func (t *BatchTransformer) BuildStatBatch(ctx context.Context, rows []ValidatedStat) ([]playerstat.Stat, []RowFailure, error) {
	ctx, span := startUsecaseSpan(ctx, "transformer.BuildStatBatch")
	defer span.End()

	out := make([]playerstat.Stat, 0, len(rows))
	var failures []RowFailure
	for i, row := range rows {
		key, err := t.resolver.ResolveGameRef(ctx, row.GameRef)
		if err != nil {
			return nil, failures, err
		}
		if key == nil {
			failures = append(failures, RowFailure{
				Kind:  "stat",
				Index: i,
				Err:   fmt.Errorf("unknown parent game ref %q", row.GameRef),
			})
			continue
		}

		playerID, err := t.resolvePlayerForStat(ctx, row)
		if err != nil {
			return nil, failures, err
		}
		teamID, err := t.resolver.ResolveTeamRef(ctx, row.TeamRef)
		if err != nil {
			return nil, failures, err
		}
		if teamID == nil && row.TeamName != "" {
			teamID, err = t.resolver.MatchTeamByName(ctx, row.TeamName)
			if err != nil {
				return nil, failures, err
			}
		}

		newID, err := t.idGen.NewID()
		if err != nil {
			return nil, failures, err
		}

		candidate := playerstat.Stat{
			ID:              newID,
			GameID:          key.ID,
			PlayerID:        playerID,
			TeamID:          teamID,
			GameDate:        key.GameDate,
			MinutesPlayed:   row.Minutes,
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
			AdvancedMetrics: row.Extras,
		}
		if err := candidate.Validate(); err != nil {
			failures = append(failures, RowFailure{Kind: "stat", Index: i, Err: err})
			continue
		}

		out = append(out, candidate)
	}

	return out, failures, nil
}

func (t *BatchTransformer) resolvePlayerForStat(ctx context.Context, row ValidatedStat) (*string, error) {
	if row.PlayerRef != 0 {
		t.resolver.RegisterPlayerAlias(row.PlayerRef, row.PlayerName)
		if found, err := t.resolver.ResolvePlayerRef(ctx, row.PlayerRef); err != nil || found != nil {
			return found, err
		}
	}
	return t.resolver.lookupPlayerID(ctx, row.PlayerName)
}

// BuildInjuryBatch resolves scraped, name-only rows. Identities that
// cannot be matched stay null rather than dropping the report.
func (t *BatchTransformer) BuildInjuryBatch(ctx context.Context, rows []ValidatedInjury) ([]injury.Report, []RowFailure, error) {
	ctx, span := startUsecaseSpan(ctx, "transformer.BuildInjuryBatch")
	defer span.End()

	out := make([]injury.Report, 0, len(rows))
	var failures []RowFailure
	for i, row := range rows {
		playerID, err := t.resolver.MatchPlayerByName(ctx, row.PlayerName)
		if err != nil {
			return nil, failures, err
		}
		var teamID *string
		if row.TeamName != "" {
			teamID, err = t.resolver.MatchTeamByName(ctx, row.TeamName)
			if err != nil {
				return nil, failures, err
			}
		}
		if playerID == nil {
			t.logger.WarnContext(ctx, "injury player unresolved, persisting with null reference",
				"player_name", row.PlayerName)
		}

		newID, err := t.idGen.NewID()
		if err != nil {
			return nil, failures, err
		}

		candidate := injury.Report{
			ID:         newID,
			PlayerID:   playerID,
			TeamID:     teamID,
			ReportedAt: row.ReportedAt,
			InjuryType: row.InjuryType,
			BodyArea:   row.BodyArea,
			Diagnosis:  row.Diagnosis,
			Status:     row.Status,
			SourceURL:  row.SourceURL,
		}
		if err := candidate.Validate(); err != nil {
			failures = append(failures, RowFailure{Kind: "injury", Index: i, Err: err})
			continue
		}

		out = append(out, candidate)
	}

	return out, failures, nil
}
