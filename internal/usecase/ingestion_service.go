package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/nba-ingest/internal/domain/game"
	"github.com/riskibarqy/nba-ingest/internal/domain/injury"
	"github.com/riskibarqy/nba-ingest/internal/domain/player"
	"github.com/riskibarqy/nba-ingest/internal/domain/playerstat"
	"github.com/riskibarqy/nba-ingest/internal/domain/season"
	"github.com/riskibarqy/nba-ingest/internal/domain/team"
	"github.com/riskibarqy/nba-ingest/internal/platform/id"
	"github.com/riskibarqy/nba-ingest/internal/platform/logging"
)

type StageStatus string

const (
	StageStatusSuccess StageStatus = "success"
	StageStatusFailed  StageStatus = "failed"
	StageStatusSkipped StageStatus = "skipped"
)

// StageResult reports one pipeline stage. Row-level failures land in
// Errors without failing the stage; only fetch or persistence failures
// mark it failed.
type StageResult struct {
	Stage      string
	Status     StageStatus
	Fetched    int
	Validated  int
	Loaded     int
	Skipped    int
	Errors     []string
	DurationMs int64
}

// RunResult aggregates a whole ingestion run. Partial completion is a
// normal, reportable outcome.
type RunResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Stages     []StageResult
}

func (r RunResult) Errors() []string {
	var out []string
	for _, stage := range r.Stages {
		for _, msg := range stage.Errors {
			out = append(out, fmt.Sprintf("%s: %s", stage.Stage, msg))
		}
	}
	return out
}

func (r RunResult) TotalLoaded() int {
	total := 0
	for _, stage := range r.Stages {
		total += stage.Loaded
	}
	return total
}

// SchemaChecker verifies the destination schema before any fetching.
type SchemaChecker interface {
	CheckSchema(ctx context.Context) error
}

type IngestionConfig struct {
	FetchConcurrency int
	FetchTimeout     time.Duration
	SkipBoxScores    bool
}

// IngestionService sequences the pipeline stages for a date or a date
// range and owns the run-level result. Stage failures are recorded and
// never stop later stages; only a missing schema or cancellation ends
// a run early.
type IngestionService struct {
	feed      StatsFeed
	injurySrc InjurySource
	validator *ValidationService

	players  player.Repository
	teams    team.Repository
	seasons  season.Repository
	games    game.Repository
	stats    playerstat.Repository
	injuries injury.Repository
	schema   SchemaChecker
	idGen    id.Generator

	logger *logging.Logger
	cfg    IngestionConfig
}

func NewIngestionService(
	feed StatsFeed,
	injurySrc InjurySource,
	players player.Repository,
	teams team.Repository,
	seasons season.Repository,
	games game.Repository,
	stats playerstat.Repository,
	injuries injury.Repository,
	schema SchemaChecker,
	idGen id.Generator,
	logger *logging.Logger,
	cfg IngestionConfig,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 5
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	return &IngestionService{
		feed:      feed,
		injurySrc: injurySrc,
		validator: NewValidationService(logger),
		players:   players,
		teams:     teams,
		seasons:   seasons,
		games:     games,
		stats:     stats,
		injuries:  injuries,
		schema:    schema,
		idGen:     idGen,
		logger:    logger,
		cfg:       cfg,
	}
}

// SkipBoxScores toggles the box-score stage for subsequent runs.
func (s *IngestionService) SkipBoxScores(skip bool) {
	s.cfg.SkipBoxScores = skip
}

// runState holds the per-run resolver and transformer so that caches
// never leak across runs.
type runState struct {
	resolver    *IdentityResolver
	transformer *BatchTransformer
}

func (s *IngestionService) newRunState() *runState {
	resolver := NewIdentityResolver(s.players, s.teams, s.seasons, s.games, s.idGen, s.logger)
	return &runState{
		resolver:    resolver,
		transformer: NewBatchTransformer(resolver, s.idGen, s.logger),
	}
}

// RunSetup loads the canonical team and player pools.
func (s *IngestionService) RunSetup(ctx context.Context) (RunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ingestion.RunSetup")
	defer span.End()

	result := RunResult{StartedAt: time.Now()}
	defer func() { result.FinishedAt = time.Now() }()

	if err := s.schema.CheckSchema(ctx); err != nil {
		return result, fmt.Errorf("%w: %v", ErrSchemaMissing, err)
	}

	rs := s.newRunState()
	result.Stages = append(result.Stages, s.stageTeams(ctx, rs))
	if err := ctx.Err(); err != nil {
		return result, err
	}
	result.Stages = append(result.Stages, s.stagePlayers(ctx, rs))
	return result, ctx.Err()
}

// RunDate ingests games, box scores, and the current injury reports for
// one calendar day.
func (s *IngestionService) RunDate(ctx context.Context, day time.Time) (RunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ingestion.RunDate")
	defer span.End()

	result := RunResult{StartedAt: time.Now()}
	defer func() { result.FinishedAt = time.Now() }()

	if err := s.schema.CheckSchema(ctx); err != nil {
		return result, fmt.Errorf("%w: %v", ErrSchemaMissing, err)
	}

	rs := s.newRunState()
	if err := s.runDay(ctx, rs, &result, day); err != nil {
		return result, err
	}
	result.Stages = append(result.Stages, s.stageInjuries(ctx, rs))
	return result, ctx.Err()
}

// RunDateRange processes dates strictly in order so a mid-range failure
// leaves a deterministic ingested-through boundary. Injuries are point
// in time and scraped once at the end.
func (s *IngestionService) RunDateRange(ctx context.Context, start, end time.Time) (RunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "ingestion.RunDateRange")
	defer span.End()

	result := RunResult{StartedAt: time.Now()}
	defer func() { result.FinishedAt = time.Now() }()

	if end.Before(start) {
		return result, fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}
	if err := s.schema.CheckSchema(ctx); err != nil {
		return result, fmt.Errorf("%w: %v", ErrSchemaMissing, err)
	}

	rs := s.newRunState()
	for day := dateOnly(start); !day.After(dateOnly(end)); day = day.AddDate(0, 0, 1) {
		if err := s.runDay(ctx, rs, &result, day); err != nil {
			return result, err
		}
	}
	result.Stages = append(result.Stages, s.stageInjuries(ctx, rs))
	return result, ctx.Err()
}

func (s *IngestionService) runDay(ctx context.Context, rs *runState, result *RunResult, day time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gamesStage, refs := s.stageGames(ctx, rs, day)
	result.Stages = append(result.Stages, gamesStage)

	if err := ctx.Err(); err != nil {
		return err
	}
	result.Stages = append(result.Stages, s.stageBoxScores(ctx, rs, day, refs))
	return ctx.Err()
}

func (s *IngestionService) stageTeams(ctx context.Context, rs *runState) (stage StageResult) {
	stage = StageResult{Stage: "teams", Status: StageStatusSuccess}
	defer trackStage(&stage)()

	rows, err := fetchWithTimeout(ctx, s.cfg.FetchTimeout, func(ctx context.Context) ([]RawTeamRow, error) {
		return s.feed.FetchTeams(ctx)
	})
	if err != nil {
		return failStage(stage, fmt.Sprintf("fetch teams: %v", err))
	}
	stage.Fetched = len(rows)

	validated, failures := s.validator.ValidateTeamRows(ctx, rows)
	stage.Validated = len(validated)
	appendFailures(&stage, failures)

	for _, row := range validated {
		_, created, err := rs.resolver.EnsureTeam(ctx, row)
		if err != nil {
			stage.Errors = append(stage.Errors, fmt.Sprintf("team %q: %v", row.Name, err))
			continue
		}
		if created {
			stage.Loaded++
		} else {
			stage.Skipped++
		}
	}

	s.logStage(ctx, stage)
	return stage
}

func (s *IngestionService) stagePlayers(ctx context.Context, rs *runState) (stage StageResult) {
	stage = StageResult{Stage: "players", Status: StageStatusSuccess}
	defer trackStage(&stage)()

	rows, err := fetchWithTimeout(ctx, s.cfg.FetchTimeout, func(ctx context.Context) ([]RawPlayerRow, error) {
		return s.feed.FetchPlayers(ctx)
	})
	if err != nil {
		return failStage(stage, fmt.Sprintf("fetch players: %v", err))
	}
	stage.Fetched = len(rows)

	validated, failures := s.validator.ValidatePlayerRows(ctx, rows)
	stage.Validated = len(validated)
	appendFailures(&stage, failures)

	for _, row := range validated {
		_, created, err := rs.resolver.EnsurePlayer(ctx, row)
		if err != nil {
			stage.Errors = append(stage.Errors, fmt.Sprintf("player %q: %v", row.Name, err))
			continue
		}
		if created {
			stage.Loaded++
		} else {
			stage.Skipped++
		}
	}

	s.logStage(ctx, stage)
	return stage
}

func (s *IngestionService) stageGames(ctx context.Context, rs *runState, day time.Time) (stage StageResult, refs []string) {
	stage = StageResult{Stage: "games:" + day.Format("2006-01-02"), Status: StageStatusSuccess}
	defer trackStage(&stage)()

	rows, err := fetchWithTimeout(ctx, s.cfg.FetchTimeout, func(ctx context.Context) ([]RawGameRow, error) {
		return s.feed.FetchScoreboard(ctx, day)
	})
	if err != nil {
		return failStage(stage, fmt.Sprintf("fetch scoreboard: %v", err)), nil
	}
	stage.Fetched = len(rows)

	validated, failures := s.validator.ValidateGameRows(ctx, rows)
	stage.Validated = len(validated)
	appendFailures(&stage, failures)

	refs = make([]string, 0, len(validated))
	for _, row := range validated {
		refs = append(refs, row.Ref)
	}

	batch, tFailures, err := rs.transformer.BuildGameBatch(ctx, validated)
	appendFailures(&stage, tFailures)
	if err != nil {
		return failStage(stage, fmt.Sprintf("transform games: %v", err)), refs
	}
	stage.Skipped += len(validated) - len(batch) - len(tFailures)

	if len(batch) > 0 {
		inserted, err := s.games.BulkInsert(ctx, batch)
		if err != nil {
			return failStage(stage, fmt.Sprintf("load games: %v", err)), refs
		}
		stage.Loaded = inserted
		stage.Skipped += len(batch) - inserted
	}

	s.logStage(ctx, stage)
	return stage, refs
}

type boxScoreFetch struct {
	ref  string
	rows []RawStatRow
	err  error
}

func (s *IngestionService) stageBoxScores(ctx context.Context, rs *runState, day time.Time, refs []string) (stage StageResult) {
	stage = StageResult{Stage: "box_scores:" + day.Format("2006-01-02"), Status: StageStatusSuccess}
	defer trackStage(&stage)()

	if s.cfg.SkipBoxScores || len(refs) == 0 {
		stage.Status = StageStatusSkipped
		return stage
	}

	pool, err := ants.NewPool(s.cfg.FetchConcurrency)
	if err != nil {
		return failStage(stage, fmt.Sprintf("start worker pool: %v", err))
	}
	defer pool.Release()

	results := make(chan boxScoreFetch, len(refs))
	var wg sync.WaitGroup
	for _, ref := range refs {
		gameRef := ref
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			rows, err := fetchWithTimeout(ctx, s.cfg.FetchTimeout, func(ctx context.Context) ([]RawStatRow, error) {
				return s.feed.FetchBoxScore(ctx, gameRef)
			})
			results <- boxScoreFetch{ref: gameRef, rows: rows, err: err}
		})
		if submitErr != nil {
			wg.Done()
			results <- boxScoreFetch{ref: gameRef, err: submitErr}
		}
	}
	wg.Wait()
	close(results)

	fetches := make([]boxScoreFetch, 0, len(refs))
	for fetch := range results {
		fetches = append(fetches, fetch)
	}
	sort.Slice(fetches, func(i, j int) bool { return fetches[i].ref < fetches[j].ref })

	var allRows []RawStatRow
	for _, fetch := range fetches {
		if fetch.err != nil {
			stage.Errors = append(stage.Errors, fmt.Sprintf("box score %s: %v", fetch.ref, fetch.err))
			continue
		}
		allRows = append(allRows, fetch.rows...)
	}
	stage.Fetched = len(allRows)

	validated, failures := s.validator.ValidateStatRows(ctx, allRows)
	stage.Validated = len(validated)
	appendFailures(&stage, failures)

	batch, tFailures, err := rs.transformer.BuildStatBatch(ctx, validated)
	appendFailures(&stage, tFailures)
	if err != nil {
		return failStage(stage, fmt.Sprintf("transform stats: %v", err))
	}

	if len(batch) > 0 {
		inserted, err := s.stats.BulkInsert(ctx, batch)
		if err != nil {
			return failStage(stage, fmt.Sprintf("load stats: %v", err))
		}
		stage.Loaded = inserted
		stage.Skipped = len(batch) - inserted
	}

	s.logStage(ctx, stage)
	return stage
}

func (s *IngestionService) stageInjuries(ctx context.Context, rs *runState) (stage StageResult) {
	stage = StageResult{Stage: "injuries", Status: StageStatusSuccess}
	defer trackStage(&stage)()

	rows, err := fetchWithTimeout(ctx, s.cfg.FetchTimeout, func(ctx context.Context) ([]RawInjuryRow, error) {
		return s.injurySrc.FetchInjuries(ctx)
	})
	if err != nil {
		return failStage(stage, fmt.Sprintf("scrape injuries: %v", err))
	}
	stage.Fetched = len(rows)

	validated, failures := s.validator.ValidateInjuryRows(ctx, rows)
	appendFailures(&stage, failures)

	deduped := DedupInjuries(validated)
	stage.Validated = len(deduped)
	stage.Skipped = len(validated) - len(deduped)

	batch, tFailures, err := rs.transformer.BuildInjuryBatch(ctx, deduped)
	appendFailures(&stage, tFailures)
	if err != nil {
		return failStage(stage, fmt.Sprintf("transform injuries: %v", err))
	}

	if len(batch) > 0 {
		inserted, err := s.injuries.BulkInsert(ctx, batch)
		if err != nil {
			return failStage(stage, fmt.Sprintf("load injuries: %v", err))
		}
		stage.Loaded = inserted
		stage.Skipped += len(batch) - inserted
	}

	s.logStage(ctx, stage)
	return stage
}

func fetchWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) ([]T, error)) ([]T, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(fetchCtx)
}

func (s *IngestionService) logStage(ctx context.Context, stage StageResult) {
	s.logger.InfoContext(ctx, "stage finished",
		"stage", stage.Stage,
		"status", string(stage.Status),
		"fetched", stage.Fetched,
		"validated", stage.Validated,
		"loaded", stage.Loaded,
		"skipped", stage.Skipped,
		"errors", len(stage.Errors),
	)
}

func failStage(stage StageResult, msg string) StageResult {
	stage.Status = StageStatusFailed
	stage.Errors = append(stage.Errors, msg)
	return stage
}

func appendFailures(stage *StageResult, failures []RowFailure) {
	for _, failure := range failures {
		stage.Errors = append(stage.Errors, failure.String())
	}
}

func trackStage(stage *StageResult) func() {
	started := time.Now()
	return func() { stage.DurationMs = time.Since(started).Milliseconds() }
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
