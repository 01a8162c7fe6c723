package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/nba-ingest/internal/platform/logging"
)

type ingestionFixture struct {
	feed     *feedStub
	injuries *injurySourceStub
	players  *playerRepoStub
	teams    *teamRepoStub
	seasons  *seasonRepoStub
	games    *gameRepoStub
	stats    *statRepoStub
	reports  *injuryRepoStub
	schema   *schemaStub
	service  *IngestionService
}

func newIngestionFixture(cfg IngestionConfig) *ingestionFixture {
	f := &ingestionFixture{
		feed: &feedStub{
			scoreboard: map[string][]RawGameRow{},
			boxScores:  map[string][]RawStatRow{},
			boxErrs:    map[string]error{},
		},
		injuries: &injurySourceStub{},
		players:  newPlayerRepoStub(),
		teams:    newTeamRepoStub(),
		seasons:  newSeasonRepoStub(),
		games:    newGameRepoStub(),
		stats:    &statRepoStub{},
		reports:  &injuryRepoStub{},
		schema:   &schemaStub{},
	}
	f.service = NewIngestionService(
		f.feed, f.injuries,
		f.players, f.teams, f.seasons, f.games, f.stats, f.reports,
		f.schema, &idGenStub{}, logging.NewNop(), cfg,
	)
	return f
}

func stageByName(t *testing.T, result RunResult, name string) StageResult {
	t.Helper()
	for _, stage := range result.Stages {
		if stage.Stage == name {
			return stage
		}
	}
	t.Fatalf("stage %q not in result: %+v", name, result.Stages)
	return StageResult{}
}

func TestRunSetup_LoadsTeamsAndPlayers(t *testing.T) {
	t.Parallel()

	f := newIngestionFixture(IngestionConfig{})
	f.feed.teams = []RawTeamRow{
		{TeamRef: 1, Name: "Boston Celtics"},
		{TeamRef: 2, Name: "Denver Nuggets"},
		{TeamRef: 3}, // no name, dropped
	}
	f.feed.players = []RawPlayerRow{
		{PlayerRef: 10, Name: "Jayson Tatum", Height: "6-8"},
		{PlayerRef: 11, Name: "Nikola Jokic"},
	}

	result, err := f.service.RunSetup(context.Background())
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}

	teams := stageByName(t, result, "teams")
	if teams.Fetched != 3 || teams.Validated != 2 || teams.Loaded != 2 {
		t.Fatalf("teams stage = %+v", teams)
	}
	if len(teams.Errors) != 1 {
		t.Fatalf("teams errors = %v, want the dropped row", teams.Errors)
	}

	players := stageByName(t, result, "players")
	if players.Loaded != 2 {
		t.Fatalf("players stage = %+v", players)
	}
	if len(f.players.inserted) != 2 {
		t.Fatalf("players inserted = %d, want 2", len(f.players.inserted))
	}

	// A second setup run finds everything in place and writes nothing.
	rerun, err := f.service.RunSetup(context.Background())
	if err != nil {
		t.Fatalf("second RunSetup: %v", err)
	}
	teams = stageByName(t, rerun, "teams")
	if teams.Loaded != 0 || teams.Skipped != 2 {
		t.Fatalf("rerun teams stage = %+v", teams)
	}
	if result.TotalLoaded() != 4 || rerun.TotalLoaded() != 0 {
		t.Fatalf("loaded = %d then %d, want 4 then 0", result.TotalLoaded(), rerun.TotalLoaded())
	}
}

func TestRunDate_PartialBoxScoreFailure(t *testing.T) {
	t.Parallel()

	f := newIngestionFixture(IngestionConfig{FetchConcurrency: 2})
	f.players.byName["Jayson Tatum"] = playerFixture("p-tatum", "Jayson Tatum")
	f.players.byName["Nikola Jokic"] = playerFixture("p-jokic", "Nikola Jokic")

	day := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	f.feed.scoreboard["2024-01-15"] = []RawGameRow{
		{GameRef: "0022300555", GameDate: "2024-01-15", HomeTeamRef: 1, AwayTeamRef: 2},
		{GameRef: "0022300556", GameDate: "2024-01-15", HomeTeamRef: 3, AwayTeamRef: 4},
	}
	f.feed.boxScores["0022300555"] = []RawStatRow{
		{GameRef: "0022300555", PlayerName: "Jayson Tatum", Points: 25, Minutes: "35:30"},
		{GameRef: "0022300555", PlayerName: "Nikola Jokic", Points: 30},
	}
	f.feed.boxErrs["0022300556"] = fmt.Errorf("upstream timeout")

	result, err := f.service.RunDate(context.Background(), day)
	if err != nil {
		t.Fatalf("RunDate: %v", err)
	}

	games := stageByName(t, result, "games:2024-01-15")
	if games.Loaded != 2 {
		t.Fatalf("games stage = %+v", games)
	}

	box := stageByName(t, result, "box_scores:2024-01-15")
	if box.Status != StageStatusSuccess {
		t.Fatalf("box score stage status = %q; one bad game must not fail the stage", box.Status)
	}
	if box.Loaded != 2 {
		t.Fatalf("box score stage loaded = %d, want the 2 rows from the healthy game", box.Loaded)
	}
	if len(box.Errors) != 1 || !strings.Contains(box.Errors[0], "box score 0022300556") {
		t.Fatalf("box score errors = %v", box.Errors)
	}
	if len(f.feed.boxCalls) != 2 {
		t.Fatalf("box score fetches = %d, want 2", len(f.feed.boxCalls))
	}
	if len(f.stats.inserted) != 2 {
		t.Fatalf("stats inserted = %d, want 2", len(f.stats.inserted))
	}

	runErrs := result.Errors()
	if len(runErrs) != 1 || !strings.HasPrefix(runErrs[0], "box_scores:2024-01-15:") {
		t.Fatalf("run errors = %v", runErrs)
	}
}

func TestRunDate_SkipBoxScores(t *testing.T) {
	t.Parallel()

	f := newIngestionFixture(IngestionConfig{})
	f.service.SkipBoxScores(true)

	day := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	f.feed.scoreboard["2024-01-15"] = []RawGameRow{
		{GameRef: "0022300555", GameDate: "2024-01-15"},
	}
	f.feed.boxScores["0022300555"] = []RawStatRow{
		{GameRef: "0022300555", PlayerName: "Jayson Tatum"},
	}

	result, err := f.service.RunDate(context.Background(), day)
	if err != nil {
		t.Fatalf("RunDate: %v", err)
	}

	box := stageByName(t, result, "box_scores:2024-01-15")
	if box.Status != StageStatusSkipped {
		t.Fatalf("box score stage status = %q, want skipped", box.Status)
	}
	if len(f.feed.boxCalls) != 0 {
		t.Fatalf("box score fetches = %d, want 0", len(f.feed.boxCalls))
	}
	if len(f.stats.inserted) != 0 {
		t.Fatalf("stats inserted = %d, want 0", len(f.stats.inserted))
	}
}

func TestRunDate_IngestsInjuries(t *testing.T) {
	t.Parallel()

	f := newIngestionFixture(IngestionConfig{})
	f.players.byName["Jayson Tatum"] = playerFixture("p-tatum", "Jayson Tatum")

	reported := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	f.injuries.rows = []RawInjuryRow{
		{PlayerName: "Jayson Tatum", Status: "Out", ReportedAt: reported, InjuryType: "Ankle"},
		{PlayerName: "Jayson Tatum", Status: "out", ReportedAt: reported},
		{PlayerName: "Somebody New", Status: "Doubtful", ReportedAt: reported},
	}

	day := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	result, err := f.service.RunDate(context.Background(), day)
	if err != nil {
		t.Fatalf("RunDate: %v", err)
	}

	stage := stageByName(t, result, "injuries")
	if stage.Fetched != 3 || stage.Validated != 2 || stage.Loaded != 2 {
		t.Fatalf("injuries stage = %+v", stage)
	}
	if stage.Skipped != 1 {
		t.Fatalf("skipped = %d, want the duplicate report", stage.Skipped)
	}
	if len(f.reports.inserted) != 2 {
		t.Fatalf("reports inserted = %d, want 2", len(f.reports.inserted))
	}
	if f.reports.inserted[0].PlayerID == nil {
		t.Fatal("resolved report lost its player id")
	}
	if f.reports.inserted[1].PlayerID != nil {
		t.Fatal("unknown player should persist with a null id")
	}
}

func TestRunDate_SchemaMissingIsFatal(t *testing.T) {
	t.Parallel()

	f := newIngestionFixture(IngestionConfig{})
	f.schema.err = fmt.Errorf("missing tables: games")

	_, err := f.service.RunDate(context.Background(), time.Now())
	if !errors.Is(err, ErrSchemaMissing) {
		t.Fatalf("err = %v, want ErrSchemaMissing", err)
	}
}

func TestRunDateRange_RejectsInvertedRange(t *testing.T) {
	t.Parallel()

	f := newIngestionFixture(IngestionConfig{})
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -3)

	_, err := f.service.RunDateRange(context.Background(), start, end)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestRunDateRange_WalksEveryDay(t *testing.T) {
	t.Parallel()

	f := newIngestionFixture(IngestionConfig{SkipBoxScores: true})
	f.feed.scoreboard["2024-01-15"] = []RawGameRow{
		{GameRef: "0022300555", GameDate: "2024-01-15"},
	}
	f.feed.scoreboard["2024-01-17"] = []RawGameRow{
		{GameRef: "0022300560", GameDate: "2024-01-17"},
	}

	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	result, err := f.service.RunDateRange(context.Background(), start, end)
	if err != nil {
		t.Fatalf("RunDateRange: %v", err)
	}

	// Three days, two stages each, plus the single injuries stage.
	if len(result.Stages) != 7 {
		t.Fatalf("stages = %d, want 7", len(result.Stages))
	}
	if got := stageByName(t, result, "games:2024-01-16"); got.Fetched != 0 {
		t.Fatalf("empty day fetched = %d, want 0", got.Fetched)
	}
	if len(f.games.inserted) != 2 {
		t.Fatalf("games inserted = %d, want 2", len(f.games.inserted))
	}

	injuries := stageByName(t, result, "injuries")
	if injuries.Status != StageStatusSuccess {
		t.Fatalf("injuries stage = %+v", injuries)
	}
}
