package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/nba-ingest/internal/domain/game"
	"github.com/riskibarqy/nba-ingest/internal/domain/player"
	"github.com/riskibarqy/nba-ingest/internal/domain/season"
	"github.com/riskibarqy/nba-ingest/internal/domain/team"
	"github.com/riskibarqy/nba-ingest/internal/platform/logging"
)

type resolverFixture struct {
	players  *playerRepoStub
	teams    *teamRepoStub
	seasons  *seasonRepoStub
	games    *gameRepoStub
	resolver *IdentityResolver
}

func newResolverFixture() *resolverFixture {
	f := &resolverFixture{
		players: newPlayerRepoStub(),
		teams:   newTeamRepoStub(),
		seasons: newSeasonRepoStub(),
		games:   newGameRepoStub(),
	}
	f.resolver = NewIdentityResolver(f.players, f.teams, f.seasons, f.games, &idGenStub{}, logging.NewNop())
	return f
}

func TestEnsureTeam_CreatesThenReuses(t *testing.T) {
	t.Parallel()

	f := newResolverFixture()
	ctx := context.Background()
	row := ValidatedTeam{Ref: 1610612738, Name: "Boston Celtics"}

	id1, created, err := f.resolver.EnsureTeam(ctx, row)
	if err != nil {
		t.Fatalf("first EnsureTeam: %v", err)
	}
	if !created {
		t.Fatal("first EnsureTeam did not create")
	}

	id2, created, err := f.resolver.EnsureTeam(ctx, row)
	if err != nil {
		t.Fatalf("second EnsureTeam: %v", err)
	}
	if created {
		t.Fatal("second EnsureTeam created a duplicate")
	}
	if id1 != id2 {
		t.Fatalf("ids differ: %q vs %q", id1, id2)
	}
	if len(f.teams.inserted) != 1 {
		t.Fatalf("inserts = %d, want 1", len(f.teams.inserted))
	}
}

func TestEnsureTeam_DuplicateInsertRefetches(t *testing.T) {
	t.Parallel()

	f := newResolverFixture()
	// The row exists but the first lookup misses it, as when another
	// writer lands between the miss and the insert.
	f.teams.byName["Boston Celtics"] = team.Team{ID: "team-existing", Name: "Boston Celtics"}
	f.teams.hidden["Boston Celtics"] = true

	id, created, err := f.resolver.EnsureTeam(context.Background(), ValidatedTeam{Ref: 1, Name: "Boston Celtics"})
	if err != nil {
		t.Fatalf("EnsureTeam: %v", err)
	}
	if created {
		t.Fatal("duplicate insert reported as created")
	}
	if id != "team-existing" {
		t.Fatalf("id = %q, want team-existing", id)
	}
}

func TestEnsurePlayer_CreatesThenReuses(t *testing.T) {
	t.Parallel()

	f := newResolverFixture()
	ctx := context.Background()
	row := ValidatedPlayer{Ref: 1628369, Name: "Jayson Tatum"}

	id1, created, err := f.resolver.EnsurePlayer(ctx, row)
	if err != nil {
		t.Fatalf("first EnsurePlayer: %v", err)
	}
	if !created {
		t.Fatal("first EnsurePlayer did not create")
	}

	id2, created, err := f.resolver.EnsurePlayer(ctx, row)
	if err != nil {
		t.Fatalf("second EnsurePlayer: %v", err)
	}
	if created || id1 != id2 {
		t.Fatalf("second EnsurePlayer = (%q, %v), want (%q, false)", id2, created, id1)
	}
}

func TestEnsurePlayer_DuplicateInsertRefetches(t *testing.T) {
	t.Parallel()

	f := newResolverFixture()
	f.players.byName["Jayson Tatum"] = player.Player{ID: "player-existing", Name: "Jayson Tatum"}
	f.players.hidden["Jayson Tatum"] = true

	id, created, err := f.resolver.EnsurePlayer(context.Background(), ValidatedPlayer{Ref: 1, Name: "Jayson Tatum"})
	if err != nil {
		t.Fatalf("EnsurePlayer: %v", err)
	}
	if created || id != "player-existing" {
		t.Fatalf("got (%q, %v), want (player-existing, false)", id, created)
	}
}

func TestEnsureSeason_ReusesWithinRun(t *testing.T) {
	t.Parallel()

	f := newResolverFixture()
	ctx := context.Background()

	id1, err := f.resolver.EnsureSeason(ctx, 2023, season.TypeRegular)
	if err != nil {
		t.Fatalf("first EnsureSeason: %v", err)
	}
	id2, err := f.resolver.EnsureSeason(ctx, 2023, season.TypeRegular)
	if err != nil {
		t.Fatalf("second EnsureSeason: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("ids differ: %q vs %q", id1, id2)
	}
	id3, err := f.resolver.EnsureSeason(ctx, 2023, season.TypePlayoffs)
	if err != nil {
		t.Fatalf("playoff EnsureSeason: %v", err)
	}
	if id3 == id1 {
		t.Fatal("playoff season shares id with regular season")
	}
	if len(f.seasons.stored) != 2 {
		t.Fatalf("stored seasons = %d, want 2", len(f.seasons.stored))
	}
}

func TestResolveTeamRef(t *testing.T) {
	t.Parallel()

	f := newResolverFixture()
	f.teams.byName["Boston Celtics"] = team.Team{ID: "team-1", Name: "Boston Celtics"}
	ctx := context.Background()

	f.resolver.RegisterTeamAlias(1610612738, "Boston Celtics")

	got, err := f.resolver.ResolveTeamRef(ctx, 1610612738)
	if err != nil {
		t.Fatalf("ResolveTeamRef: %v", err)
	}
	if got == nil || *got != "team-1" {
		t.Fatalf("resolved = %v, want team-1", got)
	}

	unknown, err := f.resolver.ResolveTeamRef(ctx, 99)
	if err != nil {
		t.Fatalf("ResolveTeamRef unknown: %v", err)
	}
	if unknown != nil {
		t.Fatalf("unknown ref resolved to %q", *unknown)
	}

	zero, err := f.resolver.ResolveTeamRef(ctx, 0)
	if err != nil || zero != nil {
		t.Fatalf("zero ref = (%v, %v), want (nil, nil)", zero, err)
	}
}

func TestMatchPlayerByName(t *testing.T) {
	t.Parallel()

	f := newResolverFixture()
	f.players.byName["Jayson Tatum"] = player.Player{ID: "p-tatum", Name: "Jayson Tatum"}
	f.players.byName["Jaylen Brown"] = player.Player{ID: "p-brown", Name: "Jaylen Brown"}
	ctx := context.Background()

	exact, err := f.resolver.MatchPlayerByName(ctx, "  JAYSON   tatum ")
	if err != nil {
		t.Fatalf("exact match: %v", err)
	}
	if exact == nil || *exact != "p-tatum" {
		t.Fatalf("exact match = %v, want p-tatum", exact)
	}

	partial, err := f.resolver.MatchPlayerByName(ctx, "Tatum")
	if err != nil {
		t.Fatalf("partial match: %v", err)
	}
	if partial == nil || *partial != "p-tatum" {
		t.Fatalf("partial match = %v, want p-tatum", partial)
	}

	longer, err := f.resolver.MatchPlayerByName(ctx, "Jaylen Brown Jr.")
	if err != nil {
		t.Fatalf("longer match: %v", err)
	}
	if longer == nil || *longer != "p-brown" {
		t.Fatalf("longer match = %v, want p-brown", longer)
	}

	miss, err := f.resolver.MatchPlayerByName(ctx, "Victor Wembanyama")
	if err != nil {
		t.Fatalf("miss: %v", err)
	}
	if miss != nil {
		t.Fatalf("miss resolved to %q", *miss)
	}

	empty, err := f.resolver.MatchPlayerByName(ctx, "   ")
	if err != nil || empty != nil {
		t.Fatalf("blank name = (%v, %v), want (nil, nil)", empty, err)
	}
}

func TestResolveGameRef(t *testing.T) {
	t.Parallel()

	f := newResolverFixture()
	stored := game.Key{ID: "game-stored", GameDate: time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)}
	f.games.refIndex["0022300500"] = stored

	runKey := game.Key{ID: "game-run", GameDate: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)}
	f.resolver.RegisterGame("0022300555", runKey)

	ctx := context.Background()

	fromRun, err := f.resolver.ResolveGameRef(ctx, "0022300555")
	if err != nil {
		t.Fatalf("run-registered ref: %v", err)
	}
	if fromRun == nil || fromRun.ID != "game-run" {
		t.Fatalf("run-registered ref = %v, want game-run", fromRun)
	}

	fromStore, err := f.resolver.ResolveGameRef(ctx, "0022300500")
	if err != nil {
		t.Fatalf("stored ref: %v", err)
	}
	if fromStore == nil || fromStore.ID != "game-stored" {
		t.Fatalf("stored ref = %v, want game-stored", fromStore)
	}

	missing, err := f.resolver.ResolveGameRef(ctx, "0022399999")
	if err != nil {
		t.Fatalf("missing ref: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing ref resolved to %v", missing)
	}
}
