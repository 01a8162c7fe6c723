package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/nba-ingest/internal/domain/game"
	"github.com/riskibarqy/nba-ingest/internal/domain/injury"
	"github.com/riskibarqy/nba-ingest/internal/domain/player"
	"github.com/riskibarqy/nba-ingest/internal/domain/playerstat"
	"github.com/riskibarqy/nba-ingest/internal/domain/season"
	"github.com/riskibarqy/nba-ingest/internal/domain/team"
)

type idGenStub struct {
	mu   sync.Mutex
	next int
}

func (g *idGenStub) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%d", g.next), nil
}

func playerFixture(id, name string) player.Player {
	return player.Player{ID: id, Name: name}
}

type teamRepoStub struct {
	mu        sync.Mutex
	byName    map[string]team.Team
	hidden    map[string]bool
	inserted  []team.Team
	insertErr error
}

func newTeamRepoStub() *teamRepoStub {
	return &teamRepoStub{byName: map[string]team.Team{}, hidden: map[string]bool{}}
}

func (r *teamRepoStub) GetByName(_ context.Context, name string) (*team.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hidden[name] {
		r.hidden[name] = false
		return nil, nil
	}
	if found, ok := r.byName[name]; ok {
		return &found, nil
	}
	return nil, nil
}

func (r *teamRepoStub) NameIndex(context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.byName))
	for name, row := range r.byName {
		out[name] = row.ID
	}
	return out, nil
}

func (r *teamRepoStub) Insert(_ context.Context, t team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.byName[t.Name]; ok {
		return team.ErrDuplicateName
	}
	r.byName[t.Name] = t
	r.inserted = append(r.inserted, t)
	return nil
}

type playerRepoStub struct {
	mu        sync.Mutex
	byName    map[string]player.Player
	hidden    map[string]bool
	inserted  []player.Player
	insertErr error
}

func newPlayerRepoStub() *playerRepoStub {
	return &playerRepoStub{byName: map[string]player.Player{}, hidden: map[string]bool{}}
}

func (r *playerRepoStub) GetByName(_ context.Context, name string) (*player.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hidden[name] {
		r.hidden[name] = false
		return nil, nil
	}
	if found, ok := r.byName[name]; ok {
		return &found, nil
	}
	return nil, nil
}

func (r *playerRepoStub) NameIndex(context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.byName))
	for name, row := range r.byName {
		out[name] = row.ID
	}
	return out, nil
}

func (r *playerRepoStub) Insert(_ context.Context, p player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, ok := r.byName[p.Name]; ok {
		return player.ErrDuplicateName
	}
	r.byName[p.Name] = p
	r.inserted = append(r.inserted, p)
	return nil
}

type seasonRepoStub struct {
	mu     sync.Mutex
	byKey  map[string]season.Season
	stored []season.Season
}

func newSeasonRepoStub() *seasonRepoStub {
	return &seasonRepoStub{byKey: map[string]season.Season{}}
}

func seasonStubKey(yearStart int, seasonType season.Type) string {
	return fmt.Sprintf("%d:%s", yearStart, seasonType)
}

func (r *seasonRepoStub) GetByYearAndType(_ context.Context, yearStart int, seasonType season.Type) (*season.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if found, ok := r.byKey[seasonStubKey(yearStart, seasonType)]; ok {
		return &found, nil
	}
	return nil, nil
}

func (r *seasonRepoStub) Insert(_ context.Context, s season.Season) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := seasonStubKey(s.YearStart, s.Type)
	if _, ok := r.byKey[key]; ok {
		return season.ErrDuplicate
	}
	r.byKey[key] = s
	r.stored = append(r.stored, s)
	return nil
}

type gameRepoStub struct {
	mu       sync.Mutex
	refIndex map[string]game.Key
	inserted []game.Game
}

func newGameRepoStub() *gameRepoStub {
	return &gameRepoStub{refIndex: map[string]game.Key{}}
}

func (r *gameRepoStub) BulkInsert(_ context.Context, games []game.Game) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, g := range games {
		if _, ok := r.refIndex[g.ExternalRef]; ok {
			continue
		}
		r.refIndex[g.ExternalRef] = game.Key{ID: g.ID, GameDate: g.GameDate}
		r.inserted = append(r.inserted, g)
		count++
	}
	return count, nil
}

func (r *gameRepoStub) RefIndex(context.Context) (map[string]game.Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]game.Key, len(r.refIndex))
	for ref, key := range r.refIndex {
		out[ref] = key
	}
	return out, nil
}

func (r *gameRepoStub) ListByDateRange(_ context.Context, start, end time.Time) ([]game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []game.Game
	for _, g := range r.inserted {
		if !g.GameDate.Before(start) && g.GameDate.Before(end) {
			out = append(out, g)
		}
	}
	return out, nil
}

type statRepoStub struct {
	mu       sync.Mutex
	inserted []playerstat.Stat
	err      error
}

func (r *statRepoStub) BulkInsert(_ context.Context, stats []playerstat.Stat) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.inserted = append(r.inserted, stats...)
	return len(stats), nil
}

func (r *statRepoStub) ListByDateRange(_ context.Context, start, end time.Time) ([]playerstat.Stat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []playerstat.Stat
	for _, s := range r.inserted {
		if !s.GameDate.Before(start) && s.GameDate.Before(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

type injuryRepoStub struct {
	mu       sync.Mutex
	inserted []injury.Report
	err      error
}

func (r *injuryRepoStub) BulkInsert(_ context.Context, reports []injury.Report) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.inserted = append(r.inserted, reports...)
	return len(reports), nil
}

func (r *injuryRepoStub) ListByReportedRange(_ context.Context, start, end time.Time) ([]injury.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []injury.Report
	for _, rep := range r.inserted {
		if !rep.ReportedAt.Before(start) && rep.ReportedAt.Before(end) {
			out = append(out, rep)
		}
	}
	return out, nil
}

type schemaStub struct {
	err error
}

func (s *schemaStub) CheckSchema(context.Context) error {
	return s.err
}

type feedStub struct {
	mu         sync.Mutex
	teams      []RawTeamRow
	players    []RawPlayerRow
	scoreboard map[string][]RawGameRow
	boxScores  map[string][]RawStatRow
	boxErrs    map[string]error
	boxCalls   []string
}

func (f *feedStub) FetchTeams(context.Context) ([]RawTeamRow, error) {
	return f.teams, nil
}

func (f *feedStub) FetchPlayers(context.Context) ([]RawPlayerRow, error) {
	return f.players, nil
}

func (f *feedStub) FetchScoreboard(_ context.Context, day time.Time) ([]RawGameRow, error) {
	return f.scoreboard[day.Format("2006-01-02")], nil
}

func (f *feedStub) FetchBoxScore(_ context.Context, gameRef string) ([]RawStatRow, error) {
	f.mu.Lock()
	f.boxCalls = append(f.boxCalls, gameRef)
	f.mu.Unlock()
	if err, ok := f.boxErrs[gameRef]; ok {
		return nil, err
	}
	return f.boxScores[gameRef], nil
}

func (f *feedStub) FetchPlayerGameLog(context.Context, int64, string) ([]RawStatRow, error) {
	return nil, nil
}

type injurySourceStub struct {
	rows []RawInjuryRow
	err  error
}

func (s *injurySourceStub) FetchInjuries(context.Context) ([]RawInjuryRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}
