package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/nba-ingest/internal/domain/game"
	"github.com/riskibarqy/nba-ingest/internal/domain/player"
	"github.com/riskibarqy/nba-ingest/internal/domain/season"
	"github.com/riskibarqy/nba-ingest/internal/domain/team"
	"github.com/riskibarqy/nba-ingest/internal/platform/id"
	"github.com/riskibarqy/nba-ingest/internal/platform/logging"
)

type seasonKey struct {
	yearStart  int
	seasonType season.Type
}

// IdentityResolver maps external identifiers and free-text names onto
// canonical identities, creating them when absent. All caches are
// scoped to one ingestion run and never persisted.
type IdentityResolver struct {
	players player.Repository
	teams   team.Repository
	seasons season.Repository
	games   game.Repository
	idGen   id.Generator
	logger  *logging.Logger

	mu sync.Mutex

	// External numeric id to name aliases learned from feed rows during
	// this run. The store keys identities by name, not by feed id.
	teamNameByRef   map[int64]string
	playerNameByRef map[int64]string

	teamIDByName   map[string]string
	playerIDByName map[string]string
	teamsLoaded    bool
	playersLoaded  bool

	seasonIDByKey map[seasonKey]string
	gameKeyByRef  map[string]game.Key
	gamesLoaded   bool
}

func NewIdentityResolver(
	players player.Repository,
	teams team.Repository,
	seasons season.Repository,
	games game.Repository,
	idGen id.Generator,
	logger *logging.Logger,
) *IdentityResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &IdentityResolver{
		players:         players,
		teams:           teams,
		seasons:         seasons,
		games:           games,
		idGen:           idGen,
		logger:          logger,
		teamNameByRef:   make(map[int64]string),
		playerNameByRef: make(map[int64]string),
		teamIDByName:    make(map[string]string),
		playerIDByName:  make(map[string]string),
		seasonIDByKey:   make(map[seasonKey]string),
		gameKeyByRef:    make(map[string]game.Key),
	}
}

// RegisterTeamAlias records a feed id to name alias seen this run.
func (r *IdentityResolver) RegisterTeamAlias(ref int64, name string) {
	if ref == 0 || strings.TrimSpace(name) == "" {
		return
	}
	r.mu.Lock()
	r.teamNameByRef[ref] = strings.TrimSpace(name)
	r.mu.Unlock()
}

func (r *IdentityResolver) RegisterPlayerAlias(ref int64, name string) {
	if ref == 0 || strings.TrimSpace(name) == "" {
		return
	}
	r.mu.Lock()
	r.playerNameByRef[ref] = strings.TrimSpace(name)
	r.mu.Unlock()
}

// EnsureTeam returns the canonical id for a validated team row,
// creating the identity when no exact name match exists. The second
// return reports whether a new row was written.
func (r *IdentityResolver) EnsureTeam(ctx context.Context, v ValidatedTeam) (string, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "resolver.EnsureTeam")
	defer span.End()

	r.RegisterTeamAlias(v.Ref, v.Name)

	norm := normalizeName(v.Name)
	r.mu.Lock()
	if cached, ok := r.teamIDByName[norm]; ok {
		r.mu.Unlock()
		return cached, false, nil
	}
	r.mu.Unlock()

	existing, err := r.teams.GetByName(ctx, v.Name)
	if err != nil {
		return "", false, fmt.Errorf("get team by name: %w", err)
	}
	if existing != nil {
		r.cacheTeam(norm, existing.ID)
		return existing.ID, false, nil
	}

	newID, err := r.idGen.NewID()
	if err != nil {
		return "", false, err
	}
	candidate := team.Team{ID: newID, Name: v.Name, City: v.City, Abbreviation: v.Abbreviation}
	if err := candidate.Validate(); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := r.teams.Insert(ctx, candidate); err != nil {
		if errors.Is(err, team.ErrDuplicateName) {
			return r.refetchTeam(ctx, v.Name, norm)
		}
		return "", false, fmt.Errorf("insert team: %w", err)
	}

	r.cacheTeam(norm, newID)
	return newID, true, nil
}

func (r *IdentityResolver) refetchTeam(ctx context.Context, name, norm string) (string, bool, error) {
	existing, err := r.teams.GetByName(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("refetch team after duplicate insert: %w", err)
	}
	if existing == nil {
		return "", false, fmt.Errorf("team %q vanished after duplicate insert", name)
	}
	r.cacheTeam(norm, existing.ID)
	return existing.ID, false, nil
}

// EnsurePlayer mirrors EnsureTeam for players.
func (r *IdentityResolver) EnsurePlayer(ctx context.Context, v ValidatedPlayer) (string, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "resolver.EnsurePlayer")
	defer span.End()

	r.RegisterPlayerAlias(v.Ref, v.Name)

	norm := normalizeName(v.Name)
	r.mu.Lock()
	if cached, ok := r.playerIDByName[norm]; ok {
		r.mu.Unlock()
		return cached, false, nil
	}
	r.mu.Unlock()

	existing, err := r.players.GetByName(ctx, v.Name)
	if err != nil {
		return "", false, fmt.Errorf("get player by name: %w", err)
	}
	if existing != nil {
		r.cachePlayer(norm, existing.ID)
		return existing.ID, false, nil
	}

	newID, err := r.idGen.NewID()
	if err != nil {
		return "", false, err
	}
	candidate := player.Player{
		ID:           newID,
		Name:         v.Name,
		Position:     v.Position,
		HeightMeters: v.HeightMeters,
		WeightPounds: v.WeightPounds,
		RookieSeason: v.RookieSeason,
	}
	if err := candidate.Validate(); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := r.players.Insert(ctx, candidate); err != nil {
		if errors.Is(err, player.ErrDuplicateName) {
			return r.refetchPlayer(ctx, v.Name, norm)
		}
		return "", false, fmt.Errorf("insert player: %w", err)
	}

	r.cachePlayer(norm, newID)
	return newID, true, nil
}

func (r *IdentityResolver) refetchPlayer(ctx context.Context, name, norm string) (string, bool, error) {
	existing, err := r.players.GetByName(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("refetch player after duplicate insert: %w", err)
	}
	if existing == nil {
		return "", false, fmt.Errorf("player %q vanished after duplicate insert", name)
	}
	r.cachePlayer(norm, existing.ID)
	return existing.ID, false, nil
}

// EnsureSeason returns the canonical season for (start year, type),
// creating it on the first game that needs it.
func (r *IdentityResolver) EnsureSeason(ctx context.Context, yearStart int, seasonType season.Type) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "resolver.EnsureSeason")
	defer span.End()

	key := seasonKey{yearStart: yearStart, seasonType: seasonType}
	r.mu.Lock()
	if cached, ok := r.seasonIDByKey[key]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	existing, err := r.seasons.GetByYearAndType(ctx, yearStart, seasonType)
	if err != nil {
		return "", fmt.Errorf("get season: %w", err)
	}
	if existing != nil {
		r.cacheSeason(key, existing.ID)
		return existing.ID, nil
	}

	newID, err := r.idGen.NewID()
	if err != nil {
		return "", err
	}
	candidate := season.New(newID, yearStart, seasonType)
	if err := candidate.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := r.seasons.Insert(ctx, candidate); err != nil {
		if errors.Is(err, season.ErrDuplicate) {
			refetched, err := r.seasons.GetByYearAndType(ctx, yearStart, seasonType)
			if err != nil || refetched == nil {
				return "", fmt.Errorf("refetch season after duplicate insert: %w", err)
			}
			r.cacheSeason(key, refetched.ID)
			return refetched.ID, nil
		}
		return "", fmt.Errorf("insert season: %w", err)
	}

	r.cacheSeason(key, newID)
	return newID, nil
}

// ResolveTeamRef maps a feed team id to a canonical id via the alias
// learned this run. Returns nil when the alias or the identity is
// unknown; callers persist a null reference instead of dropping.
func (r *IdentityResolver) ResolveTeamRef(ctx context.Context, ref int64) (*string, error) {
	if ref == 0 {
		return nil, nil
	}
	r.mu.Lock()
	name, ok := r.teamNameByRef[ref]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return r.lookupTeamID(ctx, name)
}

func (r *IdentityResolver) ResolvePlayerRef(ctx context.Context, ref int64) (*string, error) {
	if ref == 0 {
		return nil, nil
	}
	r.mu.Lock()
	name, ok := r.playerNameByRef[ref]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return r.lookupPlayerID(ctx, name)
}

func (r *IdentityResolver) lookupTeamID(ctx context.Context, name string) (*string, error) {
	if err := r.loadTeamIndex(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if found, ok := r.teamIDByName[normalizeName(name)]; ok {
		return &found, nil
	}
	return nil, nil
}

func (r *IdentityResolver) lookupPlayerID(ctx context.Context, name string) (*string, error) {
	if err := r.loadPlayerIndex(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if found, ok := r.playerIDByName[normalizeName(name)]; ok {
		return &found, nil
	}
	return nil, nil
}

// MatchPlayerByName resolves a free-text name the way name-only sources
// require: exact normalized match first, then a case-insensitive
// substring pass over every known name, first match winning. The
// substring pass is a best-effort heuristic and can pick the wrong
// player when one name nests inside another.
func (r *IdentityResolver) MatchPlayerByName(ctx context.Context, freeText string) (*string, error) {
	if err := r.loadPlayerIndex(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return matchByName(freeText, r.playerIDByName), nil
}

func (r *IdentityResolver) MatchTeamByName(ctx context.Context, freeText string) (*string, error) {
	if err := r.loadTeamIndex(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return matchByName(freeText, r.teamIDByName), nil
}

func matchByName(freeText string, index map[string]string) *string {
	norm := normalizeName(freeText)
	if norm == "" {
		return nil
	}
	if found, ok := index[norm]; ok {
		return &found
	}

	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.Contains(name, norm) || strings.Contains(norm, name) {
			found := index[name]
			return &found
		}
	}
	return nil
}

// RegisterGame records a game created this run so later stages can
// reference it without a store round trip.
func (r *IdentityResolver) RegisterGame(ref string, key game.Key) {
	if ref == "" || key.ID == "" {
		return
	}
	r.mu.Lock()
	r.gameKeyByRef[ref] = key
	r.mu.Unlock()
}

// ResolveGameRef returns the canonical (id, event time) key for an
// external game ref, or nil when the parent game is unknown.
func (r *IdentityResolver) ResolveGameRef(ctx context.Context, ref string) (*game.Key, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, nil
	}

	r.mu.Lock()
	if key, ok := r.gameKeyByRef[ref]; ok {
		r.mu.Unlock()
		return &key, nil
	}
	loaded := r.gamesLoaded
	r.mu.Unlock()

	if !loaded {
		index, err := r.games.RefIndex(ctx)
		if err != nil {
			return nil, fmt.Errorf("load game ref index: %w", err)
		}
		r.mu.Lock()
		for indexRef, key := range index {
			if _, ok := r.gameKeyByRef[indexRef]; !ok {
				r.gameKeyByRef[indexRef] = key
			}
		}
		r.gamesLoaded = true
		key, ok := r.gameKeyByRef[ref]
		r.mu.Unlock()
		if ok {
			return &key, nil
		}
	}

	return nil, nil
}

func (r *IdentityResolver) loadTeamIndex(ctx context.Context) error {
	r.mu.Lock()
	if r.teamsLoaded {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	index, err := r.teams.NameIndex(ctx)
	if err != nil {
		return fmt.Errorf("load team name index: %w", err)
	}

	r.mu.Lock()
	for name, teamID := range index {
		norm := normalizeName(name)
		if _, ok := r.teamIDByName[norm]; !ok {
			r.teamIDByName[norm] = teamID
		}
	}
	r.teamsLoaded = true
	r.mu.Unlock()
	return nil
}

func (r *IdentityResolver) loadPlayerIndex(ctx context.Context) error {
	r.mu.Lock()
	if r.playersLoaded {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	index, err := r.players.NameIndex(ctx)
	if err != nil {
		return fmt.Errorf("load player name index: %w", err)
	}

	r.mu.Lock()
	for name, playerID := range index {
		norm := normalizeName(name)
		if _, ok := r.playerIDByName[norm]; !ok {
			r.playerIDByName[norm] = playerID
		}
	}
	r.playersLoaded = true
	r.mu.Unlock()
	return nil
}

func (r *IdentityResolver) cacheTeam(norm, teamID string) {
	r.mu.Lock()
	r.teamIDByName[norm] = teamID
	r.mu.Unlock()
}

func (r *IdentityResolver) cachePlayer(norm, playerID string) {
	r.mu.Lock()
	r.playerIDByName[norm] = playerID
	r.mu.Unlock()
}

func (r *IdentityResolver) cacheSeason(key seasonKey, seasonID string) {
	r.mu.Lock()
	r.seasonIDByKey[key] = seasonID
	r.mu.Unlock()
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
