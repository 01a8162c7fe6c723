package nbastats

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/nba-ingest/internal/platform/logging"
	"github.com/riskibarqy/nba-ingest/internal/platform/resilience"
	"github.com/riskibarqy/nba-ingest/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "https://stats.nba.com"
	defaultLeague  = "00"

	// The feed rejects requests that do not look like they came from
	// the league's own frontend.
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

var errStatsFeedTransient = crerr.New("stats feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client speaks the feed's tabular envelope: every endpoint returns
// named result sets of headers plus positional rows.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

type envelope struct {
	Resource   string      `json:"resource"`
	ResultSets []resultSet `json:"resultSets"`
}

type resultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

func (c *Client) FetchTeams(ctx context.Context) ([]usecase.RawTeamRow, error) {
	query := map[string]string{"LeagueID": defaultLeague}
	var env envelope
	if err := c.doJSON(ctx, "/stats/franchisehistory", query, &env); err != nil {
		return nil, fmt.Errorf("fetch franchise history: %w", err)
	}

	set, err := findResultSet(env, "FranchiseHistory")
	if err != nil {
		return nil, err
	}
	cols := indexColumns(set.Headers)

	// Franchise history repeats a team id for every relocation era;
	// the first row is the current incarnation.
	seen := make(map[int64]struct{}, len(set.RowSet))
	out := make([]usecase.RawTeamRow, 0, len(set.RowSet))
	for _, row := range set.RowSet {
		teamRef := cellInt64(row, cols, "TEAM_ID")
		if teamRef == 0 {
			continue
		}
		if _, ok := seen[teamRef]; ok {
			continue
		}
		seen[teamRef] = struct{}{}

		out = append(out, usecase.RawTeamRow{
			TeamRef: teamRef,
			Name:    cellString(row, cols, "TEAM_NAME"),
			City:    cellString(row, cols, "TEAM_CITY"),
			Extras: map[string]any{
				"start_year": cellString(row, cols, "START_YEAR"),
				"end_year":   cellString(row, cols, "END_YEAR"),
				"wins":       cellFloat64(row, cols, "WINS"),
				"losses":     cellFloat64(row, cols, "LOSSES"),
			},
		})
	}
	return out, nil
}

func (c *Client) FetchPlayers(ctx context.Context) ([]usecase.RawPlayerRow, error) {
	query := map[string]string{
		"LeagueID":   defaultLeague,
		"Season":     currentSeasonLabel(time.Now().UTC()),
		"Historical": "1",
	}
	var env envelope
	if err := c.doJSON(ctx, "/stats/playerindex", query, &env); err != nil {
		return nil, fmt.Errorf("fetch player index: %w", err)
	}

	set, err := findResultSet(env, "PlayerIndex")
	if err != nil {
		return nil, err
	}
	cols := indexColumns(set.Headers)

	out := make([]usecase.RawPlayerRow, 0, len(set.RowSet))
	for _, row := range set.RowSet {
		playerRef := cellInt64(row, cols, "PERSON_ID")
		if playerRef == 0 {
			continue
		}
		first := cellString(row, cols, "PLAYER_FIRST_NAME")
		last := cellString(row, cols, "PLAYER_LAST_NAME")

		out = append(out, usecase.RawPlayerRow{
			PlayerRef:    playerRef,
			Name:         strings.TrimSpace(first + " " + last),
			Position:     cellString(row, cols, "POSITION"),
			Height:       cellString(row, cols, "HEIGHT"),
			Weight:       cellString(row, cols, "WEIGHT"),
			RookieSeason: cellString(row, cols, "FROM_YEAR"),
			Extras: map[string]any{
				"slug":    cellString(row, cols, "PLAYER_SLUG"),
				"team_id": cellInt64(row, cols, "TEAM_ID"),
				"country": cellString(row, cols, "COUNTRY"),
				"to_year": cellString(row, cols, "TO_YEAR"),
			},
		})
	}
	return out, nil
}

func (c *Client) FetchScoreboard(ctx context.Context, day time.Time) ([]usecase.RawGameRow, error) {
	query := map[string]string{
		"GameDate":  day.Format("01/02/2006"),
		"LeagueID":  defaultLeague,
		"DayOffset": "0",
	}
	var env envelope
	if err := c.doJSON(ctx, "/stats/scoreboardv2", query, &env); err != nil {
		return nil, fmt.Errorf("fetch scoreboard for %s: %w", day.Format("2006-01-02"), err)
	}

	set, err := findResultSet(env, "GameHeader")
	if err != nil {
		return nil, err
	}
	cols := indexColumns(set.Headers)

	out := make([]usecase.RawGameRow, 0, len(set.RowSet))
	for _, row := range set.RowSet {
		out = append(out, usecase.RawGameRow{
			GameRef:     cellString(row, cols, "GAME_ID"),
			GameDate:    cellString(row, cols, "GAME_DATE_EST"),
			HomeTeamRef: cellInt64(row, cols, "HOME_TEAM_ID"),
			AwayTeamRef: cellInt64(row, cols, "VISITOR_TEAM_ID"),
			SeasonYear:  cellString(row, cols, "SEASON"),
			Status:      cellString(row, cols, "GAME_STATUS_TEXT"),
			Extras: map[string]any{
				"arena": cellString(row, cols, "ARENA_NAME"),
			},
		})
	}
	return out, nil
}

func (c *Client) FetchBoxScore(ctx context.Context, gameRef string) ([]usecase.RawStatRow, error) {
	query := map[string]string{
		"GameID":      gameRef,
		"StartPeriod": "0",
		"EndPeriod":   "14",
		"StartRange":  "0",
		"EndRange":    "0",
		"RangeType":   "0",
	}
	var env envelope
	if err := c.doJSON(ctx, "/stats/boxscoretraditionalv2", query, &env); err != nil {
		return nil, fmt.Errorf("fetch box score %s: %w", gameRef, err)
	}

	set, err := findResultSet(env, "PlayerStats")
	if err != nil {
		return nil, err
	}
	return mapStatRows(set, gameRef), nil
}

// FetchPlayerGameLog returns one stat row per game for a single player
// across a season. Rows carry the player ref only; the feed does not
// repeat the name.
func (c *Client) FetchPlayerGameLog(ctx context.Context, playerRef int64, seasonLabel string) ([]usecase.RawStatRow, error) {
	query := map[string]string{
		"PlayerID":   strconv.FormatInt(playerRef, 10),
		"Season":     seasonLabel,
		"SeasonType": "Regular Season",
		"LeagueID":   defaultLeague,
	}
	var env envelope
	if err := c.doJSON(ctx, "/stats/playergamelog", query, &env); err != nil {
		return nil, fmt.Errorf("fetch game log player=%d season=%s: %w", playerRef, seasonLabel, err)
	}

	set, err := findResultSet(env, "PlayerGameLog")
	if err != nil {
		return nil, err
	}
	cols := indexColumns(set.Headers)

	out := make([]usecase.RawStatRow, 0, len(set.RowSet))
	for _, row := range set.RowSet {
		stat := statRowFromCells(row, cols)
		stat.GameRef = cellString(row, cols, "GAME_ID")
		stat.GameDate = cellString(row, cols, "GAME_DATE")
		stat.PlayerRef = playerRef
		out = append(out, stat)
	}
	return out, nil
}

func mapStatRows(set *resultSet, gameRef string) []usecase.RawStatRow {
	cols := indexColumns(set.Headers)
	out := make([]usecase.RawStatRow, 0, len(set.RowSet))
	for _, row := range set.RowSet {
		stat := statRowFromCells(row, cols)
		stat.GameRef = gameRef
		stat.PlayerRef = cellInt64(row, cols, "PLAYER_ID")
		stat.PlayerName = cellString(row, cols, "PLAYER_NAME")
		stat.TeamRef = cellInt64(row, cols, "TEAM_ID")
		stat.TeamName = cellString(row, cols, "TEAM_CITY")
		stat.StartPosition = cellString(row, cols, "START_POSITION")
		stat.Extras = map[string]any{
			"team_abbreviation": cellString(row, cols, "TEAM_ABBREVIATION"),
			"comment":           cellString(row, cols, "COMMENT"),
			"personal_fouls":    cellFloat64(row, cols, "PF"),
			"offensive_rebs":    cellFloat64(row, cols, "OREB"),
			"defensive_rebs":    cellFloat64(row, cols, "DREB"),
		}
		out = append(out, stat)
	}
	return out
}

func statRowFromCells(row []any, cols map[string]int) usecase.RawStatRow {
	return usecase.RawStatRow{
		Minutes:         cellString(row, cols, "MIN"),
		Points:          cellFloat64(row, cols, "PTS"),
		Rebounds:        cellFloat64(row, cols, "REB"),
		Assists:         cellFloat64(row, cols, "AST"),
		Steals:          cellFloat64(row, cols, "STL"),
		Blocks:          cellFloat64(row, cols, "BLK"),
		Turnovers:       cellFloat64(row, cols, "TO"),
		FieldGoalsMade:  cellFloat64(row, cols, "FGM"),
		FieldGoalsAtt:   cellFloat64(row, cols, "FGA"),
		ThreePointsMade: cellFloat64(row, cols, "FG3M"),
		ThreePointsAtt:  cellFloat64(row, cols, "FG3A"),
		FreeThrowsMade:  cellFloat64(row, cols, "FTM"),
		FreeThrowsAtt:   cellFloat64(row, cols, "FTA"),
		PlusMinus:       cellFloatPtr(row, cols, "PLUS_MINUS"),
	}
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "stats feed circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: stats feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errStatsFeedTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		setFeedHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errStatsFeedTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errStatsFeedTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: feed status=%d", errStatsFeedTransient, resp.StatusCode)
			} else {
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "stats feed request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func setFeedHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", "https://www.nba.com/")
	req.Header.Set("Origin", "https://www.nba.com")
	req.Header.Set("x-nba-stats-origin", "stats")
	req.Header.Set("x-nba-stats-token", "true")
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func findResultSet(env envelope, name string) (*resultSet, error) {
	for i := range env.ResultSets {
		if env.ResultSets[i].Name == name {
			return &env.ResultSets[i], nil
		}
	}
	return nil, fmt.Errorf("result set %q missing from feed payload", name)
}

func indexColumns(headers []string) map[string]int {
	cols := make(map[string]int, len(headers))
	for i, header := range headers {
		cols[strings.ToUpper(strings.TrimSpace(header))] = i
	}
	return cols
}

func cell(row []any, cols map[string]int, name string) any {
	idx, ok := cols[name]
	if !ok || idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func cellString(row []any, cols map[string]int, name string) string {
	switch v := cell(row, cols, name).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func cellFloat64(row []any, cols map[string]int, name string) float64 {
	switch v := cell(row, cols, name).(type) {
	case float64:
		return v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func cellFloatPtr(row []any, cols map[string]int, name string) *float64 {
	switch v := cell(row, cols, name).(type) {
	case float64:
		return &v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

func cellInt64(row []any, cols map[string]int, name string) int64 {
	switch v := cell(row, cols, name).(type) {
	case float64:
		return int64(v)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// currentSeasonLabel renders the feed's cross-year season form, rolling
// to the next label in October when a new season tips off.
func currentSeasonLabel(now time.Time) string {
	year := now.Year()
	if now.Month() < time.October {
		year--
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	if len(raw) > limit {
		raw = raw[:limit]
	}
	return string(raw)
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
