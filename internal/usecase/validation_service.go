package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/nba-ingest/internal/domain/injury"
	"github.com/riskibarqy/nba-ingest/internal/domain/season"
	"github.com/riskibarqy/nba-ingest/internal/platform/logging"
)

// eventTimeLayouts are the only textual date encodings sources may use.
var eventTimeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

const metersPerInch = 0.0254

// RowFailure records one dropped or degraded row. Batches never abort
// because of a single bad row.
type RowFailure struct {
	Kind  string
	Index int
	Err   error
}

func (f RowFailure) String() string {
	return fmt.Sprintf("%s row %d: %v", f.Kind, f.Index, f.Err)
}

// Validated rows carry parsed, range-checked values plus the external
// references the resolver needs.

type ValidatedTeam struct {
	Ref          int64
	Name         string
	City         *string
	Abbreviation *string
}

type ValidatedPlayer struct {
	Ref          int64
	Name         string
	Position     *string
	HeightMeters *float64
	WeightPounds *float64
	RookieSeason *int
}

type ValidatedGame struct {
	Ref         string
	Date        time.Time
	HomeTeamRef int64
	AwayTeamRef int64
	SeasonYear  int
	SeasonType  season.Type
	IsPlayoffs  bool
	Status      string
}

type ValidatedStat struct {
	GameRef    string
	GameDate   *time.Time
	PlayerRef  int64
	PlayerName string
	TeamRef    int64
	TeamName   string

	Minutes         *float64
	Points          int
	Rebounds        int
	Assists         int
	Steals          int
	Blocks          int
	Turnovers       int
	FieldGoalsMade  int
	FieldGoalsAtt   int
	ThreePointsMade int
	ThreePointsAtt  int
	FreeThrowsMade  int
	FreeThrowsAtt   int
	PlusMinus       *int
	UsageRate       *float64
	TrueShootingPct *float64
	Started         bool

	Extras map[string]any
}

type ValidatedInjury struct {
	PlayerName string
	TeamName   string
	ReportedAt time.Time
	Status     injury.Status
	InjuryType *string
	BodyArea   *string
	Diagnosis  *string
	SourceURL  *string
}

// ValidationService turns raw source rows into validated value objects,
// dropping malformed rows one at a time.
type ValidationService struct {
	validate *validator.Validate
	logger   *logging.Logger
}

func NewValidationService(logger *logging.Logger) *ValidationService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ValidationService{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

func (s *ValidationService) ValidateTeamRows(ctx context.Context, rows []RawTeamRow) ([]ValidatedTeam, []RowFailure) {
	out := make([]ValidatedTeam, 0, len(rows))
	var failures []RowFailure
	for i, row := range rows {
		if err := s.validate.Struct(row); err != nil {
			failures = append(failures, s.dropRow(ctx, "team", i, err))
			continue
		}
		out = append(out, ValidatedTeam{
			Ref:          row.TeamRef,
			Name:         strings.TrimSpace(row.Name),
			City:         optionalString(row.City),
			Abbreviation: optionalString(row.Abbreviation),
		})
	}
	return out, failures
}

func (s *ValidationService) ValidatePlayerRows(ctx context.Context, rows []RawPlayerRow) ([]ValidatedPlayer, []RowFailure) {
	out := make([]ValidatedPlayer, 0, len(rows))
	var failures []RowFailure
	for i, row := range rows {
		if err := s.validate.Struct(row); err != nil {
			failures = append(failures, s.dropRow(ctx, "player", i, err))
			continue
		}
		out = append(out, ValidatedPlayer{
			Ref:          row.PlayerRef,
			Name:         strings.TrimSpace(row.Name),
			Position:     optionalString(row.Position),
			HeightMeters: parseHeightMeters(row.Height),
			WeightPounds: parsePositiveNumber(row.Weight),
			RookieSeason: parseYear(row.RookieSeason),
		})
	}
	return out, failures
}

func (s *ValidationService) ValidateGameRows(ctx context.Context, rows []RawGameRow) ([]ValidatedGame, []RowFailure) {
	out := make([]ValidatedGame, 0, len(rows))
	var failures []RowFailure
	for i, row := range rows {
		if err := s.validate.Struct(row); err != nil {
			failures = append(failures, s.dropRow(ctx, "game", i, err))
			continue
		}
		date, err := parseEventTime(row.GameDate)
		if err != nil {
			failures = append(failures, s.dropRow(ctx, "game", i, err))
			continue
		}

		ref := strings.TrimSpace(row.GameRef)
		isPlayoffs := isPlayoffGameRef(ref)
		seasonType := season.TypeRegular
		if isPlayoffs {
			seasonType = season.TypePlayoffs
		}

		status := strings.TrimSpace(row.Status)
		if status == "" {
			status = "Scheduled"
		}

		out = append(out, ValidatedGame{
			Ref:         ref,
			Date:        date,
			HomeTeamRef: row.HomeTeamRef,
			AwayTeamRef: row.AwayTeamRef,
			SeasonYear:  seasonYearFor(row.SeasonYear, date),
			SeasonType:  seasonType,
			IsPlayoffs:  isPlayoffs,
			Status:      status,
		})
	}
	return out, failures
}

func (s *ValidationService) ValidateStatRows(ctx context.Context, rows []RawStatRow) ([]ValidatedStat, []RowFailure) {
	out := make([]ValidatedStat, 0, len(rows))
	var failures []RowFailure
	for i, row := range rows {
		if err := s.validate.Struct(row); err != nil {
			failures = append(failures, s.dropRow(ctx, "stat", i, err))
			continue
		}

		var gameDate *time.Time
		if strings.TrimSpace(row.GameDate) != "" {
			parsed, err := parseEventTime(row.GameDate)
			if err != nil {
				failures = append(failures, s.dropRow(ctx, "stat", i, err))
				continue
			}
			gameDate = &parsed
		}

		out = append(out, ValidatedStat{
			GameRef:         strings.TrimSpace(row.GameRef),
			GameDate:        gameDate,
			PlayerRef:       row.PlayerRef,
			PlayerName:      strings.TrimSpace(row.PlayerName),
			TeamRef:         row.TeamRef,
			TeamName:        strings.TrimSpace(row.TeamName),
			Minutes:         parseMinutes(row.Minutes),
			Points:          asCount(row.Points),
			Rebounds:        asCount(row.Rebounds),
			Assists:         asCount(row.Assists),
			Steals:          asCount(row.Steals),
			Blocks:          asCount(row.Blocks),
			Turnovers:       asCount(row.Turnovers),
			FieldGoalsMade:  asCount(row.FieldGoalsMade),
			FieldGoalsAtt:   asCount(row.FieldGoalsAtt),
			ThreePointsMade: asCount(row.ThreePointsMade),
			ThreePointsAtt:  asCount(row.ThreePointsAtt),
			FreeThrowsMade:  asCount(row.FreeThrowsMade),
			FreeThrowsAtt:   asCount(row.FreeThrowsAtt),
			PlusMinus:       floatPtrToIntPtr(row.PlusMinus),
			UsageRate:       row.UsageRate,
			TrueShootingPct: row.TrueShootingPct,
			Started:         strings.TrimSpace(row.StartPosition) != "",
			Extras:          row.Extras,
		})
	}
	return out, failures
}

func (s *ValidationService) ValidateInjuryRows(ctx context.Context, rows []RawInjuryRow) ([]ValidatedInjury, []RowFailure) {
	out := make([]ValidatedInjury, 0, len(rows))
	var failures []RowFailure
	for i, row := range rows {
		if err := s.validate.Struct(row); err != nil {
			failures = append(failures, s.dropRow(ctx, "injury", i, err))
			continue
		}
		out = append(out, ValidatedInjury{
			PlayerName: strings.TrimSpace(row.PlayerName),
			TeamName:   strings.TrimSpace(row.TeamName),
			ReportedAt: row.ReportedAt,
			Status:     injury.NormalizeStatus(row.Status),
			InjuryType: optionalString(row.InjuryType),
			BodyArea:   optionalString(row.BodyArea),
			Diagnosis:  optionalString(row.Diagnosis),
			SourceURL:  optionalString(row.SourceURL),
		})
	}
	return out, failures
}

// DedupInjuries keeps the first report per (player, status) pair within
// one scrape cycle, case-insensitively. Row order is preserved.
func DedupInjuries(rows []ValidatedInjury) []ValidatedInjury {
	seen := make(map[string]struct{}, len(rows))
	out := make([]ValidatedInjury, 0, len(rows))
	for _, row := range rows {
		key := strings.ToLower(row.PlayerName) + "\x00" + strings.ToLower(string(row.Status))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

func (s *ValidationService) dropRow(ctx context.Context, kind string, index int, err error) RowFailure {
	s.logger.WarnContext(ctx, "dropping malformed row", "kind", kind, "index", index, "error", err)
	return RowFailure{Kind: kind, Index: index, Err: err}
}

// parseMinutes accepts "MM:SS" or a plain numeric string and returns
// fractional minutes, or nil when the value cannot be read.
func parseMinutes(raw string) *float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if mm, ss, ok := strings.Cut(trimmed, ":"); ok {
		minutes, errM := strconv.ParseFloat(mm, 64)
		seconds, errS := strconv.ParseFloat(ss, 64)
		if errM != nil || errS != nil || minutes < 0 || seconds < 0 {
			return nil
		}
		value := minutes + seconds/60
		return &value
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || value < 0 {
		return nil
	}
	return &value
}

// parseHeightMeters accepts "F-I" feet-inches or "Ncm" and returns
// meters, or nil for anything else.
func parseHeightMeters(raw string) *float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if feet, inches, ok := strings.Cut(trimmed, "-"); ok {
		f, errF := strconv.ParseFloat(strings.TrimSpace(feet), 64)
		i, errI := strconv.ParseFloat(strings.TrimSpace(inches), 64)
		if errF != nil || errI != nil || f < 0 || i < 0 {
			return nil
		}
		value := (f*12 + i) * metersPerInch
		return &value
	}

	if cm, ok := strings.CutSuffix(strings.ToLower(trimmed), "cm"); ok {
		value, err := strconv.ParseFloat(strings.TrimSpace(cm), 64)
		if err != nil || value <= 0 {
			return nil
		}
		meters := value / 100
		return &meters
	}

	return nil
}

func parsePositiveNumber(raw string) *float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || value <= 0 {
		return nil
	}
	return &value
}

func parseYear(raw string) *int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil || value < 1946 {
		return nil
	}
	return &value
}

func parseEventTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range eventTimeLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable event time: %q", trimmed)
}

// isPlayoffGameRef infers the playoff flag from the third character of
// the feed's game ref. Best effort only; never verified against an
// authoritative schedule.
func isPlayoffGameRef(ref string) bool {
	return len(ref) >= 3 && ref[2] == '4'
}

// seasonYearFor prefers the feed's season field and otherwise derives
// the start year from the event date: seasons roll over in October.
func seasonYearFor(raw string, date time.Time) int {
	if year := parseYear(raw); year != nil {
		return *year
	}
	if date.Month() >= time.October {
		return date.Year()
	}
	return date.Year() - 1
}

func optionalString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func asCount(value float64) int {
	if value < 0 {
		return 0
	}
	return int(value)
}

func floatPtrToIntPtr(value *float64) *int {
	if value == nil {
		return nil
	}
	out := int(*value)
	return &out
}
