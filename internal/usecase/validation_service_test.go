package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/riskibarqy/nba-ingest/internal/domain/injury"
	"github.com/riskibarqy/nba-ingest/internal/domain/season"
	"github.com/riskibarqy/nba-ingest/internal/platform/logging"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want *float64
	}{
		{"35:30", ptrFloat(35.5)},
		{"12:00", ptrFloat(12)},
		{"0:45", ptrFloat(0.75)},
		{"24.5", ptrFloat(24.5)},
		{"", nil},
		{"DNP", nil},
		{"-5:00", nil},
		{"-3", nil},
	}
	for _, tt := range tests {
		got := parseMinutes(tt.raw)
		if (got == nil) != (tt.want == nil) {
			t.Fatalf("parseMinutes(%q) = %v, want %v", tt.raw, got, tt.want)
		}
		if got != nil && !almostEqual(*got, *tt.want) {
			t.Fatalf("parseMinutes(%q) = %v, want %v", tt.raw, *got, *tt.want)
		}
	}
}

func TestParseHeightMeters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want *float64
	}{
		{"6-8", ptrFloat(80 * 0.0254)},
		{"7-0", ptrFloat(84 * 0.0254)},
		{"203cm", ptrFloat(2.03)},
		{"211 cm", ptrFloat(2.11)},
		{"", nil},
		{"tall", nil},
		{"-6-8", nil},
	}
	for _, tt := range tests {
		got := parseHeightMeters(tt.raw)
		if (got == nil) != (tt.want == nil) {
			t.Fatalf("parseHeightMeters(%q) = %v, want %v", tt.raw, got, tt.want)
		}
		if got != nil && !almostEqual(*got, *tt.want) {
			t.Fatalf("parseHeightMeters(%q) = %v, want %v", tt.raw, *got, *tt.want)
		}
	}
}

func TestValidateGameRows(t *testing.T) {
	t.Parallel()

	svc := NewValidationService(logging.NewNop())
	rows := []RawGameRow{
		{GameRef: "0022300555", GameDate: "2024-01-15", HomeTeamRef: 1, AwayTeamRef: 2},
		{GameRef: "0042300401", GameDate: "2024-05-01T19:30:00", Status: "Final"},
		{GameRef: "0022300556", GameDate: "soon"},
		{GameDate: "2024-01-15"},
	}

	validated, failures := svc.ValidateGameRows(context.Background(), rows)
	if len(validated) != 2 {
		t.Fatalf("validated = %d, want 2", len(validated))
	}
	if len(failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(failures))
	}

	regular := validated[0]
	if regular.IsPlayoffs {
		t.Fatalf("ref %q flagged as playoffs", regular.Ref)
	}
	if regular.SeasonType != season.TypeRegular {
		t.Fatalf("season type = %q, want regular", regular.SeasonType)
	}
	// January belongs to the season that started the previous fall.
	if regular.SeasonYear != 2023 {
		t.Fatalf("season year = %d, want 2023", regular.SeasonYear)
	}
	if regular.Status != "Scheduled" {
		t.Fatalf("status = %q, want default Scheduled", regular.Status)
	}

	playoff := validated[1]
	if !playoff.IsPlayoffs {
		t.Fatalf("ref %q not flagged as playoffs", playoff.Ref)
	}
	if playoff.SeasonType != season.TypePlayoffs {
		t.Fatalf("season type = %q, want playoffs", playoff.SeasonType)
	}
	if playoff.Status != "Final" {
		t.Fatalf("status = %q, want Final", playoff.Status)
	}
	if playoff.Date.Hour() != 19 || playoff.Date.Location() != time.UTC {
		t.Fatalf("date not parsed to UTC: %v", playoff.Date)
	}
}

func TestSeasonYearFor(t *testing.T) {
	t.Parallel()

	october := time.Date(2023, time.October, 24, 0, 0, 0, 0, time.UTC)
	if got := seasonYearFor("", october); got != 2023 {
		t.Fatalf("october rollover = %d, want 2023", got)
	}
	march := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)
	if got := seasonYearFor("", march); got != 2023 {
		t.Fatalf("march = %d, want 2023", got)
	}
	if got := seasonYearFor("2021", march); got != 2021 {
		t.Fatalf("explicit year = %d, want 2021", got)
	}
}

func TestValidateStatRows(t *testing.T) {
	t.Parallel()

	svc := NewValidationService(logging.NewNop())
	plusMinus := -7.0
	rows := []RawStatRow{
		{
			GameRef:       "0022300555",
			PlayerName:    "Jayson Tatum",
			Minutes:       "35:30",
			Points:        25,
			Rebounds:      -2,
			StartPosition: "F",
			PlusMinus:     &plusMinus,
		},
		{
			GameRef:    "0022300555",
			PlayerName: "Payton Pritchard",
			Minutes:    "DNP",
		},
		{GameRef: "0022300555"},
	}

	validated, failures := svc.ValidateStatRows(context.Background(), rows)
	if len(validated) != 2 {
		t.Fatalf("validated = %d, want 2", len(validated))
	}
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(failures))
	}

	starter := validated[0]
	if !starter.Started {
		t.Fatal("start position set but Started is false")
	}
	if starter.Minutes == nil || !almostEqual(*starter.Minutes, 35.5) {
		t.Fatalf("minutes = %v, want 35.5", starter.Minutes)
	}
	if starter.Rebounds != 0 {
		t.Fatalf("negative rebounds clamped to %d, want 0", starter.Rebounds)
	}
	if starter.PlusMinus == nil || *starter.PlusMinus != -7 {
		t.Fatalf("plus minus = %v, want -7", starter.PlusMinus)
	}

	bench := validated[1]
	if bench.Started {
		t.Fatal("empty start position but Started is true")
	}
	if bench.Minutes != nil {
		t.Fatalf("unparseable minutes = %v, want nil", bench.Minutes)
	}
}

func TestValidateInjuryRows_NormalizesStatus(t *testing.T) {
	t.Parallel()

	svc := NewValidationService(logging.NewNop())
	reported := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	rows := []RawInjuryRow{
		{PlayerName: "Jayson Tatum", Status: "Doubtful", ReportedAt: reported},
		{PlayerName: "Jaylen Brown", Status: "DTD", ReportedAt: reported},
		{PlayerName: "Derrick White", Status: "out", ReportedAt: reported},
		{PlayerName: "Al Horford", Status: "wearing a hat", ReportedAt: reported},
		{Status: "Out", ReportedAt: reported},
	}

	validated, failures := svc.ValidateInjuryRows(context.Background(), rows)
	if len(validated) != 4 {
		t.Fatalf("validated = %d, want 4", len(validated))
	}
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(failures))
	}

	want := []injury.Status{
		injury.StatusQuestionable,
		injury.StatusDayToDay,
		injury.StatusOut,
		injury.StatusQuestionable,
	}
	for i, row := range validated {
		if row.Status != want[i] {
			t.Fatalf("row %d status = %q, want %q", i, row.Status, want[i])
		}
	}
}

func TestDedupInjuries(t *testing.T) {
	t.Parallel()

	reported := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	first := ValidatedInjury{PlayerName: "Jayson Tatum", Status: injury.StatusOut, ReportedAt: reported, TeamName: "Boston"}
	rows := []ValidatedInjury{
		first,
		{PlayerName: "JAYSON TATUM", Status: injury.StatusOut, ReportedAt: reported, TeamName: "elsewhere"},
		{PlayerName: "Jayson Tatum", Status: injury.StatusQuestionable, ReportedAt: reported},
		{PlayerName: "Jaylen Brown", Status: injury.StatusOut, ReportedAt: reported},
	}

	deduped := DedupInjuries(rows)
	if len(deduped) != 3 {
		t.Fatalf("deduped = %d, want 3", len(deduped))
	}
	if deduped[0].TeamName != first.TeamName {
		t.Fatalf("first report not kept: team = %q", deduped[0].TeamName)
	}
}

func ptrFloat(v float64) *float64 { return &v }
