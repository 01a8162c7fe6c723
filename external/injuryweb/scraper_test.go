package injuryweb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const espnPage = `
<table>
  <tr><th>NAME</th><th>STATUS</th><th>COMMENT</th></tr>
  <tr><td><a href="/player/1">Jayson Tatum</a></td><td>Day-To-Day</td><td>Ankle - Sprain</td></tr>
  <tr><td>Jaylen&nbsp;Brown</td><td>Out</td><td>Knee</td></tr>
</table>`

const rotowirePage = `
<table>
  <tr><th>Player</th><th>Team</th><th>Status</th><th>Injury</th></tr>
  <tr><td>Stephen Curry</td><td>Golden State Warriors</td><td>Questionable</td><td>Shoulder - Soreness</td></tr>
</table>`

func TestParseESPNTable(t *testing.T) {
	t.Parallel()

	reportedAt := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	rows := parseESPNTable([]byte(espnPage), "https://example.com/espn", reportedAt)
	if len(rows) != 2 {
		t.Fatalf("expected two rows, got=%d", len(rows))
	}

	first := rows[0]
	if first.PlayerName != "Jayson Tatum" {
		t.Fatalf("expected markup-stripped name, got=%q", first.PlayerName)
	}
	if first.Status != "Day-To-Day" {
		t.Fatalf("unexpected status %q", first.Status)
	}
	if first.InjuryType != "Ankle - Sprain" || first.BodyArea != "Ankle" || first.Diagnosis != "Sprain" {
		t.Fatalf("unexpected injury detail %q/%q/%q", first.InjuryType, first.BodyArea, first.Diagnosis)
	}
	if !first.ReportedAt.Equal(reportedAt) {
		t.Fatal("expected scrape time as reported time")
	}
	if first.SourceURL != "https://example.com/espn" {
		t.Fatalf("unexpected source url %q", first.SourceURL)
	}

	second := rows[1]
	if second.PlayerName != "Jaylen Brown" {
		t.Fatalf("expected entity-unescaped name, got=%q", second.PlayerName)
	}
	if second.BodyArea != "Knee" || second.Diagnosis != "" {
		t.Fatalf("unhyphenated detail must be body area only, got=%q/%q", second.BodyArea, second.Diagnosis)
	}
}

func TestParseRotowireTable(t *testing.T) {
	t.Parallel()

	reportedAt := time.Now().UTC()
	rows := parseRotowireTable([]byte(rotowirePage), "https://example.com/rotowire", reportedAt)
	if len(rows) != 1 {
		t.Fatalf("expected one row, got=%d", len(rows))
	}

	row := rows[0]
	if row.PlayerName != "Stephen Curry" {
		t.Fatalf("unexpected player %q", row.PlayerName)
	}
	if row.TeamName != "Golden State Warriors" {
		t.Fatalf("unexpected team %q", row.TeamName)
	}
	if row.Status != "Questionable" {
		t.Fatalf("unexpected status %q", row.Status)
	}
	if row.BodyArea != "Shoulder" || row.Diagnosis != "Soreness" {
		t.Fatalf("unexpected detail %q/%q", row.BodyArea, row.Diagnosis)
	}
}

func TestFetchInjuries_SkipsFailingSource(t *testing.T) {
	t.Parallel()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rotowirePage))
	}))
	t.Cleanup(good.Close)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(bad.Close)

	scraper := NewScraper(ScraperConfig{
		SourceURLs: []string{bad.URL + "/espn", good.URL + "/rotowire"},
		Timeout:    2 * time.Second,
	})

	rows, err := scraper.FetchInjuries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error with one healthy source: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row from the healthy source, got=%d", len(rows))
	}
	if rows[0].PlayerName != "Stephen Curry" {
		t.Fatalf("unexpected player %q", rows[0].PlayerName)
	}
}

func TestFetchInjuries_AllSourcesFailing(t *testing.T) {
	t.Parallel()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(bad.Close)

	scraper := NewScraper(ScraperConfig{
		SourceURLs: []string{bad.URL + "/espn", bad.URL + "/rotowire"},
		Timeout:    2 * time.Second,
	})

	if _, err := scraper.FetchInjuries(context.Background()); err == nil {
		t.Fatal("expected error when every source fails")
	}
}
