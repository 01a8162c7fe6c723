package injuryweb

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/nba-ingest/internal/platform/logging"
	"github.com/riskibarqy/nba-ingest/internal/usecase"
	"github.com/sourcegraph/conc"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

var (
	tableRowRegex  = regexp.MustCompile(`(?is)<tr[^>]*>(.*?)</tr>`)
	tableCellRegex = regexp.MustCompile(`(?is)<t[dh][^>]*>(.*?)</t[dh]>`)
	tagRegex       = regexp.MustCompile(`(?s)<[^>]+>`)
)

var errAllSourcesFailed = crerr.New("all injury sources failed")

type ScraperConfig struct {
	SourceURLs []string
	Timeout    time.Duration
	Logger     *logging.Logger
	Client     *fasthttp.Client
}

// Scraper pulls injury tables from an ordered list of public report
// pages. A source that fails to fetch or parse is logged and skipped;
// only all sources failing is an error.
type Scraper struct {
	client  *fasthttp.Client
	sources []string
	timeout time.Duration
	logger  *logging.Logger
}

func NewScraper(cfg ScraperConfig) *Scraper {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	client := cfg.Client
	if client == nil {
		client = &fasthttp.Client{
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Scraper{
		client:  client,
		sources: cfg.SourceURLs,
		timeout: timeout,
		logger:  logger,
	}
}

// FetchInjuries scrapes every configured source concurrently and merges
// their rows in source order. Duplicate players across sources are kept
// here; the caller owns dedup.
func (s *Scraper) FetchInjuries(ctx context.Context) ([]usecase.RawInjuryRow, error) {
	if len(s.sources) == 0 {
		return nil, fmt.Errorf("no injury sources configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reportedAt := time.Now().UTC()
	rowsBySource := make([][]usecase.RawInjuryRow, len(s.sources))
	errsBySource := make([]error, len(s.sources))

	var mu sync.Mutex
	var wg conc.WaitGroup
	for i, sourceURL := range s.sources {
		wg.Go(func() {
			rows, err := s.scrapeSource(ctx, sourceURL, reportedAt)
			mu.Lock()
			rowsBySource[i] = rows
			errsBySource[i] = err
			mu.Unlock()
		})
	}
	wg.Wait()

	var out []usecase.RawInjuryRow
	failed := 0
	for i, sourceURL := range s.sources {
		if err := errsBySource[i]; err != nil {
			failed++
			s.logger.WarnContext(ctx, "injury source failed, continuing with remaining sources",
				"source", sourceURL, "error", err)
			continue
		}
		out = append(out, rowsBySource[i]...)
	}
	if failed == len(s.sources) {
		return nil, fmt.Errorf("%w: %d sources", errAllSourcesFailed, failed)
	}

	return out, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, sourceURL string, reportedAt time.Time) ([]usecase.RawInjuryRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := s.fetch(sourceURL)
	if err != nil {
		return nil, err
	}

	var rows []usecase.RawInjuryRow
	if strings.Contains(sourceURL, "rotowire") {
		rows = parseRotowireTable(body, sourceURL, reportedAt)
	} else {
		rows = parseESPNTable(body, sourceURL, reportedAt)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no injury rows parsed from %s", sourceURL)
	}
	return rows, nil
}

func (s *Scraper) fetch(sourceURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(sourceURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent("Mozilla/5.0 (compatible; injury-report-collector)")

	if err := s.client.DoTimeout(req, resp, s.timeout); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", sourceURL, err)
	}
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		return nil, fmt.Errorf("fetch %s: status=%d", sourceURL, status)
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

// parseESPNTable reads rows of (player, status, comment) cells. The
// team is taken from nothing; that layout groups tables under team
// headings the row itself does not repeat.
func parseESPNTable(body []byte, sourceURL string, reportedAt time.Time) []usecase.RawInjuryRow {
	var out []usecase.RawInjuryRow
	for _, cells := range extractRows(body) {
		if len(cells) < 2 {
			continue
		}
		name := cells[0]
		if name == "" || isHeaderCell(name) {
			continue
		}

		row := usecase.RawInjuryRow{
			PlayerName: name,
			Status:     cells[1],
			ReportedAt: reportedAt,
			SourceURL:  sourceURL,
		}
		if len(cells) > 2 {
			applyInjuryDetail(&row, cells[2])
		}
		out = append(out, row)
	}
	return out
}

// parseRotowireTable reads rows of (player, team, status, injury)
// cells.
func parseRotowireTable(body []byte, sourceURL string, reportedAt time.Time) []usecase.RawInjuryRow {
	var out []usecase.RawInjuryRow
	for _, cells := range extractRows(body) {
		if len(cells) < 3 {
			continue
		}
		name := cells[0]
		if name == "" || isHeaderCell(name) {
			continue
		}

		row := usecase.RawInjuryRow{
			PlayerName: name,
			TeamName:   cells[1],
			Status:     cells[2],
			ReportedAt: reportedAt,
			SourceURL:  sourceURL,
		}
		if len(cells) > 3 {
			applyInjuryDetail(&row, cells[3])
		}
		out = append(out, row)
	}
	return out
}

// applyInjuryDetail splits a free-text injury cell like "Knee - Sprain"
// into a body area and diagnosis; an unhyphenated cell is a body area
// only.
func applyInjuryDetail(row *usecase.RawInjuryRow, detail string) {
	if detail == "" {
		return
	}
	row.InjuryType = detail
	if area, diagnosis, ok := strings.Cut(detail, " - "); ok {
		row.BodyArea = strings.TrimSpace(area)
		row.Diagnosis = strings.TrimSpace(diagnosis)
		return
	}
	row.BodyArea = detail
}

func extractRows(body []byte) [][]string {
	matches := tableRowRegex.FindAllSubmatch(body, -1)
	out := make([][]string, 0, len(matches))
	for _, match := range matches {
		cellMatches := tableCellRegex.FindAllSubmatch(match[1], -1)
		if len(cellMatches) == 0 {
			continue
		}
		cells := make([]string, 0, len(cellMatches))
		for _, cellMatch := range cellMatches {
			cells = append(cells, cleanCellText(cellMatch[1]))
		}
		out = append(out, cells)
	}
	return out
}

// cleanCellText strips markup and collapses whitespace using a pooled
// buffer; injury pages run to hundreds of cells per fetch.
func cleanCellText(cell []byte) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.Write(tagRegex.ReplaceAll(cell, []byte(" ")))
	text := html.UnescapeString(buf.String())
	return strings.Join(strings.Fields(text), " ")
}

func isHeaderCell(value string) bool {
	switch strings.ToLower(value) {
	case "name", "player", "status", "injury", "team", "pos", "est. return date":
		return true
	}
	return false
}
