package app

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/nba-ingest/external/injuryweb"
	"github.com/riskibarqy/nba-ingest/external/nbastats"
	"github.com/riskibarqy/nba-ingest/internal/config"
	"github.com/riskibarqy/nba-ingest/internal/infrastructure/repository/postgres"
	idgen "github.com/riskibarqy/nba-ingest/internal/platform/id"
	"github.com/riskibarqy/nba-ingest/internal/platform/logging"
	"github.com/riskibarqy/nba-ingest/internal/platform/resilience"
	"github.com/riskibarqy/nba-ingest/internal/usecase"
)

// Components is the wired object graph the commands run against.
type Components struct {
	DB        *sqlx.DB
	Schema    *postgres.SchemaManager
	Ingestion *usecase.IngestionService
	Logger    *logging.Logger
}

func NewComponents(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Components, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	playerRepo := postgres.NewPlayerRepository(db)
	teamRepo := postgres.NewTeamRepository(db)
	seasonRepo := postgres.NewSeasonRepository(db)
	gameRepo := postgres.NewGameRepository(db, cfg.BulkLoadBatchSize)
	statRepo := postgres.NewPlayerStatRepository(db, cfg.BulkLoadBatchSize)
	injuryRepo := postgres.NewInjuryRepository(db, cfg.BulkLoadBatchSize)
	schema := postgres.NewSchemaManager(db, logger)

	feed := nbastats.NewClient(nbastats.ClientConfig{
		BaseURL:    cfg.StatsFeedBaseURL,
		Timeout:    cfg.StatsFeedTimeout,
		MaxRetries: cfg.StatsFeedMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CircuitBreakerEnabled,
			FailureThreshold: cfg.CircuitBreakerFailureThreshold,
			OpenTimeout:      cfg.CircuitBreakerOpenTimeout,
		},
	})

	injuries := injuryweb.NewScraper(injuryweb.ScraperConfig{
		SourceURLs: cfg.InjurySourceURLs,
		Timeout:    cfg.InjuryScrapeTimeout,
		Logger:     logger,
	})

	ingestion := usecase.NewIngestionService(
		feed,
		injuries,
		playerRepo,
		teamRepo,
		seasonRepo,
		gameRepo,
		statRepo,
		injuryRepo,
		schema,
		idgen.NewUUIDGenerator(),
		logger,
		usecase.IngestionConfig{
			FetchConcurrency: cfg.FetchConcurrency,
			FetchTimeout:     cfg.StatsFeedTimeout,
		},
	)

	return &Components{
		DB:        db,
		Schema:    schema,
		Ingestion: ingestion,
		Logger:    logger,
	}, nil
}

func (c *Components) Close() error {
	return c.DB.Close()
}
