package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zatekoja/cashflow-diagnosis/internal/adapters/cache"
	"github.com/zatekoja/cashflow-diagnosis/internal/adapters/report"
	"github.com/zatekoja/cashflow-diagnosis/internal/adapters/session"
	"github.com/zatekoja/cashflow-diagnosis/internal/adapters/stores"
	"github.com/zatekoja/cashflow-diagnosis/internal/application/services"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/entities"
	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/clients/gemini"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/clients/openai"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/clients/redis"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/clients/sheets"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/clients/sqlite"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
	"github.com/zatekoja/cashflow-diagnosis/internal/questionnaire"
	"github.com/zatekoja/cashflow-diagnosis/pkg/config"
	"github.com/zatekoja/cashflow-diagnosis/pkg/secrets"
)

const sessionKeyPrefix = "cfd:"

// App holds the wired services shared by the HTTP server and the CLI.
type App struct {
	Config    *config.Config
	Metrics   *observability.Metrics
	Diagnosis *services.DiagnosisService
	Events    *services.EventLogger
	// Cache is the shared Redis cache, or nil when Redis is disabled.
	Cache providers.CacheProvider

	closers []io.Closer
}

// storeChain is one entry of the configured store chain.
type storeChain struct {
	records []providers.RecordStore
	events  []providers.EventStore
}

func (c *storeChain) add(s interface {
	providers.RecordStore
	providers.EventStore
}) {
	c.records = append(c.records, s)
	c.events = append(c.events, s)
}

// pending is an event that happened before the event logger existed.
type pending struct {
	level   entities.Severity
	message string
	payload map[string]any
}

// New wires the application from configuration. Optional backends that fail
// to connect are logged and left out of the chain; only a broken
// questionnaire or an unknown store name is fatal.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := observability.GetLogger()
	a := &App{Config: cfg}

	q, err := questionnaire.Load(cfg.App.QuestionnairePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load questionnaire: %w", err)
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize metrics")
	}
	a.Metrics = metrics

	chain, early, err := a.buildStores(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	loc := cfg.App.Location()
	a.Events = services.NewEventLogger(chain.events, loc, metrics)
	for _, p := range early {
		a.Events.Record(ctx, p.level, p.message, p.payload)
	}

	provider, err := newNarrativeProvider(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("narrative provider unavailable, fallback texts will be used")
		a.Events.Record(ctx, entities.SeverityWarn, "narrative provider unavailable", map[string]any{"error": err.Error()})
	}

	sessions := a.newSessionStore(ctx, cfg)

	narratives := services.NewNarrativeService(provider, services.NarrativeSettings{
		RetryDelay:      cfg.Narrative.RetryDelay,
		MaxChars:        cfg.Narrative.MaxChars,
		Temperature:     cfg.Narrative.Temperature,
		MaxOutputTokens: cfg.Narrative.MaxOutputTokens,
	}, a.Events, metrics)

	a.Diagnosis = services.NewDiagnosisService(services.DiagnosisDeps{
		Questionnaire: q,
		Scorer:        services.NewScorer(q),
		Classifier:    services.NewClassifier(q, Thresholds(cfg.Scoring)),
		Narratives:    narratives,
		Writer:        services.NewRecordWriter(chain.records, a.Events, cfg.App.Version, loc, metrics),
		Renderer:      NewRenderer(cfg.Report),
		Sessions:      sessions,
		Events:        a.Events,
		Location:      loc,
		Metrics:       metrics,
	})

	logger.Info().
		Strs("stores", cfg.Stores.Chain).
		Bool("narrative", provider != nil).
		Str("questionnaire", q.Version).
		Msg("application wired")
	return a, nil
}

// Close releases every backend connection opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) buildStores(ctx context.Context, cfg *config.Config) (*storeChain, []pending, error) {
	logger := observability.GetLogger()
	chain := &storeChain{}
	var early []pending

	for _, name := range cfg.Stores.Chain {
		switch strings.ToLower(name) {
		case "sheets":
			store, initErr := newSheetsStore(ctx, cfg.Sheets)
			if initErr != nil {
				logger.Error().Err(initErr).Msg("sheets store unavailable")
				early = append(early, pending{
					level:   entities.SeverityError,
					message: "sheets credentials could not be loaded",
					payload: map[string]any{"error": initErr.Error()},
				})
			}
			chain.add(store)

		case "csv":
			chain.add(stores.NewCSVStore(cfg.Local.ResponsesPath, cfg.Local.EventsPath))

		case "postgres":
			client, err := postgres.NewClient(ctx, &cfg.Database)
			if err != nil {
				logger.Warn().Err(err).Msg("postgres store unavailable")
				early = append(early, pending{
					level:   entities.SeverityWarn,
					message: "postgres store unavailable",
					payload: map[string]any{"error": err.Error()},
				})
				continue
			}
			a.closers = append(a.closers, client)
			chain.add(stores.NewPostgresStore(client))

		case "sqlite":
			client, err := sqlite.NewClient(ctx, &cfg.SQLite)
			if err != nil {
				logger.Warn().Err(err).Msg("sqlite store unavailable")
				early = append(early, pending{
					level:   entities.SeverityWarn,
					message: "sqlite store unavailable",
					payload: map[string]any{"error": err.Error()},
				})
				continue
			}
			a.closers = append(a.closers, client)
			chain.add(stores.NewSQLiteStore(client))

		default:
			return nil, nil, fmt.Errorf("unknown store %q in STORE_CHAIN", name)
		}
	}
	return chain, early, nil
}

// newSheetsStore returns an unconfigured store when no spreadsheet or
// credential is set. A credential that is set but unusable is returned as
// the init error so that every append reports it and falls back.
func newSheetsStore(ctx context.Context, cfg config.SheetsConfig) (*stores.SheetsStore, error) {
	creds, err := secrets.ResolveCredential(cfg.ServiceAccountJSON, cfg.ServiceAccountJSONBase64)
	if err != nil {
		return stores.NewSheetsStore(nil, err, cfg.ResponsesSheet, cfg.EventsSheet), err
	}
	if cfg.SpreadsheetID == "" || len(creds) == 0 {
		return stores.NewSheetsStore(nil, nil, cfg.ResponsesSheet, cfg.EventsSheet), nil
	}

	client, err := sheets.NewClient(ctx, cfg.SpreadsheetID, creds)
	if err != nil {
		return stores.NewSheetsStore(nil, err, cfg.ResponsesSheet, cfg.EventsSheet), err
	}
	return stores.NewSheetsStore(client, nil, cfg.ResponsesSheet, cfg.EventsSheet), nil
}

// newNarrativeProvider picks the configured provider. With no explicit
// choice OpenAI wins when its key is set, then Gemini. A nil provider with a
// nil error means narratives are disabled.
func newNarrativeProvider(ctx context.Context, cfg *config.Config) (providers.NarrativeProvider, error) {
	name := cfg.Narrative.Provider
	if name == "" {
		switch {
		case cfg.OpenAI.APIKey != "":
			name = "openai"
		case cfg.Gemini.APIKey != "":
			name = "gemini"
		default:
			return nil, nil
		}
	}

	switch name {
	case "none", "off":
		return nil, nil
	case "openai":
		client, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "gemini":
		client, err := gemini.NewClient(ctx, &cfg.Gemini, "")
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown narrative provider %q", name)
	}
}

func (a *App) newSessionStore(ctx context.Context, cfg *config.Config) providers.SessionStore {
	if !cfg.Redis.Enabled {
		return session.NewMemoryStore(cfg.App.SessionTTL)
	}
	client, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		observability.GetLogger().Warn().Err(err).Msg("redis unavailable, keeping sessions in memory")
		return session.NewMemoryStore(cfg.App.SessionTTL)
	}
	a.closers = append(a.closers, client)
	a.Cache = cache.NewRedisAdapter(client, sessionKeyPrefix)
	return session.NewCacheStore(a.Cache, cfg.App.SessionTTL)
}

// NewRenderer builds the PDF renderer from report configuration.
func NewRenderer(cfg config.ReportConfig) *report.PDFRenderer {
	return report.NewPDFRenderer(report.Options{
		Title:          cfg.Title,
		CTAURL:         cfg.CTAURL,
		BrandColor:     cfg.BrandColor,
		LogoPath:       cfg.LogoPath,
		LogoURL:        cfg.LogoURL,
		FontPaths:      cfg.FontPaths,
		MaxImageWidth:  cfg.MaxImageWidth,
		MaxImageHeight: cfg.MaxImageHeight,
	})
}

// Thresholds converts the scoring configuration into classifier cut points.
func Thresholds(c config.ScoringConfig) services.Thresholds {
	return services.Thresholds{
		Good:          c.GoodThreshold,
		Caution:       c.CautionThreshold,
		Healthy:       c.HealthyThreshold,
		HighRiskBelow: c.HighRiskBelow,
		MediumBelow:   c.MediumRiskBelow,
	}
}
