package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/research-assistant/internal/config"
	"github.com/kirillkom/research-assistant/internal/core/assistant"
	"github.com/kirillkom/research-assistant/internal/core/ports"
	"github.com/kirillkom/research-assistant/internal/core/usecase"
	"github.com/kirillkom/research-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/research-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/research-assistant/internal/infrastructure/llm"
	"github.com/kirillkom/research-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/research-assistant/internal/infrastructure/session"
	"github.com/kirillkom/research-assistant/internal/observability/metrics"
)

const serviceName = "research-assistant-api"

// clampUint32 guards the env-sourced breaker knobs; a zero falls through
// to the policy defaults.
func clampUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	return uint32(n)
}

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.ServerMetrics

	Sessions ports.SessionService

	MetricsHandler http.Handler
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	serverMetrics := metrics.NewServerMetrics(serviceName)

	store := session.NewStore(
		time.Duration(cfg.SessionTTLMinutes)*time.Minute,
		time.Duration(cfg.SessionCleanupMinutes)*time.Minute,
	)
	serverMetrics.RegisterSessionGauge(store.Count)

	executor := resilience.NewExecutor(resilience.Policy{
		RetryAttempts:       cfg.RetryAttempts,
		RetryBaseDelay:      time.Duration(cfg.RetryBaseDelayMS) * time.Millisecond,
		RetryMaxDelay:       time.Duration(cfg.RetryMaxDelayMS) * time.Millisecond,
		BreakerEnabled:      cfg.BreakerEnabled,
		BreakerMinRequests:  clampUint32(cfg.BreakerMinRequests),
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  time.Duration(cfg.BreakerOpenTimeoutSeconds) * time.Second,
		BreakerProbeCalls:   clampUint32(cfg.BreakerProbeCalls),
	}, logger)

	model, err := llm.New(llm.Config{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		CallTimeout: time.Duration(cfg.ModelTimeoutSeconds) * time.Second,
	}, executor, serverMetrics, logger)
	if err != nil {
		return nil, fmt.Errorf("init model client: %w", err)
	}

	chunker := chunking.NewSplitter(cfg.MinChunkChars)
	docAssistant := assistant.New(model, chunker, logger, assistant.Config{
		SummaryInputLimit:    cfg.SummaryInputLimit,
		EvaluationInputLimit: cfg.EvaluationInputLimit,
		HistoryWindow:        cfg.HistoryWindow,
		RankedChunkLimit:     cfg.RankedChunkLimit,
		DefaultPassageCount:  cfg.DefaultPassageCount,
	})

	sessions := usecase.NewSessionUseCase(
		store,
		extractor.New(logger),
		docAssistant,
		logger,
	)

	return &App{
		Config:         cfg,
		Logger:         logger,
		Metrics:        serverMetrics,
		Sessions:       sessions,
		MetricsHandler: serverMetrics.Handler(),
	}, nil
}
