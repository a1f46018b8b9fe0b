package components

import (
	"log/slog"

	"github.com/bankrecon-engine/internal/config"
	"github.com/bankrecon-engine/internal/domain/ledger"
	"github.com/bankrecon-engine/internal/domain/recon"
	"github.com/bankrecon-engine/internal/domain/statement"
	"github.com/bankrecon-engine/internal/engine"
	"github.com/bankrecon-engine/internal/platform/persistence"
	"github.com/bankrecon-engine/internal/platform/scoring"
	"github.com/bankrecon-engine/internal/reconciliation_worker/service"
)

// CreateRunService assembles the run execution stack: matching pipeline,
// retryer, and the worker pool that bounds concurrent runs.
func CreateRunService(
	statementRepo statement.Repository,
	ledgerRepo ledger.Repository,
	reconRepo recon.Repository,
	reportRepo recon.ReportRepository,
	logger *slog.Logger,
	cfg *config.Config,
) service.RunService {
	params := engineParams(&cfg.Engine)

	// A nil scorer disables the suggestion pass entirely.
	var scorer engine.Scorer
	if client := scoring.NewClient(logger.With("component", "scoring_client"), &cfg.Scoring); client != nil {
		scorer = client
	}

	pipeline := engine.NewPipeline(logger.With("component", "pipeline"), params, scorer)
	retryer := persistence.NewRetryer(logger, &cfg.Retry)

	baseService := service.NewRunService(
		logger,
		statementRepo,
		ledgerRepo,
		reconRepo,
		reportRepo,
		pipeline,
		params,
		retryer,
	)

	workerPoolService, err := service.NewWorkerPoolRunService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool run service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}

// engineParams maps configured knobs onto the pipeline defaults
func engineParams(cfg *config.EngineConfig) engine.Params {
	params := engine.DefaultParams()
	if cfg.DateWindowDays > 0 {
		params.DateWindowDays = cfg.DateWindowDays
	}
	if cfg.TieEpsilon > 0 {
		params.TieEpsilon = cfg.TieEpsilon
	}
	if cfg.MaxSplitItems > 0 {
		params.MaxSplitItems = cfg.MaxSplitItems
	}
	if cfg.SplitCandidateCap > 0 {
		params.SplitCandidateCap = cfg.SplitCandidateCap
	}
	if cfg.SplitToleranceMinor > 0 {
		params.SplitToleranceMinor = cfg.SplitToleranceMinor
	}
	if cfg.AutoAcceptScore > 0 {
		params.AutoAcceptScore = cfg.AutoAcceptScore
	}
	if cfg.MinSuggestionScore > 0 {
		params.MinSuggestionScore = cfg.MinSuggestionScore
	}
	if len(cfg.FeeKeywords) > 0 {
		params.FeeKeywords = cfg.FeeKeywords
	}
	return params
}
