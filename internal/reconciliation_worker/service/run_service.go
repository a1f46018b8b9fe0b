package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bankrecon-engine/internal/domain/ledger"
	"github.com/bankrecon-engine/internal/domain/recon"
	"github.com/bankrecon-engine/internal/domain/statement"
	"github.com/bankrecon-engine/internal/engine"
	"github.com/bankrecon-engine/internal/platform/persistence"
)

// RunServiceImpl is the session controller for one reconciliation run. It owns
// the state machine transitions around the pipeline: Begin before matching,
// Finish or Cancel after, with bounded-backoff retries at every store call and
// cooperative cancellation checks between passes.
type RunServiceImpl struct {
	statementRepo statement.Repository
	ledgerRepo    ledger.Repository
	reconRepo     recon.Repository
	reportRepo    recon.ReportRepository
	pipeline      *engine.Pipeline
	params        engine.Params
	retryer       *persistence.Retryer
	logger        *slog.Logger
}

// NewRunService creates a new run execution service
func NewRunService(
	logger *slog.Logger,
	statementRepo statement.Repository,
	ledgerRepo ledger.Repository,
	reconRepo recon.Repository,
	reportRepo recon.ReportRepository,
	pipeline *engine.Pipeline,
	params engine.Params,
	retryer *persistence.Retryer,
) RunService {
	return &RunServiceImpl{
		statementRepo: statementRepo,
		ledgerRepo:    ledgerRepo,
		reconRepo:     reconRepo,
		reportRepo:    reportRepo,
		pipeline:      pipeline,
		params:        params,
		retryer:       retryer,
		logger:        logger,
	}
}

// ExecuteRun drives one claimed run to a terminal or reviewable state.
// Input validation failures cancel the run rather than fail the message;
// persistence failures after matching leave the run InProgress and surface the
// error for redelivery.
func (s *RunServiceImpl) ExecuteRun(ctx context.Context, request *recon.RunRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}
	logger = logger.With("reconciliation_id", request.ReconciliationID.String())

	startedAt := time.Now()
	var events []recon.RunEvent
	record := func(stage, message string) {
		events = append(events, recon.RunEvent{Stage: stage, Message: message, OccurredAt: time.Now()})
	}

	var run *recon.Reconciliation
	err := s.retryer.Do(ctx, "load reconciliation", func(ctx context.Context) error {
		var loadErr error
		run, loadErr = s.reconRepo.GetByID(ctx, request.ReconciliationID)
		return loadErr
	})
	if err != nil {
		return fmt.Errorf("failed to load reconciliation %s: %w", request.ReconciliationID, err)
	}

	// Redelivered messages for runs already past Pending are acknowledged
	// without re-executing; the claim made this run the only active one.
	if run.Status != recon.StatusPending {
		logger.Info("Skipping run not in pending state", "status", string(run.Status))
		return nil
	}

	if err := run.Begin(); err != nil {
		return err
	}
	if err := s.updateStatus(ctx, run); err != nil {
		return err
	}
	record("begin", "run started")

	lines, txns, err := s.loadInputs(ctx, run)
	if err != nil {
		return err
	}

	if reason := validateInputs(run, lines, txns); reason != "" {
		logger.Error("Run inputs failed validation, cancelling run", "reason", reason)
		record("validate", reason)
		return s.cancelRun(ctx, run, reason, nil, startedAt, events)
	}
	record("load", fmt.Sprintf("loaded %d bank lines and %d internal transactions", len(lines), len(txns)))

	// The index lives for exactly one run; it is rebuilt from scratch on every
	// execution and never cached across runs.
	idx := engine.BuildIndex(lines, txns)

	cancelled := func(ctx context.Context) (bool, error) {
		var requested bool
		err := s.retryer.Do(ctx, "read cancel flag", func(ctx context.Context) error {
			var readErr error
			requested, readErr = s.reconRepo.IsCancelRequested(ctx, run.ID)
			return readErr
		})
		return requested, err
	}

	result, err := s.pipeline.Run(ctx, run.ID, run.Method, idx, cancelled)
	if err != nil {
		return fmt.Errorf("pipeline failed for reconciliation %s: %w", run.ID, err)
	}

	if result.Cancelled {
		logger.Info("Run cancelled cooperatively", "matches_committed", len(result.Matches))
		record("cancel", "cancellation observed between passes")
		return s.cancelRun(ctx, run, "cancellation requested", result.Matches, startedAt, events)
	}

	discrepancies := engine.Classify(run.ID, idx, result.Ties, s.params.FeeKeywords)
	record("classify", fmt.Sprintf("committed %d matches, classified %d discrepancies, %d suggestions", len(result.Matches), len(discrepancies), len(result.Suggestions)))

	// Persist outcomes before the status transition. A failure here leaves the
	// run InProgress; nothing is marked reconciled until approval.
	if err := s.persistOutcome(ctx, result, discrepancies); err != nil {
		logger.Error("Failed to persist run outcome, leaving run in progress", "error", err)
		return err
	}

	matchedItems := 0
	for _, m := range result.Matches {
		matchedItems += len(m.BankLineIDs) + len(m.InternalTxnIDs)
	}
	total := len(lines) + len(txns)
	needsReview := len(discrepancies) > 0 || result.NeedsReview()

	if err := run.Finish(matchedItems, len(discrepancies), total, needsReview); err != nil {
		return err
	}
	if err := s.updateStatus(ctx, run); err != nil {
		return err
	}
	record("finish", string(run.Status))

	s.saveReport(ctx, logger, run, result, discrepancies, startedAt, events)

	logger.Info("Reconciliation run finished",
		"status", string(run.Status),
		"matched_items", matchedItems,
		"discrepancies", len(discrepancies),
		"suggestions", len(result.Suggestions),
		"match_rate", run.MatchRate,
	)
	return nil
}

func (s *RunServiceImpl) loadInputs(ctx context.Context, run *recon.Reconciliation) ([]*statement.BankStatementLine, []*ledger.InternalTransaction, error) {
	var lines []*statement.BankStatementLine
	err := s.retryer.Do(ctx, "load statement lines", func(ctx context.Context) error {
		var loadErr error
		lines, loadErr = s.statementRepo.LoadUnreconciledLines(ctx, run.AccountID, run.Period)
		return loadErr
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load statement lines: %w", err)
	}

	var txns []*ledger.InternalTransaction
	err = s.retryer.Do(ctx, "load internal transactions", func(ctx context.Context) error {
		var loadErr error
		txns, loadErr = s.ledgerRepo.LoadUnreconciledTransactions(ctx, run.AccountID, run.Period)
		return loadErr
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load internal transactions: %w", err)
	}

	return lines, txns, nil
}

// validateInputs returns a failure reason, or empty when the inputs are sound
func validateInputs(run *recon.Reconciliation, lines []*statement.BankStatementLine, txns []*ledger.InternalTransaction) string {
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return fmt.Sprintf("statement line %s: %v", line.ID, err)
		}
		if !run.Period.Contains(line.TransactionAt) {
			return fmt.Sprintf("statement line %s dated outside the run period", line.ID)
		}
	}
	for _, txn := range txns {
		if err := txn.Validate(); err != nil {
			return fmt.Sprintf("internal transaction %s: %v", txn.ID, err)
		}
	}
	return ""
}

// cancelRun records a cancelled terminal state, keeping matches committed
// before the cancellation point
func (s *RunServiceImpl) cancelRun(ctx context.Context, run *recon.Reconciliation, reason string, matches []*recon.Match, startedAt time.Time, events []recon.RunEvent) error {
	if len(matches) > 0 {
		err := s.retryer.Do(ctx, "persist partial matches", func(ctx context.Context) error {
			return s.reconRepo.PersistMatches(ctx, matches)
		})
		if err != nil {
			return err
		}
	}

	if err := run.Cancel(reason); err != nil {
		return err
	}
	if err := s.updateStatus(ctx, run); err != nil {
		return err
	}

	s.saveReport(ctx, s.logger, run, &engine.Result{Matches: matches}, nil, startedAt, events)
	return nil
}

func (s *RunServiceImpl) persistOutcome(ctx context.Context, result *engine.Result, discrepancies []*recon.Discrepancy) error {
	if len(result.Matches) > 0 {
		err := s.retryer.Do(ctx, "persist matches", func(ctx context.Context) error {
			return s.reconRepo.PersistMatches(ctx, result.Matches)
		})
		if err != nil {
			return err
		}
	}
	if len(discrepancies) > 0 {
		err := s.retryer.Do(ctx, "persist discrepancies", func(ctx context.Context) error {
			return s.reconRepo.PersistDiscrepancies(ctx, discrepancies)
		})
		if err != nil {
			return err
		}
	}
	if len(result.Suggestions) > 0 {
		err := s.retryer.Do(ctx, "persist suggestions", func(ctx context.Context) error {
			return s.reconRepo.PersistSuggestions(ctx, result.Suggestions)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *RunServiceImpl) updateStatus(ctx context.Context, run *recon.Reconciliation) error {
	return s.retryer.Do(ctx, "update reconciliation status", func(ctx context.Context) error {
		return s.reconRepo.UpdateStatus(ctx, run)
	})
}

// saveReport writes the denormalized audit document. Reporting is best effort;
// a failure never changes the run's outcome.
func (s *RunServiceImpl) saveReport(ctx context.Context, logger *slog.Logger, run *recon.Reconciliation, result *engine.Result, discrepancies []*recon.Discrepancy, startedAt time.Time, events []recon.RunEvent) {
	matchesByType := make(map[string]int)
	var matchedAmount int64
	for _, m := range result.Matches {
		matchesByType[string(m.Type)]++
		matchedAmount += m.AmountMinor
	}
	discrepanciesByType := make(map[string]int)
	for _, d := range discrepancies {
		discrepanciesByType[string(d.Type)]++
	}

	report := &recon.RunReport{
		ReconciliationID:    run.ID,
		AccountID:           run.AccountID,
		PeriodStart:         run.Period.Start,
		PeriodEnd:           run.Period.End,
		Status:              run.Status,
		Method:              run.Method,
		MatchedCount:        run.MatchedCount,
		DiscrepancyCount:    run.DiscrepancyCount,
		SuggestionCount:     len(result.Suggestions),
		TotalCount:          run.TotalCount,
		MatchRate:           run.MatchRate,
		MatchedAmountMinor:  matchedAmount,
		MatchesByType:       matchesByType,
		DiscrepanciesByType: discrepanciesByType,
		Events:              events,
		GeneratedAt:         time.Now(),
		DurationMillis:      time.Since(startedAt).Milliseconds(),
	}

	err := s.retryer.Do(ctx, "save run report", func(ctx context.Context) error {
		return s.reportRepo.Save(ctx, report)
	})
	if err != nil {
		logger.Error("Failed to save run report", "reconciliation_id", run.ID.String(), "error", err)
	}
}
