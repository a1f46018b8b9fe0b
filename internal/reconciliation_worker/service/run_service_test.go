package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bankrecon-engine/internal/config"
	"github.com/bankrecon-engine/internal/domain/ledger"
	"github.com/bankrecon-engine/internal/domain/recon"
	"github.com/bankrecon-engine/internal/domain/shared"
	"github.com/bankrecon-engine/internal/domain/statement"
	"github.com/bankrecon-engine/internal/engine"
	"github.com/bankrecon-engine/internal/platform/persistence"
)

type runServiceMocks struct {
	statementRepo *MockStatementRepository
	ledgerRepo    *MockLedgerRepository
	reconRepo     *MockReconciliationRepository
	reportRepo    *MockReportRepository
}

func newTestRunService() (RunService, *runServiceMocks) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	params := engine.DefaultParams()
	m := &runServiceMocks{
		statementRepo: new(MockStatementRepository),
		ledgerRepo:    new(MockLedgerRepository),
		reconRepo:     new(MockReconciliationRepository),
		reportRepo:    new(MockReportRepository),
	}
	retryer := persistence.NewRetryer(logger, &config.RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	})
	pipeline := engine.NewPipeline(logger, params, nil)
	svc := NewRunService(logger, m.statementRepo, m.ledgerRepo, m.reconRepo, m.reportRepo, pipeline, params, retryer)
	return svc, m
}

func testRunAndRequest(t *testing.T) (*recon.Reconciliation, *recon.RunRequest) {
	t.Helper()
	period, err := shared.NewPeriod(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	run := recon.NewReconciliation(uuid.New(), period, recon.MethodAutomatic)
	request := &recon.RunRequest{
		ReconciliationID: run.ID,
		AccountID:        run.AccountID,
		Period:           period,
		Method:           run.Method,
		CorrelationID:    "corr-1",
		Timestamp:        time.Now(),
	}
	return run, request
}

func matchableInputs(period shared.Period) ([]*statement.BankStatementLine, []*ledger.InternalTransaction) {
	at := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	lines := []*statement.BankStatementLine{{
		ID:            uuid.New(),
		TransactionAt: at,
		CreditMinor:   4200,
		Reference:     "INV-42",
		Type:          statement.TransactionTypeCredit,
	}}
	txns := []*ledger.InternalTransaction{{
		ID:            uuid.New(),
		TransactionAt: at,
		AmountMinor:   4200,
		Reference:     "INV-42",
		Type:          ledger.TransactionTypeCredit,
	}}
	return lines, txns
}

func TestRunService_ExecuteRun(t *testing.T) {
	ctx := context.Background()

	t.Run("HappyPathCompletesRun", func(t *testing.T) {
		svc, m := newTestRunService()
		run, request := testRunAndRequest(t)
		lines, txns := matchableInputs(run.Period)

		m.reconRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
		m.reconRepo.On("UpdateStatus", mock.Anything, run).Return(nil)
		m.statementRepo.On("LoadUnreconciledLines", mock.Anything, run.AccountID, run.Period).Return(lines, nil)
		m.ledgerRepo.On("LoadUnreconciledTransactions", mock.Anything, run.AccountID, run.Period).Return(txns, nil)
		m.reconRepo.On("IsCancelRequested", mock.Anything, run.ID).Return(false, nil)
		m.reconRepo.On("PersistMatches", mock.Anything, mock.MatchedBy(func(matches []*recon.Match) bool {
			return len(matches) == 1 && matches[0].Type == recon.MatchTypeExact
		})).Return(nil)
		m.reportRepo.On("Save", mock.Anything, mock.AnythingOfType("*recon.RunReport")).Return(nil)

		err := svc.ExecuteRun(ctx, request)

		require.NoError(t, err)
		assert.Equal(t, recon.StatusCompleted, run.Status)
		assert.Equal(t, 2, run.MatchedCount, "one line plus one transaction")
		assert.Equal(t, 2, run.TotalCount)
		assert.InDelta(t, 1.0, run.MatchRate, 1e-9)
		m.reconRepo.AssertExpectations(t)
		m.reportRepo.AssertExpectations(t)
	})

	t.Run("LeftoversSendRunToReview", func(t *testing.T) {
		svc, m := newTestRunService()
		run, request := testRunAndRequest(t)
		_, txns := matchableInputs(run.Period)

		m.reconRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
		m.reconRepo.On("UpdateStatus", mock.Anything, run).Return(nil)
		m.statementRepo.On("LoadUnreconciledLines", mock.Anything, run.AccountID, run.Period).
			Return([]*statement.BankStatementLine{}, nil)
		m.ledgerRepo.On("LoadUnreconciledTransactions", mock.Anything, run.AccountID, run.Period).Return(txns, nil)
		m.reconRepo.On("IsCancelRequested", mock.Anything, run.ID).Return(false, nil)
		m.reconRepo.On("PersistDiscrepancies", mock.Anything, mock.MatchedBy(func(ds []*recon.Discrepancy) bool {
			return len(ds) == 1 && ds[0].Type == recon.DiscrepancyMissingInBank
		})).Return(nil)
		m.reportRepo.On("Save", mock.Anything, mock.AnythingOfType("*recon.RunReport")).Return(nil)

		err := svc.ExecuteRun(ctx, request)

		require.NoError(t, err)
		assert.Equal(t, recon.StatusRequiresReview, run.Status)
		assert.Equal(t, 1, run.DiscrepancyCount)
		m.reconRepo.AssertNotCalled(t, "PersistMatches")
	})

	t.Run("RedeliveredMessageForStartedRunIsAcknowledged", func(t *testing.T) {
		svc, m := newTestRunService()
		run, request := testRunAndRequest(t)
		require.NoError(t, run.Begin())

		m.reconRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)

		err := svc.ExecuteRun(ctx, request)

		require.NoError(t, err)
		m.reconRepo.AssertNotCalled(t, "UpdateStatus")
		m.statementRepo.AssertNotCalled(t, "LoadUnreconciledLines")
	})

	t.Run("InvalidInputsCancelTheRun", func(t *testing.T) {
		svc, m := newTestRunService()
		run, request := testRunAndRequest(t)

		bad := &statement.BankStatementLine{
			ID:            uuid.New(),
			TransactionAt: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
			DebitMinor:    100,
			CreditMinor:   100,
		}

		m.reconRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
		m.reconRepo.On("UpdateStatus", mock.Anything, run).Return(nil)
		m.statementRepo.On("LoadUnreconciledLines", mock.Anything, run.AccountID, run.Period).
			Return([]*statement.BankStatementLine{bad}, nil)
		m.ledgerRepo.On("LoadUnreconciledTransactions", mock.Anything, run.AccountID, run.Period).
			Return([]*ledger.InternalTransaction{}, nil)
		m.reportRepo.On("Save", mock.Anything, mock.AnythingOfType("*recon.RunReport")).Return(nil)

		err := svc.ExecuteRun(ctx, request)

		require.NoError(t, err, "validation failures consume the message")
		assert.Equal(t, recon.StatusCancelled, run.Status)
		assert.Contains(t, run.FailureReason, bad.ID.String())
		m.reconRepo.AssertNotCalled(t, "PersistMatches")
	})

	t.Run("CooperativeCancellationBetweenPasses", func(t *testing.T) {
		svc, m := newTestRunService()
		run, request := testRunAndRequest(t)
		lines, txns := matchableInputs(run.Period)

		m.reconRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
		m.reconRepo.On("UpdateStatus", mock.Anything, run).Return(nil)
		m.statementRepo.On("LoadUnreconciledLines", mock.Anything, run.AccountID, run.Period).Return(lines, nil)
		m.ledgerRepo.On("LoadUnreconciledTransactions", mock.Anything, run.AccountID, run.Period).Return(txns, nil)
		m.reconRepo.On("IsCancelRequested", mock.Anything, run.ID).Return(true, nil)
		m.reportRepo.On("Save", mock.Anything, mock.AnythingOfType("*recon.RunReport")).Return(nil)

		err := svc.ExecuteRun(ctx, request)

		require.NoError(t, err)
		assert.Equal(t, recon.StatusCancelled, run.Status)
		assert.Equal(t, "cancellation requested", run.FailureReason)
		m.reconRepo.AssertNotCalled(t, "PersistMatches")
	})

	t.Run("PersistFailureLeavesRunInProgressForRedelivery", func(t *testing.T) {
		svc, m := newTestRunService()
		run, request := testRunAndRequest(t)
		lines, txns := matchableInputs(run.Period)
		dbErr := errors.New("connection reset")

		m.reconRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
		m.reconRepo.On("UpdateStatus", mock.Anything, run).Return(nil)
		m.statementRepo.On("LoadUnreconciledLines", mock.Anything, run.AccountID, run.Period).Return(lines, nil)
		m.ledgerRepo.On("LoadUnreconciledTransactions", mock.Anything, run.AccountID, run.Period).Return(txns, nil)
		m.reconRepo.On("IsCancelRequested", mock.Anything, run.ID).Return(false, nil)
		m.reconRepo.On("PersistMatches", mock.Anything, mock.Anything).Return(dbErr)

		err := svc.ExecuteRun(ctx, request)

		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.Equal(t, recon.StatusInProgress, run.Status)
		m.reportRepo.AssertNotCalled(t, "Save")
	})

	t.Run("LoadFailureSurfacesForRedelivery", func(t *testing.T) {
		svc, m := newTestRunService()
		_, request := testRunAndRequest(t)
		dbErr := errors.New("connection reset")

		m.reconRepo.On("GetByID", mock.Anything, request.ReconciliationID).Return(nil, dbErr)

		err := svc.ExecuteRun(ctx, request)

		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
	})
}
