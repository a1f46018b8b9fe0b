package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/bankrecon-engine/internal/domain/recon"
)

// WorkerPoolRunService fans claimed runs out to a bounded worker pool so
// several accounts reconcile concurrently. Runs for the same account never
// overlap; the claim in the database guarantees that, not the pool.
type WorkerPoolRunService struct {
	baseService RunService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolRunService(
	baseService RunService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolRunService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolRunService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ExecuteRun submits a reconciliation run to the worker pool and waits for it
// to finish, so the consumer commits the offset only after the run settled.
func (s *WorkerPoolRunService) ExecuteRun(ctx context.Context, request *recon.RunRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Submitting reconciliation run to worker pool",
		"reconciliation_id", request.ReconciliationID.String(),
		"account_id", request.AccountID.String(),
	)

	resultChan := make(chan error, 1)

	runID := request.ReconciliationID.String()
	s.mu.Lock()
	s.results[runID] = resultChan
	s.mu.Unlock()

	// Create a copy of the request to avoid data races
	requestCopy := *request

	err := s.pool.Submit(func() {
		err := s.baseService.ExecuteRun(ctx, &requestCopy)

		resultChan <- err

		s.mu.Lock()
		delete(s.results, runID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		s.mu.Lock()
		delete(s.results, runID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit reconciliation run to worker pool",
			"reconciliation_id", request.ReconciliationID.String(),
			"error", err,
		)
		return err
	}

	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolRunService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolRunService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolRunService) Capacity() int {
	return s.pool.Cap()
}
