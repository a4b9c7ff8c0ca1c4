package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/community-billing-ledger/internal/domain/shared"
)

// WorkerPoolBackfillService implements the BackfillService interface
type WorkerPoolBackfillService struct {
	baseService BackfillService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolBackfillService(
	baseService BackfillService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolBackfillService, error) {
	// Create a new worker pool with the specified size
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolBackfillService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ProcessBackfill submits a backfill request to the worker pool for processing.
func (s *WorkerPoolBackfillService) ProcessBackfill(ctx context.Context, request *shared.BackfillRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Submitting backfill request to worker pool",
		"request_id", request.RequestID.String(),
		"unit_id", request.UnitID.String(),
	)

	// Create a channel to receive the result of the backfill processing
	resultChan := make(chan error, 1)

	// Store the result channel in the result map
	requestID := request.RequestID.String()
	s.mu.Lock()
	s.results[requestID] = resultChan
	s.mu.Unlock()

	// Create a copy of the request to avoid data races
	requestCopy := *request

	// Submit the task to the worker pool
	err := s.pool.Submit(func() {
		// Process the backfill using the base service
		err := s.baseService.ProcessBackfill(ctx, &requestCopy)

		// Send the result to the channel
		resultChan <- err

		// Remove the result channel from the map
		s.mu.Lock()
		delete(s.results, requestID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		// If we couldn't submit the task to the pool, remove the result channel
		s.mu.Lock()
		delete(s.results, requestID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit backfill request to worker pool",
			"request_id", request.RequestID.String(),
			"error", err,
		)
		return err
	}

	// Wait for the result from the worker
	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolBackfillService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolBackfillService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolBackfillService) Capacity() int {
	return s.pool.Cap()
}
