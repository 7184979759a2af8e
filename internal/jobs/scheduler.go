package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/config"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/database"
)

// Scheduler is responsible for running background jobs. It guarantees
// fixed-delay semantics: a tick that arrives while a job is still
// running is skipped, never overlapped. Duplicate runs would be benign
// (the aggregation is an idempotent wholesale recompute) but wasteful.
// Single-instance deployments are assumed; there is no cross-process
// leader election.
type Scheduler struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	cfg       *config.Config

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	// Job instances
	aggregationJob *AggregationJob

	// Tickers for each job type
	aggregationTicker *time.Ticker
}

func NewScheduler(dbManager *database.DBManager, logger *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.GetConfig()

	s := &Scheduler{
		dbManager: dbManager,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		enabled:   true,
		isRunning: false,
		cfg:       cfg,
	}

	s.aggregationJob = NewAggregationJob(dbManager, logger)

	return s, nil
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")

	s.isRunning = true

	s.startAggregationJob()

	s.logger.Info("Background jobs started",
		slog.Bool("enabled", s.enabled),
		slog.Bool("isRunning", s.isRunning))

	return nil
}

func (s *Scheduler) startAggregationJob() {
	interval := time.Duration(s.cfg.GetAggregationInterval()) * time.Second
	s.logger.Info("Starting analytics aggregation job", slog.Duration("interval", interval))
	s.aggregationTicker = time.NewTicker(interval)

	go func() {
		// Run initial execution
		s.logger.Info("Running initial analytics aggregation...")
		s.executeJobSafely("analytics_aggregation", s.aggregationJob.Run)

		for {
			select {
			case <-s.aggregationTicker.C:
				s.executeJobSafely("analytics_aggregation", s.aggregationJob.Run)
			case <-s.ctx.Done():
				s.logger.Info("Analytics aggregation job stopped")
				return
			}
		}
	}()
}

// Stop halts all background jobs.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	if s.aggregationTicker != nil {
		s.aggregationTicker.Stop()
	}

	s.cancel()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}

// RunAggregation allows manual triggering of the aggregation pass
// (used by the admin CLI and tests).
func (s *Scheduler) RunAggregation() error {
	if !s.enabled {
		return nil
	}
	return s.aggregationJob.Run()
}
