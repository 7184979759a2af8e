package jobs

import (
	"log/slog"

	"github.com/karloscodes/cartridge"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/analytics"
)

// AggregationJob recomputes every owner's analytics summary from the
// event ledger. Owners are independent: a failure for one owner is
// logged and never aborts the rest of the batch.
type AggregationJob struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
}

func NewAggregationJob(dbManager cartridge.DBManager, logger *slog.Logger) *AggregationJob {
	return &AggregationJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Run aggregates analytics for every owner with at least one recorded event.
func (j *AggregationJob) Run() error {
	j.logger.Info("Starting analytics aggregation")

	db := j.dbManager.GetConnection()

	ownerIDs, err := analytics.DistinctOwnerIDs(db)
	if err != nil {
		j.logger.Error("Failed to list owners with events", slog.Any("error", err))
		return err
	}

	if len(ownerIDs) == 0 {
		j.logger.Debug("No analytics events found, skipping aggregation")
		return nil
	}

	j.logger.Info("Aggregating analytics", slog.Int("owners", len(ownerIDs)))

	successCount := 0
	for _, ownerID := range ownerIDs {
		if err := analytics.AggregateForOwner(db, j.logger, ownerID); err != nil {
			j.logger.Warn("Failed to aggregate analytics for owner",
				slog.Uint64("ownerID", uint64(ownerID)),
				slog.Any("error", err))
			continue
		}
		successCount++
	}

	j.logger.Info("Completed analytics aggregation",
		slog.Int("success", successCount),
		slog.Int("total", len(ownerIDs)))

	return nil
}
