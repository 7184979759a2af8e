package analytics

import (
	"fmt"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

const summariesTableName = "summaries"

// AggregateForOwner recomputes the owner's Summary from the entire
// event history and overwrites the stored row wholesale. The 30-minute
// window is an ingestion-time concept only; aggregation always reads
// everything.
//
// Counting is per distinct visitor, not per event row:
//   - totalViews   = |visitors with a VIEW|
//   - engagedViews = |visitors with an ENGAGED|
//   - bounceCount  = |visitors with a VIEW and no ENGAGED|
//
// The flow guard makes engaged visitors a subset of viewed visitors at
// ingestion, so totalViews == engagedViews + bounceCount always holds.
// An owner with zero events still gets a zero-valued row written,
// distinguishing "computed empty" from "never computed".
//
// The full recompute is a deliberate simplicity/idempotence tradeoff:
// O(events) per owner per cycle, and safe to rerun at any time.
func AggregateForOwner(db *gorm.DB, logger *slog.Logger, ownerID uint) error {
	events, err := EventsByOwner(db, ownerID)
	if err != nil {
		return fmt.Errorf("aggregation failed for owner %d: %w", ownerID, err)
	}

	visitorsWithView := make(map[string]struct{})
	visitorsWithEngaged := make(map[string]struct{})
	totalDuration := 0
	durationCount := 0

	for _, event := range events {
		switch event.EventType {
		case EventTypeView:
			visitorsWithView[event.VisitorID] = struct{}{}
			if event.DurationSeconds != nil {
				totalDuration += *event.DurationSeconds
				durationCount++
			}
		case EventTypeEngaged:
			visitorsWithEngaged[event.VisitorID] = struct{}{}
		}
	}

	totalViews := len(visitorsWithView)
	engagedViews := len(visitorsWithEngaged)

	bounceCount := 0
	for visitor := range visitorsWithView {
		if _, engaged := visitorsWithEngaged[visitor]; !engaged {
			bounceCount++
		}
	}

	avgDurationSeconds := 0
	if durationCount > 0 {
		avgDurationSeconds = totalDuration / durationCount
	}

	summary := &Summary{
		OwnerID:            ownerID,
		TotalViews:         totalViews,
		EngagedViews:       engagedViews,
		BounceCount:        bounceCount,
		AvgDurationSeconds: avgDurationSeconds,
		LastCalculatedAt:   time.Now().UTC(),
	}

	if err := writeSummary(db, logger, summary); err != nil {
		return fmt.Errorf("aggregation failed for owner %d: %w", ownerID, err)
	}

	logger.Debug("Aggregated analytics",
		slog.Uint64("ownerID", uint64(ownerID)),
		slog.Int("totalViews", totalViews),
		slog.Int("engagedViews", engagedViews),
		slog.Int("bounceCount", bounceCount),
		slog.Int("avgDurationSeconds", avgDurationSeconds))
	return nil
}

// writeSummary creates or overwrites the owner's summary row in a
// single upsert - every field is replaced, never a partial update.
func writeSummary(db *gorm.DB, logger *slog.Logger, summary *Summary) error {
	query := fmt.Sprintf(`
        INSERT INTO %s (owner_id, total_views, engaged_views, bounce_count, avg_duration_seconds, last_calculated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT (owner_id) DO UPDATE SET
            total_views = excluded.total_views,
            engaged_views = excluded.engaged_views,
            bounce_count = excluded.bounce_count,
            avg_duration_seconds = excluded.avg_duration_seconds,
            last_calculated_at = excluded.last_calculated_at
    `, summariesTableName)

	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Exec(query,
			summary.OwnerID,
			summary.TotalViews,
			summary.EngagedViews,
			summary.BounceCount,
			summary.AvgDurationSeconds,
			summary.LastCalculatedAt).Error
	})
}

// SummaryForOwner returns the owner's stored summary, or a zero-valued
// one (LastCalculatedAt unset) when no aggregation has run yet.
func SummaryForOwner(db *gorm.DB, ownerID uint) (*Summary, error) {
	var summary Summary
	err := db.Where("owner_id = ?", ownerID).First(&summary).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &Summary{OwnerID: ownerID}, nil
		}
		return nil, fmt.Errorf("failed to fetch summary for owner %d: %w", ownerID, err)
	}
	return &summary, nil
}

// EngagementRatePercent returns engaged views over total views as an
// integer percentage, 0 when there are no views. Truncating division,
// matching the dashboard's stored-summary math.
func (s *Summary) EngagementRatePercent() int {
	if s.TotalViews <= 0 {
		return 0
	}
	return (s.EngagedViews * 100) / s.TotalViews
}

// BounceRatePercent returns bounces over total views as an integer
// percentage, 0 when there are no views.
func (s *Summary) BounceRatePercent() int {
	if s.TotalViews <= 0 {
		return 0
	}
	return (s.BounceCount * 100) / s.TotalViews
}
