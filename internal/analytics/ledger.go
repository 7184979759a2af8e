package analytics

import (
	"fmt"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

const eventsTableName = "tracking_events"

// AppendEvent persists an accepted event to the ledger. The stored
// CreatedAt is stamped here, at write time; the user agent is truncated
// to MaxUserAgentLength. There is no update or delete counterpart -
// the ledger is append-only.
func AppendEvent(db *gorm.DB, logger *slog.Logger, event *TrackingEvent) error {
	if len(event.UserAgent) > MaxUserAgentLength {
		event.UserAgent = event.UserAgent[:MaxUserAgentLength]
	}
	event.CreatedAt = time.Now().UTC()

	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(event).Error
	})
	if err != nil {
		return fmt.Errorf("failed to append tracking event: %w", err)
	}
	return nil
}

// hasEventSince reports whether an event of the given type exists for
// (owner, visitor) with a CreatedAt at or after since.
func hasEventSince(db *gorm.DB, ownerID uint, visitorID string, eventType EventType, since time.Time) (bool, error) {
	var count int64
	err := db.Model(&TrackingEvent{}).
		Where("owner_id = ? AND visitor_id = ? AND event_type = ? AND created_at >= ?",
			ownerID, visitorID, eventType, since).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to query ledger: %w", err)
	}
	return count > 0, nil
}

// EventsByOwner returns the owner's full event history in insertion order.
func EventsByOwner(db *gorm.DB, ownerID uint) ([]TrackingEvent, error) {
	var events []TrackingEvent
	err := db.Where("owner_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for owner %d: %w", ownerID, err)
	}
	return events, nil
}

// EventsByOwnerInRange returns the owner's events with
// start <= CreatedAt < end, oldest first with ties broken by
// insertion order.
func EventsByOwnerInRange(db *gorm.DB, ownerID uint, start, end time.Time) ([]TrackingEvent, error) {
	var events []TrackingEvent
	err := db.Where("owner_id = ? AND created_at >= ? AND created_at < ?", ownerID, start, end).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events for owner %d: %w", ownerID, err)
	}
	return events, nil
}

// DistinctOwnerIDs returns every owner with at least one recorded event.
func DistinctOwnerIDs(db *gorm.DB) ([]uint, error) {
	var ownerIDs []uint
	err := db.Model(&TrackingEvent{}).
		Distinct("owner_id").
		Order("owner_id ASC").
		Pluck("owner_id", &ownerIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch distinct owners: %w", err)
	}
	return ownerIDs, nil
}

// DailyTypeCount is one (day, event type) bucket of grouped counts.
// Day is formatted YYYY-MM-DD in the server's local time zone.
type DailyTypeCount struct {
	Day       string
	EventType EventType
	Count     int
}

// DailyCountsByOwner returns grouped (day, type) -> count for the
// owner's events in [start, end), bucketed by server-local calendar day.
func DailyCountsByOwner(db *gorm.DB, ownerID uint, start, end time.Time) ([]DailyTypeCount, error) {
	var results []DailyTypeCount
	query := fmt.Sprintf(`
        SELECT
            DATE(created_at, 'localtime') AS day,
            event_type,
            COUNT(*) AS count
        FROM %s
        WHERE owner_id = ? AND created_at >= ? AND created_at < ?
        GROUP BY day, event_type
        ORDER BY day ASC
    `, eventsTableName)

	err := db.Raw(query, ownerID, start.UTC(), end.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily counts for owner %d: %w", ownerID, err)
	}
	return results, nil
}

// DailyVisitor is one distinct (day, event type, visitor) row, used to
// derive per-day bounce sets.
type DailyVisitor struct {
	Day       string
	EventType EventType
	VisitorID string
}

// DailyVisitorsByOwner returns the distinct (day, type, visitor) rows
// for the owner's events in [start, end), bucketed by server-local
// calendar day. Trends derives the per-day bounce set from these.
func DailyVisitorsByOwner(db *gorm.DB, ownerID uint, start, end time.Time) ([]DailyVisitor, error) {
	var results []DailyVisitor
	query := fmt.Sprintf(`
        SELECT DISTINCT
            DATE(created_at, 'localtime') AS day,
            event_type,
            visitor_id
        FROM %s
        WHERE owner_id = ? AND created_at >= ? AND created_at < ?
        ORDER BY day ASC
    `, eventsTableName)

	err := db.Raw(query, ownerID, start.UTC(), end.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily visitors for owner %d: %w", ownerID, err)
	}
	return results, nil
}
