package analytics

import "time"

// EventType represents the type of a stored tracking event.
//
// Only VIEW and ENGAGED are ever persisted. A "bounce" (a visitor who
// viewed but never engaged) is a derived quantity computed by set
// difference at aggregation/trends time - it must never become a third
// stored variant.
type EventType int

const (
	EventTypeView    EventType = 1
	EventTypeEngaged EventType = 2
)

// ParseEventType maps the wire representation to an EventType.
// The second return value is false for unknown or empty input.
func ParseEventType(s string) (EventType, bool) {
	switch s {
	case "VIEW":
		return EventTypeView, true
	case "ENGAGED":
		return EventTypeEngaged, true
	default:
		return 0, false
	}
}

// String returns the wire representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventTypeView:
		return "VIEW"
	case EventTypeEngaged:
		return "ENGAGED"
	default:
		return "UNKNOWN"
	}
}

// TrackingEvent is one accepted visitor signal in the append-only
// ledger. Rows are never updated or deleted. CreatedAt is stamped at
// persistence time, not submission time - the dedup window measures
// against it.
type TrackingEvent struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	OwnerID         uint      `gorm:"index:idx_owner_created;not null"`
	VisitorID       string    `gorm:"index;size:255;not null"`
	EventType       EventType `gorm:"index;not null"`
	DurationSeconds *int
	ScrollDepth     *int
	UserAgent       string    `gorm:"size:512"`
	CreatedAt       time.Time `gorm:"index:idx_owner_created;not null"`
}

// Summary holds the per-owner aggregate metrics. One row per owner,
// wholesale-overwritten on every aggregation cycle - fields are never
// partially updated. A zero-valued row with a LastCalculatedAt set
// means "computed empty"; no row means "never computed".
type Summary struct {
	OwnerID            uint `gorm:"primaryKey"`
	TotalViews         int  `gorm:"not null;default:0"`
	EngagedViews       int  `gorm:"not null;default:0"`
	BounceCount        int  `gorm:"not null;default:0"`
	AvgDurationSeconds int  `gorm:"not null;default:0"`
	LastCalculatedAt   time.Time
}

// TrendPoint is a single day in an on-demand trend series. It is
// computed fresh from the ledger on every request and never persisted.
// Count carries raw view counts; Value carries percentages.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count,omitempty"`
	Value int    `json:"value,omitempty"`
}

// TrendsResult bundles the three per-day series the dashboard charts.
type TrendsResult struct {
	Views          []TrendPoint `json:"views"`
	EngagementRate []TrendPoint `json:"engagementRate"`
	BounceRate     []TrendPoint `json:"bounceRate"`
}
