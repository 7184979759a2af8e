package analytics

import (
	"math"
	"time"

	"gorm.io/gorm"
)

const trendDateFormat = "2006-01-02"

// ComputeTrends builds the per-day views, engagement-rate and
// bounce-rate series over the last windowDays calendar days (including
// today) in the server's local time zone. Every day in the window gets
// a point, zero-filled when no events exist.
//
// The series are read fresh from the ledger on every call and may run
// concurrently with ingestion and aggregation; the result is a
// best-effort snapshot with no serializability guarantee.
//
// Bounces are never stored, so the daily bounce rate is derived the
// same way the summary derives it: the set difference of visitors who
// viewed that day but never engaged that day, over the day's distinct
// viewers. Rates are rounded half-up to integer percentages.
func ComputeTrends(db *gorm.DB, ownerID uint, windowDays int) (*TrendsResult, error) {
	now := time.Now().In(time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	start := today.AddDate(0, 0, -(windowDays - 1))
	end := today.AddDate(0, 0, 1)

	counts, err := DailyCountsByOwner(db, ownerID, start, end)
	if err != nil {
		return nil, err
	}

	visitors, err := DailyVisitorsByOwner(db, ownerID, start, end)
	if err != nil {
		return nil, err
	}

	// (day, type) -> raw event count
	dailyCounts := make(map[string]map[EventType]int)
	for _, row := range counts {
		if dailyCounts[row.Day] == nil {
			dailyCounts[row.Day] = make(map[EventType]int)
		}
		dailyCounts[row.Day][row.EventType] = row.Count
	}

	// day -> distinct visitor sets per type
	dailyViewers := make(map[string]map[string]struct{})
	dailyEngagers := make(map[string]map[string]struct{})
	for _, row := range visitors {
		switch row.EventType {
		case EventTypeView:
			if dailyViewers[row.Day] == nil {
				dailyViewers[row.Day] = make(map[string]struct{})
			}
			dailyViewers[row.Day][row.VisitorID] = struct{}{}
		case EventTypeEngaged:
			if dailyEngagers[row.Day] == nil {
				dailyEngagers[row.Day] = make(map[string]struct{})
			}
			dailyEngagers[row.Day][row.VisitorID] = struct{}{}
		}
	}

	result := &TrendsResult{
		Views:          make([]TrendPoint, 0, windowDays),
		EngagementRate: make([]TrendPoint, 0, windowDays),
		BounceRate:     make([]TrendPoint, 0, windowDays),
	}

	for day := start; !day.After(today); day = day.AddDate(0, 0, 1) {
		key := day.Format(trendDateFormat)

		viewCount := dailyCounts[key][EventTypeView]
		engagedCount := dailyCounts[key][EventTypeEngaged]

		result.Views = append(result.Views, TrendPoint{Date: key, Count: viewCount})

		engagementRate := 0
		if viewCount > 0 {
			engagementRate = roundPercent(float64(engagedCount) / float64(viewCount))
		}
		result.EngagementRate = append(result.EngagementRate, TrendPoint{Date: key, Value: engagementRate})

		bounced := 0
		for visitor := range dailyViewers[key] {
			if _, engaged := dailyEngagers[key][visitor]; !engaged {
				bounced++
			}
		}
		bounceRate := 0
		if viewers := len(dailyViewers[key]); viewers > 0 {
			bounceRate = roundPercent(float64(bounced) / float64(viewers))
		}
		result.BounceRate = append(result.BounceRate, TrendPoint{Date: key, Value: bounceRate})
	}

	return result, nil
}

// roundPercent converts a ratio to an integer percentage, half-up.
func roundPercent(ratio float64) int {
	return int(math.Round(ratio * 100))
}
