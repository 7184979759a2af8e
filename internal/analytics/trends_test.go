package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/analytics"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/testsupport"
)

// localNoonToday pins event timestamps to the middle of the current
// local day so tests near midnight don't straddle a day boundary.
func localNoonToday() time.Time {
	now := time.Now().In(time.Local)
	return time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.Local).UTC()
}

func TestComputeTrendsZeroFill(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")

	trends, err := analytics.ComputeTrends(db, owner.ID, 7)
	require.NoError(t, err)

	require.Len(t, trends.Views, 7)
	require.Len(t, trends.EngagementRate, 7)
	require.Len(t, trends.BounceRate, 7)

	today := time.Now().In(time.Local).Format("2006-01-02")
	assert.Equal(t, today, trends.Views[6].Date, "window ends on today")

	for i, point := range trends.Views {
		assert.Equal(t, 0, point.Count)
		assert.Equal(t, 0, trends.EngagementRate[i].Value)
		assert.Equal(t, 0, trends.BounceRate[i].Value)
	}

	// Dates are consecutive calendar days.
	for i := 1; i < len(trends.Views); i++ {
		prev, err := time.ParseInLocation("2006-01-02", trends.Views[i-1].Date, time.Local)
		require.NoError(t, err)
		assert.Equal(t, prev.AddDate(0, 0, 1).Format("2006-01-02"), trends.Views[i].Date)
	}
}

func TestComputeTrendsRates(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")
	noon := localNoonToday()

	// Today: v1 views and engages, v2 only views.
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v1", analytics.EventTypeView,
		noon, testsupport.IntPtr(60), nil)
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v1", analytics.EventTypeEngaged,
		noon.Add(time.Minute), testsupport.IntPtr(60), nil)
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v2", analytics.EventTypeView,
		noon.Add(5*time.Minute), testsupport.IntPtr(5), nil)

	trends, err := analytics.ComputeTrends(db, owner.ID, 7)
	require.NoError(t, err)

	todayViews := trends.Views[len(trends.Views)-1]
	todayEngagement := trends.EngagementRate[len(trends.EngagementRate)-1]
	todayBounce := trends.BounceRate[len(trends.BounceRate)-1]

	assert.Equal(t, 2, todayViews.Count)
	// 1 ENGAGED over 2 VIEW events.
	assert.Equal(t, 50, todayEngagement.Value)
	// v2 viewed but never engaged: 1 of 2 distinct viewers bounced.
	assert.Equal(t, 50, todayBounce.Value)

	// Yesterday stays zero-filled.
	assert.Equal(t, 0, trends.Views[len(trends.Views)-2].Count)
}

func TestComputeTrendsBounceUsesDistinctVisitors(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")
	noon := localNoonToday()

	// v1 produces two VIEW rows today (separate sessions) plus an
	// ENGAGED; v2 and v3 view once each without engaging. Distinct
	// viewers: 3, bounced: 2 -> 67% half-up.
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v1", analytics.EventTypeView,
		noon, nil, nil)
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v1", analytics.EventTypeView,
		noon.Add(2*time.Hour), nil, nil)
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v1", analytics.EventTypeEngaged,
		noon.Add(2*time.Hour+time.Minute), testsupport.IntPtr(90), nil)
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v2", analytics.EventTypeView,
		noon.Add(time.Hour), nil, nil)
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v3", analytics.EventTypeView,
		noon.Add(3*time.Hour), nil, nil)

	trends, err := analytics.ComputeTrends(db, owner.ID, 7)
	require.NoError(t, err)

	todayBounce := trends.BounceRate[len(trends.BounceRate)-1]
	assert.Equal(t, 67, todayBounce.Value)

	// Views still counts raw events, not distinct visitors.
	todayViews := trends.Views[len(trends.Views)-1]
	assert.Equal(t, 4, todayViews.Count)
}

func TestComputeTrendsIgnoresEventsOutsideWindow(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")

	// 10 days ago is outside a 7-day window.
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v1", analytics.EventTypeView,
		time.Now().UTC().AddDate(0, 0, -10), nil, nil)

	trends, err := analytics.ComputeTrends(db, owner.ID, 7)
	require.NoError(t, err)

	for _, point := range trends.Views {
		assert.Equal(t, 0, point.Count)
	}
}
