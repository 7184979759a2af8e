package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/analytics"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/testsupport"
)

func TestAggregateForOwnerDistinctVisitors(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")
	now := time.Now().UTC()

	// Visitor v1 views and engages.
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v1", analytics.EventTypeView,
		now.Add(-2*time.Hour), testsupport.IntPtr(0), nil)
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v1", analytics.EventTypeEngaged,
		now.Add(-2*time.Hour+40*time.Second), testsupport.IntPtr(40), testsupport.IntPtr(80))

	require.NoError(t, analytics.AggregateForOwner(db, logger, owner.ID))

	summary, err := analytics.SummaryForOwner(db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalViews)
	assert.Equal(t, 1, summary.EngagedViews)
	assert.Equal(t, 0, summary.BounceCount)

	// Visitor v2 views but never engages: becomes the bounce.
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v2", analytics.EventTypeView,
		now.Add(-time.Hour), testsupport.IntPtr(40), nil)

	require.NoError(t, analytics.AggregateForOwner(db, logger, owner.ID))

	summary, err = analytics.SummaryForOwner(db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalViews)
	assert.Equal(t, 1, summary.EngagedViews)
	assert.Equal(t, 1, summary.BounceCount)
	assert.Equal(t, summary.TotalViews, summary.EngagedViews+summary.BounceCount,
		"views must always split exactly into engaged and bounced")
}

func TestIngestThenAggregateLifecycle(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")

	// v1 views with duration 0: a visit, but a bounce until engagement.
	analytics.TrackEvent(db, logger, &analytics.TrackEventInput{
		OwnerUsername:   "alice",
		EventType:       "VIEW",
		DurationSeconds: testsupport.IntPtr(0),
		VisitorID:       "v1",
	})
	require.NoError(t, analytics.AggregateForOwner(db, logger, owner.ID))

	summary, err := analytics.SummaryForOwner(db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalViews)
	assert.Equal(t, 0, summary.EngagedViews)
	assert.Equal(t, 1, summary.BounceCount)

	// v1 engages within the window: the bounce converts.
	analytics.TrackEvent(db, logger, &analytics.TrackEventInput{
		OwnerUsername:   "alice",
		EventType:       "ENGAGED",
		DurationSeconds: testsupport.IntPtr(40),
		VisitorID:       "v1",
	})
	require.NoError(t, analytics.AggregateForOwner(db, logger, owner.ID))

	summary, err = analytics.SummaryForOwner(db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalViews)
	assert.Equal(t, 1, summary.EngagedViews)
	assert.Equal(t, 0, summary.BounceCount)

	// v2 only views.
	analytics.TrackEvent(db, logger, &analytics.TrackEventInput{
		OwnerUsername: "alice",
		EventType:     "VIEW",
		VisitorID:     "v2",
	})
	require.NoError(t, analytics.AggregateForOwner(db, logger, owner.ID))

	summary, err = analytics.SummaryForOwner(db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalViews)
	assert.Equal(t, 1, summary.EngagedViews)
	assert.Equal(t, 1, summary.BounceCount)
}

func TestAggregateForOwnerAverageDuration(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")
	now := time.Now().UTC()

	// Two VIEW durations, 0 and 40: average floors to 20. The ENGAGED
	// duration must not contribute.
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v1", analytics.EventTypeView,
		now.Add(-2*time.Hour), testsupport.IntPtr(0), nil)
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v2", analytics.EventTypeView,
		now.Add(-time.Hour), testsupport.IntPtr(40), nil)
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v2", analytics.EventTypeEngaged,
		now.Add(-time.Hour+45*time.Second), testsupport.IntPtr(600), nil)

	require.NoError(t, analytics.AggregateForOwner(db, logger, owner.ID))

	summary, err := analytics.SummaryForOwner(db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, summary.AvgDurationSeconds)
}

func TestAggregateForOwnerSkipsNilDurations(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")
	now := time.Now().UTC()

	// Only one VIEW carries a duration; the nil one is excluded from
	// the average, not counted as zero.
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v1", analytics.EventTypeView,
		now.Add(-2*time.Hour), nil, nil)
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v2", analytics.EventTypeView,
		now.Add(-time.Hour), testsupport.IntPtr(30), nil)

	require.NoError(t, analytics.AggregateForOwner(db, logger, owner.ID))

	summary, err := analytics.SummaryForOwner(db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, summary.AvgDurationSeconds)
}

func TestAggregateForOwnerRepeatVisitorCountsOnce(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")
	now := time.Now().UTC()

	// The same visitor across three separate sessions is still one
	// distinct viewer.
	for i := 1; i <= 3; i++ {
		testsupport.CreateTrackingEvent(t, db, owner.ID, "v1", analytics.EventTypeView,
			now.Add(-time.Duration(i)*time.Hour), testsupport.IntPtr(10), nil)
	}

	require.NoError(t, analytics.AggregateForOwner(db, logger, owner.ID))

	summary, err := analytics.SummaryForOwner(db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalViews)
	assert.Equal(t, 1, summary.BounceCount)
}

func TestAggregateForOwnerZeroEvents(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")

	require.NoError(t, analytics.AggregateForOwner(db, logger, owner.ID))

	// A row must exist: "computed empty" is distinguishable from
	// "never computed" by LastCalculatedAt.
	var stored analytics.Summary
	require.NoError(t, db.Where("owner_id = ?", owner.ID).First(&stored).Error)
	assert.Equal(t, 0, stored.TotalViews)
	assert.Equal(t, 0, stored.EngagedViews)
	assert.Equal(t, 0, stored.BounceCount)
	assert.Equal(t, 0, stored.AvgDurationSeconds)
	assert.False(t, stored.LastCalculatedAt.IsZero())
}

func TestSummaryForOwnerNeverComputed(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")

	summary, err := analytics.SummaryForOwner(db, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, summary.OwnerID)
	assert.Equal(t, 0, summary.TotalViews)
	assert.True(t, summary.LastCalculatedAt.IsZero())

	// The fallback is not persisted.
	var count int64
	require.NoError(t, db.Model(&analytics.Summary{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSummaryRatePercentages(t *testing.T) {
	summary := &analytics.Summary{TotalViews: 3, EngagedViews: 1, BounceCount: 2}
	assert.Equal(t, 33, summary.EngagementRatePercent(), "rates truncate, never round")
	assert.Equal(t, 66, summary.BounceRatePercent())

	empty := &analytics.Summary{}
	assert.Equal(t, 0, empty.EngagementRatePercent())
	assert.Equal(t, 0, empty.BounceRatePercent())
}
