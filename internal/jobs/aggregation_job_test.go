package jobs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/analytics"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/jobs"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/testsupport"
)

func TestAggregationJobRunsForAllOwners(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	alice := testsupport.CreateTestUser(t, db, "alice")
	bob := testsupport.CreateTestUser(t, db, "bob")
	// carol has an account but no events: no summary row expected.
	carol := testsupport.CreateTestUser(t, db, "carol")

	now := time.Now().UTC()
	testsupport.CreateTrackingEvent(t, db, alice.ID, "v1", analytics.EventTypeView, now.Add(-time.Hour), testsupport.IntPtr(20), nil)
	testsupport.CreateTrackingEvent(t, db, alice.ID, "v1", analytics.EventTypeEngaged, now.Add(-59*time.Minute), testsupport.IntPtr(60), nil)
	testsupport.CreateTrackingEvent(t, db, bob.ID, "v2", analytics.EventTypeView, now.Add(-30*time.Minute), testsupport.IntPtr(10), nil)

	job := jobs.NewAggregationJob(testsupport.NewTestDBManager(db), logger)
	require.NoError(t, job.Run())

	aliceSummary, err := analytics.SummaryForOwner(db, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, aliceSummary.TotalViews)
	assert.Equal(t, 1, aliceSummary.EngagedViews)
	assert.Equal(t, 0, aliceSummary.BounceCount)

	bobSummary, err := analytics.SummaryForOwner(db, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, bobSummary.TotalViews)
	assert.Equal(t, 0, bobSummary.EngagedViews)
	assert.Equal(t, 1, bobSummary.BounceCount)

	var count int64
	require.NoError(t, db.Model(&analytics.Summary{}).Where("owner_id = ?", carol.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count, "owners without events are skipped entirely")
}

func TestAggregationJobEmptyLedger(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	job := jobs.NewAggregationJob(testsupport.NewTestDBManager(db), logger)
	require.NoError(t, job.Run())

	var count int64
	require.NoError(t, db.Model(&analytics.Summary{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAggregationJobIsIdempotent(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	testsupport.CleanAllTables(db)

	alice := testsupport.CreateTestUser(t, db, "alice")
	testsupport.CreateTrackingEvent(t, db, alice.ID, "v1", analytics.EventTypeView,
		time.Now().UTC().Add(-time.Hour), testsupport.IntPtr(20), nil)

	job := jobs.NewAggregationJob(testsupport.NewTestDBManager(db), logger)
	require.NoError(t, job.Run())
	require.NoError(t, job.Run())

	var count int64
	require.NoError(t, db.Model(&analytics.Summary{}).Where("owner_id = ?", alice.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count, "reruns overwrite the row, never add one")

	summary, err := analytics.SummaryForOwner(db, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalViews)
}
