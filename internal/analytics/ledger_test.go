package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/analytics"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/testsupport"
)

func TestEventsByOwnerInRange(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")
	other := testsupport.CreateTestUser(t, db, "bob")

	start := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	end := start.Add(time.Hour)

	// Before, inside (twice), at the exclusive end, and another owner.
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v-early", analytics.EventTypeView, start.Add(-time.Minute), nil, nil)
	second := testsupport.CreateTrackingEvent(t, db, owner.ID, "v-2", analytics.EventTypeView, start.Add(30*time.Minute), nil, nil)
	first := testsupport.CreateTrackingEvent(t, db, owner.ID, "v-1", analytics.EventTypeView, start, nil, nil)
	testsupport.CreateTrackingEvent(t, db, owner.ID, "v-late", analytics.EventTypeView, end, nil, nil)
	testsupport.CreateTrackingEvent(t, db, other.ID, "v-other", analytics.EventTypeView, start.Add(10*time.Minute), nil, nil)

	events, err := analytics.EventsByOwnerInRange(db, owner.ID, start, end)
	require.NoError(t, err)
	require.Len(t, events, 2, "start is inclusive, end is exclusive")
	assert.Equal(t, first.ID, events[0].ID, "oldest first")
	assert.Equal(t, second.ID, events[1].ID)
}
