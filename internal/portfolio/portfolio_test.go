package portfolio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/portfolio"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/testsupport"
)

func TestRecentProjectsByUser(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")
	other := testsupport.CreateTestUser(t, db, "bob")

	base := time.Now().UTC().Add(-time.Hour)
	for i, title := range []string{"Oldest", "Middle", "Newest"} {
		require.NoError(t, db.Create(&portfolio.Project{
			UserID:    owner.ID,
			Title:     title,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}
	require.NoError(t, db.Create(&portfolio.Project{UserID: other.ID, Title: "Not Alice's"}).Error)

	projects, err := portfolio.RecentProjectsByUser(db, owner.ID, 2)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Newest", projects[0].Title)
	assert.Equal(t, "Middle", projects[1].Title)
}

func TestLastContentUpdate(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.CleanAllTables(db)

	owner := testsupport.CreateTestUser(t, db, "alice")

	// No content yet: zero time.
	last, err := portfolio.LastContentUpdate(db, owner.ID)
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	old := time.Now().UTC().AddDate(0, 0, -40)
	recent := time.Now().UTC().AddDate(0, 0, -2)

	require.NoError(t, db.Create(&portfolio.Profile{UserID: owner.ID, FullName: "Alice"}).Error)
	require.NoError(t, db.Model(&portfolio.Profile{}).Where("user_id = ?", owner.ID).
		UpdateColumn("updated_at", old).Error)

	// Profile only, still no projects.
	last, err = portfolio.LastContentUpdate(db, owner.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, old, last, time.Second)

	require.NoError(t, db.Create(&portfolio.Project{UserID: owner.ID, Title: "Fresh"}).Error)
	require.NoError(t, db.Model(&portfolio.Project{}).Where("user_id = ?", owner.ID).
		UpdateColumn("updated_at", recent).Error)

	last, err = portfolio.LastContentUpdate(db, owner.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, recent, last, time.Second, "the newest of profile/project updates wins")
}
