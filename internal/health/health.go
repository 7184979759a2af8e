// Package health computes the portfolio health score shown on the
// dashboard. The score is a 100-point checklist over portfolio content
// plus the analytics summary's engagement ratio.
package health

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/analytics"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/portfolio"
)

// Scoring breakdown:
// - Profile (30): basic profile 15, skills 10, summary 5
// - Projects (25): at least one 10, at least three +15
// - Education & achievements (20): education 10, achievement 10
// - Analytics (15): at least one view 5, engagement rate >= 50% +10
// - Activity (10): content updated in the last 30 days
const (
	profileBasicPoints   = 15
	profileSkillsPoints  = 10
	profileSummaryPoints = 5

	projectsOnePoints   = 10
	projectsThreePoints = 15

	educationPoints   = 10
	achievementPoints = 10

	analyticsViewPoints       = 5
	analyticsEngagementPoints = 10
	engagementThresholdPct    = 50

	activityRecentPoints  = 10
	activityDaysThreshold = 30
)

// Check is one named line item of the score.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Points int    `json:"points"`
}

// Result is the computed health score plus its line items.
type Result struct {
	Score  int     `json:"score"`
	Checks []Check `json:"checks"`
}

// ComputeForOwner scores the owner's portfolio. Missing content is a
// failed check, not an error; only storage failures propagate.
func ComputeForOwner(db *gorm.DB, ownerID uint) (*Result, error) {
	result := &Result{Checks: make([]Check, 0, 9)}

	profile, err := portfolio.ProfileByUser(db, ownerID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}

	projects, err := portfolio.ProjectsByUser(db, ownerID)
	if err != nil {
		return nil, err
	}

	educationCount, err := portfolio.CountEducationByUser(db, ownerID)
	if err != nil {
		return nil, err
	}

	achievementCount, err := portfolio.CountAchievementsByUser(db, ownerID)
	if err != nil {
		return nil, err
	}

	summary, err := analytics.SummaryForOwner(db, ownerID)
	if err != nil {
		return nil, err
	}

	// Profile
	hasBasicProfile := profile != nil && profile.FullName != "" && profile.Headline != ""
	result.addCheck("profile_basic", hasBasicProfile, profileBasicPoints)
	result.addCheck("profile_skills", profile != nil && strings.TrimSpace(profile.Skills) != "", profileSkillsPoints)
	result.addCheck("profile_summary", profile != nil && strings.TrimSpace(profile.Summary) != "", profileSummaryPoints)

	// Projects
	result.addCheck("projects_one", len(projects) >= 1, projectsOnePoints)
	result.addCheck("projects_three", len(projects) >= 3, projectsThreePoints)

	// Education & achievements
	result.addCheck("education", educationCount >= 1, educationPoints)
	result.addCheck("achievement", achievementCount >= 1, achievementPoints)

	// Analytics
	result.addCheck("analytics_views", summary.TotalViews >= 1, analyticsViewPoints)
	engaged := summary.TotalViews > 0 && summary.EngagementRatePercent() >= engagementThresholdPct
	result.addCheck("analytics_engagement", engaged, analyticsEngagementPoints)

	// Activity
	lastUpdate, err := portfolio.LastContentUpdate(db, ownerID)
	if err != nil {
		return nil, err
	}
	recentlyActive := !lastUpdate.IsZero() &&
		time.Since(lastUpdate) <= activityDaysThreshold*24*time.Hour
	result.addCheck("recent_activity", recentlyActive, activityRecentPoints)

	return result, nil
}

func (r *Result) addCheck(name string, passed bool, points int) {
	r.Checks = append(r.Checks, Check{Name: name, Passed: passed, Points: points})
	if passed {
		r.Score += points
	}
}
