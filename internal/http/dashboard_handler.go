package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/analytics"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/health"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/portfolio"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/users"
)

const overviewRecentProjectLimit = 3

// HealthScoreAction returns the portfolio health score breakdown for
// the authenticated owner.
func HealthScoreAction(ctx *cartridge.Context) error {
	ownerID, authenticated := ctx.Session.GetUserID(ctx.Ctx)
	if !authenticated {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	db := ctx.DB()

	result, err := health.ComputeForOwner(db, ownerID)
	if err != nil {
		ctx.Logger.Error("Failed to compute health score",
			slog.Uint64("ownerID", uint64(ownerID)), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute health score",
		})
	}

	return ctx.JSON(result)
}

// DashboardOverviewAction combines account info, the health score, the
// analytics summary rates and the most recent projects into the single
// payload the dashboard landing page renders.
func DashboardOverviewAction(ctx *cartridge.Context) error {
	ownerID, authenticated := ctx.Session.GetUserID(ctx.Ctx)
	if !authenticated {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	db := ctx.DB()

	user, err := users.FindByID(db, ownerID)
	if err != nil {
		ctx.Logger.Error("Failed to find user for overview",
			slog.Uint64("ownerID", uint64(ownerID)), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load overview",
		})
	}

	healthResult, err := health.ComputeForOwner(db, ownerID)
	if err != nil {
		ctx.Logger.Error("Failed to compute health score for overview",
			slog.Uint64("ownerID", uint64(ownerID)), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load overview",
		})
	}

	summary, err := analytics.SummaryForOwner(db, ownerID)
	if err != nil {
		ctx.Logger.Error("Failed to load summary for overview",
			slog.Uint64("ownerID", uint64(ownerID)), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load overview",
		})
	}

	recentProjects, err := portfolio.RecentProjectsByUser(db, ownerID, overviewRecentProjectLimit)
	if err != nil {
		ctx.Logger.Error("Failed to load recent projects for overview",
			slog.Uint64("ownerID", uint64(ownerID)), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load overview",
		})
	}

	return ctx.JSON(fiber.Map{
		"username":    user.Username,
		"email":       user.Email,
		"memberSince": user.CreatedAt,
		"healthScore": healthResult.Score,
		"analytics": fiber.Map{
			"totalViews":     summary.TotalViews,
			"engagedViews":   summary.EngagedViews,
			"engagementRate": summary.EngagementRatePercent(),
			"bounceRate":     summary.BounceRatePercent(),
		},
		"recentProjects": recentProjects,
	})
}
