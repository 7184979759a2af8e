package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/analytics"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/config"
)

// DashboardAnalyticsAction returns the aggregated summary for the
// authenticated owner, with the integer engagement and bounce rates the
// dashboard cards render.
func DashboardAnalyticsAction(ctx *cartridge.Context) error {
	ownerID, authenticated := ctx.Session.GetUserID(ctx.Ctx)
	if !authenticated {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	db := ctx.DB()

	summary, err := analytics.SummaryForOwner(db, ownerID)
	if err != nil {
		ctx.Logger.Error("Failed to load analytics summary",
			slog.Uint64("ownerID", uint64(ownerID)), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load analytics",
		})
	}

	return ctx.JSON(fiber.Map{
		"totalViews":         summary.TotalViews,
		"engagedViews":       summary.EngagedViews,
		"bounceCount":        summary.BounceCount,
		"avgDurationSeconds": summary.AvgDurationSeconds,
		"engagementRate":     summary.EngagementRatePercent(),
		"bounceRate":         summary.BounceRatePercent(),
		"lastCalculatedAt":   summary.LastCalculatedAt,
	})
}

// AnalyticsTrendsAction returns the daily trends series for the
// authenticated owner, computed from the ledger on demand.
func AnalyticsTrendsAction(ctx *cartridge.Context) error {
	ownerID, authenticated := ctx.Session.GetUserID(ctx.Ctx)
	if !authenticated {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	cfg := config.GetConfig()
	db := ctx.DB()

	trends, err := analytics.ComputeTrends(db, ownerID, cfg.GetTrendsWindowDays())
	if err != nil {
		ctx.Logger.Error("Failed to compute trends",
			slog.Uint64("ownerID", uint64(ownerID)), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute trends",
		})
	}

	return ctx.JSON(trends)
}
