package v1

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/analytics"
)

type TrackEventParams struct {
	EventType       string `json:"eventType"`
	DurationSeconds *int   `json:"durationSeconds"`
	ScrollDepth     *int   `json:"scrollDepth"`
	VisitorID       string `json:"visitorId"`
}

// TrackEventPublicAPIHandler receives visitor events for a public portfolio
// page. It always answers 204 regardless of whether the event was stored:
// the tracking snippet runs on third-party pages and must never surface
// validation failures to them.
func TrackEventPublicAPIHandler(ctx *cartridge.Context) error {
	username := strings.TrimSpace(ctx.Params("username"))

	userAgent := ctx.Get("User-Agent")
	if forwardedUA := ctx.Get("X-Forwarded-User-Agent"); forwardedUA != "" {
		userAgent = forwardedUA
	}

	var params TrackEventParams
	if err := ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("Failed to parse track event body", slog.Any("error", err))
		return ctx.SendStatus(fiber.StatusNoContent)
	}

	// The header wins over the body so proxied snippets can override a
	// stale embedded identifier.
	visitorID := params.VisitorID
	if headerID := ctx.Get("X-Visitor-Id"); headerID != "" {
		visitorID = headerID
	}

	// An authenticated owner previewing their own page must not inflate
	// their numbers; the session is optional on this public route.
	var callerID uint
	if ctx.Session != nil {
		if userID, authenticated := ctx.Session.GetUserID(ctx.Ctx); authenticated {
			callerID = userID
		}
	}

	input := &analytics.TrackEventInput{
		OwnerUsername:   username,
		EventType:       params.EventType,
		DurationSeconds: params.DurationSeconds,
		ScrollDepth:     params.ScrollDepth,
		VisitorID:       visitorID,
		CallerID:        callerID,
		UserAgent:       userAgent,
	}

	analytics.TrackEvent(ctx.DB(), ctx.Logger, input)

	return ctx.SendStatus(fiber.StatusNoContent)
}

// PreflightHandler answers CORS preflight for the public tracking endpoint.
func PreflightHandler(ctx *cartridge.Context) error {
	return ctx.SendStatus(fiber.StatusNoContent)
}
