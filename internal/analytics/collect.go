package analytics

import (
	"errors"
	"strings"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"github.com/ShubhamPimparkar/PortfolioMaker/internal/users"
)

// TrackEventInput is a raw visitor signal addressed to a portfolio
// owner's public username. CallerID is the authenticated account id of
// the submitter if a session exists, zero otherwise; it is only used
// for self-view exclusion.
type TrackEventInput struct {
	OwnerUsername   string
	EventType       string
	DurationSeconds *int
	ScrollDepth     *int
	VisitorID       string
	CallerID        uint
	UserAgent       string
}

// TrackEvent runs the full ingestion pipeline: payload validation, bot
// and self-view filtering, the time-windowed dedup and event-flow
// guard, and finally the ledger append.
//
// Every rejection is a silent drop (debug log only) and any unexpected
// failure - including a panic - is caught and treated as a drop.
// Analytics must never affect portfolio rendering, so nothing here is
// ever surfaced to the public caller.
func TrackEvent(db *gorm.DB, logger *slog.Logger, input *TrackEventInput) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Panic recovered while tracking event",
				slog.String("username", input.OwnerUsername),
				slog.Any("panic", r))
		}
	}()

	// STEP 1: payload validation
	eventType, ok := ParseEventType(input.EventType)
	if !ok {
		logger.Debug("Dropping event: missing or unknown event type",
			slog.String("username", input.OwnerUsername),
			slog.String("eventType", input.EventType))
		return
	}

	if input.DurationSeconds != nil && *input.DurationSeconds < 0 {
		logger.Debug("Dropping event: negative duration",
			slog.String("username", input.OwnerUsername),
			slog.Int("duration", *input.DurationSeconds))
		return
	}

	if input.ScrollDepth != nil && (*input.ScrollDepth < 0 || *input.ScrollDepth > 100) {
		logger.Debug("Dropping event: scroll depth out of range",
			slog.String("username", input.OwnerUsername),
			slog.Int("scrollDepth", *input.ScrollDepth))
		return
	}

	if strings.TrimSpace(input.VisitorID) == "" || input.VisitorID == AnonymousVisitorID {
		logger.Debug("Dropping event: missing or anonymous visitor id",
			slog.String("username", input.OwnerUsername))
		return
	}

	// STEP 2: resolve the portfolio owner
	owner, err := users.FindByUsername(db, input.OwnerUsername)
	if err != nil {
		var notFound *users.UserNotFoundError
		if errors.As(err, &notFound) {
			logger.Debug("Dropping event: owner not found",
				slog.String("username", input.OwnerUsername))
		} else {
			logger.Error("Failed to resolve portfolio owner",
				slog.String("username", input.OwnerUsername),
				slog.Any("error", err))
		}
		return
	}

	// STEP 3: self-view exclusion
	if input.CallerID != 0 && input.CallerID == owner.ID {
		logger.Debug("Dropping event: self-view",
			slog.String("username", input.OwnerUsername),
			slog.String("visitor", input.VisitorID))
		return
	}

	// STEP 4: bot filtering
	if IsBotUserAgent(input.UserAgent) {
		logger.Debug("Dropping event: bot user agent",
			slog.String("username", input.OwnerUsername),
			slog.String("userAgent", input.UserAgent))
		return
	}

	// STEP 5: dedup & flow guard. The existence checks below and the
	// eventual append are not atomic: two concurrent submissions for
	// the same (owner, visitor) can both pass before either persists,
	// yielding an occasional duplicate. Accepted as best-effort - these
	// are analytics counts, not an accounting ledger.
	windowStart := time.Now().UTC().Add(-DedupWindowMinutes * time.Minute)

	switch eventType {
	case EventTypeView:
		// A VIEW always represents a visit, even with duration 0.
		// The only gate is the dedup window.
		duplicate, err := hasEventSince(db, owner.ID, input.VisitorID, EventTypeView, windowStart)
		if err != nil {
			logger.Error("Failed dedup check for VIEW", slog.Any("error", err))
			return
		}
		if duplicate {
			logger.Debug("Dropping event: duplicate VIEW within window",
				slog.String("username", input.OwnerUsername),
				slog.String("visitor", input.VisitorID))
			return
		}

	case EventTypeEngaged:
		// The orphan check runs before the quality gate: an ENGAGED
		// with no in-window VIEW is invalid no matter how good its
		// engagement metrics look.
		hasView, err := hasEventSince(db, owner.ID, input.VisitorID, EventTypeView, windowStart)
		if err != nil {
			logger.Error("Failed flow check for ENGAGED", slog.Any("error", err))
			return
		}
		if !hasView {
			logger.Debug("Dropping event: ENGAGED without prior VIEW",
				slog.String("username", input.OwnerUsername),
				slog.String("visitor", input.VisitorID))
			return
		}

		duplicate, err := hasEventSince(db, owner.ID, input.VisitorID, EventTypeEngaged, windowStart)
		if err != nil {
			logger.Error("Failed dedup check for ENGAGED", slog.Any("error", err))
			return
		}
		if duplicate {
			logger.Debug("Dropping event: duplicate ENGAGED within window",
				slog.String("username", input.OwnerUsername),
				slog.String("visitor", input.VisitorID))
			return
		}

		if !meetsEngagementCriteria(input.DurationSeconds, input.ScrollDepth) {
			logger.Debug("Dropping event: engagement criteria not met",
				slog.String("username", input.OwnerUsername),
				slog.String("visitor", input.VisitorID))
			return
		}

		// Sub-2-second "engagements" are noise even when the scroll
		// threshold was met.
		if input.DurationSeconds != nil && *input.DurationSeconds < MinEngagedDurationSeconds {
			logger.Debug("Dropping event: low-quality ENGAGED",
				slog.String("username", input.OwnerUsername),
				slog.Int("duration", *input.DurationSeconds))
			return
		}
	}

	// STEP 6: append to the ledger
	event := &TrackingEvent{
		OwnerID:         owner.ID,
		VisitorID:       input.VisitorID,
		EventType:       eventType,
		DurationSeconds: input.DurationSeconds,
		ScrollDepth:     input.ScrollDepth,
		UserAgent:       input.UserAgent,
	}
	if err := AppendEvent(db, logger, event); err != nil {
		logger.Error("Failed to store tracking event",
			slog.String("username", input.OwnerUsername),
			slog.Any("error", err))
		return
	}

	logger.Debug("Tracked event",
		slog.String("type", eventType.String()),
		slog.String("username", input.OwnerUsername),
		slog.String("visitor", input.VisitorID))
}

// meetsEngagementCriteria reports whether an ENGAGED event qualifies:
// duration >= 30s OR scroll depth >= 50%.
func meetsEngagementCriteria(durationSeconds, scrollDepth *int) bool {
	if durationSeconds != nil && *durationSeconds >= EngagementThresholdSeconds {
		return true
	}
	if scrollDepth != nil && *scrollDepth >= EngagementScrollDepthPercent {
		return true
	}
	return false
}
