package analytics

import "strings"

// Filtering thresholds for the ingestion pipeline.
const (
	// DedupWindowMinutes is the interval during which a repeat event of
	// the same type for the same (owner, visitor) is suppressed, and
	// within which an ENGAGED must find its preceding VIEW.
	DedupWindowMinutes = 30

	// EngagementThresholdSeconds is the minimum dwell time that
	// qualifies an ENGAGED event on its own.
	EngagementThresholdSeconds = 30

	// EngagementScrollDepthPercent is the minimum scroll depth that
	// qualifies an ENGAGED event on its own.
	EngagementScrollDepthPercent = 50

	// MinEngagedDurationSeconds is the noise floor: an ENGAGED carrying
	// a duration below it is dropped even if the scroll threshold passed.
	MinEngagedDurationSeconds = 2

	// MaxUserAgentLength is the stored user agent truncation limit.
	MaxUserAgentLength = 512

	// AnonymousVisitorID is the sentinel the frontend falls back to when
	// it has no visitor identity. Events carrying it are dropped.
	AnonymousVisitorID = "anonymous"
)

// botSignatures is the curated list of bot/crawler/automation markers
// matched case-insensitively as substrings of the User-Agent header.
var botSignatures = []string{
	"bot", "crawler", "spider", "scraper",
	"preview", "facebookexternalhit", "twitterbot",
	"linkedinbot", "whatsapp", "telegram", "slackbot",
	"googlebot", "bingbot", "yandexbot", "baiduspider",
	"headless", "phantom", "selenium", "webdriver",
	"curl", "wget", "python-requests", "java/",
}

// IsBotUserAgent reports whether the user agent matches a known
// bot/crawler/automation signature. A missing User-Agent is allowed:
// some legitimate clients don't send one, and treating absence as a
// bot would produce false positives.
func IsBotUserAgent(userAgent string) bool {
	if strings.TrimSpace(userAgent) == "" {
		return false
	}

	lowered := strings.ToLower(userAgent)
	for _, signature := range botSignatures {
		if strings.Contains(lowered, signature) {
			return true
		}
	}
	return false
}
