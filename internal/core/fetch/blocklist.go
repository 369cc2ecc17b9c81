package fetch

import "strings"

// Discovery only needs the DOM and its anchors, so heavy or noisy resources
// are aborted at the route layer. Submission fetches do NOT use these lists:
// application forms may legitimately load from third-party widgets.

var blockedResourceTypes = map[string]bool{
	"image":      true,
	"media":      true,
	"font":       true,
	"stylesheet": true,
}

var adPatterns = []string{
	"googlesyndication.com", "doubleclick.net", "googleadservices.com", "googletag",
	"amazon-adsystem.com", "facebook.com/plugins", "fbcdn.net", "outbrain.com",
	"taboola.com", "adsystem.amazon", "googleads", "/ads/", "/ad?", "adsense",
}

var trackerPatterns = []string{
	"google-analytics.com", "googletagmanager.com", "hotjar.com", "mixpanel.com",
	"segment.com", "amplitude.com", "fullstory.com", "logrocket.com",
	"mouseflow.com", "smartlook.com", "/analytics", "/tracking",
	"facebook.com/tr", "linkedin.com/px", "twitter.com/i/adsct",
}

var chatPatterns = []string{
	"intercom.io", "zendesk.com", "livechat.com", "drift.com", "helpscout.com",
	"freshchat.com", "tawk.to", "crisp.chat", "messenger.com",
}

func isAdURL(url string) bool      { return containsAny(url, adPatterns) }
func isTrackerURL(url string) bool { return containsAny(url, trackerPatterns) }
func isChatURL(url string) bool    { return containsAny(url, chatPatterns) }

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
