package engine

import (
	"fmt"
	"strings"

	"golang-signal-scryper/internal/entity"
)

// Decision is the outcome of the notification rule cascade.
type Decision struct {
	ShouldNotify bool
	Reason       string
}

// DecideNotification evaluates the rules in order and stops at the first hit:
// actionable gate, quality threshold, watchlist asset, important keyword.
func DecideNotification(analysis entity.Analysis, postScore int, rules entity.NotificationRules) Decision {
	if !analysis.IsActionable {
		return Decision{}
	}

	if postScore >= rules.MinQualityScore {
		return Decision{
			ShouldNotify: true,
			Reason:       fmt.Sprintf("Quality score %d exceeds threshold %d", postScore, rules.MinQualityScore),
		}
	}

	for _, symbol := range analysis.Symbols() {
		for _, watched := range rules.AssetWatchlist {
			if strings.EqualFold(symbol, watched) {
				return Decision{
					ShouldNotify: true,
					Reason:       fmt.Sprintf("Watchlist asset %s mentioned", symbol),
				}
			}
		}
	}

	for _, keyword := range analysis.Keywords {
		for _, important := range rules.ImportantKeywords {
			important = strings.ToLower(strings.TrimSpace(important))
			if important == "" {
				continue
			}
			if strings.Contains(keyword, important) {
				return Decision{
					ShouldNotify: true,
					Reason:       fmt.Sprintf("Important keyword detected: %s", keyword),
				}
			}
		}
	}

	return Decision{}
}
