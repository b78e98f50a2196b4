package engine

import (
	"math"
	"time"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/pkg/utils"
)

const (
	followerNormalizer   = 1_000_000
	engagementNormalizer = 10_000

	weightAccuracy   = 0.4
	weightInfluence  = 0.3
	weightTimeliness = 0.3

	blendExisting = 0.6
	blendNext     = 0.4
)

// RatingInput carries everything needed to rate one post.
type RatingInput struct {
	Analysis   entity.Analysis
	Engagement entity.Engagement
	Followers  int64
	PostedAt   time.Time
}

// RatePost computes the single-post quality rating. It never touches account state.
func RatePost(in RatingInput, now time.Time) entity.QualityRating {
	accuracy := accuracy(in.Analysis)
	influence := influence(in.Engagement, in.Followers)
	timeliness := Timeliness(utils.MinutesSince(in.PostedAt, now))

	score := weightAccuracy*accuracy + weightInfluence*influence + weightTimeliness*timeliness

	return entity.QualityRating{
		Score:       toPercent(score),
		Accuracy:    toPercent(accuracy),
		Influence:   toPercent(influence),
		Timeliness:  toPercent(timeliness),
		LastUpdated: now,
	}
}

func accuracy(a entity.Analysis) float64 {
	bonus := 0.0
	if a.IsActionable {
		bonus = 0.2
	}
	return math.Min(1, a.QualityIndicators.Credibility+bonus)
}

func influence(e entity.Engagement, followers int64) float64 {
	followerScore := normalize(float64(followers), followerNormalizer)
	engagementScore := normalize(e.Total(), engagementNormalizer)
	return math.Min(1, (followerScore+engagementScore)/2)
}

func normalize(value, max float64) float64 {
	if value <= 0 {
		return 0
	}
	return math.Min(1, value/max)
}

// Timeliness is a step function of minutes since posting with breakpoints at
// 10, 60, 360 and 1440 minutes (inclusive).
func Timeliness(minutes float64) float64 {
	switch {
	case minutes <= 10:
		return 1.0
	case minutes <= 60:
		return 0.8
	case minutes <= 6*60:
		return 0.6
	case minutes <= 24*60:
		return 0.4
	default:
		return 0.2
	}
}

// BlendRating folds next into existing as an exponential moving average
// (0.6 existing, 0.4 next) per field. Order matters: blending is not commutative.
func BlendRating(existing, next entity.QualityRating) entity.QualityRating {
	return entity.QualityRating{
		Score:       blend(existing.Score, next.Score),
		Accuracy:    blend(existing.Accuracy, next.Accuracy),
		Influence:   blend(existing.Influence, next.Influence),
		Timeliness:  blend(existing.Timeliness, next.Timeliness),
		LastUpdated: next.LastUpdated,
	}
}

func blend(existing, next int) int {
	return clampPercent(int(math.Round(float64(existing)*blendExisting + float64(next)*blendNext)))
}

func toPercent(v float64) int {
	return clampPercent(int(math.Round(v * 100)))
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
