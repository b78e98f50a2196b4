package engine

import (
	"sort"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/pkg/utils"
)

// MainTopicLimit is how many topics an account summary keeps.
const MainTopicLimit = 3

// Summary is the account-level roll-up recomputed from the full post history.
type Summary struct {
	Mentions         []entity.RecentMention
	MainTopics       []string
	AvgEngagement    float64
	HighQualityCount int
	TotalPosts       int
}

// Aggregate recomputes mentions, main topics and stats over every stored post of
// an account. Ties in both rankings keep first-seen order.
func Aggregate(posts []entity.PostAnalysis) Summary {
	summary := Summary{
		Mentions:   buildMentions(posts),
		MainTopics: deriveMainTopics(posts),
		TotalPosts: len(posts),
	}

	if len(posts) == 0 {
		return summary
	}

	total := 0.0
	for _, post := range posts {
		total += post.Engagement.Total()
		if post.Analysis.IsActionable {
			summary.HighQualityCount++
		}
	}
	summary.AvgEngagement = utils.RoundTo(total/float64(len(posts)), 2)

	return summary
}

func buildMentions(posts []entity.PostAnalysis) []entity.RecentMention {
	index := make(map[string]int)
	mentions := []entity.RecentMention{}

	for _, post := range posts {
		at := post.Content.CreatedAt
		for _, asset := range post.Analysis.MentionedAssets {
			i, ok := index[asset.Symbol]
			if !ok {
				index[asset.Symbol] = len(mentions)
				mentions = append(mentions, entity.RecentMention{
					Symbol:         asset.Symbol,
					MentionCount:   1,
					FirstMentioned: at,
					LastMentioned:  at,
				})
				continue
			}
			m := &mentions[i]
			m.MentionCount++
			if at.Before(m.FirstMentioned) {
				m.FirstMentioned = at
			}
			if at.After(m.LastMentioned) {
				m.LastMentioned = at
			}
		}
	}

	sort.SliceStable(mentions, func(i, j int) bool {
		return mentions[i].MentionCount > mentions[j].MentionCount
	})
	return mentions
}

func deriveMainTopics(posts []entity.PostAnalysis) []string {
	counts := make(map[string]int)
	var order []string

	for _, post := range posts {
		for _, topic := range post.Analysis.Topics {
			if _, ok := counts[topic]; !ok {
				order = append(order, topic)
			}
			counts[topic]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > MainTopicLimit {
		order = order[:MainTopicLimit]
	}
	if order == nil {
		return []string{}
	}
	return order
}
