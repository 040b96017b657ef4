// internal/service/report/aggregator.go

package report

import (
	"math"
	"sort"

	"sentiscan/internal/domain/mention"
)

// GroupStat holds the record count and mean sentiment of one group
type GroupStat struct {
	Key           string  `json:"key"`
	Count         int     `json:"count"`
	MeanSentiment float64 `json:"mean_sentiment"`
}

// Summary describes an accumulated dataset
type Summary struct {
	Total         int              `json:"total"`
	MeanSentiment float64          `json:"mean_sentiment"`
	ByKind        []GroupStat      `json:"by_kind"`
	ByCategory    []GroupStat      `json:"by_category"`
	Preview       []mention.Record `json:"preview"`
}

// Summarize computes overall and grouped sentiment statistics. Groups are
// sorted by key and the preview holds the first previewSize posts in
// discovery order.
func Summarize(records []mention.Record, previewSize int) Summary {
	summary := Summary{
		Total: len(records),
	}
	if len(records) == 0 {
		return summary
	}

	sentiments := make([]float64, len(records))
	for i, r := range records {
		sentiments[i] = r.Sentiment
	}
	summary.MeanSentiment = mean(sentiments)

	summary.ByKind = groupBy(records, func(r mention.Record) string { return string(r.Kind) })
	summary.ByCategory = groupBy(records, func(r mention.Record) string { return r.Category })

	for _, r := range records {
		if len(summary.Preview) >= previewSize {
			break
		}
		if r.Kind == mention.KindPost {
			summary.Preview = append(summary.Preview, r)
		}
	}

	return summary
}

func groupBy(records []mention.Record, key func(mention.Record) string) []GroupStat {
	groups := make(map[string][]float64)
	for _, r := range records {
		k := key(r)
		groups[k] = append(groups[k], r.Sentiment)
	}

	stats := make([]GroupStat, 0, len(groups))
	for k, values := range groups {
		stats = append(stats, GroupStat{
			Key:           k,
			Count:         len(values),
			MeanSentiment: mean(values),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Key < stats[j].Key
	})

	return stats
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Round2 rounds v to two decimal places for display
func Round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
