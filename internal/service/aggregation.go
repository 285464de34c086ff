package service

import (
	"math"
	"sort"
	"time"

	"github.com/noah-isme/coach-api/internal/models"
)

// AnalysisRecord is the slice of an analysis the aggregation views need.
type AnalysisRecord struct {
	Topic     string    `json:"topic"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// DayAverage is the rounded mean rating of one calendar day.
type DayAverage struct {
	Label   string `json:"label"`
	Date    string `json:"date"`
	Average int    `json:"average"`
}

type ratingSum struct {
	total int
	count int
}

func (r ratingSum) mean() int {
	if r.count == 0 {
		return 0
	}
	return int(math.Floor(float64(r.total)/float64(r.count) + 0.5))
}

// AverageRatingByTopic returns the rounded mean rating per topic.
func AverageRatingByTopic(records []AnalysisRecord) map[string]int {
	sums := make(map[string]ratingSum)
	for _, record := range records {
		topic := models.TopicOrDefault(record.Topic)
		sum := sums[topic]
		sum.total += record.Rating
		sum.count++
		sums[topic] = sum
	}

	result := make(map[string]int, len(sums))
	for topic, sum := range sums {
		result[topic] = sum.mean()
	}
	return result
}

// AverageRatingByDay groups records by calendar date in loc, oldest day first.
// Each entry is labelled with the short weekday name, e.g. "Mon".
func AverageRatingByDay(records []AnalysisRecord, loc *time.Location) []DayAverage {
	if loc == nil {
		loc = time.UTC
	}

	sorted := make([]AnalysisRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	order := make([]string, 0)
	labels := make(map[string]string)
	sums := make(map[string]ratingSum)
	for _, record := range sorted {
		local := record.CreatedAt.In(loc)
		date := local.Format("2006-01-02")
		sum, seen := sums[date]
		if !seen {
			order = append(order, date)
			labels[date] = local.Format("Mon")
		}
		sum.total += record.Rating
		sum.count++
		sums[date] = sum
	}

	result := make([]DayAverage, 0, len(order))
	for _, date := range order {
		result = append(result, DayAverage{Label: labels[date], Date: date, Average: sums[date].mean()})
	}
	return result
}

// CountByTopic counts occurrences of each topic.
func CountByTopic(topics []string) map[string]int {
	counts := make(map[string]int)
	for _, topic := range topics {
		counts[models.TopicOrDefault(topic)]++
	}
	return counts
}

// sortedKeys returns map keys in lexical order for deterministic output.
func sortedKeys(values map[string]int) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
