package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAverageRatingByTopic(t *testing.T) {
	require.Empty(t, AverageRatingByTopic(nil))
	require.Equal(t, map[string]int{"Arrays": 70}, AverageRatingByTopic([]AnalysisRecord{
		{Topic: "Arrays", Rating: 80},
		{Topic: "Arrays", Rating: 60},
	}))

	averages := AverageRatingByTopic([]AnalysisRecord{
		{Topic: "", Rating: 50},
		{Topic: "  ", Rating: 51},
		{Topic: "DP", Rating: 90},
	})
	require.Equal(t, map[string]int{"Other": 51, "DP": 90}, averages, "blank topics fall back to Other and 50.5 rounds up")
}

func TestAverageRatingByDayGroupsCalendarDates(t *testing.T) {
	require.Empty(t, AverageRatingByDay(nil, time.UTC))

	monday := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	nextMonday := monday.AddDate(0, 0, 7)
	records := []AnalysisRecord{
		{Rating: 90, CreatedAt: nextMonday},
		{Rating: 80, CreatedAt: monday},
		{Rating: 60, CreatedAt: monday.Add(3 * time.Hour)},
		{Rating: 75, CreatedAt: monday.Add(24 * time.Hour)},
	}

	days := AverageRatingByDay(records, time.UTC)
	require.Equal(t, []DayAverage{
		{Label: "Mon", Date: "2024-03-04", Average: 70},
		{Label: "Tue", Date: "2024-03-05", Average: 75},
		{Label: "Mon", Date: "2024-03-11", Average: 90},
	}, days)
}

func TestAverageRatingByDayUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	late := time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC)

	days := AverageRatingByDay([]AnalysisRecord{{Rating: 40, CreatedAt: late}}, loc)
	require.Len(t, days, 1)
	require.Equal(t, "2024-03-05", days[0].Date)
	require.Equal(t, "Tue", days[0].Label)
}

func TestCountByTopic(t *testing.T) {
	require.Empty(t, CountByTopic(nil))
	require.Equal(t, map[string]int{"Arrays": 2, "DP": 1}, CountByTopic([]string{"Arrays", "Arrays", "DP"}))
	require.Equal(t, map[string]int{"Other": 2}, CountByTopic([]string{"", " "}))
}
