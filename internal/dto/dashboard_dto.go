package dto

import (
	"time"

	"github.com/google/uuid"
)

// TopicScore is one axis of the skill radar.
type TopicScore struct {
	Subject  string `json:"subject"`
	Score    int    `json:"score"`
	FullMark int    `json:"full_mark"`
}

// DayScore is the average rating for a calendar day.
type DayScore struct {
	Name  string `json:"name"`
	Date  string `json:"date"`
	Score int    `json:"score"`
}

// TopicCount is one slice of the topic distribution.
type TopicCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// ActivityItem summarises a recent analysis.
type ActivityItem struct {
	ID                uuid.UUID `json:"id"`
	SubmissionID      uuid.UUID `json:"submission_id"`
	Rating            int       `json:"rating"`
	CorrectnessStatus string    `json:"correctness_status"`
	ProblemTitle      string    `json:"problem_title"`
	Topic             string    `json:"topic"`
	Difficulty        string    `json:"difficulty"`
	Success           bool      `json:"success"`
	CreatedAt         time.Time `json:"created_at"`
}

// DashboardResponse carries every chart the dashboard renders.
type DashboardResponse struct {
	SkillRadar        []TopicScore   `json:"skill_radar"`
	WeeklyProgress    []DayScore     `json:"weekly_progress"`
	TopicDistribution []TopicCount   `json:"topic_distribution"`
	RecentActivity    []ActivityItem `json:"recent_activity"`
	CacheHit          bool           `json:"cache_hit"`
}

// ActivityEvent is pushed to connected dashboards.
type ActivityEvent struct {
	Type  string               `json:"type"`
	Event SubmissionSavedEvent `json:"event"`
}
