package dto

// Roadmap step statuses.
const (
	RoadmapStatusCompleted  = "completed"
	RoadmapStatusInProgress = "in-progress"
	RoadmapStatusLocked     = "locked"
)

// RoadmapStep is one milestone on the learning path.
type RoadmapStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// RoadmapResponse is a personalised learning roadmap.
type RoadmapResponse struct {
	CurrentLevel  string        `json:"current_level"`
	NextMilestone string        `json:"next_milestone"`
	Steps         []RoadmapStep `json:"steps"`
	Generated     bool          `json:"generated"`
	CacheHit      bool          `json:"cache_hit"`
}

// DefaultRoadmap is served to users without any history.
func DefaultRoadmap() RoadmapResponse {
	return RoadmapResponse{
		CurrentLevel:  "Beginner",
		NextMilestone: "Solve your first problem",
		Steps: []RoadmapStep{
			{Title: "Learn Arrays", Description: "Start with basic array operations.", Status: RoadmapStatusInProgress},
			{Title: "Learn Strings", Description: "Understand string manipulation.", Status: RoadmapStatusLocked},
		},
	}
}
