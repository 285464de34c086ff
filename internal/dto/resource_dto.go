package dto

// Resource kinds.
const (
	ResourceTypeVideo   = "video"
	ResourceTypeArticle = "article"
)

// Resource is a single learning link.
type Resource struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// TopicResources groups resources for a topic.
type TopicResources struct {
	Topic     string     `json:"topic"`
	Resources []Resource `json:"resources"`
}

// Problem is a practice problem from the built-in catalogue.
type Problem struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	Category   string   `json:"category"`
	Patterns   []string `json:"patterns"`
}

// RecommendationResponse lists weak topics and the problems chosen for them.
type RecommendationResponse struct {
	KnowledgeGaps []string  `json:"knowledge_gaps"`
	Problems      []Problem `json:"problems"`
}
