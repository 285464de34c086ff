package ai

import (
	"hash/fnv"
	"strings"
)

// Heuristic weakness messages.
const (
	WeaknessNoPattern    = "Could not identify a standard optimal pattern"
	WeaknessMissingEdges = "Missing edge case handling or return statements"
	WeaknessTooShort     = "Solution seems too short, check for completeness"
)

const (
	heuristicBaseScore = 70
	heuristicJitterMax = 20
	heuristicPerMatch  = 5
	heuristicMaxScore  = 100
	shortCodeLength    = 50
)

type codePattern struct {
	name     string
	topic    string
	keywords []string
}

var codePatterns = []codePattern{
	{name: "two pointers", topic: "Arrays", keywords: []string{"left", "right", "while (left < right)", "start", "end"}},
	{name: "sliding window", topic: "Strings", keywords: []string{"window", "start", "end", "max_len", "current_sum"}},
	{name: "hash map", topic: "Hashing", keywords: []string{"Map", "HashMap", "dict", "lookup", "frequency"}},
	{name: "bfs", topic: "Graphs", keywords: []string{"Queue", "queue", "level", "visited"}},
	{name: "dfs", topic: "Graphs", keywords: []string{"recursion", "stack", "visited", "depth"}},
}

// Complexity is a rough time/space estimate.
type Complexity struct {
	Time  string `json:"time"`
	Space string `json:"space"`
}

// HeuristicResult is the local, keyword-based critique of a piece of code.
type HeuristicResult struct {
	Score            int        `json:"score"`
	Strengths        []string   `json:"strengths"`
	Weaknesses       []string   `json:"weaknesses"`
	Recommendations  []string   `json:"recommendations"`
	DetectedPatterns []string   `json:"detected_patterns"`
	Complexity       Complexity `json:"complexity"`
	Topic            string     `json:"topic"`
}

// PatternMatcher scores code by the algorithmic patterns its keywords suggest.
type PatternMatcher struct {
	jitter func(code string) int
}

// NewPatternMatcher returns a matcher whose jitter term is a stable hash of the code.
func NewPatternMatcher() *PatternMatcher {
	return &PatternMatcher{jitter: hashJitter}
}

// NewPatternMatcherWithJitter lets callers pin the jitter term, which is clamped to [0, 19].
func NewPatternMatcherWithJitter(jitter func(code string) int) *PatternMatcher {
	if jitter == nil {
		jitter = hashJitter
	}
	return &PatternMatcher{jitter: jitter}
}

// Analyze never fails: any input, including the empty string, produces a result.
func (m *PatternMatcher) Analyze(code, language string) HeuristicResult {
	detected := make([]string, 0, len(codePatterns))
	topic := ""
	for _, pattern := range codePatterns {
		for _, keyword := range pattern.keywords {
			if strings.Contains(code, keyword) {
				detected = append(detected, pattern.name)
				if topic == "" {
					topic = pattern.topic
				}
				break
			}
		}
	}

	score := heuristicBaseScore + m.jitterFor(code) + heuristicPerMatch*len(detected)
	if score > heuristicMaxScore {
		score = heuristicMaxScore
	}

	strengths := []string{"Code structure is readable", "Basic logic seems sound"}
	if len(detected) > 0 {
		strengths[1] = "Correctly identified " + detected[0] + " pattern"
	}

	weaknesses := make([]string, 0, 3)
	if len(detected) == 0 {
		weaknesses = append(weaknesses, WeaknessNoPattern)
	}
	if !strings.Contains(code, "if") || !strings.Contains(code, "return") {
		weaknesses = append(weaknesses, WeaknessMissingEdges)
	}
	if len(code) < shortCodeLength {
		weaknesses = append(weaknesses, WeaknessTooShort)
	}

	return HeuristicResult{
		Score:      score,
		Strengths:  strengths,
		Weaknesses: weaknesses,
		Recommendations: []string{
			"Review time complexity analysis",
			"Check for boundary conditions (empty input, null)",
		},
		DetectedPatterns: detected,
		Complexity:       Complexity{Time: "O(n)", Space: "O(1)"},
		Topic:            topic,
	}
}

func (m *PatternMatcher) jitterFor(code string) int {
	value := m.jitter(code)
	if value < 0 {
		return 0
	}
	if value >= heuristicJitterMax {
		return heuristicJitterMax - 1
	}
	return value
}

func hashJitter(code string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(code))
	return int(h.Sum32() % heuristicJitterMax)
}
