package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDifficulty(t *testing.T) {
	require.Equal(t, DifficultyEasy, NormalizeDifficulty(" easy "))
	require.Equal(t, DifficultyHard, NormalizeDifficulty("HARD"))
	require.Equal(t, DifficultyMedium, NormalizeDifficulty("Medium"))
	require.Equal(t, DifficultyMedium, NormalizeDifficulty("impossible"))
	require.Equal(t, DifficultyMedium, NormalizeDifficulty(""))
}

func TestClampRating(t *testing.T) {
	require.Equal(t, 0, ClampRating(-5))
	require.Equal(t, 100, ClampRating(140))
	require.Equal(t, 73, ClampRating(73))
}

func TestTopicOrDefault(t *testing.T) {
	require.Equal(t, DefaultTopic, TopicOrDefault("   "))
	require.Equal(t, "Graphs", TopicOrDefault(" Graphs "))
	require.Equal(t, DefaultTopic, Submission{}.TopicOrDefault())
}
