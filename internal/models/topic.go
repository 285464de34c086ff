package models

import "strings"

// TopicOrDefault trims a topic label and substitutes DefaultTopic when it is blank.
func TopicOrDefault(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return DefaultTopic
	}
	return topic
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
