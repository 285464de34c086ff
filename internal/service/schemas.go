package service

import (
	_ "embed"

	"github.com/noah-isme/coach-api/pkg/ai"
)

var (
	//go:embed schemas/critique.json
	critiqueSchemaJSON []byte
	//go:embed schemas/roadmap.json
	roadmapSchemaJSON []byte
)

// CritiqueSchema constrains the structured code critique.
var CritiqueSchema = ai.Schema{Name: "code_critique", Definition: critiqueSchemaJSON}

// RoadmapSchema constrains the personalised roadmap.
var RoadmapSchema = ai.Schema{Name: "learning_roadmap", Definition: roadmapSchemaJSON}
