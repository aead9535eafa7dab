// File: internal/agent/validate.go
package agent

import (
	"fmt"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

// A regex to robustly extract a JSON object from a markdown code block.
var jsonBlockRegex = regexp.MustCompile(fmt.Sprintf("(?s)%s(?:json)?\\s*(.*?)\\s*%s", "```", "```"))

// ExtractJSON pulls a JSON object out of raw chat-model text, handling
// markdown code fences or bare JSON embedded in prose.
func ExtractJSON(response string) (string, error) {
	response = strings.TrimSpace(response)

	var candidate string
	matches := jsonBlockRegex.FindStringSubmatch(response)
	if len(matches) > 1 {
		candidate = strings.TrimSpace(matches[1])
	} else {
		firstBracket := strings.Index(response, "{")
		lastBracket := strings.LastIndex(response, "}")
		if firstBracket != -1 && lastBracket > firstBracket {
			candidate = response[firstBracket : lastBracket+1]
		} else {
			candidate = response
		}
	}

	if candidate == "" {
		return "", fmt.Errorf("could not find any JSON in the model response")
	}
	return candidate, nil
}

// plannerFields lists the output fields in declaration order so that a
// validation failure always names the first violated field.
var plannerFields = []string{
	"observation",
	"challenges",
	"done",
	"next_steps",
	"final_answer",
	"reasoning",
	"web_task",
}

var plannerBoolFields = map[string]bool{
	"done":     true,
	"web_task": true,
}

// ValidatePlannerOutput coerces an arbitrary decoded JSON object into a
// PlannerOutput. Two phases: a structural pass over each declared field,
// then per-field semantic coercion. Text fields accept any string
// (including empty; absent reads as empty). Boolean fields accept a
// literal boolean or the strings "true"/"false" case-insensitively; any
// other value is a validation failure - booleans are never silently
// defaulted. Pure transformation, no side effects.
func ValidatePlannerOutput(raw map[string]any) (*schemas.PlannerOutput, error) {
	coerced := make(map[string]any, len(plannerFields))
	for _, field := range plannerFields {
		value, present := raw[field]
		if plannerBoolFields[field] {
			b, err := coerceBool(value, present)
			if err != nil {
				return nil, &ValidationError{Field: field, Reason: err.Error()}
			}
			coerced[field] = b
			continue
		}
		s, err := coerceText(value)
		if err != nil {
			return nil, &ValidationError{Field: field, Reason: err.Error()}
		}
		coerced[field] = s
	}

	return &schemas.PlannerOutput{
		Observation: coerced["observation"].(string),
		Challenges:  coerced["challenges"].(string),
		Done:        coerced["done"].(bool),
		NextSteps:   coerced["next_steps"].(string),
		FinalAnswer: coerced["final_answer"].(string),
		Reasoning:   coerced["reasoning"].(string),
		WebTask:     coerced["web_task"].(bool),
	}, nil
}

// ParsePlannerOutput decodes raw JSON text and validates it into a
// PlannerOutput in one pass.
func ParsePlannerOutput(jsonText string) (*schemas.PlannerOutput, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode planner output: %w", err)
	}
	return ValidatePlannerOutput(raw)
}

func coerceText(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("must be a string, got %T", value)
	}
	return s, nil
}

func coerceBool(value any, present bool) (bool, error) {
	if !present || value == nil {
		return false, fmt.Errorf("is required and must be a boolean")
	}
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return false, fmt.Errorf("must be a boolean or the string \"true\"/\"false\", got %q", v)
		}
	default:
		return false, fmt.Errorf("must be a boolean, got %T", value)
	}
}
