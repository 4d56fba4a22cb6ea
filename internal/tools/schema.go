package tools

import (
	"encoding/json"
	"fmt"

	"github.com/hari87gxs/voice-agent-gateway/internal/persona"
)

// validateArgs checks a decoded arguments object against a tool's
// ArgSpec map: every required argument must be present, and present
// arguments must match their declared JSON type. It returns a
// user-facing description of the first defect found, per spec.md §4.3's
// "the result string reports the defect so the model may recover on the
// next turn."
func validateArgs(schema persona.ToolSchema, raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
		}
	}

	for name, spec := range schema.Arguments {
		val, present := args[name]
		if !present {
			if spec.Required {
				return nil, fmt.Errorf("argument '%s' required", name)
			}
			continue
		}
		if !jsonTypeMatches(spec.Type, val) {
			return nil, fmt.Errorf("argument '%s' must be of type %s", name, spec.Type)
		}
	}
	return args, nil
}

func jsonTypeMatches(want string, val any) bool {
	switch want {
	case "string":
		_, ok := val.(string)
		return ok
	case "int", "integer", "number":
		n, ok := val.(float64)
		if !ok {
			return false
		}
		if want == "number" {
			return true
		}
		return n == float64(int64(n))
	case "bool", "boolean":
		_, ok := val.(bool)
		return ok
	default:
		return true
	}
}
