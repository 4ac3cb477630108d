package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeModelJSON strictly decodes a model response into out. Responses
// wrapped in markdown code fences are unwrapped first; anything that is
// not a single valid JSON document is an error, never a partial value.
func decodeModelJSON(raw string, out interface{}) error {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}
