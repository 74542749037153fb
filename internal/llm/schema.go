package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema describes the parts of a generation response that are read.
// Fields outside results[].generated_text are unconstrained.
const responseSchema = `{
  "type": "object",
  "properties": {
    "results": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "properties": {
          "generated_text": {"type": "string"}
        }
      }
    }
  }
}`

var compiledResponseSchema = jsonschema.MustCompileString("generation_response.json", responseSchema)

// ValidateResponseShape checks a success payload before generated text is read.
func ValidateResponseShape(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := compiledResponseSchema.Validate(v); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
