package checks

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// imagesResponseSchema is the wire shape of a generation response. Field
// presence rules mirror what the structure check asserts by hand, plus type
// constraints the hand checks cannot express.
const imagesResponseSchema = `{
	"type": "object",
	"required": ["created", "data"],
	"properties": {
		"created": {"type": "integer"},
		"data": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"url": {"type": "string"},
					"b64_json": {"type": "string"},
					"revised_prompt": {"type": "string"}
				},
				"anyOf": [
					{"required": ["url"]},
					{"required": ["b64_json"]}
				]
			}
		}
	}
}`

func validateResponseSchema(body []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(imagesResponseSchema)
	documentLoader := gojsonschema.NewBytesLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validating response: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var violations []string
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return fmt.Errorf("%s", strings.Join(violations, "; "))
}
