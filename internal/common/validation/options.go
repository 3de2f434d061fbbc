// internal/common/validation/options.go
package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "finsight-context/internal/common/errors"
	"finsight-context/internal/models"
)

// optionsSchema validates the raw option payload handed down by the request
// layer before it is decoded into models.QueryOptions.
const optionsSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "contextTypes": {
      "type": "array",
      "items": {
        "type": "string",
        "enum": ["receipt", "warranty", "conversation", "analytics"]
      }
    },
    "maxItems": {
      "type": "integer",
      "minimum": 1,
      "maximum": 50
    },
    "includeExpired": {
      "type": "boolean"
    },
    "thresholds": {
      "type": "object",
      "additionalProperties": false,
      "patternProperties": {
        "^(receipt|warranty|conversation|analytics)$": {
          "type": "number",
          "minimum": 0,
          "maximum": 1
        }
      }
    }
  }
}`

var optionsSchemaLoader = gojsonschema.NewStringLoader(optionsSchema)

// ParseOptions validates and decodes a raw JSON option payload.
// A nil/empty payload yields zero-value options (all defaults).
func ParseOptions(raw []byte) (models.QueryOptions, error) {
	var opts models.QueryOptions
	if len(raw) == 0 {
		return opts, nil
	}

	result, err := gojsonschema.Validate(optionsSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return opts, apperrors.NewInvalidOptionsError(fmt.Sprintf("options payload is not valid JSON: %v", err))
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return opts, apperrors.NewInvalidOptionsError(strings.Join(details, "; "))
	}

	if err := json.Unmarshal(raw, &opts); err != nil {
		return opts, apperrors.NewInvalidOptionsError(fmt.Sprintf("decode options: %v", err))
	}
	return opts, nil
}
