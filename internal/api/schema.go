package api

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	genqerrors "github.com/roach88/genq/internal/errors"
)

// searchRequestSchema describes the shape of a search body. Emptiness is
// not checked here; the compiler rejects empty requests with the names of
// the empty buckets.
const searchRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "where": {
      "type": ["object", "null"],
      "properties": {
        "equalsString":  {"$ref": "#/definitions/stringBucket"},
        "like":          {"$ref": "#/definitions/stringBucket"},
        "equalsLong":    {"$ref": "#/definitions/longBucket"},
        "notEqualsLong": {"$ref": "#/definitions/longBucket"},
        "isNull":        {"$ref": "#/definitions/nameSet"},
        "isNotNull":     {"$ref": "#/definitions/nameSet"}
      },
      "additionalProperties": false
    },
    "projection": {
      "type": ["array", "null"],
      "items": {"type": "string"}
    }
  },
  "additionalProperties": false,
  "definitions": {
    "stringBucket": {
      "type": ["object", "null"],
      "additionalProperties": {"type": ["string", "null"]}
    },
    "longBucket": {
      "type": ["object", "null"],
      "additionalProperties": {"type": ["integer", "null"]}
    },
    "nameSet": {
      "type": ["array", "null"],
      "items": {"type": ["string", "null"]}
    }
  }
}`

// bodyValidator checks request bodies against a compiled JSON schema.
type bodyValidator struct {
	schema *gojsonschema.Schema
}

func newBodyValidator(schema string) (*bodyValidator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return nil, err
	}
	return &bodyValidator{schema: s}, nil
}

// Validate returns a validation error listing every schema violation, with
// the offending JSON paths as its fields.
func (v *bodyValidator) Validate(body []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return genqerrors.Wrap(err, genqerrors.ErrTypeValidation, "request body is not valid JSON")
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	fields := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
		fields = append(fields, desc.Field())
	}
	return genqerrors.Newf(genqerrors.ErrTypeValidation, "request body does not match the search schema: %s",
		strings.Join(msgs, "; ")).WithFields(fields...)
}
