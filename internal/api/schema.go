package api

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/idilsaglam/todo/internal/model"
)

const listSchemaURL = "todo_list.schema.json"

const listSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "content", "completed"],
    "properties": {
      "id": {"type": "integer"},
      "content": {"type": "string"},
      "completed": {"type": "boolean"}
    }
  }
}`

var compiledListSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(listSchemaURL, strings.NewReader(listSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(listSchemaURL)
})

// decodeList checks body against the list schema before decoding it.
func decodeList(op string, body []byte) ([]model.Item, error) {
	schema, err := compiledListSchema()
	if err != nil {
		return nil, &DecodeError{Op: op, Message: "compile schema: " + err.Error()}
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DecodeError{Op: op, Message: err.Error()}
	}
	if err := schema.Validate(raw); err != nil {
		return nil, schemaError(op, err)
	}

	items := []model.Item{}
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &DecodeError{Op: op, Message: err.Error()}
	}
	return items, nil
}

// schemaError reports the first leaf cause, which names the offending field.
func schemaError(op string, err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &DecodeError{Op: op, Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &DecodeError{Op: op, Path: ve.InstanceLocation, Message: ve.Message}
}
