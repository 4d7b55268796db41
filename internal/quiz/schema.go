package quiz

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// sessionSchema constrains only what normalisation relies on: questions
// must be a list of objects and options a list. Field names are left open
// because the API mixes casing.
const sessionSchema = `{
	"type": "object",
	"properties": {
		"questions": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"options": {
						"type": ["array", "null"],
						"items": {"type": ["string", "number", "object"]}
					}
				}
			}
		}
	}
}`

const sessionSchemaURL = "schema://quiz-session.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSessionSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(sessionSchema), &def); err != nil {
			schemaErr = fmt.Errorf("parse session schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(sessionSchemaURL, def); err != nil {
			schemaErr = fmt.Errorf("add session schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(sessionSchemaURL)
	})
	return compiledSchema, schemaErr
}

// checkSessionShape validates a session document against sessionSchema.
func checkSessionShape(o object) error {
	sch, err := loadSessionSchema()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
