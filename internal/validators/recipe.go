// Package validators checks recipe request payloads against embedded JSON Schemas.
package validators

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/stacklok/recipe-server/internal/service"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaBaseURL = "https://schemas.recipe-server.local/"
	createSchema  = "recipe-create.json"
	updateSchema  = "recipe-update.json"
)

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func schemas() (map[string]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		names := []string{createSchema, updateSchema}
		for _, name := range names {
			data, err := schemaFS.ReadFile("schemas/" + name)
			if err != nil {
				compileErr = fmt.Errorf("failed to read schema %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("failed to parse schema %s: %w", name, err)
				return
			}
			if err := c.AddResource(schemaBaseURL+name, doc); err != nil {
				compileErr = fmt.Errorf("failed to add schema %s: %w", name, err)
				return
			}
		}

		compiled = make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			sch, err := c.Compile(schemaBaseURL + name)
			if err != nil {
				compileErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
				return
			}
			compiled[name] = sch
		}
	})
	return compiled, compileErr
}

// ValidateCreateRecipe checks a POST /recipes body.
// The returned error wraps service.ErrInvalidInput when the payload is rejected.
func ValidateCreateRecipe(body []byte) error {
	return validate(createSchema, body)
}

// ValidateUpdateRecipe checks a PUT /recipes/{id} body.
// The returned error wraps service.ErrInvalidInput when the payload is rejected.
func ValidateUpdateRecipe(body []byte) error {
	return validate(updateSchema, body)
}

func validate(name string, body []byte) error {
	all, err := schemas()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: request body is not valid JSON", service.ErrInvalidInput)
	}

	if err := all[name].Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %s", service.ErrInvalidInput, describe(ve))
		}
		return fmt.Errorf("%w: %s", service.ErrInvalidInput, err.Error())
	}
	return nil
}

// describe flattens the leaf causes of a validation error into one line
func describe(ve *jsonschema.ValidationError) string {
	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			msgs = append(msgs, leafMessage(e))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}

func leafMessage(e *jsonschema.ValidationError) string {
	// the leaf Error() is "jsonschema validation failed with '<url>'\n- at '<loc>': <msg>"
	lines := strings.Split(strings.TrimSpace(e.Error()), "\n")
	msg := strings.TrimPrefix(strings.TrimSpace(lines[len(lines)-1]), "- ")
	return msg
}
