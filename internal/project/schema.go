package project

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kazz187/taskgantt/pkg/cerr"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://taskgantt.local/project.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(schemaURL)
})

// validateDocument checks a decoded JSON value against the project schema
// and returns one violation per failing leaf.
func validateDocument(doc any) ([]*validate.Violation, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile project schema: %w", err)
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}
	var out []*validate.Violation
	collectViolations(ve, &out)
	return out, nil
}

func collectViolations(ve *jsonschema.ValidationError, out *[]*validate.Violation) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, cerr.Violation(loc, ve.Message))
		return
	}
	for _, c := range ve.Causes {
		collectViolations(c, out)
	}
}
