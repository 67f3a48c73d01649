package metadata

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const indexSchemaURL = "phpattr://index.schema.json"

//go:embed index.schema.json
var indexSchemaJSON string

var (
	indexSchemaOnce sync.Once
	indexSchema     *jsonschema.Schema
	indexSchemaErr  error
)

func compiledIndexSchema() (*jsonschema.Schema, error) {
	indexSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(indexSchemaURL, strings.NewReader(indexSchemaJSON)); err != nil {
			indexSchemaErr = errors.Wrap(err, "add index schema resource")
			return
		}
		indexSchema, indexSchemaErr = compiler.Compile(indexSchemaURL)
		if indexSchemaErr != nil {
			indexSchemaErr = errors.Wrap(indexSchemaErr, "compile index schema")
		}
	})
	return indexSchema, indexSchemaErr
}

// ValidateDocument checks a YAML index document against the index schema.
func ValidateDocument(data []byte) error {
	schema, err := compiledIndexSchema()
	if err != nil {
		return err
	}

	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "parse index yaml")
	}
	if raw == nil {
		return nil
	}

	// The validator expects values shaped like encoding/json output.
	encoded, err := json.Marshal(jsonCompatible(raw))
	if err != nil {
		return errors.Wrap(err, "convert index yaml")
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var instance interface{}
	if err := dec.Decode(&instance); err != nil {
		return errors.Wrap(err, "convert index yaml")
	}

	if err := schema.Validate(instance); err != nil {
		return errors.Wrap(err, "invalid metadata index")
	}
	return nil
}

func jsonCompatible(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = jsonCompatible(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = jsonCompatible(val)
		}
		return out
	default:
		return v
	}
}
