// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

package config

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id of the config file schema.
const SchemaID = "https://nexus-sso.dev/schemas/config.schema.json"

var (
	compileOnce sync.Once
	compiled    *jschema.Schema
	compileErr  error
)

// GenerateSchema reflects the JSON Schema of the config file from Config.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&Config{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "nexus-sso configuration"
	schema.Description = "Schema for the nexus-sso config.yaml file"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("CONFIG_SCHEMA").Wrapf(err, "marshal schema")
	}
	return data, nil
}

// ValidateYAML checks a config file against the schema. An empty document
// is valid.
func ValidateYAML(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.Code("CONFIG_SCHEMA").Wrapf(err, "invalid YAML")
	}
	if doc == nil {
		return nil
	}

	// Round-trip through JSON so numbers and maps have the types the
	// validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return oops.Code("CONFIG_SCHEMA").Wrapf(err, "config is not representable as JSON")
	}
	inst, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return oops.Code("CONFIG_SCHEMA").Wrapf(err, "decode config")
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(inst); err != nil {
		return oops.Code("CONFIG_SCHEMA").Wrapf(err, "config does not match schema")
	}
	return nil
}

func compiledSchema() (*jschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			compileErr = err
			return
		}
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = oops.Code("CONFIG_SCHEMA").Wrapf(err, "parse schema")
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource(SchemaID, doc); err != nil {
			compileErr = oops.Code("CONFIG_SCHEMA").Wrapf(err, "add schema resource")
			return
		}
		compiled, compileErr = c.Compile(SchemaID)
		if compileErr != nil {
			compileErr = oops.Code("CONFIG_SCHEMA").Wrapf(compileErr, "compile schema")
		}
	})
	return compiled, compileErr
}
