// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// JSONSchema returns the parameters as a JSON Schema object, properties in
// declaration order.
func (s Schema) JSONSchema() *jsonschema.Schema {
	props := orderedmap.New[string, *jsonschema.Schema]()
	var required []string

	for _, p := range s.Parameters {
		props.Set(p.Name, p.jsonSchema())
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func (p Parameter) jsonSchema() *jsonschema.Schema {
	prop := &jsonschema.Schema{
		Type:        p.Type,
		Description: p.Description,
		Default:     p.Default,
	}
	if p.Type == "array" {
		items := p.Items
		if items == "" {
			items = "string"
		}
		prop.Items = &jsonschema.Schema{Type: items}
	}
	for _, v := range p.Enum {
		prop.Enum = append(prop.Enum, v)
	}
	return prop
}
