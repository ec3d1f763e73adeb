// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// =============================================================================
// PARAMETER ACCESSORS
// =============================================================================

// getStringParam extracts a string parameter with a default value.
func getStringParam(params map[string]interface{}, name string, defaultVal string) string {
	if val, ok := params[name]; ok {
		if s, ok := val.(string); ok && s != "" {
			return s
		}
	}
	return defaultVal
}

// getOptionalString distinguishes "absent" from "empty string".
func getOptionalString(params map[string]interface{}, name string) *string {
	if val, ok := params[name]; ok && val != nil {
		if s, ok := val.(string); ok {
			return &s
		}
	}
	return nil
}

// getFloatParam extracts a numeric parameter with a default value.
func getFloatParam(params map[string]interface{}, name string, defaultVal float64) float64 {
	if val, ok := params[name]; ok {
		switch v := val.(type) {
		case int:
			return float64(v)
		case int64:
			return float64(v)
		case float64:
			return v
		}
	}
	return defaultVal
}

// getBoolParam extracts a boolean parameter with a default value.
func getBoolParam(params map[string]interface{}, name string, defaultVal bool) bool {
	if val, ok := params[name]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// getStringSliceParam extracts a string array. Absent returns nil, which
// callers treat as "use the default".
func getStringSliceParam(params map[string]interface{}, name string) []string {
	val, ok := params[name]
	if !ok || val == nil {
		return nil
	}
	switch v := val.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateToolArgs checks required parameters, types and enums.
func ValidateToolArgs(schema *Schema, args map[string]interface{}) error {
	if schema == nil {
		return nil
	}

	for _, param := range schema.Parameters {
		val, exists := args[param.Name]

		if param.Required && (!exists || val == nil) {
			return &ValidationError{Param: param.Name, Message: "missing required argument"}
		}
		if !exists || val == nil {
			continue
		}

		if err := validateType(param, val); err != nil {
			return err
		}

		if len(param.Enum) > 0 {
			s, _ := val.(string)
			if !lo.Contains(param.Enum, s) {
				return &ValidationError{
					Param:   param.Name,
					Message: fmt.Sprintf("must be one of: %s", strings.Join(param.Enum, ", ")),
				}
			}
		}
	}

	return nil
}

// validateType validates a parameter value against its expected type.
func validateType(param Parameter, val interface{}) error {
	switch param.Type {
	case "string":
		if _, ok := val.(string); !ok {
			return &ValidationError{Param: param.Name, Message: "expected string"}
		}
	case "integer":
		switch v := val.(type) {
		case int, int64:
		case float64:
			if v != math.Trunc(v) {
				return &ValidationError{Param: param.Name, Message: "expected integer"}
			}
		default:
			return &ValidationError{Param: param.Name, Message: "expected integer"}
		}
	case "number":
		switch val.(type) {
		case int, int64, float64:
		default:
			return &ValidationError{Param: param.Name, Message: "expected number"}
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return &ValidationError{Param: param.Name, Message: "expected boolean"}
		}
	case "array":
		switch val.(type) {
		case []interface{}, []string:
		default:
			return &ValidationError{Param: param.Name, Message: "expected array"}
		}
	}
	return nil
}

// =============================================================================
// STRING COERCION (command-line invocation)
// =============================================================================

// CoerceArgs converts string values (as typed on a command line) to the
// types the schema declares. Unknown names are rejected.
func CoerceArgs(schema Schema, raw map[string]string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(raw))
	for name, s := range raw {
		param, ok := schema.Param(name)
		if !ok {
			return nil, &ValidationError{Param: name, Message: "unknown parameter"}
		}
		switch param.Type {
		case "integer":
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return nil, &ValidationError{Param: name, Message: "expected integer"}
			}
			out[name] = n
		case "number":
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, &ValidationError{Param: name, Message: "expected number"}
			}
			out[name] = f
		case "boolean":
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return nil, &ValidationError{Param: name, Message: "expected boolean"}
			}
			out[name] = b
		case "array":
			parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string { return strings.TrimSpace(p) })
			out[name] = lo.Compact(parts)
		default:
			out[name] = s
		}
	}
	return out, nil
}
