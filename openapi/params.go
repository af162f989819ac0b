package openapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

// CoerceParams converts string-typed raw parameter values into typed values
// per the declared parameter schemas for one location (path, query, header
// or cookie). Declared parameters are coerced to the schema type; unknown
// parameters pass through unchanged. The input map is never mutated.
// Missing required parameters and uncoercible values are returned as errors.
func CoerceParams(raw map[string][]string, declared []*v3.Parameter, in string) (map[string]any, []error) {
	// header names compare case-insensitively
	fold := func(name string) string { return name }
	if in == "header" {
		fold = http.CanonicalHeaderKey
	}

	byName := make(map[string]*v3.Parameter, len(declared))
	for _, p := range declared {
		byName[fold(p.Name)] = p
	}

	out := make(map[string]any, len(raw))
	present := make(map[string]bool, len(raw))
	var errs []error

	for name, values := range raw {
		present[fold(name)] = true
		p := byName[fold(name)]
		if p == nil || p.Schema == nil {
			out[name] = passthrough(values)
			continue
		}
		coerced, err := coerceValues(values, p.Schema.Schema())
		if err != nil {
			errs = append(errs, fmt.Errorf("parameter %q: %w", name, err))
			continue
		}
		out[name] = coerced
	}

	for _, p := range declared {
		if p.Required != nil && *p.Required && !present[fold(p.Name)] {
			errs = append(errs, fmt.Errorf("missing required parameter %q", p.Name))
		}
	}
	return out, errs
}

// passthrough keeps undeclared values in their wire shape
func passthrough(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}

// coerceValues applies the schema to one or many raw values. Array schemas
// coerce element-wise, accepting both repeated values and the default
// comma-separated serialization for a single raw value.
func coerceValues(values []string, schema *base.Schema) (any, error) {
	if schema == nil {
		return passthrough(values), nil
	}

	if schemaType(schema) == "array" {
		items := itemsSchema(schema)
		parts := values
		if len(values) == 1 && strings.Contains(values[0], ",") {
			parts = strings.Split(values[0], ",")
		}
		arr := make([]any, 0, len(parts))
		for _, part := range parts {
			v, err := coerceScalar(part, items)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	}

	if len(values) > 1 {
		arr := make([]any, 0, len(values))
		for _, value := range values {
			v, err := coerceScalar(value, schema)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	}
	return coerceScalar(values[0], schema)
}

// coerceScalar converts a single wire value to the schema's declared type
func coerceScalar(value string, schema *base.Schema) (any, error) {
	switch schemaType(schema) {
	case "integer":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not an integer", value)
		}
		return n, nil
	case "number":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a number", value)
		}
		return f, nil
	case "boolean":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a boolean", value)
		}
		return b, nil
	default:
		return value, nil
	}
}

func schemaType(schema *base.Schema) string {
	if schema == nil || len(schema.Type) == 0 {
		return ""
	}
	return schema.Type[0]
}

func itemsSchema(schema *base.Schema) *base.Schema {
	if schema == nil || schema.Items == nil || !schema.Items.IsA() || schema.Items.A == nil {
		return nil
	}
	return schema.Items.A.Schema()
}
