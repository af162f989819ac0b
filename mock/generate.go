package mock

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	"go.yaml.in/yaml/v4"

	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

// maxDepth bounds recursion on self-referencing schemas
const maxDepth = 8

// generateFromSchema synthesizes a value for a schema, honouring declared
// examples and enums before falling back to fabricated data
func generateFromSchema(schema *base.Schema, depth int) any {
	if schema == nil || depth > maxDepth {
		return nil
	}
	if schema.Example != nil {
		return yamlNodeToObj(schema.Example)
	}
	if len(schema.Examples) > 0 && schema.Examples[0] != nil {
		return yamlNodeToObj(schema.Examples[0])
	}
	if len(schema.Enum) > 0 && schema.Enum[0] != nil {
		return yamlNodeToObj(schema.Enum[0])
	}

	switch schemaType(schema) {
	case "string":
		return generateString(schema.Format)
	case "integer":
		return int64(gofakeit.Number(1, 100))
	case "number":
		return gofakeit.Float64Range(0, 100)
	case "boolean":
		return gofakeit.Bool()
	case "array":
		if schema.Items != nil && schema.Items.IsA() && schema.Items.A != nil {
			return []any{generateFromSchema(schema.Items.A.Schema(), depth+1)}
		}
		return []any{}
	default:
		return generateObject(schema, depth)
	}
}

func generateString(format string) string {
	switch format {
	case "email":
		return gofakeit.Email()
	case "uuid":
		return gofakeit.UUID()
	case "uri", "url":
		return gofakeit.URL()
	case "date":
		return gofakeit.Date().Format(time.DateOnly)
	case "date-time":
		return gofakeit.Date().Format(time.RFC3339)
	case "hostname":
		return gofakeit.DomainName()
	case "ipv4":
		return gofakeit.IPv4Address()
	default:
		return gofakeit.Word()
	}
}

func generateObject(schema *base.Schema, depth int) any {
	if schema.Properties == nil || schema.Properties.Len() == 0 {
		return map[string]any{}
	}
	obj := make(map[string]any, schema.Properties.Len())
	for name, propSchema := range schema.Properties.FromOldest() {
		obj[name] = generateFromSchema(propSchema.Schema(), depth+1)
	}
	return obj
}

// yamlNodeToObj converts a YAML node from the spec into a Go value
func yamlNodeToObj(node *yaml.Node) any {
	if node == nil {
		return nil
	}
	if len(node.Content) == 0 && node.Tag == "!!str" {
		return node.Value
	}
	var decoded any
	if err := node.Decode(&decoded); err != nil {
		logger.Warnf("failed to decode example node: %v", err)
		return nil
	}
	return normalizeNumbers(decoded)
}

// normalizeNumbers aligns decoded YAML values with JSON decoding, which uses
// float64 for every number
func normalizeNumbers(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case map[string]any:
		for key := range v {
			v[key] = normalizeNumbers(v[key])
		}
		return v
	case []any:
		for i := range v {
			v[i] = normalizeNumbers(v[i])
		}
		return v
	default:
		return v
	}
}
