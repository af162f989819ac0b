package openapi

import (
	"fmt"
	"strings"

	"github.com/pb33f/libopenapi"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"github.com/pb33f/libopenapi-validator/config"
	"github.com/pb33f/libopenapi-validator/parameters"
	"github.com/pb33f/libopenapi-validator/requests"
	"github.com/pb33f/libopenapi-validator/responses"

	"github.com/apiroute-project/apiroute-go/pkg/logger"
)

// Definition wraps a parsed and validated OpenAPI document together with the
// validators used to check requests and responses against it. A Definition is
// immutable once created and safe for concurrent reads.
type Definition struct {
	document libopenapi.Document
	model    *libopenapi.DocumentModel[v3.Document]

	valOptions     *config.ValidationOptions
	paramValidator parameters.ParameterValidator
	bodyValidator  requests.RequestBodyValidator
	respValidator  responses.ResponseBodyValidator

	operations []*Operation
	byID       map[string]*Operation
}

// NewDefinition parses an OpenAPI 3.x document and prepares it for routing.
// Malformed documents fail here, before any request is served.
func NewDefinition(spec []byte) (*Definition, error) {
	document, err := libopenapi.NewDocument(spec)
	if err != nil {
		return nil, fmt.Errorf("cannot parse OpenAPI document: %w", err)
	}

	model, err := document.BuildV3Model()
	if err != nil {
		return nil, fmt.Errorf("cannot build v3 model from document: %w", err)
	}

	d := &Definition{
		document:       document,
		model:          model,
		valOptions:     config.NewValidationOptions(),
		paramValidator: parameters.NewParameterValidator(&model.Model),
		bodyValidator:  requests.NewRequestBodyValidator(&model.Model),
		respValidator:  responses.NewResponseBodyValidator(&model.Model),
		byID:           make(map[string]*Operation),
	}
	d.indexOperations()

	logger.Debugf("initialised definition with %d operations", len(d.operations))
	return d, nil
}

// indexOperations flattens the document's path items into Operation
// descriptors, keyed by operationId where one is declared
func (d *Definition) indexOperations() {
	model := &d.model.Model
	if model.Paths == nil || model.Paths.PathItems == nil {
		return
	}

	for path, pathItem := range model.Paths.PathItems.FromOldest() {
		for method, op := range pathItem.GetOperations().FromOldest() {
			id := op.OperationId
			if id == "" {
				// anonymous operations are addressable by method and path
				id = fmt.Sprintf("%s %s", strings.ToUpper(method), path)
			}
			operation := &Operation{
				ID:       id,
				Method:   strings.ToUpper(method),
				Path:     path,
				op:       op,
				pathItem: pathItem,
				doc:      model,
			}
			d.operations = append(d.operations, operation)
			d.byID[id] = operation
		}
	}
}

// Operations returns every operation declared in the document
func (d *Definition) Operations() []*Operation {
	return d.operations
}

// OperationByID looks up an operation by its identifier
func (d *Definition) OperationByID(id string) *Operation {
	return d.byID[id]
}

// SecuritySchemeNames lists the security schemes declared in the document
// components
func (d *Definition) SecuritySchemeNames() []string {
	components := d.model.Model.Components
	if components == nil || components.SecuritySchemes == nil {
		return nil
	}
	names := make([]string, 0, components.SecuritySchemes.Len())
	for name := range components.SecuritySchemes.FromOldest() {
		names = append(names, name)
	}
	return names
}

// operationFor resolves the operation for a matched path template and method
func (d *Definition) operationFor(pathValue, method string) *Operation {
	for _, op := range d.operations {
		if op.Path == pathValue && strings.EqualFold(op.Method, method) {
			return op
		}
	}
	return nil
}
