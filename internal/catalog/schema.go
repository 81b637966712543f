package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

const rootField = "(root)"

// fieldRank orders schema failures so the reported one is stable.
var fieldRank = map[string]int{"": 0, "sql": 1, "description": 2, "params": 3}

// validateStructure checks doc against the catalog schema. order lists the
// query names in load order and is used to attribute and sort failures.
func validateStructure(source string, doc any, order []string) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("catalog schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &LoadError{Source: source, Err: err}
	}
	if result.Valid() {
		return nil
	}

	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}

	errs := make([]*ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		errs = append(errs, toValidationError(source, re, order))
	}
	sort.SliceStable(errs, func(i, j int) bool {
		pi, pj := position[errs[i].Query], position[errs[j].Query]
		if pi != pj {
			return pi < pj
		}
		return rank(errs[i].Field) < rank(errs[j].Field)
	})
	return errs[0]
}

func rank(field string) int {
	if r, ok := fieldRank[field]; ok {
		return r
	}
	return len(fieldRank)
}

// toValidationError attributes a schema failure to a query and field.
// gojsonschema reports paths like "q1.params.0"; query names may contain
// dots, so the longest known name that prefixes the path wins.
func toValidationError(source string, re gojsonschema.ResultError, order []string) *ValidationError {
	path := re.Field()
	ve := &ValidationError{Source: source, Reason: re.Description()}

	if path == rootField || path == "" {
		ve.Reason = "catalog must be an object mapping query names to definitions: " + re.Description()
		return ve
	}

	for _, name := range order {
		if (path == name || strings.HasPrefix(path, name+".")) && len(name) > len(ve.Query) {
			ve.Query = name
		}
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(path, ve.Query), ".")
	ve.Field, _, _ = strings.Cut(rest, ".")

	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok {
			ve.Field = prop
			ve.Reason = "missing required field"
		}
	}
	return ve
}
