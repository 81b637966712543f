package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/querydeck/pkg/core"
	"gopkg.in/yaml.v3"
)

// entry is one top-level key of a catalog document in file order.
type entry struct {
	name  string
	value any
}

// parse decodes and validates a catalog document. The format is chosen by
// the source extension: .yaml and .yml are YAML, everything else is JSON.
func parse(source string, data []byte) ([]core.QueryDefinition, error) {
	var (
		entries []entry
		doc     any
		err     error
	)
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml":
		entries, doc, err = decodeYAML(data)
	default:
		entries, doc, err = decodeJSON(data)
	}
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Source = source
			return nil, ve
		}
		return nil, &LoadError{Source: source, Err: err}
	}

	order := make([]string, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.name) == "" {
			return nil, &ValidationError{Source: source, Field: "name", Reason: "query name must not be empty"}
		}
		order[i] = e.name
	}

	if err := validateStructure(source, doc, order); err != nil {
		return nil, err
	}

	defs := make([]core.QueryDefinition, 0, len(entries))
	for _, e := range entries {
		def := toDefinition(e)
		if strings.TrimSpace(def.SQL) == "" {
			return nil, &ValidationError{Source: source, Query: def.Name, Field: "sql", Reason: "statement must not be empty"}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// toDefinition converts a schema-validated entry.
func toDefinition(e entry) core.QueryDefinition {
	m, _ := e.value.(map[string]any)
	def := core.QueryDefinition{Name: e.name}
	def.SQL, _ = m["sql"].(string)
	def.Description, _ = m["description"].(string)
	if raw, ok := m["params"].([]any); ok {
		def.Params = make([]string, 0, len(raw))
		for _, p := range raw {
			if s, ok := p.(string); ok {
				def.Params = append(def.Params, s)
			}
		}
	}
	return def
}

// decodeJSON returns the top-level entries in file order along with the
// whole document for schema validation.
func decodeJSON(data []byte) ([]entry, any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, doc, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}

	var entries []entry
	seen := map[string]bool{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		name, _ := tok.(string)
		if seen[name] {
			return nil, nil, &ValidationError{Query: name, Field: "name", Reason: "duplicate query name"}
		}
		seen[name] = true

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, nil, err
		}
		entries = append(entries, entry{name: name, value: value})
	}
	return entries, doc, nil
}

// decodeYAML walks the mapping node directly so key order survives.
func decodeYAML(data []byte) ([]entry, any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("malformed YAML: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil, fmt.Errorf("empty YAML document")
	}

	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		var doc any
		if err := node.Decode(&doc); err != nil {
			return nil, nil, err
		}
		return nil, doc, nil
	}

	doc := make(map[string]any, len(node.Content)/2)
	entries := make([]entry, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if _, dup := doc[name]; dup {
			return nil, nil, &ValidationError{Query: name, Field: "name", Reason: "duplicate query name"}
		}

		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("query %q: %w", name, err)
		}
		doc[name] = value
		entries = append(entries, entry{name: name, value: value})
	}
	return entries, doc, nil
}
