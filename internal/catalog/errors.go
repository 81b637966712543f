package catalog

import (
	"fmt"
	"strings"
)

// LoadError is returned when a catalog source cannot be read or parsed.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load catalog %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ValidationError is returned when a catalog parses but an entry is malformed.
type ValidationError struct {
	Source string
	Query  string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Query == "" && e.Field == "":
		return fmt.Sprintf("invalid catalog %s: %s", e.Source, e.Reason)
	case e.Field == "":
		return fmt.Sprintf("invalid catalog %s: query %q: %s", e.Source, e.Query, e.Reason)
	default:
		return fmt.Sprintf("invalid catalog %s: query %q: field %q: %s", e.Source, e.Query, e.Field, e.Reason)
	}
}

// UnknownQueryError is returned when a name is not in the catalog.
type UnknownQueryError struct {
	Name  string
	Known []string
}

func (e *UnknownQueryError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown query %q (catalog is empty)", e.Name)
	}
	return fmt.Sprintf("unknown query %q (known queries: %s)", e.Name, strings.Join(e.Known, ", "))
}
