// Package catalog holds the named SQL query definitions that reports run.
//
// A catalog is loaded in full from one JSON or YAML document and held as an
// immutable snapshot. Reload parses a new document completely before
// swapping it in, so readers see either the old catalog or the new one and
// never a mix.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync/atomic"

	"github.com/leapstack-labs/querydeck/pkg/core"
)

type snapshot struct {
	source string
	order  []string
	defs   map[string]core.QueryDefinition
}

func newSnapshot(source string, defs []core.QueryDefinition) *snapshot {
	s := &snapshot{
		source: source,
		order:  make([]string, len(defs)),
		defs:   make(map[string]core.QueryDefinition, len(defs)),
	}
	for i, d := range defs {
		s.order[i] = d.Name
		s.defs[d.Name] = d
	}
	return s
}

// Store serves query definitions from the current catalog snapshot.
// It is safe for concurrent use.
type Store struct {
	snap   atomic.Pointer[snapshot]
	logger *slog.Logger
}

// Load reads and validates the catalog at path.
func Load(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{logger: logger}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if err := s.Reload(path); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadBytes builds a store from an in-memory document. source names the
// document in errors and selects the format by extension.
func LoadBytes(source string, data []byte, logger *slog.Logger) (*Store, error) {
	s := &Store{logger: logger}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if err := s.ReloadBytes(source, data); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the catalog from path, or from the current source when
// path is empty. On failure the previous catalog stays in place.
func (s *Store) Reload(path string) error {
	if path == "" {
		path = s.Source()
	}
	if path == "" {
		return fmt.Errorf("no catalog source to reload")
	}

	data, err := os.ReadFile(path) //nolint:gosec // catalog path is operator-supplied configuration
	if err != nil {
		return &LoadError{Source: path, Err: err}
	}
	return s.ReloadBytes(path, data)
}

// ReloadBytes replaces the catalog with the parsed document.
func (s *Store) ReloadBytes(source string, data []byte) error {
	defs, err := parse(source, data)
	if err != nil {
		return err
	}

	s.snap.Store(newSnapshot(source, defs))
	s.logger.Debug("catalog loaded", slog.String("source", source), slog.Int("queries", len(defs)))
	return nil
}

func (s *Store) current() *snapshot {
	if snap := s.snap.Load(); snap != nil {
		return snap
	}
	return &snapshot{}
}

// Lookup returns the definition for name.
func (s *Store) Lookup(name string) (core.QueryDefinition, error) {
	snap := s.current()
	def, ok := snap.defs[name]
	if !ok {
		return core.QueryDefinition{}, &UnknownQueryError{Name: name, Known: slices.Clone(snap.order)}
	}
	return def.Clone(), nil
}

// Names returns all query names in load order.
func (s *Store) Names() []string {
	return slices.Clone(s.current().order)
}

// Definitions returns every definition in load order.
func (s *Store) Definitions() []core.QueryDefinition {
	snap := s.current()
	out := make([]core.QueryDefinition, len(snap.order))
	for i, name := range snap.order {
		out[i] = snap.defs[name].Clone()
	}
	return out
}

// Len returns the number of queries.
func (s *Store) Len() int {
	return len(s.current().order)
}

// Source returns where the current catalog was loaded from.
func (s *Store) Source() string {
	return s.current().source
}
