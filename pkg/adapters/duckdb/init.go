package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/querydeck/pkg/adapter"
)

// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/querydeck/pkg/adapters/duckdb"
func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
