package mysql

import (
	"log/slog"

	"github.com/leapstack-labs/querydeck/pkg/adapter"
)

// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/querydeck/pkg/adapters/mysql"
func init() {
	adapter.Register("mysql", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
