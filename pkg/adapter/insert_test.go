package adapter

import (
	"testing"

	"github.com/leapstack-labs/querydeck/pkg/core"
	"github.com/stretchr/testify/assert"
)

type stubDialect struct {
	style     PlaceholderStyle
	backslash bool
}

func (s *stubDialect) Placeholder() PlaceholderStyle      { return s.style }
func (s *stubDialect) QuoteIdentifier(name string) string { return QuoteANSI(name) }
func (s *stubDialect) BackslashEscapes() bool             { return s.backslash }

func TestBuildInsert(t *testing.T) {
	records := []core.Row{
		{"name": "Laptop", "price": 999.99, "category": "Electronics"},
		{"name": "Desk", "category": "Furniture"},
	}

	t.Run("question style", func(t *testing.T) {
		sql, args := BuildInsert(&stubDialect{style: PlaceholderQuestion}, "products", records)
		assert.Equal(t,
			`INSERT INTO "products" ("category", "name", "price") VALUES (?, ?, ?), (?, ?, ?)`,
			sql)
		assert.Equal(t, []any{"Electronics", "Laptop", 999.99, "Furniture", "Desk", nil}, args)
	})

	t.Run("dollar style numbers across rows", func(t *testing.T) {
		sql, args := BuildInsert(&stubDialect{style: PlaceholderDollar}, "shop.products", records)
		assert.Equal(t,
			`INSERT INTO "shop"."products" ("category", "name", "price") VALUES ($1, $2, $3), ($4, $5, $6)`,
			sql)
		assert.Len(t, args, 6)
	})

	t.Run("keys outside the first record are ignored", func(t *testing.T) {
		sql, args := BuildInsert(&stubDialect{}, "t", []core.Row{{"a": 1}, {"a": 2, "b": 3}})
		assert.Equal(t, `INSERT INTO "t" ("a") VALUES (?), (?)`, sql)
		assert.Equal(t, []any{1, 2}, args)
	})

	t.Run("empty input", func(t *testing.T) {
		sql, args := BuildInsert(&stubDialect{}, "t", nil)
		assert.Empty(t, sql)
		assert.Nil(t, args)
	})
}
