// Package params checks and parses query parameters.
//
// Validation is best-effort: mismatches between the parameters a query
// declares and the ones a caller supplies are reported as warnings and
// never block execution. The data store stays the authority on whether a
// bound statement is acceptable.
package params

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/querydeck/pkg/core"
)

// Mismatch describes the difference between declared and supplied parameters.
type Mismatch struct {
	Missing []string
	Extra   []string
}

// OK reports whether declared and supplied parameters agree.
func (m Mismatch) OK() bool {
	return len(m.Missing) == 0 && len(m.Extra) == 0
}

// Validate compares declared parameter names against provided values for
// the named query. Missing names keep declaration order; extra names are
// sorted. A non-empty mismatch is logged at WARN. It never fails.
func Validate(logger *slog.Logger, name string, declared []string, provided core.Params) Mismatch {
	if len(declared) == 0 && len(provided) == 0 {
		return Mismatch{}
	}

	var m Mismatch
	for _, p := range declared {
		if _, ok := provided[p]; !ok {
			m.Missing = append(m.Missing, p)
		}
	}
	for _, k := range provided.Keys() {
		if !slices.Contains(declared, k) {
			m.Extra = append(m.Extra, k)
		}
	}

	if !m.OK() && logger != nil {
		logger.Warn("parameter mismatch",
			slog.String("query", name),
			slog.Any("missing", m.Missing),
			slog.Any("extra", m.Extra))
	}
	return m
}

// Parse turns "key=value" pairs into a parameter set. Values are typed
// with ParseValue. A repeated key keeps the last value.
func Parse(pairs []string) (core.Params, error) {
	out := core.Params{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
		}
		out[k] = ParseValue(v)
	}
	return out, nil
}

var (
	intPattern   = regexp.MustCompile(`^[-+]?(0|[1-9][0-9]*)$`)
	floatPattern = regexp.MustCompile(`^[-+]?(0|[1-9][0-9]*)\.[0-9]+$`)
)

// ParseValue infers a scalar type from text: integer, float, bool, or
// string. Quoted text is always a string with the quotes removed.
// Only plain decimal numbers are numeric, so codes with leading zeros,
// digit separators, exponents, NaN and Inf stay text.
func ParseValue(s string) any {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	if intPattern.MatchString(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		return s
	}
	if floatPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
			return f
		}
		return s
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
