package params

import (
	"testing"

	"github.com/leapstack-labs/querydeck/internal/testutil"
	"github.com/leapstack-labs/querydeck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		declared []string
		provided core.Params
		missing  []string
		extra    []string
		warns    int
	}{
		{
			name:     "exact match",
			declared: []string{"limit"},
			provided: core.Params{"limit": 5},
		},
		{
			name:     "missing parameter",
			declared: []string{"limit"},
			provided: core.Params{},
			missing:  []string{"limit"},
			warns:    1,
		},
		{
			name:     "extra parameter",
			declared: nil,
			provided: core.Params{"limit": 5, "city": "Delhi"},
			extra:    []string{"city", "limit"},
			warns:    1,
		},
		{
			name:     "both",
			declared: []string{"start", "end"},
			provided: core.Params{"end": "2024-01-31", "limit": 3},
			missing:  []string{"start"},
			extra:    []string{"limit"},
			warns:    1,
		},
		{
			name: "nothing declared nothing supplied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewCaptureLogger()

			m := Validate(logger, "top_products", tt.declared, tt.provided)
			assert.Equal(t, tt.missing, m.Missing)
			assert.Equal(t, tt.extra, m.Extra)
			assert.Equal(t, tt.warns == 0, m.OK())

			warns := logs.Warnings()
			require.Len(t, warns, tt.warns)
			if tt.warns > 0 {
				assert.Equal(t, "top_products", warns[0].Attrs["query"])
			}
			assert.Len(t, logs.Entries(), tt.warns, "no other diagnostics")
		})
	}
}

func TestValidate_NilLogger(t *testing.T) {
	m := Validate(nil, "q", []string{"limit"}, nil)
	assert.Equal(t, []string{"limit"}, m.Missing)
}

func TestParse(t *testing.T) {
	got, err := Parse([]string{"limit=5", "city=Delhi", "ratio=0.5", "active=true", "code='007'", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, core.Params{
		"limit":  int64(5),
		"city":   "Delhi",
		"ratio":  0.5,
		"active": true,
		"code":   "007",
		"note":   "a=b",
	}, got)

	_, err = Parse([]string{"novalue"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")

	_, err = Parse([]string{"=5"})
	require.Error(t, err)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"0", int64(0)},
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"+3", int64(3)},
		{"3.25", 3.25},
		{"-0.5", -0.5},
		{"007", "007"},
		{"00.5", "00.5"},
		{"1_000", "1_000"},
		{"1e5", "1e5"},
		{"NaN", "NaN"},
		{"inf", "inf"},
		{"-Infinity", "-Infinity"},
		{"0x1F", "0x1F"},
		{".5", ".5"},
		{"5.", "5."},
		{"99999999999999999999", "99999999999999999999"},
		{"TRUE", true},
		{"false", false},
		{`"12"`, "12"},
		{"Delhi", "Delhi"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseValue(tt.in))
		})
	}
}
