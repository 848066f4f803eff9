package jsonfix

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepair(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid JSON unchanged",
			input: `{"next": "web_search"}`,
			want:  `{"next": "web_search"}`,
		},
		{
			name:  "fenced with language tag",
			input: "```json\n{\"next\": \"budget_insights\"}\n```",
			want:  `{"next": "budget_insights"}`,
		},
		{
			name:  "fenced without language tag",
			input: "```\n{\"next\": \"generic\"}\n```",
			want:  `{"next": "generic"}`,
		},
		{
			name:  "uppercase language tag",
			input: "JSON {\"next\": \"generic\"}",
			want:  `{"next": "generic"}`,
		},
		{
			name:  "missing closing brace appended",
			input: `{"next": "generic"`,
			want:  `{"next": "generic"}`,
		},
		{
			name:  "excess closing braces trimmed",
			input: `{"next": "generic"}}}`,
			want:  `{"next": "generic"}`,
		},
		{
			name:  "missing bracket closers",
			input: `{"items": [1, 2`,
			want:  `{"items": [1, 2}]`,
		},
		{
			name:  "surrounding whitespace stripped",
			input: "  {\"a\": 1}\n\n",
			want:  `{"a": 1}`,
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Repair(tt.input))
		})
	}
}

// Repairing twice must equal repairing once, whatever the input looks like.
func TestRepair_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{"next": "generic"}`,
		"```json\n{\"a\": [1, 2}\n```",
		"json json {\"a\": 1",
		"not json at all",
		"}}}}",
		"[[[",
		"",
	}

	for _, in := range inputs {
		once := Repair(in)
		assert.Equal(t, once, Repair(once), "input %q", in)
	}
}

// Syntactically valid JSON objects and arrays must round-trip untouched.
func TestRepair_ValidJSONRoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`{"next": "budget_insights", "confidence": 0.9}`,
		`[1, 2, {"nested": [true, null]}]`,
		`{"empty": {}}`,
	}

	for _, in := range inputs {
		got := Repair(in)
		assert.Equal(t, in, got)
		require.True(t, json.Valid([]byte(got)))
	}
}
