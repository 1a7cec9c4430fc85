package document

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int", -100, "-100"},
		{"zero", 0, "0"},
		{"max int64", int64(9223372036854775807), "9223372036854775807"},
		{"min int64", int64(-9223372036854775808), "-9223372036854775808"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"null", nil, "null"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"empty document", Document{}, "{}"},
		{"array of ints", []any{1, 2, 3}, "[1,2,3]"},
		{"simple object", map[string]any{"a": 1}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalNumberTokens(t *testing.T) {
	// json.Number tokens are emitted verbatim. A store round trip decodes
	// every number into its original token, so the canonical form (and
	// with it the content hash) survives decode/encode cycles.
	tests := []struct {
		name     string
		input    json.Number
		expected string
	}{
		{"integer", json.Number("3"), "3"},
		{"trailing zero preserved", json.Number("1.50"), "1.50"},
		{"exponent preserved", json.Number("1e+21"), "1e+21"},
		{"negative fraction", json.Number("-0.25"), "-0.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejectsBadNumberTokens(t *testing.T) {
	_, err := MarshalCanonical(json.Number(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty json.Number")

	_, err = MarshalCanonical(json.Number("bogus"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid json.Number")
}

func TestMarshalCanonicalFloats(t *testing.T) {
	// Floats format exactly as encoding/json formats them, so a document
	// built with float64 values canonicalizes identically before and
	// after the store re-decodes those floats as json.Number tokens.
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"fraction", 2.5, "2.5"},
		{"whole", 3.0, "3"},
		{"large", 1e21, "1e+21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))

			decoded, err := Decode([]byte(`{"v":` + tt.expected + `}`))
			require.NoError(t, err)
			again, err := MarshalCanonical(decoded["v"])
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(again), "token must survive a decode cycle")
		})
	}
}

func TestMarshalCanonicalRejectsNonFiniteFloats(t *testing.T) {
	tests := []struct {
		name  string
		input float64
	}{
		{"NaN", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "non-finite")
		})
	}
}

func TestMarshalCanonicalRejectsUnsupportedTypes(t *testing.T) {
	_, err := MarshalCanonical(struct{ X int }{X: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")

	_, err = MarshalCanonical(float32(3.14))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"zebra": 1,
		"alpha": 2,
		"beta":  3,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalNestedSortedKeys(t *testing.T) {
	obj := Document{
		"z": map[string]any{
			"b": 1,
			"a": 2,
		},
		"a": 3,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000 - UTF-16 order differs from UTF-8
	obj := map[string]any{
		"": 1, // UTF-16: 0xE000
		"𐀀":      2, // UTF-16: 0xD800, 0xDC00 (surrogate pair)
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)

	// UTF-16 order: 0xD800 < 0xE000, so 𐀀 comes first
	expected := `{"𐀀":2,"` + "" + `":1}`
	assert.Equal(t, expected, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	obj := map[string]any{
		"html": "<script>alert('xss')</script>",
		"amp":  "a & b",
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)

	// MUST NOT escape <, >, &
	assert.Contains(t, string(result), "<script>")
	assert.Contains(t, string(result), "a & b")
	assert.NotContains(t, string(result), `<`)
	assert.NotContains(t, string(result), `>`)
	assert.NotContains(t, string(result), `&`)
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "é" as U+00E9 (precomposed) and as U+0065 U+0301 (combining) must
	// canonicalize to the same bytes, for values and for keys.
	composed := "café"
	decomposed := "café"

	v1, err := MarshalCanonical(composed)
	require.NoError(t, err)
	v2, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, v1, v2, "NFC normalization should make these equal")

	k1, err := MarshalCanonical(map[string]any{composed: 1})
	require.NoError(t, err)
	k2, err := MarshalCanonical(map[string]any{decomposed: 1})
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "NFC normalization should make object keys equal")
}

func TestMarshalCanonicalCompactOutput(t *testing.T) {
	obj := map[string]any{
		"array": []any{1, 2},
		"bool":  true,
		"int":   42,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)

	assert.NotContains(t, string(result), " ")
	assert.NotContains(t, string(result), "\n")
	assert.NotContains(t, string(result), "\t")
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalU2028U2029NotEscaped(t *testing.T) {
	// U+2028 and U+2029 stay literal. Only control characters,
	// backslash, and quote are escaped.
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "U+2028 LINE SEPARATOR",
			input:    "hello world",
			expected: "\"hello world\"",
		},
		{
			name:     "U+2029 PARAGRAPH SEPARATOR",
			input:    "hello world",
			expected: "\"hello world\"",
		},
		{
			name:     "both separators",
			input:    "a b c",
			expected: "\"a b c\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
			assert.NotContains(t, string(result), ` `)
			assert.NotContains(t, string(result), ` `)
		})
	}
}

func TestMarshalCanonicalLiteralBackslashU2028(t *testing.T) {
	// Regression test: a literal backslash followed by the text "u2028"
	// must stay escaped; only the real   escape sequence the encoder
	// emits is converted back to the literal character.
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "literal backslash-u2028 text",
			input:    `the escape sequence is  `,
			expected: `"the escape sequence is \\u2028"`,
		},
		{
			name:     "literal backslash-u2029 text",
			input:    `the escape sequence is  `,
			expected: `"the escape sequence is \\u2029"`,
		},
		{
			name:     "mixed literal and actual",
			input:    "literal \\u2028 and actual  ",
			expected: "\"literal \\\\u2028 and actual  \"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalIdempotency(t *testing.T) {
	// Property: MarshalCanonical(Decode(MarshalCanonical(doc))) == MarshalCanonical(doc)
	docs := []Document{
		{"a": 1, "b": "test"},
		{"nested": map[string]any{"array": []any{1, 2}}, "simple": "value"},
		{"mixed": []any{1, "two", false, nil, 2.5}},
		{"numbers": map[string]any{"int": 7, "frac": json.Number("0.125"), "float": 1.25}},
	}

	for _, original := range docs {
		canonical1, err := MarshalCanonical(original)
		require.NoError(t, err)

		decoded, err := Decode(canonical1)
		require.NoError(t, err)

		canonical2, err := MarshalCanonical(decoded)
		require.NoError(t, err)

		assert.Equal(t, canonical1, canonical2, "canonical marshaling must be idempotent")
	}
}

func TestMarshalCanonicalGolden(t *testing.T) {
	doc := Document{
		"name": "café <Flow> & Friends",
		"zoom": json.Number("1"),
		"nodes": []any{
			map[string]any{
				"id":   "n1",
				"type": "input",
				"position": map[string]any{
					"x": json.Number("120.5"),
					"y": json.Number("-7"),
				},
			},
		},
		"edges": []any{},
	}

	result, err := MarshalCanonical(doc)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "canonical_document", result)
}

// FuzzMarshalCanonicalIdempotent checks the idempotency property over
// arbitrary JSON objects.
func FuzzMarshalCanonicalIdempotent(f *testing.F) {
	f.Add(`{"a":1,"b":"test"}`)
	f.Add(`{"nested":{"deep":{"value":123}}}`)
	f.Add(`{"arr":[1,2.5,"three",null,true]}`)
	f.Add(`{"é":"café","𐀀":1}`)

	f.Fuzz(func(t *testing.T, jsonStr string) {
		doc, err := Decode([]byte(jsonStr))
		if err != nil {
			t.Skip()
		}

		canonical1, err := MarshalCanonical(doc)
		if err != nil {
			t.Skip()
		}

		doc2, err := Decode(canonical1)
		require.NoError(t, err)

		canonical2, err := MarshalCanonical(doc2)
		require.NoError(t, err)

		assert.Equal(t, canonical1, canonical2, "canonical marshaling must be idempotent")
	})
}
