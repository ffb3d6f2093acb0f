package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplay_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "hello", "hello"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"int", 42, "42"},
		{"negative int64", int64(-7), "-7"},
		{"uint64", uint64(18446744073709551615), "18446744073709551615"},
		{"integral float", 100.0, "100"},
		{"fractional float", 1.5, "1.5"},
		{"large float", 1e21, "1e+21"},
		{"small float", 1e-7, "1e-07"},
		{"json number", json.Number("3.14"), "3.14"},
		{"time", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), "2024-05-01T12:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Display(tt.in))
		})
	}
}

func TestDisplay_NFCNormalization(t *testing.T) {
	// "e" + combining acute accent (NFD) must render as precomposed "é" (NFC)
	nfd := "cafe\u0301"
	assert.Equal(t, "caf\u00e9", Display(nfd))
}

func TestDisplay_NestedMapSortedKeys(t *testing.T) {
	got := Display(map[string]any{
		"b": 1,
		"a": []any{"x", true, nil},
	})
	assert.Equal(t, `{"a":["x",true,null],"b":1}`, got)
}

func TestDisplay_NoHTMLEscaping(t *testing.T) {
	got := Display(map[string]any{"html": "<a href=\"x\">&</a>"})
	assert.Equal(t, `{"html":"<a href=\"x\">&</a>"}`, got)
}

func TestDisplay_LineSeparatorsLiteral(t *testing.T) {
	got := Display([]any{"a\u2028b"})
	assert.Equal(t, "[\"a\u2028b\"]", got)
}

func TestDisplay_ControlCharactersEscaped(t *testing.T) {
	got := Display([]any{"a\nb\x01"})
	assert.Equal(t, `["a\nb\u0001"]`, got)
}

func TestDisplay_TypedSliceAndStruct(t *testing.T) {
	type meta struct {
		Owner string   `json:"owner"`
		Tags  []string `json:"tags"`
	}
	assert.Equal(t, `[1,2,3]`, Display([]int{1, 2, 3}))
	assert.Equal(t, `{"owner":"ops","tags":["a"]}`, Display(meta{Owner: "ops", Tags: []string{"a"}}))
}

func TestDisplay_Deterministic(t *testing.T) {
	v := map[string]any{"z": 1, "y": map[string]any{"b": 2, "a": 1}, "x": "s"}
	first := Display(v)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Display(v))
	}
}

func TestCompareUTF16_SurrogateOrdering(t *testing.T) {
	// U+FF61 sorts after U+1F600 in UTF-8 byte order but before it in
	// UTF-16 code unit order (surrogates start at 0xD800).
	assert.Equal(t, 1, compareUTF16("｡", "\U0001F600"))
	assert.Equal(t, -1, compareUTF16("a", "b"))
	assert.Equal(t, -1, compareUTF16("a", "ab"))
	assert.Equal(t, 0, compareUTF16("k", "k"))
}

func TestCanonical_TopLevel(t *testing.T) {
	b, err := Canonical("x")
	require.NoError(t, err)
	assert.Equal(t, `"x"`, string(b))

	b, err = Canonical(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestRecord_Validate(t *testing.T) {
	require.Error(t, Record{}.Validate())
	require.NoError(t, New("r1", nil).Validate())

	r := New("r1", map[string]any{"name": "alpha"})
	v, ok := r.Field("name")
	assert.True(t, ok)
	assert.Equal(t, "alpha", v)
	_, ok = r.Field("missing")
	assert.False(t, ok)
}
