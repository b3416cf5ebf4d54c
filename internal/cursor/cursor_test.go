package cursor

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	token := Encode("Smith", "Alice", "E42")
	require.NotEmpty(t, token)

	vals := DecodeStrings(token, 3)
	require.NotNil(t, vals)
	assert.Equal(t, []string{"Smith", "Alice", "E42"}, vals)
}

func TestDecodeMalformedNeverErrors(t *testing.T) {
	cases := []string{
		"",
		"not-base64!!!",
		base64.RawURLEncoding.EncodeToString([]byte("not json")),
		base64.RawURLEncoding.EncodeToString([]byte(`{"a":1}`)),
		base64.RawURLEncoding.EncodeToString([]byte(`[]`)),
		base64.RawURLEncoding.EncodeToString([]byte(`[1,2,3,4]`)),
		base64.RawURLEncoding.EncodeToString([]byte(`null`)),
		string(make([]byte, 4096)),
	}
	for _, c := range cases {
		assert.Nil(t, Decode(c), "input %q must decode to nil", c)
	}
}

func TestDecodeTamperedToken(t *testing.T) {
	token := Encode("a", "b")
	tampered := token[:len(token)-2] + "zz"
	// tampering may still yield valid base64; either way no panic and no error
	_ = Decode(tampered)
}

func TestDecodeStringsArityAndTypes(t *testing.T) {
	token := Encode("x", "y")
	assert.Nil(t, DecodeStrings(token, 3), "wrong arity must be rejected")

	numeric := Encode(1, 2)
	assert.Nil(t, DecodeStrings(numeric, 2), "non-string tuple must be rejected")
}

func TestURLSafety(t *testing.T) {
	token := Encode("O'Brien & Söhne?", "x/y+z")
	for _, c := range []byte{'+', '/', '='} {
		assert.NotContains(t, token, string(c))
	}
	require.Equal(t, []string{"O'Brien & Söhne?", "x/y+z"}, DecodeStrings(token, 2))
}
