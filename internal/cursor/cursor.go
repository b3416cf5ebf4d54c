// Package cursor encodes keyset-pagination continuation tokens.
//
// A token is the base64url form of a small JSON array holding the sort-key
// values of the last row of the previous page. Tokens are opaque to callers
// and only meaningful against the exact filter and sort order that produced
// them; adapters pair Decode with the same ORDER BY they fetch with.
package cursor

import (
	"encoding/base64"
	"encoding/json"
)

// maxTokenLen guards against absurd inputs before base64 decoding.
const maxTokenLen = 1024

// Encode serializes the sort-key tuple of the last kept row into an opaque,
// URL-safe token.
func Encode(vals ...any) string {
	b, err := json.Marshal(vals)
	if err != nil {
		// Sort keys are scalars; marshal cannot fail for them. Returning an
		// empty token degrades to "no cursor" on the way back in.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode reverses Encode. It returns nil on ANY malformed input; callers
// treat nil as "no cursor" and serve the first page rather than erroring.
// JSON numbers come back as float64; adapters that need ordered string keys
// must encode them as strings.
func Decode(token string) []any {
	if token == "" || len(token) > maxTokenLen {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil
	}
	var vals []any
	if err := json.Unmarshal(b, &vals); err != nil {
		return nil
	}
	if len(vals) == 0 || len(vals) > 3 {
		return nil
	}
	return vals
}

// DecodeStrings is Decode restricted to string tuples of an exact arity,
// which is what every adapter in this repository uses. Returns nil unless
// the token decodes to exactly n strings.
func DecodeStrings(token string, n int) []string {
	vals := Decode(token)
	if len(vals) != n {
		return nil
	}
	out := make([]string, n)
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		out[i] = s
	}
	return out
}
