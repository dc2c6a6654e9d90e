package definition

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// ErrUnencodableValue marks page values outside the JSON-like value set.
// A page containing channels, functions, or custom structs cannot be
// fingerprinted.
var ErrUnencodableValue = errors.New("unencodable page value")

// Checksummer computes deterministic content fingerprints for page
// payloads.
//
// The fingerprint is designed to be:
//   - Deterministic: structurally equal pages always produce the same
//     checksum, regardless of map key insertion order
//   - Content-based: only the page payload contributes; envelope fields
//     (schemaVersion, checksum) are excluded
//   - Stable across architectures: all components are type-tagged and
//     length-prefixed before hashing
type Checksummer struct{}

// NewChecksummer creates a new Checksummer.
func NewChecksummer() *Checksummer {
	return &Checksummer{}
}

// Stamp returns a copy of def with Checksum set to the sha256 hex digest
// of the canonical encoding of its page. An absent page is hashed as an
// empty object, so nil and {} fingerprint identically.
func (c *Checksummer) Stamp(def Definition) (Definition, error) {
	sum, err := c.Checksum(def.Page)
	if err != nil {
		return Definition{}, err
	}
	out := def.Clone()
	out.Checksum = sum
	return out, nil
}

// Checksum computes the fingerprint of a page payload without touching a
// definition envelope.
func (c *Checksummer) Checksum(page map[string]any) (string, error) {
	enc, err := CanonicalEncode(page)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(enc)
	return hex.EncodeToString(sum[:]), nil
}

// CanonicalEncode produces the canonical byte encoding of a page payload.
//
// Encoding rules:
//   - Object keys are recursively sorted; array element order is preserved.
//   - Every value is type-tagged and length-prefixed, so distinct
//     structures can never collide by concatenation.
//   - Numbers encode through a fixed decimal form: integral values (from
//     JSON's float64 or YAML's int) encode identically, so the same
//     document fingerprints the same regardless of source format.
//
// A nil page encodes as an empty object.
func CanonicalEncode(page map[string]any) ([]byte, error) {
	var enc canonicalEncoder
	if err := enc.writeObject(page); err != nil {
		return nil, err
	}
	return enc.buf, nil
}

// Value type tags. Part of the canonical bytes; do not renumber.
const (
	tagNull   = 'z'
	tagBool   = 'b'
	tagNumber = 'n'
	tagString = 's'
	tagArray  = 'a'
	tagObject = 'o'
)

type canonicalEncoder struct {
	buf []byte
}

// writeField appends an 8-byte big-endian length prefix followed by data.
func (e *canonicalEncoder) writeField(data []byte) {
	length := uint64(len(data))
	e.buf = append(e.buf,
		byte(length>>56),
		byte(length>>48),
		byte(length>>40),
		byte(length>>32),
		byte(length>>24),
		byte(length>>16),
		byte(length>>8),
		byte(length),
	)
	e.buf = append(e.buf, data...)
}

func (e *canonicalEncoder) writeValue(v any) error {
	switch t := v.(type) {
	case nil:
		e.buf = append(e.buf, tagNull)
	case bool:
		e.buf = append(e.buf, tagBool)
		if t {
			e.buf = append(e.buf, 1)
		} else {
			e.buf = append(e.buf, 0)
		}
	case string:
		e.buf = append(e.buf, tagString)
		e.writeField([]byte(t))
	case float64:
		e.buf = append(e.buf, tagNumber)
		e.writeField([]byte(formatFloat(t)))
	case int:
		e.buf = append(e.buf, tagNumber)
		e.writeField([]byte(strconv.FormatInt(int64(t), 10)))
	case int64:
		e.buf = append(e.buf, tagNumber)
		e.writeField([]byte(strconv.FormatInt(t, 10)))
	case uint64:
		e.buf = append(e.buf, tagNumber)
		e.writeField([]byte(strconv.FormatUint(t, 10)))
	case []any:
		e.buf = append(e.buf, tagArray)
		e.writeCount(len(t))
		for _, elem := range t {
			if err := e.writeValue(elem); err != nil {
				return err
			}
		}
	case map[string]any:
		return e.writeObject(t)
	default:
		return fmt.Errorf("%w: %T", ErrUnencodableValue, v)
	}
	return nil
}

func (e *canonicalEncoder) writeObject(m map[string]any) error {
	e.buf = append(e.buf, tagObject)
	e.writeCount(len(m))

	// Keys MUST be sorted for determinism.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		e.writeField([]byte(k))
		if err := e.writeValue(m[k]); err != nil {
			return err
		}
	}
	return nil
}

func (e *canonicalEncoder) writeCount(n int) {
	e.writeField([]byte(strconv.Itoa(n)))
}

// formatFloat renders a float64 in a fixed decimal form. Integral values
// within the float64-exact range render without a fraction or exponent,
// matching the integer encodings above.
func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
