// Package fingerprint computes fixed-size digests of normalized content.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Size is the digest length in bytes.
const Size = 16

// Fingerprint is a 128-bit MurmurHash3 digest. The zero value is a valid
// digest (of nothing in particular) and carries no special meaning.
type Fingerprint [Size]byte

// Of returns the fingerprint of text's UTF-8 bytes.
func Of(text string) Fingerprint {
	return OfBytes([]byte(text))
}

// OfBytes returns the fingerprint of b.
func OfBytes(b []byte) Fingerprint {
	h1, h2 := murmur3.Sum128(b)
	var fp Fingerprint
	binary.BigEndian.PutUint64(fp[:8], h1)
	binary.BigEndian.PutUint64(fp[8:], h2)
	return fp
}

// String renders the fingerprint as 32 lowercase hex characters.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Parse decodes a persisted digest. Only the canonical lowercase form is accepted.
func Parse(s string) (Fingerprint, error) {
	var fp Fingerprint
	if len(s) != hex.EncodedLen(Size) {
		return fp, fmt.Errorf("fingerprint must be %d hex characters, got %d", hex.EncodedLen(Size), len(s))
	}
	if s != strings.ToLower(s) {
		return fp, fmt.Errorf("fingerprint must be lowercase hex: %q", s)
	}
	if _, err := hex.Decode(fp[:], []byte(s)); err != nil {
		return fp, fmt.Errorf("invalid fingerprint %q: %w", s, err)
	}
	return fp, nil
}
