package resultcache

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// keySize is the digest length in bytes.
const keySize = 16

// Key derives a stable, fixed-length cache key from parts,
// prefixed for readability. Parts are length-delimited
// so ("ab", "c") and ("a", "bc") differ.
func Key(prefix string, parts ...string) string {
	h, _ := blake2b.New(keySize, nil) // Only fails for invalid sizes or keys.
	var length []byte
	for _, part := range parts {
		length = binary.AppendUvarint(length[:0], uint64(len(part)))
		h.Write(length)
		h.Write([]byte(part))
	}
	return prefix + "-" + hex.EncodeToString(h.Sum(nil))
}
