package bytelayout

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSize is the content hash length in bytes.
const HashSize = sha256.Size

// Hash is a 256-bit content digest.
type Hash [HashSize]byte

// ComputeHash hashes data.
func ComputeHash(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// CombineHashes hashes the concatenation of the given digests, in order.
func CombineHashes(hashes ...Hash) Hash {
	h := sha256.New()
	for _, part := range hashes {
		h.Write(part[:])
	}
	var out Hash
	h.Sum(out[:0])
	return out
}

// IsZero reports whether the hash has never been assigned.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the hash as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}
