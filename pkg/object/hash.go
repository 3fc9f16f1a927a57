package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// HashSize is the length of a raw SHA-1 digest.
const HashSize = sha1.Size

// HashObject computes the SHA-1 of the envelope "kind len\0payload", the
// digest git uses to name loose objects.
func HashObject(kind Kind, payload []byte) Hash {
	h := sha1.New()
	h.Write(frameHeader(kind, len(payload)))
	h.Write(payload)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

func frameHeader(kind Kind, n int) []byte {
	buf := make([]byte, 0, len(kind)+12)
	buf = append(buf, kind...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(n), 10)
	return append(buf, 0)
}

// ParseHash validates a full 40-character hex digest. Upper-case input is
// folded to lower case.
func ParseHash(s string) (Hash, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2*HashSize || !isHex(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, s)
	}
	return Hash(s), nil
}

// HashFromRaw converts a raw 20-byte digest to its hex form.
func HashFromRaw(raw []byte) (Hash, error) {
	if len(raw) != HashSize {
		return "", fmt.Errorf("%w: raw digest has %d bytes", ErrInvalidHash, len(raw))
	}
	return Hash(hex.EncodeToString(raw)), nil
}

// Raw returns the 20-byte binary form of h.
func (h Hash) Raw() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHash, string(h))
	}
	return hex.DecodeString(string(h))
}

// Valid reports whether h is a well-formed lowercase digest.
func (h Hash) Valid() bool {
	return len(h) == 2*HashSize && isHex(string(h)) && strings.ToLower(string(h)) == string(h)
}

// Short returns the first n characters of h, or all of h if shorter.
func (h Hash) Short(n int) string {
	if len(h) <= n {
		return string(h)
	}
	return string(h[:n])
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
