package allocator

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

// codeAlphabet is the fixed base-36 alphabet confirmation codes are drawn
// from. Codes are canonicalized to upper case at storage and lookup time.
const codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const randomSuffixLen = 6

// CodeGenerator mints human-presentable confirmation codes: a fixed
// prefix, the current Unix-millisecond timestamp in base 36, and a random
// base-36 suffix. The result is collision-resistant, not collision-proof;
// the reservation store's unique index on the code column is the backstop
// and the allocator retries on a collision.
type CodeGenerator struct {
	prefix string
}

// NewCodeGenerator returns a generator with the given prefix (upper-cased).
func NewCodeGenerator(prefix string) *CodeGenerator {
	return &CodeGenerator{prefix: strings.ToUpper(prefix)}
}

// Next produces the next candidate code in canonical (upper) case.
func (g *CodeGenerator) Next() (string, error) {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	buf := make([]byte, randomSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	suffix := make([]byte, randomSuffixLen)
	for i, b := range buf {
		suffix[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return strings.ToUpper(g.prefix + ts + string(suffix)), nil
}

// CanonicalCode normalizes a user-supplied code for lookup: codes are
// case-insensitive at the boundary but stored and compared in upper case.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
