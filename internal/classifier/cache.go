package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Cache stores encoded predictions by key. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CacheKey derives the cache key for an input from its normalized text.
func CacheKey(in Input) string {
	h := sha256.New()
	for _, part := range []string{in.Title, in.Author, in.Description} {
		h.Write([]byte(strings.TrimSpace(part)))
		h.Write([]byte{0})
	}
	return "classify:v1:" + hex.EncodeToString(h.Sum(nil))
}
