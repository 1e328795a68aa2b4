package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/askroute/internal/model"
)

// Cache stores serialized answers by key
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix versions the key layout; bump it when the Result format changes
const keyPrefix = "askroute:v1:"

// AnswerKey identifies one answer: the snapshot it was computed from, the
// clamped top_k and the trimmed question text
func AnswerKey(fingerprint string, topK int, question string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(topK)))
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(question)))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// New builds the answer cache described by cfg: nil when disabled, memory
// only without a directory, memory backed by disk otherwise
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(
		NewMemoryCache(cfg.MemoryTTL, 10*time.Minute),
		NewDiskCache(cfg.Dir, cfg.DiskTTL),
	)
}
