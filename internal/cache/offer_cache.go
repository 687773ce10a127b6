// Package cache stores rendered stock API responses in Redis, scoped by
// offer so that any write on an offer can drop every cached page of it.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Response is a cached HTTP answer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OfferCache reads and writes offer-scoped entries.  A nil *OfferCache is
// valid and caches nothing.
type OfferCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// New returns a cache, or nil when rdb is nil.
func New(rdb *redis.Client, prefix string, ttl time.Duration) *OfferCache {
	if rdb == nil {
		return nil
	}
	if prefix == "" {
		prefix = "stocks-cache"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &OfferCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Key is prefix:offer:<id>:<sha1 of parts>.
func (c *OfferCache) Key(offerID uint64, parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s:offer:%d:%x", c.prefix, offerID, sum[:])
}

func (c *OfferCache) offerPattern(offerID uint64) string {
	return fmt.Sprintf("%s:offer:%d:*", c.prefix, offerID)
}

// Get returns the cached response for key.
func (c *OfferCache) Get(ctx context.Context, key string) (Response, bool) {
	if c == nil {
		return Response{}, false
	}
	bs, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return Response{}, false
	}
	return decodePayload(bs)
}

// Set stores r under key with the configured TTL.
func (c *OfferCache) Set(ctx context.Context, key string, r Response) error {
	if c == nil {
		return nil
	}
	payload, err := encodePayload(r)
	if err != nil {
		return err
	}
	return c.rdb.SetEx(ctx, key, payload, c.ttl).Err()
}

// InvalidateOffer deletes every entry of the offer and returns how many
// keys were removed.
func (c *OfferCache) InvalidateOffer(ctx context.Context, offerID uint64) (int64, error) {
	if c == nil {
		return 0, nil
	}
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.offerPattern(offerID), 100).Result()
		if err != nil {
			return removed, err
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return removed, err
			}
			removed += n
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(r Response) ([]byte, error) {
	hdrJSON, err := json.Marshal(r.Header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(r.Body))
	binary.BigEndian.PutUint32(out[0:4], uint32(r.Status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], r.Body)
	return out, nil
}

func decodePayload(bs []byte) (Response, bool) {
	if len(bs) < 8 {
		return Response{}, false
	}
	r := Response{Status: int(binary.BigEndian.Uint32(bs[0:4]))}
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return Response{}, false
	}
	r.Header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &r.Header); err != nil {
			return Response{}, false
		}
	}
	r.Body = bs[8+hlen:]
	return r, true
}
