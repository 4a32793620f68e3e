package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/sitecontent/internal/constants"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSKVConfig configures a JetStream key/value bucket used as a shared
// cache. Bucket TTL lets the server evict entries on its own.
type NATSKVConfig struct {
	// URL of the NATS server, e.g. nats://127.0.0.1:4222.
	URL string
	// Bucket name. Defaults to "sitecontent".
	Bucket string
	// TTL of every entry in the bucket. Zero keeps entries forever.
	TTL time.Duration
}

// KeyValueStore is the subset of jetstream.KeyValue used by NATSKVCache.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// NATSKVCache stores content entries in a JetStream KV bucket. Keys are
// hashed because content URLs contain characters KV keys do not allow.
type NATSKVCache struct {
	kv   KeyValueStore
	conn *nats.Conn
}

// NewNATSKVCache connects to NATS and binds (or creates) the bucket.
func NewNATSKVCache(ctx context.Context, config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil || config.URL == "" {
		return nil, ErrNATSConfigRequired
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	conn, err := nats.Connect(config.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    config.TTL,
	})
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("binding KV bucket %s: %w", bucket, err)
	}

	return &NATSKVCache{kv: kv, conn: conn}, nil
}

// NewNATSKVCacheFromStore wraps an already bound bucket.
func NewNATSKVCacheFromStore(kv KeyValueStore) *NATSKVCache {
	return &NATSKVCache{kv: kv}
}

// Get implements Cache.
func (c *NATSKVCache) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := c.kv.Get(ctx, natsKey(key))
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("reading KV entry: %w", err)
	}

	return entry.Value(), nil
}

// Set implements Cache.
func (c *NATSKVCache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.kv.Put(ctx, natsKey(key), value)
	if err != nil {
		return fmt.Errorf("writing KV entry: %w", err)
	}

	return nil
}

// Close drains the connection opened by NewNATSKVCache.
func (c *NATSKVCache) Close() error {
	if c.conn == nil {
		return nil
	}

	err := c.conn.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}

func natsKey(key string) string {
	sum := sha256.Sum256([]byte(key))

	return hex.EncodeToString(sum[:])
}
