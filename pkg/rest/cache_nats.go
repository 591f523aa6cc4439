package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fivetwenty-io/restkit/internal/constants"
)

// NATSKVConfig configures the NATS JetStream key-value cache backend.
type NATSKVConfig struct {
	// URL of the NATS server. Ignored when Conn is set.
	URL string `mapstructure:"url" yaml:"url"`
	// Bucket is the KV bucket name.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
	// TTL bounds how long the bucket keeps any entry, independent of StaleTime.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
	// Replicas is the bucket replication factor.
	Replicas int `mapstructure:"replicas" yaml:"replicas"`
	// FileStorage keeps the bucket on disk instead of in memory.
	FileStorage bool `mapstructure:"file_storage" yaml:"file_storage"`
	// Conn reuses an existing connection; the cache will not close it.
	Conn *nats.Conn `mapstructure:"-" yaml:"-"`
}

// NATSKVCache stores entries in a JetStream key-value bucket, so several
// processes can share one cache and its invalidations.
type NATSKVCache struct {
	conn    *nats.Conn
	kv      jetstream.KeyValue
	ownConn bool
}

// NewNATSKVCache connects to NATS and creates or binds the bucket.
func NewNATSKVCache(ctx context.Context, config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	conn := config.Conn
	ownConn := false

	if conn == nil {
		url := config.URL
		if url == "" {
			url = nats.DefaultURL
		}

		var err error

		conn, err = nats.Connect(url, nats.Name(constants.NATSClientName))
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		ownConn = true
	}

	js, err := jetstream.New(conn)
	if err != nil {
		closeIfOwned(conn, ownConn)

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	storage := jetstream.MemoryStorage
	if config.FileStorage {
		storage = jetstream.FileStorage
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:   bucket,
		History:  1,
		TTL:      config.TTL,
		Replicas: config.Replicas,
		Storage:  storage,
	})
	if err != nil {
		closeIfOwned(conn, ownConn)

		return nil, fmt.Errorf("creating KV bucket %q: %w", bucket, err)
	}

	return &NATSKVCache{conn: conn, kv: kv, ownConn: ownConn}, nil
}

func closeIfOwned(conn *nats.Conn, owned bool) {
	if owned {
		conn.Close()
	}
}

// Get returns the entry stored under key.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kve, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}

		return nil, fmt.Errorf("reading %q from NATS KV: %w", key, err)
	}

	var entry CacheEntry

	err = json.Unmarshal(kve.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}

	if entry.Expired(time.Now()) {
		return nil, ErrEntryExpired
	}

	return &entry, nil
}

// Set stores entry under key.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = c.kv.Put(ctx, key, data)
	if err != nil {
		return fmt.Errorf("writing %q to NATS KV: %w", key, err)
	}

	return nil
}

// Delete removes key.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting %q from NATS KV: %w", key, err)
	}

	return nil
}

// DeletePrefix removes every key under prefix.
func (c *NATSKVCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0

	for _, key := range keys {
		if !HasEncodedPrefix(key, prefix) {
			continue
		}

		err := c.Delete(ctx, key)
		if err != nil {
			return removed, err
		}

		removed++
	}

	return removed, nil
}

// Clear removes all entries.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	_, err := c.DeletePrefix(ctx, "")

	return err
}

// Has reports whether a live entry exists for key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close closes the connection if the cache opened it.
func (c *NATSKVCache) Close() {
	closeIfOwned(c.conn, c.ownConn)
}

func (c *NATSKVCache) keys(ctx context.Context) ([]string, error) {
	lister, err := c.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("listing NATS KV keys: %w", err)
	}

	defer func() { _ = lister.Stop() }()

	var keys []string
	for key := range lister.Keys() {
		keys = append(keys, key)
	}

	return keys, nil
}
