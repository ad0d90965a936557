package cachestore

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/nearbite/nearbite/internal/cache"
)

// Valkey is the shared L2 layer backed by a Valkey-compatible database.
type Valkey struct {
	client valkey.Client
	prefix string
}

// NewValkey constructs the shared layer. Keys are namespaced by prefix so
// multiple logical caches can share one database.
func NewValkey(client valkey.Client, prefix string) *Valkey {
	if prefix == "" {
		prefix = "nearbite"
	}
	return &Valkey{client: client, prefix: prefix}
}

// Get implements cache.Layer.
func (s *Valkey) Get(ctx context.Context, key string) ([]byte, bool, error) {
	cmd := s.client.B().Get().Key(s.fullKey(key)).Build()
	payload, err := s.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

// GetMany implements cache.Layer with a single MGET round trip.
func (s *Valkey) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = s.fullKey(key)
	}
	cmd := s.client.B().Mget().Key(full...).Build()
	arr, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return map[string][]byte{}, nil
		}
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for i, item := range arr {
		if i >= len(keys) {
			break
		}
		payload, err := item.AsBytes()
		if err != nil {
			continue
		}
		out[keys[i]] = payload
	}
	return out, nil
}

// Put implements cache.Layer using SET with expiry.
func (s *Valkey) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	builder := s.client.B().Set().Key(s.fullKey(key)).Value(string(value))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *Valkey) fullKey(key string) string {
	return s.prefix + ":" + key
}

var _ cache.Layer = (*Valkey)(nil)
