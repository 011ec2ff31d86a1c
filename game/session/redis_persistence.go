package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

const redisTimeout = 3 * time.Second

// RedisPersistence implements SessionPersistence with one key per session
// plus a set indexing all session ids
type RedisPersistence struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	codec  codec
}

// RedisOptions configures the Redis store
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // key prefix, defaults to "memorymatch"
	TTL      time.Duration // zero keeps sessions until deleted
}

// NewRedisPersistence connects to Redis and verifies the connection
func NewRedisPersistence(opts RedisOptions, configManager service.ConfigManager) (*RedisPersistence, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	return newRedisPersistence(client, opts, configManager), nil
}

func newRedisPersistence(client *redis.Client, opts RedisOptions, configManager service.ConfigManager) *RedisPersistence {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "memorymatch"
	}
	return &RedisPersistence{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
		codec:  codec{configManager: configManager},
	}
}

// Close closes the Redis client
func (rp *RedisPersistence) Close() error {
	return rp.client.Close()
}

func (rp *RedisPersistence) key(id string) string {
	return fmt.Sprintf("%s:session:%s", rp.prefix, strings.ToLower(id))
}

func (rp *RedisPersistence) indexKey() string {
	return rp.prefix + ":sessions"
}

// Save writes the session and adds it to the index in one transaction
func (rp *RedisPersistence) Save(session *service.Session) error {
	data, err := rp.codec.encode(session)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	_, err = rp.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, rp.key(session.ID), data, rp.ttl)
		pipe.SAdd(ctx, rp.indexKey(), strings.ToLower(session.ID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", session.ID, err)
	}
	return nil
}

// Load reads and restores a session
func (rp *RedisPersistence) Load(id string) (*service.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	data, err := rp.client.Get(ctx, rp.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	return rp.codec.decode(data)
}

// Delete removes the session key and its index entry
func (rp *RedisPersistence) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	var del *redis.IntCmd
	_, err := rp.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, rp.key(id))
		pipe.SRem(ctx, rp.indexKey(), strings.ToLower(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if del.Val() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns indexed ids, dropping index entries whose key has expired
func (rp *RedisPersistence) ListAll() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	ids, err := rp.client.SMembers(ctx, rp.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := rp.client.Exists(ctx, rp.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("check session %s: %w", id, err)
		}
		if n == 0 {
			rp.client.SRem(ctx, rp.indexKey(), id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

// Exists reports whether the session key is present
func (rp *RedisPersistence) Exists(id string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	n, err := rp.client.Exists(ctx, rp.key(id)).Result()
	return err == nil && n > 0
}
