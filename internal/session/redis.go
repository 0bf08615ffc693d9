package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "relay:session:"

// RedisStore keeps one string key per flag so each flag carries its own TTL.
// A set per session indexes the flags for whole-session deletes.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis session store requires REDIS_ADDR")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	st := &RedisStore{client: rdb}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return st, nil
}

func flagKey(session, key string) string {
	return redisKeyPrefix + session + ":" + key
}

func indexKey(session string) string {
	return redisKeyPrefix + session
}

func (r *RedisStore) Get(ctx context.Context, session, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, flagKey(session, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis get flag")
	}
	return v, true, nil
}

func (r *RedisStore) Set(ctx context.Context, session, key, value string, ttl time.Duration) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		r.queueSet(ctx, pipe, session, key, value, ttl)
		return nil
	})
	return errors.Wrap(err, "redis set flag")
}

// CompareAndSet watches the flag key so a concurrent writer aborts the transaction.
func (r *RedisStore) CompareAndSet(ctx context.Context, session, key, old, value string, ttl time.Duration) (bool, error) {
	fk := flagKey(session, key)
	swapped := false

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, fk).Result()
		present := true
		if errors.Is(err, redis.Nil) {
			present, cur = false, ""
		} else if err != nil {
			return err
		}
		if present != (old != "") || cur != old {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			r.queueSet(ctx, pipe, session, key, value, ttl)
			return nil
		})
		if err == nil {
			swapped = true
		}
		return err
	}, fk)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "redis compare-and-set flag")
	}
	return swapped, nil
}

func (r *RedisStore) queueSet(ctx context.Context, pipe redis.Pipeliner, session, key, value string, ttl time.Duration) {
	if ttl < 0 {
		ttl = 0
	}
	pipe.Set(ctx, flagKey(session, key), value, ttl)
	pipe.SAdd(ctx, indexKey(session), key)
	if ttl > 0 {
		pipe.Expire(ctx, indexKey(session), ttl)
	}
}

func (r *RedisStore) Delete(ctx context.Context, session string, keys ...string) error {
	if len(keys) == 0 {
		members, err := r.client.SMembers(ctx, indexKey(session)).Result()
		if err != nil {
			return errors.Wrap(err, "redis list flags")
		}
		keys = members
	}
	if len(keys) == 0 {
		return nil
	}

	redisKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		redisKeys = append(redisKeys, flagKey(session, k))
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisKeys...)
		members := make([]any, len(keys))
		for i, k := range keys {
			members[i] = k
		}
		pipe.SRem(ctx, indexKey(session), members...)
		return nil
	})
	return errors.Wrap(err, "redis delete flags")
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return errors.Wrap(r.client.Ping(ctx).Err(), "redis ping")
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
