// Package redis stores person records as JSON values with a per-owner
// sorted-set index ordered by update time. Writes use WATCH/MULTI so the
// version check and the write are one optimistic transaction.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/parksyoung/It-Da-sub000/internal/model"
	"github.com/parksyoung/It-Da-sub000/internal/store"
)

// Options configures the Redis store.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key prefix, default "itda"
}

type redisStore struct {
	client *goredis.Client
	prefix string
}

// New connects to Redis and verifies connectivity.
func New(ctx context.Context, opts Options) (store.Store, error) {
	c := goredis.NewClient(&goredis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, classify("ping", err)
	}
	return NewWithClient(c, opts.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c *goredis.Client, prefix string) store.Store {
	if prefix == "" {
		prefix = "itda"
	}
	return &redisStore{client: c, prefix: prefix}
}

func (s *redisStore) Persons() store.Persons { return &persons{s} }
func (s *redisStore) Close() error          { return s.client.Close() }

func (s *redisStore) HealthPing(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// recordKey is "{prefix}:{owner}:person:{name}" with both parts query-escaped.
func (s *redisStore) recordKey(owner, name string) string {
	return fmt.Sprintf("%s:%s:person:%s", s.prefix, url.QueryEscape(owner), url.QueryEscape(name))
}

func (s *redisStore) indexKey(owner string) string {
	return fmt.Sprintf("%s:%s:persons", s.prefix, url.QueryEscape(owner))
}

type persons struct{ s *redisStore }

func decode(raw string) (*model.Person, error) {
	var p model.Person
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode person: %w", err)
	}
	return &p, nil
}

func (r *persons) Get(ctx context.Context, owner, name string) (*model.Person, error) {
	raw, err := r.s.client.Get(ctx, r.s.recordKey(owner, name)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, classify("get", err)
	}
	return decode(raw)
}

func (r *persons) List(ctx context.Context, owner string) ([]*model.Person, error) {
	names, err := r.s.client.ZRevRange(ctx, r.s.indexKey(owner), 0, -1).Result()
	if err != nil {
		return nil, classify("list", err)
	}
	out := []*model.Person{}
	if len(names) == 0 {
		return out, nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = r.s.recordKey(owner, n)
	}
	vals, err := r.s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, classify("list", err)
	}
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		p, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	model.SortNewestFirst(out)
	return out, nil
}

func (r *persons) Create(ctx context.Context, in *model.Person) (*model.Person, error) {
	p := store.Prepare(in, 1)
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	key := r.s.recordKey(p.Owner, p.Name)
	err = r.s.client.Watch(ctx, func(tx *goredis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return model.ErrNameCollision
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			pipe.ZAdd(ctx, r.s.indexKey(p.Owner), goredis.Z{Score: float64(p.UpdatedAt.UnixMilli()), Member: p.Name})
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, model.ErrNameCollision), errors.Is(err, goredis.TxFailedErr):
		return nil, model.ErrNameCollision
	default:
		return nil, classify("create", err)
	}
}

func (r *persons) Update(ctx context.Context, in *model.Person, expectedVersion int64) (*model.Person, error) {
	p := store.Prepare(in, expectedVersion+1)
	key := r.s.recordKey(p.Owner, p.Name)
	err := r.s.client.Watch(ctx, func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, goredis.Nil) {
			return model.ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := decode(raw)
		if err != nil {
			return err
		}
		if cur.Version != expectedVersion {
			return model.ErrConcurrentModification
		}
		p.Mode = cur.Mode
		b, err := json.Marshal(p)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			pipe.ZAdd(ctx, r.s.indexKey(p.Owner), goredis.Z{Score: float64(p.UpdatedAt.UnixMilli()), Member: p.Name})
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrConcurrentModification):
		return nil, err
	case errors.Is(err, goredis.TxFailedErr):
		return nil, model.ErrConcurrentModification
	default:
		return nil, classify("update", err)
	}
}

func (r *persons) Delete(ctx context.Context, owner, name string) error {
	key := r.s.recordKey(owner, name)
	var removed int64
	err := r.s.client.Watch(ctx, func(tx *goredis.Tx) error {
		cmds, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, r.s.indexKey(owner), name)
			return nil
		})
		if err != nil {
			return err
		}
		removed = cmds[0].(*goredis.IntCmd).Val()
		return nil
	}, key)
	if err != nil {
		return classify("delete", err)
	}
	if removed == 0 {
		return model.ErrNotFound
	}
	return nil
}

func classify(op string, err error) error {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "NOPERM"), strings.HasPrefix(msg, "NOAUTH"), strings.HasPrefix(msg, "WRONGPASS"):
		return model.NewStoreError(model.StorePermissionDenied, op, err)
	case strings.HasPrefix(msg, "LOADING"):
		return model.NewStoreError(model.StoreNotProvisioned, op, err)
	}
	return model.NewStoreError(model.StoreOffline, op, err)
}
