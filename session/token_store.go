package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// TokenStore persists the credentials of the signed in user. Load returns
// ErrNoCredentials when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, c Credentials) error
	Clear(ctx context.Context) error
}

type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (s *FileTokenStore) Load(ctx context.Context) (Credentials, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, errors.Wrapf(err, "fail to read %s", s.path)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, errors.Wrapf(err, "fail to parse %s", s.path)
	}
	if c.IsZero() {
		return Credentials{}, ErrNoCredentials
	}
	return c, nil
}

func (s *FileTokenStore) Save(ctx context.Context, c Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "fail to encode credentials")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrapf(err, "fail to create directory of %s", s.path)
	}
	return errors.Wrapf(os.WriteFile(s.path, data, 0o600), "fail to write %s", s.path)
}

func (s *FileTokenStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "fail to remove %s", s.path)
	}
	return nil
}

const redisKeyDelimiter = "__"

type RedisTokenStore struct {
	inner *redis.Client
	key   string
}

// GetRedisTokenStore connects with REDIS_HOST, REDIS_PORT and REDIS_PASSWD
// and keeps the credentials of profile under a single key.
func GetRedisTokenStore(ctx context.Context, profile string) (*RedisTokenStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "fail to reach redis")
	}
	return NewRedisTokenStore(client, profile), nil
}

func NewRedisTokenStore(client *redis.Client, profile string) *RedisTokenStore {
	return &RedisTokenStore{inner: client, key: RedisTokenKey(profile)}
}

func RedisTokenKey(profile string) string {
	if profile == "" {
		profile = "default"
	}
	return "feedsync" + redisKeyDelimiter + "token" + redisKeyDelimiter + profile
}

func (s *RedisTokenStore) Load(ctx context.Context) (Credentials, error) {
	data, err := s.inner.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, errors.Wrapf(err, "fail to get %s", s.key)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, errors.Wrapf(err, "fail to parse %s", s.key)
	}
	return c, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, c Credentials) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "fail to encode credentials")
	}
	return errors.Wrapf(s.inner.Set(ctx, s.key, data, 0).Err(), "fail to set %s", s.key)
}

func (s *RedisTokenStore) Clear(ctx context.Context) error {
	return errors.Wrapf(s.inner.Del(ctx, s.key).Err(), "fail to delete %s", s.key)
}

// MemoryTokenStore keeps credentials for the life of the process.
type MemoryTokenStore struct {
	c Credentials
}

func (s *MemoryTokenStore) Load(ctx context.Context) (Credentials, error) {
	if s.c.IsZero() {
		return Credentials{}, ErrNoCredentials
	}
	return s.c, nil
}

func (s *MemoryTokenStore) Save(ctx context.Context, c Credentials) error {
	s.c = c
	return nil
}

func (s *MemoryTokenStore) Clear(ctx context.Context) error {
	s.c = Credentials{}
	return nil
}
