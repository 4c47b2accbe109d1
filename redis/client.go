package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
)

type DB int
type ReleaseLock func() error

var ErrNotFound = errors.New("redis key not found")

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
}

type Config struct {
	LockExpirationSeconds   int     `envconfig:"MDL_COMN_REDIS_LOCK_EXPIRATION" default:"3"`
	Host                    string  `envconfig:"MDL_COMN_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"MDL_COMN_REDIS_PORT" required:"true"`
	HASentinelPort          string  `envconfig:"MDL_COMN_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"MDL_COMN_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"MDL_COMN_REDIS_AUTH_PASSWORD" default:"0"`
	AuthRequired            bool    `envconfig:"MDL_COMN_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"MDL_COMN_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"MDL_COMN_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func NewClient(db DB) (Client, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Client{}, err
	}
	return NewClientWithConfig(&cfg, db), nil
}

func NewClientWithConfig(cfg *Config, db DB) Client {
	var client redis.UniversalClient
	if cfg.HAMode {
		client = createFailoverClient(cfg, db)
	} else {
		client = createClient(cfg, db)
	}
	return Client{
		client:         client,
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
	}
}

func createFailoverClient(cfg *Config, db DB) *redis.ClusterClient {
	timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func createClient(cfg *Config, db DB) *redis.Client {
	options := redis.Options{
		Addr:       fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

func (client *Client) getRaw(ctx context.Context, redisKey string) ([]byte, error) {
	b, err := client.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, redisKey)
	}
	return b, err
}

// Get decodes the JSON document stored under redisKey into doc. Fields of the stored
// document unknown to doc are ignored.
func (client *Client) Get(ctx context.Context, redisKey string, doc interface{}) error {
	raw, err := client.getRaw(ctx, redisKey)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, doc)
}

// Update reads the document under a lock, lets apply modify doc and stores the result.
// Only what apply changed is written back, other fields of the stored document survive.
func (client *Client) Update(ctx context.Context, redisKey string, doc interface{}, apply func()) (err error) {
	releaseLock, err := client.Lock(ctx, redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()

	raw, err := client.getRaw(ctx, redisKey)
	if err != nil {
		return err
	}
	updated, err := MergeUpdate(raw, doc, apply)
	if err != nil {
		return err
	}
	return client.client.Set(ctx, redisKey, updated, 0).Err()
}

func (client *Client) Lock(ctx context.Context, redisKey string) (ReleaseLock, error) {
	lockCl := redislock.New(client.client)
	strategy := redislock.LimitRetry(redislock.LinearBackoff(time.Second), 20)
	lockKey := fmt.Sprintf("lock:%s", redisKey)
	lock, err := lockCl.Obtain(ctx, lockKey, client.lockExpiration, &redislock.Options{RetryStrategy: strategy})
	if err != nil {
		return nil, err
	}
	return func() error {
		return lock.Release(context.Background())
	}, nil
}

func (client *Client) Close() error {
	return client.client.Close()
}
