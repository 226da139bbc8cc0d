package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	env "github.com/tablekit/restaurant-directory/environment"
)

const (
	//nolint:gosec
	RedisPasswordFileEnvSuffix = "REDIS_STORE_PASSWORD_FILENAME"
	RedisClusterSizeEnvSuffix  = "REDIS_CLUSTER_SIZE"
	RedisNamespaceEnvSuffix    = "REDIS_KEY_NAMESPACE"
	RedisNodeAddressesSuffix   = "REDIS_NODE_ADDRESSES"
	// The default implementation does 10 * GOMAXPROCS(0). GOMAXPROCS is
	// problematic in containers. Note that each cluster node gets its own pool
	nodePoolSize = 10

	RedisNodeAddressSuffix = "REDIS_STORE_ADDRESS"
	RedisDBSuffix          = "REDIS_STORE_DB"

	namespaceSeparator = ":"
)

type RedisConfig interface {
	GetClusterOptions() (*redis.ClusterOptions, error)
	GetOptions() (*redis.Options, error)
	Namespace() string
	IsCluster() bool
	URL() string
	Log() Logger
}

// RedisClient is the view of go-redis used by the resources. Both the single
// node and the cluster client satisfy it.
type RedisClient interface {
	redis.Cmdable
	Do(ctx context.Context, args ...any) *redis.Cmd
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
	Close() error
}

// Client is the minimal surface needed by the module-command resources
// (membership filter, documents, search). Kept narrow so they mock cheaply.
type Client interface {
	Do(ctx context.Context, args ...any) *redis.Cmd
	Close() error
}

type clusterConfig struct {
	log            Logger
	Size           int
	namespace      string
	clusterOptions redis.ClusterOptions
	options        redis.Options
}

// FromEnvOrFatal assumes conventional service env vars and populates a
// RedisConfig or Fatals out. A cluster size of -1 selects a single node
// addressed by REDIS_STORE_ADDRESS; otherwise REDIS_NODE_ADDRESSES is a csv
// of node addresses.
func FromEnvOrFatal(log Logger) RedisConfig {
	cfg := clusterConfig{log: log}

	cfg.Size = env.GetIntOrFatal(RedisClusterSizeEnvSuffix)
	cfg.namespace = env.GetOrFatal(RedisNamespaceEnvSuffix)

	password := env.ReadWithDefaultOrFatal(RedisPasswordFileEnvSuffix, "")

	if cfg.Size == -1 {
		cfg.options.Addr = env.GetOrFatal(RedisNodeAddressSuffix)
		cfg.options.DB = env.GetIntWithDefault(RedisDBSuffix, 0)
		cfg.options.Password = password
		return &cfg
	}

	cfg.clusterOptions.Password = password
	cfg.clusterOptions.PoolSize = nodePoolSize
	cfg.clusterOptions.Addrs = env.GetListOrFatal(RedisNodeAddressesSuffix)
	cfg.clusterOptions.MaxRedirects = cfg.Size
	log.InfoR("Addrs", cfg.clusterOptions.Addrs)

	return &cfg
}

func (cfg *clusterConfig) Log() Logger {
	return cfg.log
}
func (cfg *clusterConfig) IsCluster() bool {
	return cfg.Size > -1
}

func (cfg *clusterConfig) GetClusterOptions() (*redis.ClusterOptions, error) {

	if cfg.IsCluster() {
		return &cfg.clusterOptions, nil
	}

	return nil, fmt.Errorf("unexpected config type when requesting ClusterOptions")
}

func (cfg *clusterConfig) GetOptions() (*redis.Options, error) {

	if !cfg.IsCluster() {
		return &cfg.options, nil
	}

	return nil, fmt.Errorf("unexpected config type when requesting Options")
}

func (cfg *clusterConfig) Namespace() string {
	return cfg.namespace
}

func (cfg *clusterConfig) URL() string {
	if cfg.IsCluster() {
		if len(cfg.clusterOptions.Addrs) == 0 {
			return ""
		}
		return cfg.clusterOptions.Addrs[0]
	}

	return cfg.options.Addr
}

func NewRedisClient(cfg RedisConfig) (RedisClient, error) {
	log := cfg.Log()

	var err error
	if cfg.IsCluster() {
		var copts *redis.ClusterOptions
		if copts, err = cfg.GetClusterOptions(); err != nil {
			return nil, err
		}
		return redis.NewClusterClient(copts), nil
	}

	var opts *redis.Options
	if opts, err = cfg.GetOptions(); err != nil {
		return nil, err
	}
	log.Debugf("connecting to redis: %s", opts.Addr)
	c := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	status := c.Ping(ctx)
	if status.Err() != nil {
		log.Infof("failed ping: %v (%v, %v)", status.Err(), status.FullName(), status.Args())
		return nil, ConnectError(status.Err(), opts.Addr)
	}
	return c, nil
}
