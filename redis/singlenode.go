package redis

import (
	"github.com/go-redis/redis/v8"
)

// NewSingleNodeConfig builds a RedisConfig for one node at addr without
// consulting the environment. Used by tests and local tooling.
func NewSingleNodeConfig(log Logger, addr string, namespace string) RedisConfig {
	return &clusterConfig{
		log:       log,
		Size:      -1,
		namespace: namespace,
		options:   redis.Options{Addr: addr},
	}
}
