package redis

import (
	"context"

	otrace "github.com/opentracing/opentracing-go"

	"github.com/tablekit/restaurant-directory/logger"
)

type Logger = logger.Logger

// CommandObserver is notified once per store command, keyed by structure
// ("hash", "zset", "bloom", ...) and operation ("HSet", "ZAdd", ...).
type CommandObserver func(structure, operation string)

var commandObserver CommandObserver = func(string, string) {}

// SetCommandObserver installs the process-wide command observer. Call it once
// at startup, before any resources are in use.
func SetCommandObserver(observe CommandObserver) {
	if observe == nil {
		observe = func(string, string) {}
	}
	commandObserver = observe
}

// startSpan opens a tracing span for one store command and notifies the
// command observer. Every resource method goes through here.
func startSpan(ctx context.Context, structure, operation string) (otrace.Span, context.Context) {
	commandObserver(structure, operation)
	return otrace.StartSpanFromContext(ctx, "redis."+structure+"."+operation)
}

// ClientContext carries the configuration and name shared by every resource.
type ClientContext struct {
	cfg  RedisConfig
	name string
}

func (c *ClientContext) Log() Logger {
	return c.cfg.Log()
}

func (c *ClientContext) URL() string {
	return c.cfg.URL()
}

func (c *ClientContext) Name() string {
	return c.name
}

// prefix builds the namespaced key prefix for a resource name, e.g.
// "directory:restaurants".
func prefix(cfg RedisConfig, name string) string {
	return cfg.Namespace() + namespaceSeparator + name
}
