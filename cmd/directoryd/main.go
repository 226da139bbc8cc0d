// directoryd serves the restaurant directory API. All persistence and
// indexing is delegated to the external store; this process validates,
// composes store commands and reshapes responses.
package main

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/tablekit/restaurant-directory/api"
	"github.com/tablekit/restaurant-directory/directory"
	"github.com/tablekit/restaurant-directory/environment"
	"github.com/tablekit/restaurant-directory/httpserver"
	"github.com/tablekit/restaurant-directory/metrics"
	"github.com/tablekit/restaurant-directory/readiness"
	"github.com/tablekit/restaurant-directory/redis"
	"github.com/tablekit/restaurant-directory/startup"
	"github.com/tablekit/restaurant-directory/tracing"
)

const (
	serviceName = "directory"

	readinessAttempts = 30
	readinessInterval = 2 * time.Second
)

func main() {
	// read before the logger exists, so no Fatal path here
	port := environment.GetWithDefault("PORT", "8080")
	startup.Run(serviceName, port, func(log startup.Logger) error {
		return serve(log, port)
	})
}

func serve(log startup.Logger, port string) error {
	cfg := redis.FromEnvOrFatal(log)
	client, err := redis.NewRedisClient(cfg)
	if err != nil {
		return err
	}

	store := directory.NewStore(cfg, client)
	defer store.Close()

	// the store must answer and the boot time resources must exist before
	// we accept traffic
	err = readiness.Repeat(readinessAttempts, readinessInterval, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), readinessInterval)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Infof("store not ready: %v", err)
			return err
		}
		if err := store.ReserveDedupeFilter(ctx); err != nil {
			return err
		}
		return store.EnsureSearchIndex(ctx)
	})
	if err != nil {
		return err
	}

	sessions := redis.NewSessionStore(cfg, client, sessionKeys()...)
	service := api.NewService(log, store, sessions)

	// path fields are /api/v1/<resource>/... so resources sit at offset 2
	// and sub resources at offset 4; sub resources come first so nested
	// requests are counted against them
	promMetrics := metrics.NewFromEnvironment(log, serviceName,
		metrics.WithLabel("reviews", 4),
		metrics.WithLabel("details", 4),
		metrics.WithLabel("restaurants", 2),
		metrics.WithLabel("cuisines", 2),
		metrics.WithLabel("search", 2),
		metrics.WithLabel("favourites", 2),
	)
	if promMetrics != nil {
		storeCommands := metrics.StoreCommandsCounterMetric()
		promMetrics.Register(storeCommands)
		redis.SetCommandObserver(func(structure, operation string) {
			storeCommands.WithLabelValues(structure, operation).Inc()
		})
	}

	handler := api.NewHandler(service,
		tracing.HTTPMiddleware,
		promMetrics.NewLatencyMetricsHandler,
	)
	apiServer := httpserver.New(log, serviceName, port, handler)

	listeners := startup.NewListeners(log, serviceName,
		startup.WithListeners([]startup.Listener{
			apiServer,
			metricsServer(log, promMetrics),
		}),
	)
	return listeners.Listen()
}

// sessionKeys reads the cookie authentication key pairs, one hex key per
// line in the file named by SESSION_KEYS_FILENAME.
func sessionKeys() [][]byte {
	raw := environment.ReadIndirectOrFatal("SESSION_KEYS_FILENAME")
	var keys [][]byte
	for _, line := range strings.Split(raw, "\n") {
		key, err := hex.DecodeString(strings.TrimSpace(line))
		if err != nil || len(key) == 0 {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// metricsServer returns the metrics listener, or nil when metrics are
// disabled. The return type is the interface so the nil skips cleanly in
// WithListeners.
func metricsServer(log startup.Logger, m *metrics.Metrics) startup.Listener {
	if m == nil {
		return nil
	}
	return httpserver.New(log, "metrics", m.Port(), m.NewPromHandler())
}
