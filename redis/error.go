package redis

import (
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/tablekit/restaurant-directory/errhandling"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrRedisClose   = errors.New("redis close error")
	ErrRedisConnect = errors.New("redis connect error")
	ErrRedisDo      = errors.New("redis do error")
	ErrBadReply     = errors.New("redis unexpected reply shape")
)

func CloseError(err error, name string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisClose, name, err)
}

// ConnectError marks connection failures transient. The readiness loop and
// the api error path both retry on transient store errors.
func ConnectError(err error, name string) error {
	return errhandling.NewTransientError(fmt.Errorf("%w %s: %w", ErrRedisConnect, name, err))
}

func DoError(err error, name string) error {
	return fmt.Errorf("%w %s: %w", ErrRedisDo, name, err)
}

func BadReplyError(name string, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrBadReply, name, detail)
}

// NotFound translates the store's nil reply into the package sentinel so
// callers never have to import go-redis to detect a miss.
func NotFound(err error) bool {
	return errors.Is(err, redis.Nil) || errors.Is(err, ErrNotFound)
}

// AsNotFound maps redis.Nil onto ErrNotFound, passing any other error through.
func AsNotFound(err error, key string) error {
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return err
}
