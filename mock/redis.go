package mock

import (
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// EmbeddedRedis starts an in-process Redis. The caller closes both the
// client and the server.
func EmbeddedRedis() (*miniredis.Miniredis, redis.UniversalClient, error) {
	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, err
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil
}
