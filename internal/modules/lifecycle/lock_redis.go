package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLocker implements Locker with a SET NX PX lease for multi-process
// deployments. Release is compare-and-delete so an expired lease is never
// stolen back from the next holder.
type RedisLocker struct {
	rdb   *redis.Client
	lease time.Duration
	poll  time.Duration
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb, lease: 15 * time.Second, poll: 25 * time.Millisecond}
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *RedisLocker) Acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	token := uuid.NewString()
	redisKey := "lock:order:" + key
	deadline := time.Now().Add(timeout)

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.lease).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				_, _ = releaseScript.Run(context.Background(), l.rdb, []string{redisKey}, token).Result()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}
