package scheduler

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/fortemi/matric/internal/matricerr"
)

// wakeChannel is the single pub/sub channel every worker process listens
// on. It carries no payload: the mere arrival of a message means "a job
// was enqueued, consider waking early".
const wakeChannel = "matric:jobs:wake"

// WakeNotifier carries wake pulses to a sleeping scheduler ahead of the
// next safety-net timer tick. jobq.Enqueue does not call Notify, and no
// code in this repository does; without an outside publisher the
// scheduler wakes only on its timer.
type WakeNotifier interface {
	Notify(ctx context.Context) error
	Listen(ctx context.Context) (<-chan struct{}, func())
}

// RedisWakeSignal implements WakeNotifier over Redis pub/sub. Delivery is
// deliberately lossy: a missed notification only costs one extra wait up
// to the safety-net timer, never a stuck job, so no redelivery or ack
// tracking is needed.
type RedisWakeSignal struct {
	client *redis.Client
}

// NewRedisWakeSignal parses redisURL and verifies connectivity eagerly.
func NewRedisWakeSignal(ctx context.Context, redisURL string) (*RedisWakeSignal, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, matricerr.Configf(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, matricerr.Databasef(err, "connect to redis wake signal")
	}
	return &RedisWakeSignal{client: client}, nil
}

// Notify publishes a wake pulse; it does not wait for any subscriber.
func (r *RedisWakeSignal) Notify(ctx context.Context) error {
	if err := r.client.Publish(ctx, wakeChannel, "1").Err(); err != nil {
		return matricerr.Databasef(err, "publish wake signal")
	}
	return nil
}

// Listen subscribes to the wake channel. The returned channel has a buffer
// of one: pulses that arrive while a previous one is still unread are
// coalesced into it, and pub/sub itself may drop pulses under
// backpressure, which is acceptable here. The returned func unsubscribes
// and releases resources.
func (r *RedisWakeSignal) Listen(ctx context.Context) (<-chan struct{}, func()) {
	sub := r.client.Subscribe(ctx, wakeChannel)
	out := make(chan struct{}, 1)

	go func() {
		ch := sub.Channel()
		for range ch {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	return out, func() { _ = sub.Close() }
}

// Close releases the underlying Redis client.
func (r *RedisWakeSignal) Close() error {
	return r.client.Close()
}
