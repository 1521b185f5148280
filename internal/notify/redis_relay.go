package notify

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RedisRelay carries events between service instances over one Redis pub/sub channel.
// Publish hands an event to the other instances; Run feeds events from the other
// instances into the local publisher. Redis pub/sub is at-most-once, which is all the
// refresh protocol needs.
type RedisRelay struct {
	client  *redis.Client
	channel string
	origin  string
	local   Publisher
	logger  *logrus.Logger
}

type envelope struct {
	Origin string `json:"origin"`
	Topic  string `json:"topic"`
	Event  Event  `json:"event"`
}

func NewRedisRelay(client *redis.Client, channel string, local Publisher, logger *logrus.Logger) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		local:   local,
		logger:  logger,
	}
}

func (r *RedisRelay) Publish(ctx context.Context, topic string, ev Event) error {
	raw, err := json.Marshal(envelope{Origin: r.origin, Topic: topic, Event: ev})
	if err != nil {
		return errors.Wrap(err, "relay : marshal event")
	}
	if err := r.client.Publish(ctx, r.channel, raw).Err(); err != nil {
		return errors.Wrap(err, "relay : redis publish")
	}
	return nil
}

// Run subscribes and relays until ctx is cancelled. ready, if not nil, is closed once the
// subscription is confirmed.
func (r *RedisRelay) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return errors.Wrap(err, "relay : subscribe")
	}
	if ready != nil {
		close(ready)
	}
	r.logger.WithField("channel", r.channel).Info("event relay subscribed")

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.WithError(err).Warn("relay : dropping malformed event")
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			if err := r.local.Publish(ctx, env.Topic, env.Event); err != nil {
				r.logger.WithError(err).WithField("topic", env.Topic).Warn("relay : local delivery failed")
			}
		}
	}
}
