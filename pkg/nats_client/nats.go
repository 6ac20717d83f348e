package nats_client

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/treinwerk/treinwerk/pkg/util"
)

var Connection *nats.Conn
var JetStream jetstream.JetStream

const defaultConnectionAddress = nats.DefaultURL

func Connect() error {
	address := defaultConnectionAddress

	env := util.GetEnvironmentVariables()

	if env["TREINWERK_NATS_ADDRESS"] != "" {
		address = env["TREINWERK_NATS_ADDRESS"]
	}

	var options []nats.Option
	if env["TREINWERK_NATS_USER"] != "" {
		options = append(options, nats.UserInfo(env["TREINWERK_NATS_USER"], env["TREINWERK_NATS_PASSWORD"]))
	}

	err := backoff.Retry(func() error {
		var err error
		Connection, err = nats.Connect(address, options...)
		return err
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
	if err != nil {
		return err
	}

	JetStream, err = jetstream.New(Connection)

	return err
}

// EnsureConsumer looks up or creates the durable pull consumer this service
// uses on the given stream. Redeliveries back off for five seconds and a
// message is handed to the transport's dead-letter handling after ten
// failed deliveries.
func EnsureConsumer(ctx context.Context, stream string, durableName string) (jetstream.Consumer, error) {
	return JetStream.CreateOrUpdateConsumer(ctx, stream, jetstream.ConsumerConfig{
		Durable:           durableName,
		AckPolicy:         jetstream.AckExplicitPolicy,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		AckWait:           5 * time.Second,
		MaxDeliver:        10,
		BackOff:           []time.Duration{5 * time.Second},
		InactiveThreshold: 5 * time.Minute,
	})
}
