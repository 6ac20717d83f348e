package persister

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/treinwerk/treinwerk/pkg/database"
	"github.com/treinwerk/treinwerk/pkg/influx_client"
	"github.com/treinwerk/treinwerk/pkg/nats_client"
	"github.com/treinwerk/treinwerk/pkg/persister/das"
	"github.com/treinwerk/treinwerk/pkg/persister/dvs"
	"github.com/treinwerk/treinwerk/pkg/persister/pos"
	"github.com/treinwerk/treinwerk/pkg/persister/rit"
	"github.com/treinwerk/treinwerk/pkg/redis_client"
)

// Stream is one of the InfoPlus source streams.
type Stream string

const (
	StreamRit Stream = "RIT"
	StreamDas Stream = "DAS"
	StreamDvs Stream = "DVS"
	StreamPos Stream = "POS"
)

var AllStreams = []Stream{StreamRit, StreamDas, StreamDvs, StreamPos}

// How long a skipped or failed message waits before the stream redelivers
// it.
const redeliveryDelay = 5 * time.Second

// Processor handles one raw message from its stream.
type Processor interface {
	Process(ctx context.Context, raw []byte) error
}

// Worker pulls messages from one stream's durable consumer, one at a
// time, and maps each processing result onto an ack/nak decision.
type Worker struct {
	Stream    Stream
	Consumer  jetstream.Consumer
	Processor Processor
}

func NewWorker(ctx context.Context, stream Stream) (*Worker, error) {
	var processor Processor

	switch stream {
	case StreamRit:
		processor = rit.NewProcessor(database.GlobalGorm, redis_client.Client)
	case StreamDas:
		processor = das.NewProcessor(database.GlobalGorm)
	case StreamDvs:
		processor = dvs.NewProcessor(database.GlobalGorm)
	case StreamPos:
		processor = pos.NewProcessor(influx_client.Write)
	default:
		return nil, fmt.Errorf("unknown stream %q", stream)
	}

	consumer, err := nats_client.EnsureConsumer(ctx, string(stream), fmt.Sprintf("treinwerk-persister-%s", stream))
	if err != nil {
		return nil, err
	}

	return &Worker{
		Stream:    stream,
		Consumer:  consumer,
		Processor: processor,
	}, nil
}

func (w *Worker) Run(ctx context.Context) {
	logger := log.With().Str("stream", string(w.Stream)).Logger()
	logger.Info().Msg("Starting persister worker")

	for ctx.Err() == nil {
		message, err := w.Consumer.Next(jetstream.FetchMaxWait(time.Second))
		if err != nil {
			if !errors.Is(err, nats.ErrTimeout) && !errors.Is(err, jetstream.ErrNoMessages) {
				logger.Error().Err(err).Msg("Failed to pull message")
				time.Sleep(time.Second)
			}
			continue
		}

		w.handle(ctx, message, logger)
	}

	logger.Info().Msg("Stopping persister worker")
}

func (w *Worker) handle(ctx context.Context, message jetstream.Msg, logger zerolog.Logger) {
	err := w.Processor.Process(ctx, message.Data())

	switch {
	case err == nil:
		if ackErr := message.Ack(); ackErr != nil {
			logger.Error().Err(ackErr).Msg("Failed to ack message")
		}

	case errors.Is(err, rit.ErrStale), errors.Is(err, rit.ErrLockContended):
		logger.Debug().Err(err).Msg("Deferring message")
		if nakErr := message.NakWithDelay(redeliveryDelay); nakErr != nil {
			logger.Error().Err(nakErr).Msg("Failed to nak message")
		}

	case errors.Is(err, rit.ErrMalformedInput):
		logger.Error().Err(err).Msg("Rejecting malformed message")
		if nakErr := message.NakWithDelay(redeliveryDelay); nakErr != nil {
			logger.Error().Err(nakErr).Msg("Failed to nak message")
		}

	default:
		logger.Error().Err(err).Msg("Failed to process message")
		if nakErr := message.NakWithDelay(redeliveryDelay); nakErr != nil {
			logger.Error().Err(nakErr).Msg("Failed to nak message")
		}
	}
}
