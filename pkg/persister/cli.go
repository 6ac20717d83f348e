package persister

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kr/pretty"
	"github.com/sourcegraph/conc"
	"github.com/urfave/cli/v2"

	"github.com/treinwerk/treinwerk/pkg/database"
	"github.com/treinwerk/treinwerk/pkg/influx_client"
	"github.com/treinwerk/treinwerk/pkg/infoplus"
	"github.com/treinwerk/treinwerk/pkg/nats_client"
	"github.com/treinwerk/treinwerk/pkg/redis_client"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "persister",
		Usage: "Persists InfoPlus stream messages into the journey and position stores",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run persister workers for the given streams",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "stream",
						Usage: "streams to consume (RIT, DAS, DVS, POS)",
						Value: cli.NewStringSlice("RIT", "DAS", "DVS", "POS"),
					},
				},
				Action: func(c *cli.Context) error {
					streams := make([]Stream, 0, len(c.StringSlice("stream")))
					for _, name := range c.StringSlice("stream") {
						streams = append(streams, Stream(strings.ToUpper(name)))
					}

					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}
					if err := nats_client.Connect(); err != nil {
						return err
					}

					for _, stream := range streams {
						if stream == StreamPos {
							if err := influx_client.Connect(); err != nil {
								return err
							}
						}
					}

					ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					var workers conc.WaitGroup
					for _, stream := range streams {
						worker, err := NewWorker(ctx, stream)
						if err != nil {
							return err
						}

						workers.Go(func() {
							worker.Run(ctx)
						})
					}

					workers.Wait()

					return nil
				},
			},
			{
				Name:      "decode",
				Usage:     "parse a raw message file and dump its envelope",
				ArgsUsage: "<stream> <file>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("expected a stream name and a file path")
					}

					raw, err := os.ReadFile(c.Args().Get(1))
					if err != nil {
						return err
					}

					var decoded any
					switch Stream(strings.ToUpper(c.Args().Get(0))) {
					case StreamRit:
						decoded, err = infoplus.ParseRitMessage(raw)
					case StreamDas:
						decoded, err = infoplus.ParseDasMessage(raw)
					case StreamDvs:
						decoded, err = infoplus.ParseDvsMessage(raw)
					case StreamPos:
						decoded, err = infoplus.ParsePosMessage(raw)
					default:
						return fmt.Errorf("unknown stream %q", c.Args().Get(0))
					}
					if err != nil {
						return err
					}

					pretty.Println(decoded)

					return nil
				},
			},
		},
	}
}
