// Package pos writes train-position messages into the time-series store.
package pos

import (
	"context"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog/log"

	"github.com/treinwerk/treinwerk/pkg/infoplus"
)

const measurement = "train_position"
const provider = "NS"

type Processor struct {
	write api.WriteAPIBlocking
}

func NewProcessor(writeAPI api.WriteAPIBlocking) *Processor {
	return &Processor{write: writeAPI}
}

func (p *Processor) Process(ctx context.Context, raw []byte) error {
	message, err := infoplus.ParsePosMessage(raw)
	if err != nil {
		return err
	}

	points := Points(message)
	if len(points) == 0 {
		return nil
	}

	return p.write.WritePoint(ctx, points...)
}

// Points converts a position message into one point per rolling-stock
// unit. Samples with an unusable timestamp or position are skipped.
func Points(message *infoplus.PosMessage) []*write.Point {
	var points []*write.Point

	for _, location := range message.Locations {
		for _, unit := range location.Units {
			timestamp, err := infoplus.ParseTimestamp(unit.Timestamp)
			if err != nil {
				log.Warn().Err(err).Str("train_number", location.TrainNumber).Msg("Unparseable GPS timestamp")
				continue
			}

			latitude, latitudeErr := strconv.ParseFloat(unit.Latitude, 64)
			longitude, longitudeErr := strconv.ParseFloat(unit.Longitude, 64)
			if latitudeErr != nil || longitudeErr != nil {
				log.Warn().Str("train_number", location.TrainNumber).Msg("Unparseable GPS position")
				continue
			}

			point := influxdb2.NewPointWithMeasurement(measurement).
				AddTag("train_number", location.TrainNumber).
				AddTag("rolling_stock_number", unit.UnitNumber).
				AddTag("provider", provider).
				AddField("latitude", latitude).
				AddField("longitude", longitude).
				SetTime(timestamp)

			if speed, err := strconv.ParseFloat(unit.Speed, 64); err == nil {
				point.AddField("speed", speed)
			}
			if heading, err := strconv.ParseFloat(unit.Heading, 64); err == nil {
				point.AddField("direction", heading)
			}

			points = append(points, point)
		}
	}

	return points
}
