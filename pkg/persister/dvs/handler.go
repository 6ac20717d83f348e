// Package dvs applies dynamic departure-status messages: targeted updates
// of a single journey event's actual departure fields, no reconciliation.
package dvs

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/treinwerk/treinwerk/pkg/database"
	"github.com/treinwerk/treinwerk/pkg/infoplus"
)

type Processor struct {
	db *gorm.DB
}

func NewProcessor(db *gorm.DB) *Processor {
	return &Processor{db: db}
}

func (p *Processor) Process(ctx context.Context, raw []byte) error {
	message, err := infoplus.ParseDvsMessage(raw)
	if err != nil {
		return err
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return Apply(tx, message)
	})
}

// Apply records the departure state on the journey event located by (train
// number, running-on date, station), with a forward-only status column.
func Apply(tx *gorm.DB, message *infoplus.DvsMessage) error {
	updates := map[string]any{}

	if status, err := strconv.Atoi(message.Departure.Status); err == nil {
		updates["status"] = gorm.Expr("CASE WHEN status > ? THEN status ELSE ? END", status, status)
	}

	departureTime := message.Departure.DepartureTime()
	if departureTime.Actual != nil {
		if local, err := infoplus.LocalTimeOfDay(departureTime.Actual.Value); err == nil {
			updates["departure_time_actual"] = local
		} else {
			log.Warn().Err(err).Str("train_number", message.TrainNumber).Msg("Unparseable actual departure time")
		}
	}

	departurePlatform := message.Departure.DeparturePlatform()
	if departurePlatform.Actual != nil {
		updates["departure_platform_actual"] = departurePlatform.Actual.Display()
	}

	if len(updates) == 0 {
		return nil
	}

	eventIDs := tx.Model(&database.JourneyEvent{}).
		Select("journey_event.id").
		Joins("INNER JOIN journey ON journey_event.journey_id = journey.id").
		Joins("INNER JOIN service ON journey.service_id = service.id").
		Where("service.train_number = ?", message.TrainNumber).
		Where("journey.running_on = ?", message.RunningOn).
		Where("journey_event.station = ?", strings.ToLower(message.Station.Code))

	return tx.Model(&database.JourneyEvent{}).
		Where("id IN (?)", eventIDs).
		Updates(updates).Error
}
