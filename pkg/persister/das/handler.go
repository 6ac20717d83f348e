// Package das applies dynamic arrival-status messages: targeted updates of
// a single journey event's actual arrival fields, no reconciliation.
package das

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
	message, err := infoplus.ParseDasMessage(raw)
	if err != nil {
		return err
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return Apply(tx, message)
	})
}

// Apply records the arrival state on the journey event located by (train
// number, running-on date, station). The status column only ever moves
// forward: a late-delivered lower status does not regress it.
func Apply(tx *gorm.DB, message *infoplus.DasMessage) error {
	updates := map[string]any{}

	if status, err := strconv.Atoi(message.Arrival.Status); err == nil {
		updates["status"] = gorm.Expr("CASE WHEN status > ? THEN status ELSE ? END", status, status)
	}

	arrivalTime := message.Arrival.ArrivalTime()
	if arrivalTime.Actual != nil {
		if local, err := infoplus.LocalTimeOfDay(arrivalTime.Actual.Value); err == nil {
			updates["arrival_time_actual"] = local
		} else {
			log.Warn().Err(err).Str("train_number", message.TrainNumber).Msg("Unparseable actual arrival time")
		}
	}

	arrivalPlatform := message.Arrival.ArrivalPlatform()
	if arrivalPlatform.Actual != nil {
		updates["arrival_platform_actual"] = arrivalPlatform.Actual.Display()
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
