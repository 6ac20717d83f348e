package rit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/treinwerk/treinwerk/pkg/database"
	"github.com/treinwerk/treinwerk/pkg/infoplus"
	"github.com/treinwerk/treinwerk/pkg/util"
)

var (
	// ErrStale means a newer message for this trip was already processed;
	// the message carries nothing left to apply.
	ErrStale = errors.New("a newer message for this trip was already processed")

	// ErrMalformedInput marks a producer-side data defect: an envelope or
	// invariant violation no amount of retrying will fix at this layer.
	ErrMalformedInput = errors.New("malformed trip composition message")
)

// Outcome of reconciling one merged segment.
type Outcome string

const (
	InsertedNewJourney     Outcome = "inserted new journey"
	UpdatedExistingJourney Outcome = "updated existing journey"
)

// Summary aggregates the per-segment outcomes of one message.
type Summary struct {
	Inserted int
	Updated  int
	Skipped  int
}

// Reconciler merges trip-composition messages into the persisted journey,
// stop and rolling-stock records. One reconciliation runs per (train
// number, running-on date) at a time, across all worker instances.
type Reconciler struct {
	db    *gorm.DB
	guard *StalenessGuard
	redis redis.UniversalClient
}

func NewReconciler(db *gorm.DB, redisClient redis.UniversalClient) *Reconciler {
	return &Reconciler{
		db:    db,
		guard: NewStalenessGuard(redisClient),
		redis: redisClient,
	}
}

// Reconcile applies one trip-composition message. It returns ErrStale when
// nothing in the message was newer than what is already persisted and
// ErrLockContended when another worker holds the trip's lock; both are
// redelivery signals, not failures.
func (r *Reconciler) Reconcile(ctx context.Context, message *infoplus.RitMessage) (Summary, error) {
	info := &message.RitInfo

	messageTimestamp, err := infoplus.ParseTimestamp(message.Administration.Timestamp)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: unparseable message timestamp %q", ErrMalformedInput, message.Administration.Timestamp)
	}

	if _, err := time.Parse("2006-01-02", info.TrainDate); err != nil {
		return Summary{}, fmt.Errorf("%w: unparseable running date %q", ErrMalformedInput, info.TrainDate)
	}

	lock := NewLock(r.redis, info.TrainNumber, info.TrainDate)
	if err := lock.Acquire(ctx); err != nil {
		return Summary{}, err
	}
	defer func() {
		releaseCtx := context.WithoutCancel(ctx)
		if err := lock.Release(releaseCtx); err != nil {
			// the reconciliation itself already finished, only cleanup failed
			log.Warn().Err(err).
				Str("train_number", info.TrainNumber).
				Str("running_on", info.TrainDate).
				Msg("Failed to release reconciliation lock")
		}
	}()

	var summary Summary

	for _, segment := range MergeSegments(info.Trips) {
		if !r.guard.ShouldProcess(ctx, segment.TrainNumber, info.TrainDate, messageTimestamp) {
			log.Debug().
				Str("train_number", segment.TrainNumber).
				Str("running_on", info.TrainDate).
				Msg("Already processed a newer message for this trip")
			summary.Skipped++
			continue
		}

		outcome, err := r.reconcileSegment(ctx, info, message.Administration.ProductID, segment)
		if err != nil {
			return summary, err
		}

		switch outcome {
		case InsertedNewJourney:
			summary.Inserted++
		case UpdatedExistingJourney:
			summary.Updated++
		}
	}

	if summary.Inserted+summary.Updated == 0 && summary.Skipped > 0 {
		return summary, ErrStale
	}

	return summary, nil
}

func (r *Reconciler) reconcileSegment(ctx context.Context, info *infoplus.RitInfo, productID string, segment infoplus.RitSegment) (Outcome, error) {
	var outcome Outcome

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		outcome, err = reconcileSegmentTx(tx, info, productID, &segment)
		return err
	})

	return outcome, err
}

func reconcileSegmentTx(tx *gorm.DB, info *infoplus.RitInfo, productID string, segment *infoplus.RitSegment) (Outcome, error) {
	runningOn := info.TrainDate
	timetableYear := runningOn[:4]

	var service database.Service
	serviceFound := true
	err := tx.Where("train_number = ? AND timetable_year = ?", segment.TrainNumber, timetableYear).
		First(&service).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		serviceFound = false
	} else if err != nil {
		return "", err
	}

	if !serviceFound {
		service = database.Service{
			TrainNumber:   segment.TrainNumber,
			TimetableYear: timetableYear,
			Type:          info.TrainType.Code,
			Provider:      info.Provider,
		}
		if err := tx.Create(&service).Error; err != nil {
			return "", err
		}

		log.Debug().
			Str("train_number", segment.TrainNumber).
			Str("timetable_year", timetableYear).
			Str("service_id", service.ID).
			Msg("Inserted new service")
	}

	var journey database.Journey
	err = tx.Where("service_id = ? AND running_on = ?", service.ID, runningOn).
		First(&journey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return insertNewJourney(tx, &service, runningOn, productID, segment)
	}
	if err != nil {
		return "", err
	}

	return updateExistingJourney(tx, &journey, productID, segment)
}

func insertNewJourney(tx *gorm.DB, service *database.Service, runningOn string, productID string, segment *infoplus.RitSegment) (Outcome, error) {
	journey := database.Journey{
		ServiceID: service.ID,
		RunningOn: runningOn,
		SourceIDs: datatypes.JSONSlice[string](util.MergeUniqueStrings([]string{productID})),
	}
	if err := tx.Create(&journey).Error; err != nil {
		return "", err
	}

	log.Debug().
		Str("train_number", segment.TrainNumber).
		Str("running_on", runningOn).
		Str("journey_id", journey.ID).
		Msg("Inserted new journey")

	desiredEvents := buildJourneyEvents(segment, journey.ID)

	if err := checkDistinctStations(desiredEvents); err != nil {
		return "", err
	}
	if err := checkStopOrderContiguity(desiredEvents); err != nil {
		return "", err
	}

	if err := insertEventsAndRollingStock(tx, &journey, desiredEvents, segment); err != nil {
		return "", err
	}

	return InsertedNewJourney, nil
}

func updateExistingJourney(tx *gorm.DB, journey *database.Journey, productID string, segment *infoplus.RitSegment) (Outcome, error) {
	var existingEvents []*database.JourneyEvent
	err := tx.Where("journey_id = ?", journey.ID).
		Order("stop_order asc").
		Find(&existingEvents).Error
	if err != nil {
		return "", err
	}

	desiredEvents := buildJourneyEvents(segment, journey.ID)

	if err := checkDistinctStations(desiredEvents); err != nil {
		return "", err
	}

	// carry persisted attributes and unasserted fields forward, matched by
	// station code; identifiers are regenerated wholesale
	for _, desired := range desiredEvents {
		var matching *database.JourneyEvent
		for _, existing := range existingEvents {
			if existing.Station == desired.Station {
				matching = existing
				break
			}
		}

		mergeJourneyEvent(desired, matching)
	}

	if err := checkStopOrderContiguity(desiredEvents); err != nil {
		return "", err
	}

	existingEventIDs := make([]string, len(existingEvents))
	for i, event := range existingEvents {
		existingEventIDs[i] = event.ID
	}

	rollingStockScope := tx.Where("journey_id = ?", journey.ID)
	eventScope := tx.Where("journey_id = ?", journey.ID)
	if len(existingEventIDs) > 0 {
		rollingStockScope = rollingStockScope.Or("journey_event_id IN ?", existingEventIDs)
		eventScope = eventScope.Or("id IN ?", existingEventIDs)
	}

	if err := rollingStockScope.Delete(&database.RollingStock{}).Error; err != nil {
		return "", err
	}

	if err := eventScope.Delete(&database.JourneyEvent{}).Error; err != nil {
		return "", err
	}

	if err := insertEventsAndRollingStock(tx, journey, desiredEvents, segment); err != nil {
		return "", err
	}

	if productID != "" && !util.ContainsString(journey.SourceIDs, productID) {
		journey.SourceIDs = append(journey.SourceIDs, productID)
		if err := tx.Model(journey).Update("source_ids", journey.SourceIDs).Error; err != nil {
			return "", err
		}
	}

	log.Debug().
		Str("train_number", segment.TrainNumber).
		Str("journey_id", journey.ID).
		Int("stops", len(desiredEvents)).
		Msg("Replaced journey events")

	return UpdatedExistingJourney, nil
}

func insertEventsAndRollingStock(tx *gorm.DB, journey *database.Journey, events []*database.JourneyEvent, segment *infoplus.RitSegment) error {
	if len(events) == 0 {
		return nil
	}

	if err := tx.Create(events).Error; err != nil {
		return err
	}

	var rollingStock []database.RollingStock
	for _, event := range events {
		stop := findStop(segment, event.Station)
		if stop == nil {
			continue
		}

		rollingStock = append(rollingStock, buildRollingStock(journey.ID, event.ID, stop)...)
	}

	if len(rollingStock) == 0 {
		return nil
	}

	return tx.Create(&rollingStock).Error
}

func findStop(segment *infoplus.RitSegment, stationCode string) *infoplus.RitStop {
	for i := range segment.Stops {
		if segment.Stops[i].StationCode() == stationCode {
			return &segment.Stops[i]
		}
	}

	return nil
}
