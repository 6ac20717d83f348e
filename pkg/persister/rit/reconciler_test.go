package rit

import (
	"context"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/treinwerk/treinwerk/pkg/database"
	"github.com/treinwerk/treinwerk/pkg/infoplus"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "treinwerk.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	return db
}

func newTestReconciler(t *testing.T) (*Reconciler, *gorm.DB) {
	db := newTestDB(t)

	return NewReconciler(db, newTestRedis(t)), db
}

func plannedValue(value string) []infoplus.TextValue {
	return []infoplus.TextValue{{InfoStatus: infoplus.InfoStatusPlanned, Value: value}}
}

// stopAt builds a regular stop with planned times only. Empty time strings
// leave the field absent.
func stopAt(code string, arrivalTime string, departureTime string) infoplus.RitStop {
	stop := infoplus.RitStop{
		Station:     infoplus.Station{Code: code},
		StopType:    infoplus.StopTypeStop,
		StopsValues: plannedValue(infoplus.BoolTrue),
	}
	if arrivalTime != "" {
		stop.ArrivalTimeValues = plannedValue(arrivalTime)
	}
	if departureTime != "" {
		stop.DepartureTimeValues = plannedValue(departureTime)
	}

	return stop
}

func tripMessage(productID string, timestamp string, trainNumber string, runningOn string, stops ...infoplus.RitStop) *infoplus.RitMessage {
	return &infoplus.RitMessage{
		Administration: infoplus.ProductAdministration{
			ProductID: productID,
			Timestamp: timestamp,
		},
		RitInfo: infoplus.RitInfo{
			TrainNumber: trainNumber,
			TrainDate:   runningOn,
			TrainType:   infoplus.TrainType{Code: "IC", Name: "Intercity"},
			Provider:    "NS",
			Trips: []infoplus.RitTrip{{
				TrainNumber: trainNumber,
				Segments: []infoplus.RitSegment{{
					TrainNumber: trainNumber,
					Stops:       stops,
				}},
			}},
		},
	}
}

func TestReconcileNewJourney(t *testing.T) {
	ctx := context.Background()
	reconciler, db := newTestReconciler(t)

	message := tripMessage("rip-1", "2025-06-01T04:00:00Z", "1234", "2025-06-01",
		stopAt("ASD", "", "2025-06-01T04:30:00Z"),
		stopAt("UT", "2025-06-01T04:57:00Z", "2025-06-01T05:01:00Z"),
		stopAt("AH", "2025-06-01T05:35:00Z", ""),
	)

	summary, err := reconciler.Reconcile(ctx, message)
	require.NoError(t, err)
	assert.Equal(t, Summary{Inserted: 1}, summary)

	var service database.Service
	require.NoError(t, db.First(&service).Error)
	assert.Equal(t, "1234", service.TrainNumber)
	assert.Equal(t, "2025", service.TimetableYear)
	assert.Equal(t, "IC", service.Type)
	assert.Equal(t, "NS", service.Provider)

	var journey database.Journey
	require.NoError(t, db.First(&journey).Error)
	assert.Equal(t, service.ID, journey.ServiceID)
	assert.Equal(t, "2025-06-01", journey.RunningOn)
	assert.Equal(t, []string{"rip-1"}, []string(journey.SourceIDs))

	var events []database.JourneyEvent
	require.NoError(t, db.Order("stop_order asc").Find(&events).Error)
	require.Len(t, events, 3)

	assert.Equal(t, "asd", events[0].Station)
	assert.Equal(t, 0, events[0].StopOrder)
	require.NotNil(t, events[0].EventTypePlanned)
	assert.Equal(t, string(EventTypeDeparture), *events[0].EventTypePlanned)
	require.NotNil(t, events[0].DepartureTimePlanned)
	assert.Equal(t, "06:30:00", *events[0].DepartureTimePlanned)
	assert.Nil(t, events[0].ArrivalTimePlanned)

	assert.Equal(t, "ut", events[1].Station)
	assert.Equal(t, 1, events[1].StopOrder)
	require.NotNil(t, events[1].EventTypePlanned)
	assert.Equal(t, string(EventTypeLongerStop), *events[1].EventTypePlanned)
	require.NotNil(t, events[1].ArrivalTimePlanned)
	assert.Equal(t, "06:57:00", *events[1].ArrivalTimePlanned)

	assert.Equal(t, "ah", events[2].Station)
	assert.Equal(t, 2, events[2].StopOrder)
	require.NotNil(t, events[2].EventTypePlanned)
	assert.Equal(t, string(EventTypeArrival), *events[2].EventTypePlanned)
}

func TestReconcileReplayIsStale(t *testing.T) {
	ctx := context.Background()
	reconciler, db := newTestReconciler(t)

	message := tripMessage("rip-1", "2025-06-01T04:00:00Z", "1234", "2025-06-01",
		stopAt("ASD", "", "2025-06-01T04:30:00Z"),
		stopAt("AH", "2025-06-01T05:35:00Z", ""),
	)

	_, err := reconciler.Reconcile(ctx, message)
	require.NoError(t, err)

	summary, err := reconciler.Reconcile(ctx, message)
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, Summary{Skipped: 1}, summary)

	var eventCount int64
	require.NoError(t, db.Model(&database.JourneyEvent{}).Count(&eventCount).Error)
	assert.EqualValues(t, 2, eventCount)
}

func TestReconcileUpdatesExistingJourney(t *testing.T) {
	ctx := context.Background()
	reconciler, db := newTestReconciler(t)

	alightingOnly := stopAt("UT", "2025-06-01T04:57:00Z", "2025-06-01T05:01:00Z")
	alightingOnly.StopType = infoplus.StopTypeAlightingOnly

	first := tripMessage("rip-1", "2025-06-01T04:00:00Z", "1234", "2025-06-01",
		stopAt("ASD", "", "2025-06-01T04:30:00Z"),
		alightingOnly,
		stopAt("AH", "2025-06-01T05:35:00Z", ""),
	)
	_, err := reconciler.Reconcile(ctx, first)
	require.NoError(t, err)

	var firstEvents []database.JourneyEvent
	require.NoError(t, db.Order("stop_order asc").Find(&firstEvents).Error)
	require.Len(t, firstEvents, 3)
	firstIDs := make(map[string]bool)
	for _, event := range firstEvents {
		firstIDs[event.ID] = true
	}

	// the re-plan extends the trip and drops the alighting-only restriction
	second := tripMessage("rip-2", "2025-06-01T04:05:00Z", "1234", "2025-06-01",
		stopAt("ASD", "", "2025-06-01T04:30:00Z"),
		stopAt("UT", "2025-06-01T04:57:00Z", "2025-06-01T05:01:00Z"),
		stopAt("AH", "2025-06-01T05:35:00Z", "2025-06-01T05:39:00Z"),
		stopAt("NM", "2025-06-01T05:52:00Z", ""),
	)
	summary, err := reconciler.Reconcile(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, Summary{Updated: 1}, summary)

	var serviceCount, journeyCount int64
	require.NoError(t, db.Model(&database.Service{}).Count(&serviceCount).Error)
	require.NoError(t, db.Model(&database.Journey{}).Count(&journeyCount).Error)
	assert.EqualValues(t, 1, serviceCount)
	assert.EqualValues(t, 1, journeyCount)

	var events []database.JourneyEvent
	require.NoError(t, db.Order("stop_order asc").Find(&events).Error)
	require.Len(t, events, 4)

	for i, event := range events {
		assert.Equal(t, i, event.StopOrder)
		assert.False(t, firstIDs[event.ID], "event identifiers are regenerated on replacement")
	}

	assert.Equal(t, []string{"asd", "ut", "ah", "nm"}, []string{
		events[0].Station, events[1].Station, events[2].Station, events[3].Station,
	})

	// attributes asserted by any message so far survive as a union
	assert.Contains(t, []string(events[1].Attributes), AttributeDoNotBoard)

	var journey database.Journey
	require.NoError(t, db.First(&journey).Error)
	assert.Equal(t, []string{"rip-1", "rip-2"}, []string(journey.SourceIDs))
}

func TestReconcileKeepsUnassertedFields(t *testing.T) {
	ctx := context.Background()
	reconciler, db := newTestReconciler(t)

	first := tripMessage("rip-1", "2025-06-01T04:00:00Z", "1234", "2025-06-01",
		stopAt("ASD", "", "2025-06-01T04:30:00Z"),
		stopAt("UT", "2025-06-01T04:57:00Z", ""),
	)
	_, err := reconciler.Reconcile(ctx, first)
	require.NoError(t, err)

	// an arrival status handler records reality for the final stop
	err = db.Model(&database.JourneyEvent{}).
		Where("station = ?", "ut").
		Updates(map[string]interface{}{
			"arrival_time_actual":     "07:02:00",
			"arrival_platform_actual": "11a",
			"status":                  2,
		}).Error
	require.NoError(t, err)

	// the republished plan does not mention actuals at all
	second := tripMessage("rip-2", "2025-06-01T04:10:00Z", "1234", "2025-06-01",
		stopAt("ASD", "", "2025-06-01T04:30:00Z"),
		stopAt("UT", "2025-06-01T04:57:00Z", ""),
	)
	_, err = reconciler.Reconcile(ctx, second)
	require.NoError(t, err)

	var event database.JourneyEvent
	require.NoError(t, db.Where("station = ?", "ut").First(&event).Error)
	require.NotNil(t, event.ArrivalTimeActual)
	assert.Equal(t, "07:02:00", *event.ArrivalTimeActual)
	require.NotNil(t, event.ArrivalPlatformActual)
	assert.Equal(t, "11a", *event.ArrivalPlatformActual)
	assert.Equal(t, 2, event.Status)
}

func TestReconcileLockContention(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	redisClient := newTestRedis(t)
	reconciler := NewReconciler(db, redisClient)

	held := NewLock(redisClient, "1234", "2025-06-01")
	require.NoError(t, held.Acquire(ctx))

	message := tripMessage("rip-1", "2025-06-01T04:00:00Z", "1234", "2025-06-01",
		stopAt("ASD", "", "2025-06-01T04:30:00Z"),
		stopAt("AH", "2025-06-01T05:35:00Z", ""),
	)

	_, err := reconciler.Reconcile(ctx, message)
	assert.ErrorIs(t, err, ErrLockContended)

	var serviceCount int64
	require.NoError(t, db.Model(&database.Service{}).Count(&serviceCount).Error)
	assert.EqualValues(t, 0, serviceCount)
}

func TestReconcileRollingStock(t *testing.T) {
	ctx := context.Background()
	reconciler, db := newTestReconciler(t)

	origin := stopAt("ASD", "", "2025-06-01T04:30:00Z")
	origin.RollingStock = []infoplus.RollingStockUnit{
		{ID: "9520", Kind: "VIRM", Designation: "VIRM-6", DepartureOrder: "1"},
		{ID: "9417", Kind: "VIRM", Designation: "VIRM-4", DepartureOrder: "2"},
	}

	split := stopAt("UT", "2025-06-01T04:57:00Z", "2025-06-01T05:01:00Z")
	split.RollingStock = []infoplus.RollingStockUnit{
		{ID: "9520", Kind: "VIRM", Designation: "VIRM-6", DepartureOrder: "1"},
		{ID: "9417", Kind: "VIRM", Designation: "VIRM-4", DepartureOrder: "2", RemainsBehind: infoplus.BoolTrue},
	}

	first := tripMessage("rip-1", "2025-06-01T04:00:00Z", "1234", "2025-06-01",
		origin, split, stopAt("AH", "2025-06-01T05:35:00Z", ""),
	)
	_, err := reconciler.Reconcile(ctx, first)
	require.NoError(t, err)

	var originEvent database.JourneyEvent
	require.NoError(t, db.Where("station = ?", "asd").First(&originEvent).Error)

	var originStock []database.RollingStock
	require.NoError(t, db.Where("journey_event_id = ?", originEvent.ID).
		Order("departure_order asc").Find(&originStock).Error)
	require.Len(t, originStock, 2)
	assert.Equal(t, "VIRM", originStock[0].MaterialType)
	assert.Equal(t, "VIRM-6", originStock[0].MaterialSubtype)
	assert.Equal(t, "9520", originStock[0].MaterialNumber)

	// the unit left behind at the split is not part of the departing consist
	var splitEvent database.JourneyEvent
	require.NoError(t, db.Where("station = ?", "ut").First(&splitEvent).Error)

	var splitStock []database.RollingStock
	require.NoError(t, db.Where("journey_event_id = ?", splitEvent.ID).Find(&splitStock).Error)
	require.Len(t, splitStock, 1)
	assert.Equal(t, "9520", splitStock[0].MaterialNumber)

	// a re-plan replaces the consist wholesale along with the stop rows
	shortened := stopAt("ASD", "", "2025-06-01T04:30:00Z")
	shortened.RollingStock = []infoplus.RollingStockUnit{
		{ID: "9520", Kind: "VIRM", Designation: "VIRM-6", DepartureOrder: "1"},
	}
	second := tripMessage("rip-2", "2025-06-01T04:05:00Z", "1234", "2025-06-01",
		shortened,
		stopAt("UT", "2025-06-01T04:57:00Z", "2025-06-01T05:01:00Z"),
		stopAt("AH", "2025-06-01T05:35:00Z", ""),
	)
	_, err = reconciler.Reconcile(ctx, second)
	require.NoError(t, err)

	var stockCount int64
	require.NoError(t, db.Model(&database.RollingStock{}).Count(&stockCount).Error)
	assert.EqualValues(t, 1, stockCount)
}

func TestReconcileRejectsMalformedMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("unparseable message timestamp", func(t *testing.T) {
		reconciler, _ := newTestReconciler(t)
		message := tripMessage("rip-1", "yesterday-ish", "1234", "2025-06-01",
			stopAt("ASD", "", "2025-06-01T04:30:00Z"),
		)

		_, err := reconciler.Reconcile(ctx, message)
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("unparseable running date", func(t *testing.T) {
		reconciler, _ := newTestReconciler(t)
		message := tripMessage("rip-1", "2025-06-01T04:00:00Z", "1234", "01-06-2025",
			stopAt("ASD", "", "2025-06-01T04:30:00Z"),
		)

		_, err := reconciler.Reconcile(ctx, message)
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("repeated station within one segment", func(t *testing.T) {
		reconciler, db := newTestReconciler(t)
		message := tripMessage("rip-1", "2025-06-01T04:00:00Z", "1234", "2025-06-01",
			stopAt("ASD", "", "2025-06-01T04:30:00Z"),
			stopAt("UT", "2025-06-01T04:57:00Z", "2025-06-01T05:01:00Z"),
			stopAt("ASD", "2025-06-01T05:35:00Z", ""),
		)

		_, err := reconciler.Reconcile(ctx, message)
		assert.ErrorIs(t, err, ErrMalformedInput)

		// the transaction rolled the journey back along with its events
		var eventCount int64
		require.NoError(t, db.Model(&database.JourneyEvent{}).Count(&eventCount).Error)
		assert.EqualValues(t, 0, eventCount)
	})
}
