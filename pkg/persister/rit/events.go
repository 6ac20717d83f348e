package rit

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/treinwerk/treinwerk/pkg/database"
	"github.com/treinwerk/treinwerk/pkg/infoplus"
	"github.com/treinwerk/treinwerk/pkg/util"
)

// Free-form journey event attributes derived from the stop type.
const (
	AttributeDoNotBoard  = "do-not-board"
	AttributeDoNotAlight = "do-not-alight"
)

func stopAttributes(stopType infoplus.StopType) []string {
	switch stopType {
	case infoplus.StopTypeAlightingOnly:
		return []string{AttributeDoNotBoard}
	case infoplus.StopTypeBoardingOnly:
		return []string{AttributeDoNotAlight}
	case infoplus.StopTypeServiceStop:
		return []string{AttributeDoNotBoard, AttributeDoNotAlight}
	}

	return nil
}

// buildJourneyEvents turns a merged segment's stop list into the desired
// journey event rows, in order, each with a freshly generated identifier.
func buildJourneyEvents(segment *infoplus.RitSegment, journeyID string) []*database.JourneyEvent {
	events := make([]*database.JourneyEvent, len(segment.Stops))

	for i := range segment.Stops {
		event := buildJourneyEvent(&segment.Stops[i], i)
		event.ID = uuid.NewString()
		event.JourneyID = journeyID
		events[i] = event
	}

	return events
}

func buildJourneyEvent(stop *infoplus.RitStop, order int) *database.JourneyEvent {
	event := &database.JourneyEvent{
		Station:   stop.StationCode(),
		StopOrder: order,
	}

	if plannedType, err := Classify(PlannedView(stop)); err == nil {
		event.EventTypePlanned = ptr(string(plannedType))
	} else {
		log.Warn().Err(err).Str("station", event.Station).Msg("Could not classify planned stop pattern")
	}

	if actualType, err := Classify(ActualView(stop)); err == nil {
		event.EventTypeActual = ptr(string(actualType))
	} else {
		log.Warn().Err(err).Str("station", event.Station).Msg("Could not classify live stop pattern")
	}

	event.ArrivalCancelled, event.DepartureCancelled = CancellationFlags(stop.StopType, stop.Changes)

	arrival := stop.ArrivalTime()
	event.ArrivalTimePlanned = localTime(arrival.Planned, event.Station)
	event.ArrivalTimeActual = localTime(arrival.Actual, event.Station)

	departure := stop.DepartureTime()
	event.DepartureTimePlanned = localTime(departure.Planned, event.Station)
	event.DepartureTimeActual = localTime(departure.Actual, event.Station)

	arrivalPlatform := stop.ArrivalPlatform()
	if arrivalPlatform.Planned != nil {
		event.ArrivalPlatformPlanned = ptr(arrivalPlatform.Planned.Display())
	}
	if arrivalPlatform.Actual != nil {
		event.ArrivalPlatformActual = ptr(arrivalPlatform.Actual.Display())
	}

	departurePlatform := stop.DeparturePlatform()
	if departurePlatform.Planned != nil {
		event.DeparturePlatformPlanned = ptr(departurePlatform.Planned.Display())
	}
	if departurePlatform.Actual != nil {
		event.DeparturePlatformActual = ptr(departurePlatform.Actual.Display())
	}

	event.Attributes = datatypes.JSONSlice[string](stopAttributes(stop.StopType))

	return event
}

func localTime(value *infoplus.TextValue, station string) *string {
	if value == nil {
		return nil
	}

	converted, err := infoplus.LocalTimeOfDay(value.Value)
	if err != nil {
		log.Warn().Err(err).Str("station", station).Msg("Unparseable event time in stop")
		return nil
	}

	return &converted
}

func ptr[T any](value T) *T {
	return &value
}

// mergeJourneyEvent folds the persisted row for the same station into the
// desired row: fields the incoming message does not assert keep their
// stored value, so actuals written by the status handlers survive a
// republished plan. Attribute lists merge as a union.
func mergeJourneyEvent(desired *database.JourneyEvent, existing *database.JourneyEvent) {
	if existing == nil {
		return
	}

	if desired.EventTypePlanned == nil {
		desired.EventTypePlanned = existing.EventTypePlanned
	}
	if desired.EventTypeActual == nil {
		desired.EventTypeActual = existing.EventTypeActual
	}

	if desired.ArrivalTimePlanned == nil {
		desired.ArrivalTimePlanned = existing.ArrivalTimePlanned
	}
	if desired.ArrivalTimeActual == nil {
		desired.ArrivalTimeActual = existing.ArrivalTimeActual
	}
	if desired.ArrivalPlatformPlanned == nil {
		desired.ArrivalPlatformPlanned = existing.ArrivalPlatformPlanned
	}
	if desired.ArrivalPlatformActual == nil {
		desired.ArrivalPlatformActual = existing.ArrivalPlatformActual
	}

	if desired.DepartureTimePlanned == nil {
		desired.DepartureTimePlanned = existing.DepartureTimePlanned
	}
	if desired.DepartureTimeActual == nil {
		desired.DepartureTimeActual = existing.DepartureTimeActual
	}
	if desired.DeparturePlatformPlanned == nil {
		desired.DeparturePlatformPlanned = existing.DeparturePlatformPlanned
	}
	if desired.DeparturePlatformActual == nil {
		desired.DeparturePlatformActual = existing.DeparturePlatformActual
	}

	desired.Status = existing.Status
	desired.Attributes = datatypes.JSONSlice[string](util.MergeUniqueStrings(existing.Attributes, desired.Attributes))
}

func checkDistinctStations(events []*database.JourneyEvent) error {
	seen := make(map[string]bool, len(events))

	for _, event := range events {
		if seen[event.Station] {
			return fmt.Errorf("%w: train stops at or passes through station %q more than once", ErrMalformedInput, event.Station)
		}
		seen[event.Station] = true
	}

	return nil
}

func checkStopOrderContiguity(events []*database.JourneyEvent) error {
	for i, event := range events {
		if event.StopOrder != i {
			return fmt.Errorf("%w: stop order %d at index %d is not sequential", ErrMalformedInput, event.StopOrder, i)
		}
	}

	return nil
}
