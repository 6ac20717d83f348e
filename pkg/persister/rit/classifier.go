package rit

import (
	"errors"
	"fmt"

	"github.com/treinwerk/treinwerk/pkg/infoplus"
)

// EventType is the semantic classification of one view of a stop.
type EventType string

const (
	EventTypePassage     EventType = "PASSAGE"
	EventTypeDeparture   EventType = "DEPARTURE"
	EventTypeArrival     EventType = "ARRIVAL"
	EventTypeShortStop   EventType = "SHORT_STOP"
	EventTypeLongerStop  EventType = "LONGER_STOP"
	EventTypeServiceStop EventType = "SERVICE_STOP"
)

// ErrMalformedStop marks a stop whose field combination matches none of the
// classification rules. The stop itself is still persisted, without the
// type-dependent fields for that view.
var ErrMalformedStop = errors.New("stop pattern matches no known combination")

// StopView is one view (planned or actual) of a stop, reduced to the fields
// the classifier depends on. Empty time strings mean the field is absent
// for that view.
type StopView struct {
	StopType      infoplus.StopType
	Stops         bool
	ArrivalTime   string
	DepartureTime string
}

// Classify maps one view of a stop onto its event type. The rules are
// ordered; the first match wins.
func Classify(view StopView) (EventType, error) {
	switch {
	case view.StopType == infoplus.StopTypeServiceStop:
		return EventTypeServiceStop, nil

	case view.StopType == infoplus.StopTypePassage || !view.Stops:
		return EventTypePassage, nil

	case view.ArrivalTime == "" && view.DepartureTime != "":
		return EventTypeDeparture, nil

	// Arrival without departure also occurs for boarding-only stops,
	// which makes no sense, but the feed does publish it.
	case view.ArrivalTime != "" && view.DepartureTime == "":
		return EventTypeArrival, nil

	case view.ArrivalTime != "" && view.DepartureTime != "":
		if view.ArrivalTime == view.DepartureTime {
			return EventTypeShortStop, nil
		}
		return EventTypeLongerStop, nil

	default:
		return "", fmt.Errorf("%w: type %q with no arrival or departure time", ErrMalformedStop, view.StopType)
	}
}

// PlannedView builds the classifier input for the planned view of a stop.
func PlannedView(stop *infoplus.RitStop) StopView {
	stops := stop.Stops()
	arrival := stop.ArrivalTime()
	departure := stop.DepartureTime()

	view := StopView{StopType: stop.StopType}
	if stops.Planned != nil {
		view.Stops = stops.Planned.Value == infoplus.BoolTrue
	}
	if arrival.Planned != nil {
		view.ArrivalTime = arrival.Planned.Value
	}
	if departure.Planned != nil {
		view.DepartureTime = departure.Planned.Value
	}

	return view
}

// ActualView builds the classifier input for the live view of a stop. A
// field whose live variant is absent keeps its planned value, since the
// feed omits live values that match the plan.
func ActualView(stop *infoplus.RitStop) StopView {
	stops := stop.Stops()
	arrival := stop.ArrivalTime()
	departure := stop.DepartureTime()

	view := StopView{StopType: stop.StopType}
	if value := stops.ActualOrPlanned(); value != nil {
		view.Stops = value.Value == infoplus.BoolTrue
	}
	if value := arrival.ActualOrPlanned(); value != nil {
		view.ArrivalTime = value.Value
	}
	if value := departure.ActualOrPlanned(); value != nil {
		view.DepartureTime = value.Value
	}

	return view
}

// CancellationFlags derives the per-view cancellation booleans from a
// stop's change list. Passage-type stops carry a single cancellation code
// covering both views; stopping-type stops cancel arrival and departure
// independently.
func CancellationFlags(stopType infoplus.StopType, changes []infoplus.Change) (arrivalCancelled bool, departureCancelled bool) {
	if stopType == infoplus.StopTypePassage || stopType == infoplus.StopTypeServiceStop {
		cancelled := infoplus.HasChange(changes, infoplus.ChangePassageCancelled)
		return cancelled, cancelled
	}

	return infoplus.HasChange(changes, infoplus.ChangeArrivalCancelled),
		infoplus.HasChange(changes, infoplus.ChangeDepartureCancelled)
}
