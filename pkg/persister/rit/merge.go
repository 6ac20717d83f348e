package rit

import (
	"github.com/treinwerk/treinwerk/pkg/infoplus"
)

// MergeSegments flattens the logical trips of one message into exactly one
// segment per distinct train number. A physically continuous trip that
// changes number mid-route is published as separate segments sharing that
// number; their stop lists are concatenated and deduplicated by station
// code, keeping the order of first occurrence.
func MergeSegments(trips []infoplus.RitTrip) []infoplus.RitSegment {
	if len(trips) == 1 {
		return trips[0].Segments
	}

	var allSegments []infoplus.RitSegment
	for _, trip := range trips {
		allSegments = append(allSegments, trip.Segments...)
	}

	trainNumbers := make(map[string]bool)
	var distinctTrainNumbers []string
	for _, segment := range allSegments {
		if !trainNumbers[segment.TrainNumber] {
			trainNumbers[segment.TrainNumber] = true
			distinctTrainNumbers = append(distinctTrainNumbers, segment.TrainNumber)
		}
	}

	if len(allSegments) == len(distinctTrainNumbers) {
		// every segment has a unique train number, nothing to merge
		return allSegments
	}

	var mergedSegments []infoplus.RitSegment

	for _, trainNumber := range distinctTrainNumbers {
		var segments []infoplus.RitSegment
		for _, segment := range allSegments {
			if segment.TrainNumber == trainNumber {
				segments = append(segments, segment)
			}
		}

		if len(segments) == 1 {
			mergedSegments = append(mergedSegments, segments[0])
			continue
		}

		seenStations := make(map[string]bool)
		var stops []infoplus.RitStop
		var changes []infoplus.Change

		for _, segment := range segments {
			for _, stop := range segment.Stops {
				if seenStations[stop.Station.Code] {
					continue
				}
				seenStations[stop.Station.Code] = true
				stops = append(stops, stop)
			}

			changes = append(changes, segment.Changes...)
		}

		mergedSegments = append(mergedSegments, infoplus.RitSegment{
			TrainNumber: trainNumber,
			Stops:       stops,
			Changes:     changes,
		})
	}

	return mergedSegments
}
