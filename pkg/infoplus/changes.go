package infoplus

// ChangeType is the numeric change code attached to a trip, segment or stop.
type ChangeType string

const (
	ChangeDepartureDelayed ChangeType = "10"
	ChangeArrivalDelayed   ChangeType = "11"

	ChangeDepartureTimeChanged ChangeType = "12"
	ChangeArrivalTimeChanged   ChangeType = "13"

	ChangeDeparturePlatformChanged ChangeType = "20"
	ChangeArrivalPlatformChanged   ChangeType = "21"

	ChangeDeparturePlatformAllocated ChangeType = "22"
	ChangeArrivalPlatformAllocated   ChangeType = "23"

	ChangeStoppingBehaviourChanged ChangeType = "30"

	ChangeAdditionalDeparture ChangeType = "31"
	ChangeDepartureCancelled  ChangeType = "32"

	ChangeDiverted ChangeType = "33"

	ChangeAdditionalArrival ChangeType = "38"
	ChangeArrivalCancelled  ChangeType = "39"

	ChangeDestinationChanged ChangeType = "41"
	ChangeOriginChanged      ChangeType = "42"

	ChangeAdditionalPassage ChangeType = "43"
	ChangePassageCancelled  ChangeType = "44"

	ChangeJourneyWithoutLiveInformation ChangeType = "50"
	ChangeRailReplacementService        ChangeType = "51"
)

type Change struct {
	Type    ChangeType `xml:"WijzigingType"`
	Station *Station   `xml:"WijzigingStation"`
}

// HasChange reports whether any of the given change codes is present.
func HasChange(changes []Change, types ...ChangeType) bool {
	for _, change := range changes {
		for _, t := range types {
			if change.Type == t {
				return true
			}
		}
	}

	return false
}
