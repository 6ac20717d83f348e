// Package infoplus contains the parsed representations of the InfoPlus
// realtime railway feeds: trip composition (RIT), arrival status (DAS),
// departure status (DVS) and train positions (POS). The tag names are a
// fixed external schema; only presence or absence of the optional nodes
// matters downstream.
package infoplus

// Values of the InfoStatus attribute that splits most elements into a
// planned and a live view.
const (
	InfoStatusPlanned = "Gepland"
	InfoStatusActual  = "Actueel"
)

// The feed encodes booleans as J/N.
const (
	BoolTrue  = "J"
	BoolFalse = "N"
)

// TextValue is an element whose only payload is character data, repeated at
// most once per InfoStatus view.
type TextValue struct {
	InfoStatus string `xml:"InfoStatus,attr"`
	Value      string `xml:",chardata"`
}

// Platform is an arrival or departure track, repeated at most once per
// InfoStatus view. The phase qualifier subdivides long platforms ("11a").
type Platform struct {
	InfoStatus string `xml:"InfoStatus,attr"`
	Number     string `xml:"SpoorNummer"`
	Phase      string `xml:"SpoorFase"`
}

// Display returns the platform string shown to passengers.
func (p Platform) Display() string {
	return p.Number + p.Phase
}

type Station struct {
	Code       string `xml:"StationCode"`
	Type       string `xml:"Type"`
	ShortName  string `xml:"KorteNaam"`
	MediumName string `xml:"MiddelNaam"`
	LongName   string `xml:"LangeNaam"`
	UICCode    string `xml:"UICCode"`
}

// PlannedActual is the resolved pair of views for a repeated element. A
// field is either absent entirely (both nil), planned only, or carries both
// the plan and a live value. The feed never publishes a live value without
// its planned counterpart.
type PlannedActual[T any] struct {
	Planned *T
	Actual  *T
}

// ActualOrPlanned returns the live view when present, the planned view
// otherwise. An unchanged live view is simply omitted from the feed.
func (pa PlannedActual[T]) ActualOrPlanned() *T {
	if pa.Actual != nil {
		return pa.Actual
	}
	return pa.Planned
}

func resolveViews[T any](values []T, infoStatus func(T) string) PlannedActual[T] {
	var resolved PlannedActual[T]

	for i := range values {
		switch infoStatus(values[i]) {
		case InfoStatusPlanned:
			if resolved.Planned == nil {
				resolved.Planned = &values[i]
			}
		case InfoStatusActual:
			if resolved.Actual == nil {
				resolved.Actual = &values[i]
			}
		}
	}

	return resolved
}

func resolveTextViews(values []TextValue) PlannedActual[TextValue] {
	return resolveViews(values, func(v TextValue) string { return v.InfoStatus })
}

func resolvePlatformViews(values []Platform) PlannedActual[Platform] {
	return resolveViews(values, func(v Platform) string { return v.InfoStatus })
}
